package optimizer

import (
	"context"
	"sort"

	"callsim/internal/calls"
	"callsim/internal/candle"
	"callsim/internal/executor"
	"callsim/internal/policy"
	"callsim/internal/scoring"

	"golang.org/x/sync/errgroup"
)

// Ranked is one policy's evaluated outcome, ready for ranking.
type Ranked struct {
	Policy      policy.RiskPolicy
	CanonicalID string
	Candidate   scoring.Candidate
}

// Result is the optimizer's output for one call set: every evaluated policy
// sorted best-first by scoring.Compare, plus the best feasible policy (if
// any) and aggregate counts.
type Result struct {
	Ranked       []Ranked
	BestFeasible *Ranked
	Evaluated    int
	Discarded    int // no_entry results dropped before scoring
}

// Shards bounds concurrent grid evaluation. Defaults to 8 when <= 0.
type Options struct {
	Fees        executor.Fees
	Constraints scoring.Constraints
	Shards      int
}

// Run evaluates every policy in grid against every call in callStream,
// discards no_entry results, scores the remainder with package scoring, and
// returns policies ranked best-first. Grid evaluation is sharded across a
// bounded worker pool via errgroup; each worker owns a disjoint contiguous
// slice of the sorted grid, and results are reassembled in one deterministic
// pass over the original grid order so re-running with the same shard count
// reproduces identical output. ctx is checked between policy evaluations,
// never mid-candle.
func Run(ctx context.Context, grid []policy.RiskPolicy, callStream []calls.CallRecord, candlesByCallID map[string][]candle.Candle, opts Options) (Result, error) {
	shards := opts.Shards
	if shards <= 0 {
		shards = 8
	}
	if shards > len(grid) {
		shards = len(grid)
	}
	if shards == 0 {
		return Result{}, nil
	}

	evaluated := make([]Ranked, len(grid))
	discardedPerShard := make([]int, shards)

	g, gctx := errgroup.WithContext(ctx)
	chunkSize := (len(grid) + shards - 1) / shards

	for s := 0; s < shards; s++ {
		start := s * chunkSize
		end := start + chunkSize
		if start >= len(grid) {
			continue
		}
		if end > len(grid) {
			end = len(grid)
		}
		shardIdx := s

		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				p := grid[i]
				var results []executor.ExecutionResult
				for _, call := range callStream {
					res := executor.Run(candlesByCallID[call.CallID], call.AlertTsMs, p, opts.Fees)
					if res.ExitReason == executor.ExitNoEntry {
						discardedPerShard[shardIdx]++
						continue
					}
					results = append(results, res)
				}
				evaluated[i] = Ranked{
					Policy:      p,
					CanonicalID: p.CanonicalID(),
					Candidate:   scoring.NewCandidate(results, opts.Constraints),
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	discarded := 0
	for _, d := range discardedPerShard {
		discarded += d
	}

	sort.SliceStable(evaluated, func(i, j int) bool {
		return scoring.Compare(evaluated[i].Candidate, evaluated[j].Candidate) > 0
	})

	res := Result{Ranked: evaluated, Evaluated: len(evaluated), Discarded: discarded}
	for i := range evaluated {
		if evaluated[i].Candidate.ViolationCount == 0 {
			res.BestFeasible = &evaluated[i]
			break
		}
	}
	return res, nil
}

// PartitionByCaller groups calls by caller_name, preserving alert-time order
// within each partition.
func PartitionByCaller(callStream []calls.CallRecord) map[string][]calls.CallRecord {
	out := make(map[string][]calls.CallRecord)
	for _, c := range callStream {
		out[c.CallerName] = append(out[c.CallerName], c)
	}
	for _, bucket := range out {
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].AlertTsMs < bucket[j].AlertTsMs })
	}
	return out
}

// RunPerCaller partitions callStream by caller_name and runs Run
// independently per partition, returning the best feasible policy found for
// each caller that has one.
func RunPerCaller(ctx context.Context, grid []policy.RiskPolicy, callStream []calls.CallRecord, candlesByCallID map[string][]candle.Candle, opts Options) (map[string]Ranked, error) {
	partitions := PartitionByCaller(callStream)
	out := make(map[string]Ranked, len(partitions))
	for caller, callerCalls := range partitions {
		res, err := Run(ctx, grid, callerCalls, candlesByCallID, opts)
		if err != nil {
			return nil, err
		}
		if res.BestFeasible != nil {
			out[caller] = *res.BestFeasible
		}
	}
	return out, nil
}
