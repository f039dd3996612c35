// Package walkforward implements rolling out-of-sample (OOS) validation for
// the policy grid: split a call stream into overlapping in-sample (IS)
// windows used to pick a best-feasible policy, and out-of-sample (OOS)
// windows used to validate that choice against calls the optimizer never
// saw. The headline metric is the walk-forward efficiency ratio (WFER):
//
//	WFER = mean(OOS median return bps) / mean(IS median return bps)
//
// A WFER > 0.5 suggests the grid isn't simply overfit to whatever calls it
// was optimized against.
package walkforward

import (
	"context"
	"fmt"

	"callsim/internal/calls"
	"callsim/internal/candle"
	"callsim/internal/executor"
	"callsim/internal/optimizer"
	"callsim/internal/policy"
	"callsim/internal/scoring"
)

// Config defines one walk-forward validation run.
type Config struct {
	GridSpec    optimizer.GridSpec
	Fees        executor.Fees
	Constraints scoring.Constraints
	Shards      int

	// ISPeriodMs / OOSPeriodMs bound each sliding window, in alert-time
	// milliseconds. Defaults to 7 and 3 days respectively when zero.
	ISPeriodMs  int64
	OOSPeriodMs int64
}

func (c Config) withDefaults() Config {
	if c.ISPeriodMs <= 0 {
		c.ISPeriodMs = 7 * 24 * 3600 * 1000
	}
	if c.OOSPeriodMs <= 0 {
		c.OOSPeriodMs = 3 * 24 * 3600 * 1000
	}
	if c.Shards <= 0 {
		c.Shards = 8
	}
	return c
}

// Window describes one IS/OOS pair, in alert-time milliseconds.
type Window struct {
	Index    int
	ISStart  int64
	ISEnd    int64
	OOSStart int64
	OOSEnd   int64
}

// WindowResult holds the outcome of fitting on a window's IS calls and
// validating on its OOS calls.
type WindowResult struct {
	Window
	BestPolicyID       string
	ISMedianReturnBps  float64
	OOSEvaluated       int
	OOSMedianReturnBps float64
	OOSViolationCount  int
}

// Result is the aggregate output of a walk-forward run.
type Result struct {
	Config  Config
	Windows []WindowResult

	MeanISReturnBps  float64
	MeanOOSReturnBps float64
	WFER             float64
	PassRate         float64 // fraction of windows with positive OOS median return
}

// buildWindows slides forward by OOSPeriodMs starting at fullStartMs, same
// as the original IS/OOS anchoring scheme: each window's OOS period begins
// exactly where its IS period ends.
func buildWindows(fullStartMs, fullEndMs, isMs, oosMs int64) []Window {
	var windows []Window
	idx := 0
	for {
		isStart := fullStartMs + int64(idx)*oosMs
		isEnd := isStart + isMs
		oosStart := isEnd
		oosEnd := oosStart + oosMs
		if oosEnd > fullEndMs {
			break
		}
		windows = append(windows, Window{Index: idx, ISStart: isStart, ISEnd: isEnd, OOSStart: oosStart, OOSEnd: oosEnd})
		idx++
	}
	return windows
}

func callsInRange(callStream []calls.CallRecord, startMs, endMs int64) []calls.CallRecord {
	var out []calls.CallRecord
	for _, c := range callStream {
		if c.AlertTsMs >= startMs && c.AlertTsMs < endMs {
			out = append(out, c)
		}
	}
	return out
}

func evaluatePolicy(p policy.RiskPolicy, callStream []calls.CallRecord, candlesByCallID map[string][]candle.Candle, fees executor.Fees, constraints scoring.Constraints) scoring.Candidate {
	var results []executor.ExecutionResult
	for _, c := range callStream {
		res := executor.Run(candlesByCallID[c.CallID], c.AlertTsMs, p, fees)
		if res.ExitReason == executor.ExitNoEntry {
			continue
		}
		results = append(results, res)
	}
	return scoring.NewCandidate(results, constraints)
}

// Run splits callStream into sliding IS/OOS windows and, for each, finds the
// best feasible policy over the IS calls and validates it against the OOS
// calls. Returns an error if fullStartMs/fullEndMs can't form even one
// window, or if the grid itself fails to build.
func Run(ctx context.Context, callStream []calls.CallRecord, candlesByCallID map[string][]candle.Candle, fullStartMs, fullEndMs int64, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	grid, err := optimizer.BuildGrid(cfg.GridSpec)
	if err != nil {
		return nil, fmt.Errorf("walkforward: build grid: %w", err)
	}

	windows := buildWindows(fullStartMs, fullEndMs, cfg.ISPeriodMs, cfg.OOSPeriodMs)
	if len(windows) == 0 {
		return nil, fmt.Errorf("walkforward: range too short to form a single IS+OOS window (need >= %d ms)", cfg.ISPeriodMs+cfg.OOSPeriodMs)
	}

	opts := optimizer.Options{Fees: cfg.Fees, Constraints: cfg.Constraints, Shards: cfg.Shards}

	var winResults []WindowResult
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		isCalls := callsInRange(callStream, w.ISStart, w.ISEnd)
		oosCalls := callsInRange(callStream, w.OOSStart, w.OOSEnd)
		if len(isCalls) == 0 || len(oosCalls) == 0 {
			continue
		}

		isRes, err := optimizer.Run(ctx, grid, isCalls, candlesByCallID, opts)
		if err != nil {
			return nil, fmt.Errorf("walkforward: window %d IS fit: %w", w.Index, err)
		}
		if isRes.BestFeasible == nil {
			continue
		}

		oosCandidate := evaluatePolicy(isRes.BestFeasible.Policy, oosCalls, candlesByCallID, cfg.Fees, cfg.Constraints)

		winResults = append(winResults, WindowResult{
			Window:             w,
			BestPolicyID:       isRes.BestFeasible.CanonicalID,
			ISMedianReturnBps:  isRes.BestFeasible.Candidate.Summary.MedianReturnBps,
			OOSEvaluated:       oosCandidate.Summary.Count,
			OOSMedianReturnBps: oosCandidate.Summary.MedianReturnBps,
			OOSViolationCount:  oosCandidate.ViolationCount,
		})
	}

	if len(winResults) == 0 {
		return nil, fmt.Errorf("walkforward: no window produced a feasible IS policy with OOS calls to validate against")
	}

	result := &Result{Config: cfg, Windows: winResults}

	var sumIS, sumOOS float64
	var positive int
	for _, w := range winResults {
		sumIS += w.ISMedianReturnBps
		sumOOS += w.OOSMedianReturnBps
		if w.OOSMedianReturnBps > 0 {
			positive++
		}
	}
	n := float64(len(winResults))
	result.MeanISReturnBps = sumIS / n
	result.MeanOOSReturnBps = sumOOS / n
	result.PassRate = float64(positive) / n
	if result.MeanISReturnBps != 0 {
		result.WFER = result.MeanOOSReturnBps / result.MeanISReturnBps
	}

	return result, nil
}

// Verdict returns a human-readable summary of walk-forward quality, matching
// the thresholds used elsewhere in this codebase's backtest tooling.
func Verdict(r *Result) string {
	switch {
	case r.WFER >= 0.7:
		return "EXCELLENT — policy transfers to out-of-sample calls well"
	case r.WFER >= 0.5:
		return "GOOD — policy is deployable"
	case r.WFER >= 0.0:
		return "MARGINAL — live performance likely to underperform the in-sample fit"
	default:
		return "FAIL — policy loses money out-of-sample; do not deploy"
	}
}
