package ports

import (
	"context"
	"sort"
	"time"
)

// IngestSpec describes one OHLCV backfill request. Mint filtering, if
// requested, is applied by PlanWorklist itself rather than pushed down into
// whatever storage query enumerates candidate (token, chain) pairs, so
// planning stays a pure function of its inputs.
type IngestSpec struct {
	DuckDBPath     string
	Chain          string
	Interval       string
	FromS          int64
	ToS            int64
	PreWindowMin   int
	PostWindowMin  int
	Mints          []string // optional allowlist; empty means "all"
	CheckCoverage  bool
	RateLimitMs    int64
	MaxRetries     int
}

// WorkItem is one planned (token, window) unit of ingestion work.
type WorkItem struct {
	Token string
	Chain string
	FromS int64
	ToS   int64
}

// ItemError records a single failed work item without aborting the run.
type ItemError struct {
	Token string
	Err   string
}

// IngestSummary reports what a run did.
type IngestSummary struct {
	WorklistGenerated   int
	ItemsProcessed      int
	ItemsSucceeded      int
	ItemsFailed         int
	ItemsSkipped        int
	TotalCandlesFetched int
	DurationMs          int64
	Errors              []ItemError
}

// OhlcvIngestionPort backfills OHLCV candles for a spec's window.
type OhlcvIngestionPort interface {
	Ingest(ctx context.Context, spec IngestSpec) (IngestSummary, error)
}

// universe is supplied by the caller (e.g. a coverage-tracking store) and
// lists every known (token, chain) pair eligible for ingestion before mint
// filtering is applied.
type universe interface {
	Candidates(ctx context.Context, chain string) ([]string, error)
}

// PlanWorklist expands spec into a deterministic, sorted list of work
// items: one per candidate token widened by PreWindowMin/PostWindowMin, with
// spec.Mints applied as an allowlist filter entirely within this function.
func PlanWorklist(ctx context.Context, u universe, spec IngestSpec) ([]WorkItem, error) {
	candidates, err := u.Candidates(ctx, spec.Chain)
	if err != nil {
		return nil, err
	}

	allow := make(map[string]bool, len(spec.Mints))
	for _, m := range spec.Mints {
		allow[m] = true
	}

	fromS := spec.FromS - int64(spec.PreWindowMin)*60
	toS := spec.ToS + int64(spec.PostWindowMin)*60

	items := make([]WorkItem, 0, len(candidates))
	for _, token := range candidates {
		if len(allow) > 0 && !allow[token] {
			continue
		}
		items = append(items, WorkItem{Token: token, Chain: spec.Chain, FromS: fromS, ToS: toS})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Token < items[j].Token })
	return items, nil
}

// RateLimitedIngestor adapts a MarketDataPort into an OhlcvIngestionPort,
// fetching each planned item in sequence with a fixed inter-item delay and
// bounded retries, accumulating a summary rather than aborting on the first
// failure.
type RateLimitedIngestor struct {
	MarketData MarketDataPort
	Universe   universe
	Sleep      func(time.Duration) // injected so tests never actually sleep
}

func (r RateLimitedIngestor) Ingest(ctx context.Context, spec IngestSpec) (IngestSummary, error) {
	items, err := PlanWorklist(ctx, r.Universe, spec)
	if err != nil {
		return IngestSummary{}, err
	}

	summary := IngestSummary{WorklistGenerated: len(items)}
	sleep := r.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for i, item := range items {
		if ctx.Err() != nil {
			summary.ItemsSkipped += len(items) - i
			break
		}

		var fetchErr error
		for attempt := 0; attempt <= spec.MaxRetries; attempt++ {
			out, err := r.MarketData.FetchOHLCV(ctx, item.Token, item.Chain, intervalFromString(spec.Interval), item.FromS, item.ToS)
			if err == nil {
				summary.TotalCandlesFetched += len(out)
				fetchErr = nil
				break
			}
			fetchErr = err
		}

		summary.ItemsProcessed++
		if fetchErr != nil {
			summary.ItemsFailed++
			summary.Errors = append(summary.Errors, ItemError{Token: item.Token, Err: fetchErr.Error()})
		} else {
			summary.ItemsSucceeded++
		}

		if spec.RateLimitMs > 0 && i < len(items)-1 {
			sleep(time.Duration(spec.RateLimitMs) * time.Millisecond)
		}
	}

	return summary, nil
}
