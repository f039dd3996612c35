package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"callsim/internal/candle"
)

type fakeUniverse struct {
	tokens []string
}

func (f fakeUniverse) Candidates(ctx context.Context, chain string) ([]string, error) {
	return f.tokens, nil
}

func TestPlanWorklistAppliesMintFilter(t *testing.T) {
	u := fakeUniverse{tokens: []string{"mintB", "mintA", "mintC"}}
	spec := IngestSpec{Chain: "solana", FromS: 1000, ToS: 2000, Mints: []string{"mintA", "mintC"}}

	items, err := PlanWorklist(context.Background(), u, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items after mint filter, got %d: %+v", len(items), items)
	}
	if items[0].Token != "mintA" || items[1].Token != "mintC" {
		t.Fatalf("expected sorted, filtered tokens, got %+v", items)
	}
}

func TestPlanWorklistNoFilterReturnsAll(t *testing.T) {
	u := fakeUniverse{tokens: []string{"mintB", "mintA"}}
	spec := IngestSpec{Chain: "solana", FromS: 0, ToS: 100}
	items, err := PlanWorklist(context.Background(), u, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected all tokens with no filter, got %+v", items)
	}
}

type fakeMarketData struct {
	failToken string
}

func (f fakeMarketData) FetchOHLCV(ctx context.Context, token, chain string, interval candle.Interval, fromS, toS int64) ([]candle.Candle, error) {
	if token == f.failToken {
		return nil, errors.New("boom")
	}
	return []candle.Candle{{}, {}}, nil
}

func (f fakeMarketData) FetchHistoricalPriceAt(ctx context.Context, token, chain string, unixS int64) (*PricePoint, error) {
	return nil, ErrNoData
}

func TestRateLimitedIngestorAccumulatesSummaryAcrossFailures(t *testing.T) {
	ingestor := RateLimitedIngestor{
		MarketData: fakeMarketData{failToken: "mintB"},
		Universe:   fakeUniverse{tokens: []string{"mintA", "mintB"}},
		Sleep:      func(time.Duration) {},
	}
	spec := IngestSpec{Chain: "solana", FromS: 0, ToS: 100, MaxRetries: 1}

	summary, err := ingestor.Ingest(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.WorklistGenerated != 2 || summary.ItemsProcessed != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.ItemsSucceeded != 1 || summary.ItemsFailed != 1 {
		t.Fatalf("expected one success and one failure, got %+v", summary)
	}
	if len(summary.Errors) != 1 || summary.Errors[0].Token != "mintB" {
		t.Fatalf("expected recorded error for mintB, got %+v", summary.Errors)
	}
}
