package capital

import (
	"testing"

	"callsim/internal/calls"
	"callsim/internal/candle"

	"github.com/shopspring/decimal"
)

func cdl(tsMs int64, o, h, l, c float64) candle.Candle {
	d := decimal.NewFromFloat
	return candle.Candle{TimestampS: tsMs / 1000, Open: d(o), High: d(h), Low: d(l), Close: d(c), Volume: d(1)}
}

// capital exhaustion: each call sizes to 100 (max_risk 20 / (1-0.8), and
// 200*0.5), so two simultaneous calls use up all 200 of free cash and a third
// concurrent call is skipped.
func TestCapitalExhaustionSkipsThirdCall(t *testing.T) {
	flat := []candle.Candle{
		cdl(0, 1.0, 1.0, 1.0, 1.0),
		cdl(3600_000, 1.0, 1.0, 1.0, 1.0),
		cdl(7200_000, 1.0, 1.0, 1.0, 1.0),
	}
	callStream := []calls.CallRecord{
		{CallID: "a", Mint: "mintA", Chain: calls.ChainSolana, AlertTsMs: 1},
		{CallID: "b", Mint: "mintB", Chain: calls.ChainSolana, AlertTsMs: 2},
		{CallID: "c", Mint: "mintC", Chain: calls.ChainSolana, AlertTsMs: 3},
	}
	candles := map[string][]candle.Candle{"a": flat, "b": flat, "c": flat}

	cfg := Config{InitialCapital: 200, MaxAllocationPct: 0.5, MaxRiskUSD: 20, MaxConcurrent: 25}
	params := V1Params{TPMult: 2.0, SLMult: 0.8, MaxHoldHrs: 100}

	res, err := Simulate(callStream, candles, params, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foundSkip := false
	for _, s := range res.Skips {
		if s.CallID == "c" && s.Kind == SkipNoCash {
			foundSkip = true
		}
	}
	if !foundSkip {
		t.Fatalf("expected call c to be skipped for insufficient capital, skips=%+v", res.Skips)
	}
}

func TestCashConservationInvariant(t *testing.T) {
	c1 := []candle.Candle{
		cdl(0, 1.0, 1.0, 1.0, 1.0),
		cdl(3600_000, 1.0, 2.5, 0.9, 2.0),
	}
	c2 := []candle.Candle{
		cdl(1000, 1.0, 1.0, 1.0, 1.0),
		cdl(3601_000, 1.0, 1.0, 0.5, 0.6),
	}
	callStream := []calls.CallRecord{
		{CallID: "a", Mint: "mintA", Chain: calls.ChainSolana, AlertTsMs: 0},
		{CallID: "b", Mint: "mintB", Chain: calls.ChainSolana, AlertTsMs: 1000},
	}
	candles := map[string][]candle.Candle{"a": c1, "b": c2}
	cfg := DefaultConfig(10_000)
	params := V1Params{TPMult: 2.0, SLMult: 0.8, MaxHoldHrs: 100}

	res, err := Simulate(callStream, candles, params, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sumPnl := 0.0
	for _, tr := range res.Trades {
		sumPnl += tr.PnL
	}
	got := res.FinalCapital - cfg.InitialCapital
	if diff := got - sumPnl; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("cash conservation violated: final-initial=%v, sum(pnl)=%v", got, sumPnl)
	}
}
