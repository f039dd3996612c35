package walkforward

import (
	"context"
	"testing"

	"callsim/internal/calls"
	"callsim/internal/candle"
	"callsim/internal/optimizer"
	"callsim/internal/scoring"

	"github.com/shopspring/decimal"
)

func cdl(tsMs int64, o, h, l, c float64) candle.Candle {
	d := decimal.NewFromFloat
	return candle.Candle{TimestampS: tsMs / 1000, Open: d(o), High: d(h), Low: d(l), Close: d(c), Volume: d(1)}
}

func winningCandles(alertTsMs int64) []candle.Candle {
	return []candle.Candle{
		cdl(alertTsMs, 1.0, 1.0, 1.0, 1.0),
		cdl(alertTsMs+60000, 1.0, 5.0, 0.95, 4.5),
	}
}

func TestRunProducesWindowsAndWFER(t *testing.T) {
	dayMs := int64(24 * 3600 * 1000)
	var callStream []calls.CallRecord
	candlesByCallID := make(map[string][]candle.Candle)

	for i := 0; i < 20; i++ {
		alertTs := int64(i) * (dayMs / 2)
		id := "call-" + string(rune('a'+i))
		callStream = append(callStream, calls.CallRecord{
			CallID: id, CallerName: "alice", Mint: "mintA", Chain: calls.ChainSolana, AlertTsMs: alertTs,
		})
		candlesByCallID[id] = winningCandles(alertTs)
	}

	cfg := Config{
		GridSpec:    optimizer.DefaultGridSpec(),
		Constraints: scoring.DefaultConstraints(),
		ISPeriodMs:  4 * dayMs,
		OOSPeriodMs: 2 * dayMs,
		Shards:      2,
	}

	res, err := Run(context.Background(), callStream, candlesByCallID, 0, 10*dayMs, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Windows) == 0 {
		t.Fatalf("expected at least one window result")
	}
	for _, w := range res.Windows {
		if w.BestPolicyID == "" {
			t.Fatalf("expected a best policy id in window %d", w.Index)
		}
	}
	// Every call has the same candle path, so the IS-best policy earns the
	// same median return out of sample and WFER is exactly 1.
	if res.WFER != 1 {
		t.Fatalf("WFER = %v, want 1", res.WFER)
	}
}

func TestRunErrorsWhenRangeTooShort(t *testing.T) {
	cfg := Config{GridSpec: optimizer.DefaultGridSpec(), ISPeriodMs: 1000, OOSPeriodMs: 1000}
	_, err := Run(context.Background(), nil, nil, 0, 500, cfg)
	if err == nil {
		t.Fatalf("expected error for a range too short to form a window")
	}
}
