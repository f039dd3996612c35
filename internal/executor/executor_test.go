package executor

import (
	"math"
	"testing"

	"callsim/internal/candle"
	"callsim/internal/policy"

	"github.com/shopspring/decimal"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func mustPolicy(p policy.RiskPolicy, err error) policy.RiskPolicy {
	if err != nil {
		panic(err)
	}
	return p
}

func cdl(tsMs int64, o, h, l, c float64) candle.Candle {
	return candle.Candle{TimestampS: tsMs / 1000, Open: d(o), High: d(h), Low: d(l), Close: d(c), Volume: d(1)}
}

func approxEq(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s: got %v want %v", msg, got, want)
	}
}

// S1: FixedStop hit.
func TestFixedStopHit(t *testing.T) {
	p := mustPolicy(policy.NewFixedStop(0.2, ptrF(1.0)))
	candles := []candle.Candle{
		cdl(0, 1.0, 1.0, 1.0, 1.0),
		cdl(60000, 1.0, 1.05, 0.75, 0.9),
	}
	res := Run(candles, 0, p, Fees{})
	if res.ExitPx != 0.80 {
		t.Fatalf("exit px = %v, want 0.80", res.ExitPx)
	}
	if res.ExitReason != ExitStopLoss || !res.StopOut {
		t.Fatalf("exit reason = %v stopOut=%v", res.ExitReason, res.StopOut)
	}
	approxEq(t, res.RealizedReturnBps, -2000, 1e-6, "realized bps")
}

// S2: TakeProfit hit.
func TestTakeProfitHit(t *testing.T) {
	p := mustPolicy(policy.NewFixedStop(0.2, ptrF(1.0)))
	candles := []candle.Candle{
		cdl(0, 1.0, 1.0, 1.0, 1.0),
		cdl(60000, 1.0, 2.1, 0.95, 2.0),
	}
	res := Run(candles, 0, p, Fees{})
	if res.ExitPx != 2.0 || res.ExitReason != ExitTakeProfit {
		t.Fatalf("got px=%v reason=%v", res.ExitPx, res.ExitReason)
	}
	approxEq(t, res.RealizedReturnBps, 10000, 1e-6, "realized bps")
}

// S3: Ladder 2x fill, 50% remaining at end of data.
func TestLadderPartialFill(t *testing.T) {
	levels := []policy.LadderLevel{{Multiple: 2, Fraction: 0.5}, {Multiple: 3, Fraction: 0.3}, {Multiple: 4, Fraction: 0.2}}
	p := mustPolicy(policy.NewLadder(levels, nil))
	candles := []candle.Candle{
		cdl(0, 1.0, 1.0, 1.0, 1.0),
		cdl(60000, 1.0, 2.5, 1.8, 2.2),
	}
	res := Run(candles, 0, p, Fees{})
	if res.ExitReason != ExitEndOfData {
		t.Fatalf("exit reason = %v, want end_of_data", res.ExitReason)
	}
	wantGross := 0.5*10000 + 0.5*(2.2/1.0-1)*10000
	approxEq(t, res.RealizedReturnBps, wantGross, 1e-6, "ladder gross bps")
}

// S4: TrailingStop arms and fires.
func TestTrailingStopArmsAndFires(t *testing.T) {
	p := mustPolicy(policy.NewTrailingStop(0.2, 0.1, nil))
	candles := []candle.Candle{
		cdl(0, 1.0, 1.0, 1.0, 1.0),
		cdl(60000, 1.0, 1.5, 1.4, 1.5),
		cdl(120000, 1.3, 1.35, 1.30, 1.32),
	}
	res := Run(candles, 0, p, Fees{})
	if res.ExitReason != ExitTrailingStop {
		t.Fatalf("exit reason = %v, want trailing_stop", res.ExitReason)
	}
	approxEq(t, res.ExitPx, 1.35, 1e-9, "exit px")
}

// S5: intrabar stop-first default.
func TestIntrabarStopFirstDefault(t *testing.T) {
	p := mustPolicy(policy.NewFixedStop(0.1, ptrF(0.2)))
	candles := []candle.Candle{
		cdl(0, 1.0, 1.0, 1.0, 1.0),
		cdl(60000, 1.0, 1.25, 0.85, 1.0),
	}
	res := Run(candles, 0, p, Fees{})
	if res.ExitReason != ExitStopLoss {
		t.Fatalf("exit reason = %v, want stop_loss", res.ExitReason)
	}
	approxEq(t, res.ExitPx, 0.9, 1e-9, "exit px")
}

func TestNoEntryWhenNoCandlesAtOrAfterAlert(t *testing.T) {
	p := mustPolicy(policy.NewFixedStop(0.1, nil))
	candles := []candle.Candle{cdl(0, 1.0, 1.0, 1.0, 1.0)}
	res := Run(candles, 60000, p, Fees{})
	if res.ExitReason != ExitNoEntry {
		t.Fatalf("exit reason = %v, want no_entry", res.ExitReason)
	}
	if res.TimeExposedMs != 0 {
		t.Fatalf("time exposed = %v, want 0", res.TimeExposedMs)
	}
}

func TestMAEAlwaysNonPositive(t *testing.T) {
	p := mustPolicy(policy.NewFixedStop(0.5, ptrF(2.0)))
	candles := []candle.Candle{
		cdl(0, 1.0, 1.0, 1.0, 1.0),
		cdl(60000, 1.0, 1.1, 0.6, 1.0),
		cdl(120000, 1.0, 1.2, 0.7, 1.1),
	}
	res := Run(candles, 0, p, Fees{})
	if res.MaxAdverseExcursionBps > 0 {
		t.Fatalf("MAE = %v, must be <= 0", res.MaxAdverseExcursionBps)
	}
}

func TestComboPicksEarliestExit(t *testing.T) {
	fs := mustPolicy(policy.NewFixedStop(0.5, nil))
	ts := mustPolicy(policy.NewTimeStop(90000, nil))
	combo := mustPolicy(policy.NewCombo([]policy.RiskPolicy{fs, ts}))
	candles := []candle.Candle{
		cdl(0, 1.0, 1.0, 1.0, 1.0),
		cdl(60000, 1.0, 1.0, 1.0, 1.0),
		cdl(120000, 1.0, 1.0, 1.0, 1.0),
		cdl(180000, 1.0, 1.0, 1.0, 1.0),
	}
	res := Run(candles, 0, combo, Fees{})
	if res.ExitReason != ExitTimeStop {
		t.Fatalf("exit reason = %v, want time_stop (earlier exit)", res.ExitReason)
	}
	if res.ExitTsMs != 120000 {
		t.Fatalf("exit ts = %v, want 120000", res.ExitTsMs)
	}
}

func ptrF(f float64) *float64 { return &f }
