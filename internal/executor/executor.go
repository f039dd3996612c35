// Package executor replays a single candle stream against one RiskPolicy and
// produces the resulting ExecutionResult. All evaluation is wick-aware: it
// distinguishes candle.Low/candle.High excursions from candle.Close.
package executor

import (
	"math"

	"callsim/internal/candle"
	"callsim/internal/policy"

	"github.com/shopspring/decimal"
)

// ExitReason enumerates why a trade closed.
type ExitReason string

const (
	ExitStopLoss       ExitReason = "stop_loss"
	ExitTakeProfit     ExitReason = "take_profit"
	ExitTimeStop       ExitReason = "time_stop"
	ExitTrailingStop   ExitReason = "trailing_stop"
	ExitHardStop       ExitReason = "hard_stop"
	ExitLadderComplete ExitReason = "ladder_complete"
	ExitEndOfData      ExitReason = "end_of_data"
	ExitNoEntry        ExitReason = "no_entry"
)

// Fees expresses the round-trip fee/slippage model applied on entry and exit.
type Fees struct {
	TakerFeeBps   float64
	SlippageBps   float64
}

// roundTripBps is the combined basis-point cost applied once for entry and
// once for exit: (taker_fee_bps + slippage_bps)*2.
func (f Fees) roundTripBps() float64 {
	return (f.TakerFeeBps + f.SlippageBps) * 2
}

// ExecutionResult is the per-call, per-policy outcome of a replay.
type ExecutionResult struct {
	RealizedReturnBps      float64
	StopOut                bool
	MaxAdverseExcursionBps float64
	TimeExposedMs          int64
	TailCapture            *float64
	EntryTsMs              int64
	ExitTsMs               int64
	EntryPx                float64
	ExitPx                 float64
	ExitReason             ExitReason
}

func noEntry() ExecutionResult {
	return ExecutionResult{ExitReason: ExitNoEntry}
}

// Run replays candles against p starting from alertTsMs and returns the
// resulting ExecutionResult. candles must be chronologically ordered and
// contain only candles that have already closed relative to the simulation
// boundary the caller is replaying under (the causal accessor in package
// candle enforces that upstream).
func Run(candles []candle.Candle, alertTsMs int64, p policy.RiskPolicy, fees Fees) ExecutionResult {
	return RunWithIntrabar(candles, alertTsMs, p, fees, defaultIntrabarFor(p))
}

// RunWithIntrabar is Run with an explicit intrabar resolution policy,
// overriding the per-variant default.
func RunWithIntrabar(candles []candle.Candle, alertTsMs int64, p policy.RiskPolicy, fees Fees, intrabar policy.IntrabarPolicy) ExecutionResult {
	entryIdx := firstEntryIndex(candles, alertTsMs)
	if entryIdx == -1 {
		return noEntry()
	}
	entry := candles[entryIdx]
	entryPx, _ := entry.Close.Float64()
	if !isFinitePositive(entryPx) {
		return noEntry()
	}
	tail := candles[entryIdx:]

	switch p.Kind {
	case policy.KindFixedStop:
		return runFixedStop(tail, entryPx, entry.TimestampMs(), *p.FixedStop, fees, intrabar)
	case policy.KindTimeStop:
		return runTimeStop(tail, entryPx, entry.TimestampMs(), alertTsMs, *p.TimeStop, fees)
	case policy.KindTrailingStop:
		return runTrailingStop(tail, entryPx, entry.TimestampMs(), *p.TrailingStop, fees, intrabar)
	case policy.KindLadder:
		return runLadder(tail, entryPx, entry.TimestampMs(), *p.Ladder, fees, intrabar)
	case policy.KindWashRebound:
		return runWashRebound(tail, entryPx, entry.TimestampMs(), *p.WashRebound, fees)
	case policy.KindCombo:
		return runCombo(candles, alertTsMs, *p.Combo, fees, intrabar)
	default:
		return noEntry()
	}
}

func defaultIntrabarFor(p policy.RiskPolicy) policy.IntrabarPolicy {
	return policy.IntrabarPolicy("STOP_FIRST")
}

// firstEntryIndex returns the index of the first candle with open timestamp
// (ms) >= alertTsMs, or -1 if none.
func firstEntryIndex(candles []candle.Candle, alertTsMs int64) int {
	for i, c := range candles {
		if c.TimestampMs() >= alertTsMs {
			return i
		}
	}
	return -1
}

func isFinitePositive(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f > 0
}

func f64(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

// trackExcursion updates running peak/MAE state given a new candle and
// returns the updated peak high and MAE (bps, always <= 0).
func trackExcursion(peakHigh, maeBps float64, c candle.Candle, entryPx float64) (float64, float64) {
	h := f64(c.High)
	l := f64(c.Low)
	if h > peakHigh {
		peakHigh = h
	}
	lowReturnBps := (l/entryPx - 1) * 10000
	if lowReturnBps < maeBps {
		maeBps = lowReturnBps
	}
	if maeBps > 0 {
		maeBps = 0
	}
	return peakHigh, maeBps
}

func tailCapture(realizedBps, peakHigh, entryPx float64) *float64 {
	denom := (peakHigh/entryPx - 1) * 10000
	if denom <= 0 {
		return nil
	}
	tc := realizedBps / denom
	if tc > 1 {
		tc = 1
	}
	if tc < 0 {
		tc = 0
	}
	return &tc
}

func netReturnBps(grossBps float64, fees Fees) float64 {
	return grossBps - fees.roundTripBps()
}

// resolveIntrabar resolves whether, on a single candle, the stop (low<=stopPx) or
// the target (high>=targetPx) wins when both conditions hold, honoring the
// requested intrabar policy. Returns (stopHit, targetHit) each reduced to at
// most one true given the ordering.
func resolveIntrabar(stopHit, targetHit bool, ib policy.IntrabarPolicy) (bool, bool) {
	if !stopHit || !targetHit {
		return stopHit, targetHit
	}
	switch ib {
	case policy.IntrabarTPFirst:
		return false, true
	case policy.IntrabarHighThenLow, policy.IntrabarLowThenHigh:
		// Without finer-grained intrabar path data both reduce to the
		// conservative stop-first behavior; the distinction only matters
		// for executors with tick-level reconstruction, which is out of
		// scope here.
		return true, false
	default: // STOP_FIRST
		return true, false
	}
}
