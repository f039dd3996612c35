// Package capital implements the capital-aware multi-call portfolio
// simulator (C5): position sizing, a concurrency cap, and cash accounting
// across an alert-ordered stream of calls.
package capital

import (
	"fmt"
	"math"
	"sort"

	"callsim/internal/calls"
	"callsim/internal/candle"
)

// ExitReason mirrors the subset of package executor's exit reasons the V1
// simulator can produce.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTimeStop   ExitReason = "time_stop"
	ExitTakeProfit ExitReason = "take_profit"
	ExitEndOfData  ExitReason = "end_of_data"
)

// priority implements the event-kind tie-break ordering, restricted to the
// reasons the V1 simulator can emit.
func priority(r ExitReason) int {
	switch r {
	case ExitStopLoss:
		return 0
	case ExitTimeStop:
		return 1
	case ExitTakeProfit:
		return 2
	default: // end_of_data
		return 3
	}
}

// V1Params is the simple tp/sl-multiple model the capital simulator drives,
// independent of the richer RiskPolicy grid in package policy.
type V1Params struct {
	TPMult     float64
	SLMult     float64
	MaxHoldHrs float64
}

// Config bounds sizing and concurrency; zero fields take the package defaults.
type Config struct {
	InitialCapital   float64
	MaxAllocationPct float64
	MaxRiskUSD       float64
	MaxConcurrent    int
}

// DefaultConfig returns the default sizing/concurrency configuration for the
// given initial capital.
func DefaultConfig(initialCapital float64) Config {
	return Config{
		InitialCapital:   initialCapital,
		MaxAllocationPct: 0.04,
		MaxRiskUSD:       200,
		MaxConcurrent:    25,
	}
}

func (c Config) withDefaults() Config {
	if c.InitialCapital <= 0 {
		c.InitialCapital = 10_000
	}
	if c.MaxAllocationPct <= 0 {
		c.MaxAllocationPct = 0.04
	}
	if c.MaxRiskUSD <= 0 {
		c.MaxRiskUSD = 200
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 25
	}
	return c
}

// Trade is one closed position.
type Trade struct {
	CallID     string
	EntryTsMs  int64
	ExitTsMs   int64
	EntryPx    float64
	ExitPx     float64
	SizeUSD    float64
	PnL        float64
	ExitReason ExitReason
}

// SkipKind reports why an incoming call never opened a position.
type SkipKind string

const (
	SkipCapacity SkipKind = "capacity_skipped"
	SkipNoCash   SkipKind = "no_capital"
	SkipNoEntry  SkipKind = "no_entry"
)

// Skip records one call that did not result in a position.
type Skip struct {
	CallID string
	Kind   SkipKind
}

// Result is the simulator's output for a full call stream.
type Result struct {
	FinalCapital float64
	TotalReturn  float64
	PeakEquity   float64
	MaxDrawdown  float64
	Trades       []Trade
	Skips        []Skip
}

type openPosition struct {
	callID       string
	entryPx      float64
	entryTsMs    int64
	sizeUSD      float64
	exitTsMs     int64
	exitPx       float64
	exitReason   ExitReason
}

// Simulate replays calls in alert-time order against V1Params, sizing each
// new position from currently free capital and respecting the concurrency
// cap. candlesByCallID must contain, for each call, the full chronological
// candle stream for that call's mint at the configured interval.
func Simulate(callStream []calls.CallRecord, candlesByCallID map[string][]candle.Candle, params V1Params, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	if params.SLMult >= 1 {
		return Result{}, fmt.Errorf("capital: sl_mult must be < 1, got %v", params.SLMult)
	}

	ordered := make([]calls.CallRecord, len(callStream))
	copy(ordered, callStream)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].AlertTsMs < ordered[j].AlertTsMs })

	freeCash := cfg.InitialCapital
	equity := cfg.InitialCapital
	peakEquity := equity
	maxDrawdown := 0.0

	var open []openPosition
	var trades []Trade
	var skips []Skip

	closeDueBefore := func(tsMs int64) {
		for {
			idx, found := earliestDue(open, tsMs)
			if !found {
				return
			}
			pos := open[idx]
			open = append(open[:idx], open[idx+1:]...)

			pnl := pos.sizeUSD * (pos.exitPx/pos.entryPx - 1)
			freeCash += pos.sizeUSD + pnl
			equity += pnl
			if equity > peakEquity {
				peakEquity = equity
			}
			if peakEquity > 0 {
				dd := (peakEquity - equity) / peakEquity
				if dd > maxDrawdown {
					maxDrawdown = dd
				}
			}

			trades = append(trades, Trade{
				CallID:     pos.callID,
				EntryTsMs:  pos.entryTsMs,
				ExitTsMs:   pos.exitTsMs,
				EntryPx:    pos.entryPx,
				ExitPx:     pos.exitPx,
				SizeUSD:    pos.sizeUSD,
				PnL:        pnl,
				ExitReason: pos.exitReason,
			})
		}
	}

	for _, call := range ordered {
		closeDueBefore(call.AlertTsMs)

		if len(open) >= cfg.MaxConcurrent {
			skips = append(skips, Skip{CallID: call.CallID, Kind: SkipCapacity})
			continue
		}

		candles := candlesByCallID[call.CallID]
		entryIdx := firstEntryIndex(candles, call.AlertTsMs)
		if entryIdx == -1 {
			skips = append(skips, Skip{CallID: call.CallID, Kind: SkipNoEntry})
			continue
		}
		entry := candles[entryIdx]
		entryPx := f64(entry.Close)
		if !isFinitePositive(entryPx) {
			skips = append(skips, Skip{CallID: call.CallID, Kind: SkipNoEntry})
			continue
		}

		sizeUSD := math.Min(cfg.MaxRiskUSD/(1-params.SLMult), math.Min(equity*cfg.MaxAllocationPct, freeCash))
		if sizeUSD <= 0 {
			skips = append(skips, Skip{CallID: call.CallID, Kind: SkipNoCash})
			continue
		}

		tpPx := entryPx * params.TPMult
		slPx := entryPx * params.SLMult
		timeExitTsMs := entry.TimestampMs() + int64(params.MaxHoldHrs*3600*1000)

		exitTsMs, exitPx, reason := walkToExit(candles[entryIdx:], tpPx, slPx, timeExitTsMs)

		freeCash -= sizeUSD
		open = append(open, openPosition{
			callID:     call.CallID,
			entryPx:    entryPx,
			entryTsMs:  entry.TimestampMs(),
			sizeUSD:    sizeUSD,
			exitTsMs:   exitTsMs,
			exitPx:     exitPx,
			exitReason: reason,
		})
	}

	// Drain any positions still open at the end of the call stream.
	closeDueBefore(math.MaxInt64)

	return Result{
		FinalCapital: freeCash,
		TotalReturn:  freeCash / cfg.InitialCapital,
		PeakEquity:   peakEquity,
		MaxDrawdown:  maxDrawdown,
		Trades:       trades,
		Skips:        skips,
	}, nil
}

// earliestDue returns the index of the open position whose exit event is the
// earliest at-or-before tsMs, tie-broken by (call_id, event_kind_priority) as
// required by the k-way merge across concurrently open positions.
func earliestDue(open []openPosition, tsMs int64) (int, bool) {
	best := -1
	for i, p := range open {
		if p.exitTsMs > tsMs {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		if less(p, open[best]) {
			best = i
		}
	}
	return best, best != -1
}

func less(a, b openPosition) bool {
	if a.exitTsMs != b.exitTsMs {
		return a.exitTsMs < b.exitTsMs
	}
	if a.callID != b.callID {
		return a.callID < b.callID
	}
	return priority(a.exitReason) < priority(b.exitReason)
}

// walkToExit replays a candle tail against the V1 tp/sl/time model,
// resolving same-candle stop/time/take-profit collisions by priority order
// (stop_loss > time_stop > take_profit).
func walkToExit(tail []candle.Candle, tpPx, slPx float64, timeExitTsMs int64) (int64, float64, ExitReason) {
	var last candle.Candle
	for _, c := range tail {
		last = c
		lo := f64(c.Low)
		hi := f64(c.High)

		if lo <= slPx {
			return c.TimestampMs(), slPx, ExitStopLoss
		}
		if c.TimestampMs() >= timeExitTsMs {
			return c.TimestampMs(), f64(c.Close), ExitTimeStop
		}
		if hi >= tpPx {
			return c.TimestampMs(), tpPx, ExitTakeProfit
		}
	}
	return last.TimestampMs(), f64(last.Close), ExitEndOfData
}

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

func f64(d interface{ Float64() (float64, bool) }) float64 {
	v, _ := d.Float64()
	return v
}
