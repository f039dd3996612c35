package executor

import (
	"callsim/internal/candle"
	"callsim/internal/policy"
)

type washState int

const (
	stateInPosition washState = iota
	stateWaitForWash
	stateWaitForRebound
)

// runWashRebound walks the candle tail through the three-state
// trail/wash/rebound machine, re-entering on rebound up to MaxReentries times
// and accumulating the net return across every leg.
func runWashRebound(tail []candle.Candle, entryPx float64, entryTsMs int64, w policy.WashRebound, fees Fees) ExecutionResult {
	state := stateInPosition
	legEntryPx := entryPx
	trailPeak := entryPx
	trailPx := legEntryPx * (1 - w.TrailPct)

	var peakAtExit, washLow float64
	candlesInWaitForWash := 0
	reentries := 0

	totalNetBps := 0.0
	lastExitReason := ExitEndOfData
	lastExitPx := entryPx

	peakHigh := entryPx
	maeBps := 0.0
	var last candle.Candle
	var lastExitTsMs int64
	sawCandle := false

	for _, c := range tail {
		last = c
		sawCandle = true
		lastExitTsMs = c.TimestampMs()
		peakHigh, maeBps = trackExcursion(peakHigh, maeBps, c, entryPx)

		lo := f64(c.Low)
		hi := f64(c.High)

		switch state {
		case stateInPosition:
			if hi > trailPeak {
				trailPeak = hi
				trailPx = trailPeak * (1 - w.TrailPct)
			}
			if lo <= trailPx {
				grossBps := (trailPx/legEntryPx - 1) * 10000
				totalNetBps += netReturnBps(grossBps, fees)
				lastExitReason = ExitTrailingStop
				lastExitPx = trailPx
				peakAtExit = trailPeak
				state = stateWaitForWash
				candlesInWaitForWash = 0
			}
		case stateWaitForWash:
			candlesInWaitForWash++
			washLevel := peakAtExit * (1 - w.WashPct)
			if lo <= washLevel && candlesInWaitForWash >= w.CooldownCandles {
				washLow = lo
				state = stateWaitForRebound
			}
		case stateWaitForRebound:
			reboundPx := washLow * (1 + w.ReboundPct)
			if hi >= reboundPx {
				if reentries >= w.MaxReentries {
					// No more re-entries allowed; the position stays closed.
					return finishWashResult(entryPx, lastExitPx, entryTsMs, lastExitTsMs, lastExitReason, totalNetBps, maeBps, peakHigh)
				}
				reentries++
				legEntryPx = reboundPx
				trailPeak = legEntryPx
				trailPx = legEntryPx * (1 - w.TrailPct)
				state = stateInPosition
			}
		}
	}

	if state == stateInPosition && sawCandle {
		exitPx := f64(last.Close)
		grossBps := (exitPx/legEntryPx - 1) * 10000
		totalNetBps += netReturnBps(grossBps, fees)
		lastExitReason = ExitEndOfData
		lastExitPx = exitPx
	} else if lastExitReason != ExitTrailingStop {
		lastExitReason = ExitEndOfData
	}

	return finishWashResult(entryPx, lastExitPx, entryTsMs, lastExitTsMs, lastExitReason, totalNetBps, maeBps, peakHigh)
}

func finishWashResult(entryPx, exitPx float64, entryTsMs, exitTsMs int64, reason ExitReason, totalNetBps, maeBps, peakHigh float64) ExecutionResult {
	return ExecutionResult{
		RealizedReturnBps:      totalNetBps,
		StopOut:                false,
		MaxAdverseExcursionBps: maeBps,
		TimeExposedMs:          exitTsMs - entryTsMs,
		TailCapture:            tailCapture(totalNetBps, peakHigh, entryPx),
		EntryTsMs:              entryTsMs,
		ExitTsMs:               exitTsMs,
		EntryPx:                entryPx,
		ExitPx:                 exitPx,
		ExitReason:             reason,
	}
}
