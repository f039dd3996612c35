package executor

import (
	"math"

	"callsim/internal/candle"
	"callsim/internal/policy"
)

func runFixedStop(tail []candle.Candle, entryPx float64, entryTsMs int64, fs policy.FixedStop, fees Fees, intrabar policy.IntrabarPolicy) ExecutionResult {
	stopPx := entryPx * (1 - fs.StopPct)
	tpPx := math.Inf(1)
	if fs.TakeProfitPct != nil {
		tpPx = entryPx * (1 + *fs.TakeProfitPct)
	}

	peakHigh := entryPx
	maeBps := 0.0
	var last candle.Candle

	for _, c := range tail {
		last = c
		peakHigh, maeBps = trackExcursion(peakHigh, maeBps, c, entryPx)

		lo := f64(c.Low)
		hi := f64(c.High)
		stopHit := lo <= stopPx
		tpHit := hi >= tpPx
		stopWins, tpWins := resolveIntrabar(stopHit, tpHit, intrabar)

		if stopWins {
			gross := (stopPx/entryPx - 1) * 10000
			return finishExecutionResult(entryPx, stopPx, entryTsMs, c.TimestampMs(), ExitStopLoss, true, gross, maeBps, peakHigh, fees)
		}
		if tpWins {
			gross := (tpPx/entryPx - 1) * 10000
			return finishExecutionResult(entryPx, tpPx, entryTsMs, c.TimestampMs(), ExitTakeProfit, false, gross, maeBps, peakHigh, fees)
		}
	}

	exitPx := f64(last.Close)
	gross := (exitPx/entryPx - 1) * 10000
	return finishExecutionResult(entryPx, exitPx, entryTsMs, last.TimestampMs(), ExitEndOfData, false, gross, maeBps, peakHigh, fees)
}

func finishExecutionResult(entryPx, exitPx float64, entryTsMs, exitTsMs int64, reason ExitReason, stopOut bool, grossBps, maeBps, peakHigh float64, fees Fees) ExecutionResult {
	realized := netReturnBps(grossBps, fees)
	return ExecutionResult{
		RealizedReturnBps:      realized,
		StopOut:                stopOut,
		MaxAdverseExcursionBps: maeBps,
		TimeExposedMs:          exitTsMs - entryTsMs,
		TailCapture:            tailCapture(realized, peakHigh, entryPx),
		EntryTsMs:              entryTsMs,
		ExitTsMs:               exitTsMs,
		EntryPx:                entryPx,
		ExitPx:                 exitPx,
		ExitReason:             reason,
	}
}
