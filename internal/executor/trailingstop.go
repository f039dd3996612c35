package executor

import (
	"callsim/internal/candle"
	"callsim/internal/policy"
)

func runTrailingStop(tail []candle.Candle, entryPx float64, entryTsMs int64, ts policy.TrailingStop, fees Fees, intrabar policy.IntrabarPolicy) ExecutionResult {
	var hardStopPx float64
	hasHardStop := ts.HardStopPct != nil
	if hasHardStop {
		hardStopPx = entryPx * (1 - *ts.HardStopPct)
	}

	armed := false
	trailPeak := entryPx
	trailPx := 0.0

	peakHigh := entryPx
	maeBps := 0.0
	var last candle.Candle

	for _, c := range tail {
		last = c
		peakHigh, maeBps = trackExcursion(peakHigh, maeBps, c, entryPx)

		lo := f64(c.Low)
		hi := f64(c.High)

		// Hard stop has top priority regardless of arming state.
		if hasHardStop && lo <= hardStopPx {
			gross := (hardStopPx/entryPx - 1) * 10000
			return finishExecutionResult(entryPx, hardStopPx, entryTsMs, c.TimestampMs(), ExitHardStop, true, gross, maeBps, peakHigh, fees)
		}

		activationPx := entryPx * (1 + ts.ActivationPct)
		if !armed && hi >= activationPx {
			armed = true
			trailPeak = hi
			trailPx = trailPeak * (1 - ts.TrailPct)
		} else if armed && hi > trailPeak {
			trailPeak = hi
			trailPx = trailPeak * (1 - ts.TrailPct)
		}

		if armed && lo <= trailPx {
			gross := (trailPx/entryPx - 1) * 10000
			return finishExecutionResult(entryPx, trailPx, entryTsMs, c.TimestampMs(), ExitTrailingStop, false, gross, maeBps, peakHigh, fees)
		}
	}

	exitPx := f64(last.Close)
	gross := (exitPx/entryPx - 1) * 10000
	return finishExecutionResult(entryPx, exitPx, entryTsMs, last.TimestampMs(), ExitEndOfData, false, gross, maeBps, peakHigh, fees)
}
