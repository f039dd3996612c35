package executor

import (
	"callsim/internal/candle"
	"callsim/internal/policy"
)

func runTimeStop(tail []candle.Candle, entryPx float64, entryTsMs, alertTsMs int64, ts policy.TimeStop, fees Fees) ExecutionResult {
	deadline := alertTsMs + ts.MaxHoldMs
	var tpPx float64
	hasTP := ts.TakeProfitPct != nil
	if hasTP {
		tpPx = entryPx * (1 + *ts.TakeProfitPct)
	}

	peakHigh := entryPx
	maeBps := 0.0
	var last candle.Candle

	for _, c := range tail {
		last = c
		peakHigh, maeBps = trackExcursion(peakHigh, maeBps, c, entryPx)

		if hasTP && f64(c.High) >= tpPx {
			gross := (tpPx/entryPx - 1) * 10000
			return finishExecutionResult(entryPx, tpPx, entryTsMs, c.TimestampMs(), ExitTakeProfit, false, gross, maeBps, peakHigh, fees)
		}
		if c.TimestampMs() >= deadline {
			exitPx := f64(c.Close)
			gross := (exitPx/entryPx - 1) * 10000
			return finishExecutionResult(entryPx, exitPx, entryTsMs, c.TimestampMs(), ExitTimeStop, false, gross, maeBps, peakHigh, fees)
		}
	}

	exitPx := f64(last.Close)
	gross := (exitPx/entryPx - 1) * 10000
	return finishExecutionResult(entryPx, exitPx, entryTsMs, last.TimestampMs(), ExitEndOfData, false, gross, maeBps, peakHigh, fees)
}
