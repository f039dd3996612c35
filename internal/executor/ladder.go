package executor

import (
	"callsim/internal/candle"
	"callsim/internal/policy"
)

// runLadder scales out of a position across ascending multiples of entry
// price. Levels are already sorted ascending by policy.NewLadder.
func runLadder(tail []candle.Candle, entryPx float64, entryTsMs int64, l policy.Ladder, fees Fees, intrabar policy.IntrabarPolicy) ExecutionResult {
	var stopPx float64
	hasStop := l.StopPct != nil
	if hasStop {
		stopPx = entryPx * (1 - *l.StopPct)
	}

	hit := make([]bool, len(l.Levels))
	remaining := 1.0
	grossBps := 0.0

	peakHigh := entryPx
	maeBps := 0.0
	var last candle.Candle
	var lastExitTsMs int64

	for _, c := range tail {
		last = c
		lastExitTsMs = c.TimestampMs()
		peakHigh, maeBps = trackExcursion(peakHigh, maeBps, c, entryPx)

		lo := f64(c.Low)
		hi := f64(c.High)

		stopHit := hasStop && remaining > 0 && lo <= stopPx
		// A level counts as "triggered this candle" only if not yet filled.
		anyLevelHit := false
		for i, lvl := range l.Levels {
			if !hit[i] && hi >= entryPx*lvl.Multiple {
				anyLevelHit = true
				break
			}
		}
		stopWins, levelsWin := resolveIntrabar(stopHit, anyLevelHit, intrabar)

		if stopWins {
			grossBps += remaining * (stopPx/entryPx - 1) * 10000
			remaining = 0
			return finishExecutionResult(entryPx, stopPx, entryTsMs, c.TimestampMs(), ExitStopLoss, true, grossBps, maeBps, peakHigh, fees)
		}

		if levelsWin {
			for i, lvl := range l.Levels {
				if hit[i] || remaining <= 0 {
					continue
				}
				if hi < entryPx*lvl.Multiple {
					continue
				}
				fill := lvl.Fraction
				if fill > remaining {
					fill = remaining
				}
				fillPx := entryPx * lvl.Multiple
				grossBps += fill * (fillPx/entryPx - 1) * 10000
				remaining -= fill
				hit[i] = true
			}
			if remaining <= 1e-9 {
				return finishExecutionResult(entryPx, entryPx*l.Levels[len(l.Levels)-1].Multiple, entryTsMs, c.TimestampMs(), ExitLadderComplete, false, grossBps, maeBps, peakHigh, fees)
			}
		}
	}

	exitPx := f64(last.Close)
	grossBps += remaining * (exitPx/entryPx - 1) * 10000
	return finishExecutionResult(entryPx, exitPx, entryTsMs, lastExitTsMs, ExitEndOfData, false, grossBps, maeBps, peakHigh, fees)
}
