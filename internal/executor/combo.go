package executor

import (
	"callsim/internal/candle"
	"callsim/internal/policy"
)

// runCombo evaluates every member policy independently over the same candle
// tail from the alert and keeps whichever exits earliest, ties broken by
// member declaration order.
func runCombo(candles []candle.Candle, alertTsMs int64, c policy.Combo, fees Fees, intrabar policy.IntrabarPolicy) ExecutionResult {
	var best ExecutionResult
	found := false

	for _, member := range c.Policies {
		res := RunWithIntrabar(candles, alertTsMs, member, fees, intrabar)
		if res.ExitReason == ExitNoEntry {
			continue
		}
		if !found || res.ExitTsMs < best.ExitTsMs {
			best = res
			found = true
		}
	}

	if !found {
		return noEntry()
	}
	return best
}
