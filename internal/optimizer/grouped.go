package optimizer

import (
	"context"
	"sort"

	"callsim/internal/calls"
	"callsim/internal/candle"
	"callsim/internal/capital"
)

// CallerOutcome is one caller's best-parameter outcome from a per-caller V1
// sweep, expressed in the sl_mult/tp_mult shape the capital simulator (C5)
// consumes.
type CallerOutcome struct {
	Caller       string
	Params       capital.V1Params
	FinalCapital float64
}

// GroupedConfig bounds the collapsed/extreme-parameter heuristics used when
// folding per-caller V1 results into one grouped simulation.
type GroupedConfig struct {
	// MinSLMult / MaxTPMult are the default extreme-parameter cutoffs:
	// sl_mult < 0.88 or tp_mult > 4.0 is considered an outlier.
	MinSLMult float64
	MaxTPMult float64
}

// DefaultGroupedConfig returns the default heuristic cutoffs.
func DefaultGroupedConfig() GroupedConfig {
	return GroupedConfig{MinSLMult: 0.88, MaxTPMult: 4.0}
}

// DefaultV1ParamGrid returns a small, illustrative tp_mult/sl_mult/max_hold_hrs
// grid for the per-caller V1 sweep. Its sl_mult values fall on both sides of
// DefaultGroupedConfig's MinSLMult cutoff; its tp_mult values reach MaxTPMult
// but never exceed it.
func DefaultV1ParamGrid() []capital.V1Params {
	slMults := []float64{0.80, 0.88, 0.92}
	tpMults := []float64{1.5, 2.0, 3.0, 4.0}
	holdHrs := []float64{4, 12, 24}

	var grid []capital.V1Params
	for _, sl := range slMults {
		for _, tp := range tpMults {
			for _, hold := range holdHrs {
				grid = append(grid, capital.V1Params{SLMult: sl, TPMult: tp, MaxHoldHrs: hold})
			}
		}
	}
	return grid
}

// FilterSurvivors drops "collapsed" callers (best final_capital below the
// simulator's initial capital) and "extreme-parameter" callers (sl_mult
// below MinSLMult or tp_mult above MaxTPMult), returning the rest.
func FilterSurvivors(outcomes []CallerOutcome, initialCapital float64, cfg GroupedConfig) []CallerOutcome {
	var survivors []CallerOutcome
	for _, o := range outcomes {
		if o.FinalCapital < initialCapital {
			continue
		}
		if o.Params.SLMult < cfg.MinSLMult || o.Params.TPMult > cfg.MaxTPMult {
			continue
		}
		survivors = append(survivors, o)
	}
	return survivors
}

// AverageParams returns the mean sl_mult/tp_mult/max_hold_hrs across
// survivors. Returns the zero value if survivors is empty.
func AverageParams(survivors []CallerOutcome) capital.V1Params {
	if len(survivors) == 0 {
		return capital.V1Params{}
	}
	var sumTP, sumSL, sumHold float64
	for _, s := range survivors {
		sumTP += s.Params.TPMult
		sumSL += s.Params.SLMult
		sumHold += s.Params.MaxHoldHrs
	}
	n := float64(len(survivors))
	return capital.V1Params{TPMult: sumTP / n, SLMult: sumSL / n, MaxHoldHrs: sumHold / n}
}

// RunGroupedReevaluation computes each caller's best V1 outcome by trying
// every candidate in paramGrid against that caller's calls alone, filters
// survivors via FilterSurvivors, and runs one grouped simulation over every
// call using the averaged survivor parameters.
func RunGroupedReevaluation(_ context.Context, callStream []calls.CallRecord, candlesByCallID map[string][]candle.Candle, paramGrid []capital.V1Params, cfg capital.Config, grouped GroupedConfig) (capital.Result, []CallerOutcome, error) {
	partitions := PartitionByCaller(callStream)

	var outcomes []CallerOutcome
	for caller, callerCalls := range partitions {
		var best *CallerOutcome
		for _, params := range paramGrid {
			res, err := capital.Simulate(callerCalls, candlesByCallID, params, cfg)
			if err != nil {
				return capital.Result{}, nil, err
			}
			if best == nil || res.FinalCapital > best.FinalCapital {
				best = &CallerOutcome{Caller: caller, Params: params, FinalCapital: res.FinalCapital}
			}
		}
		if best != nil {
			outcomes = append(outcomes, *best)
		}
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Caller < outcomes[j].Caller })

	survivors := FilterSurvivors(outcomes, cfg.InitialCapital, grouped)
	avg := AverageParams(survivors)
	if len(survivors) == 0 {
		return capital.Result{}, outcomes, nil
	}

	groupedResult, err := capital.Simulate(callStream, candlesByCallID, avg, cfg)
	return groupedResult, outcomes, err
}
