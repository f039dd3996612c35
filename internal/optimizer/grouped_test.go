package optimizer

import (
	"context"
	"testing"

	"callsim/internal/calls"
	"callsim/internal/candle"
	"callsim/internal/capital"
)

func TestRunGroupedReevaluationOutcomesAreSortedByCaller(t *testing.T) {
	winner := []candle.Candle{
		cdl(0, 1.0, 1.0, 1.0, 1.0),
		cdl(3_600_000, 1.0, 5.0, 0.95, 4.5),
	}
	callStream := []calls.CallRecord{
		{CallID: "z1", CallerName: "zeta", Mint: "mintZ", Chain: calls.ChainSolana, AlertTsMs: 0},
		{CallID: "a1", CallerName: "alpha", Mint: "mintA", Chain: calls.ChainSolana, AlertTsMs: 0},
		{CallID: "m1", CallerName: "mike", Mint: "mintM", Chain: calls.ChainSolana, AlertTsMs: 0},
	}
	candlesByCallID := map[string][]candle.Candle{"z1": winner, "a1": winner, "m1": winner}

	paramGrid := []capital.V1Params{{SLMult: 0.9, TPMult: 2.0, MaxHoldHrs: 4}}
	cfg := capital.DefaultConfig(1000)
	grouped := DefaultGroupedConfig()

	for i := 0; i < 5; i++ {
		_, outcomes, err := RunGroupedReevaluation(context.Background(), callStream, candlesByCallID, paramGrid, cfg, grouped)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(outcomes) != 3 {
			t.Fatalf("run %d: expected 3 caller outcomes, got %d", i, len(outcomes))
		}
		for j := 1; j < len(outcomes); j++ {
			if outcomes[j-1].Caller >= outcomes[j].Caller {
				t.Fatalf("run %d: outcomes not sorted by caller: %+v", i, outcomes)
			}
		}
		if outcomes[0].Caller != "alpha" || outcomes[1].Caller != "mike" || outcomes[2].Caller != "zeta" {
			t.Fatalf("run %d: unexpected caller order: %+v", i, outcomes)
		}
	}
}

// TestDefaultV1ParamGridSpansExtremeParameterBounds checks that the default
// grid straddles DefaultGroupedConfig's MinSLMult cutoff on both sides, so
// FilterSurvivors has outlier candidates to drop rather than only ever seeing
// already-safe parameters, and that it has tp_mult values at or below
// MaxTPMult.
func TestDefaultV1ParamGridSpansExtremeParameterBounds(t *testing.T) {
	grid := DefaultV1ParamGrid()
	if len(grid) == 0 {
		t.Fatalf("expected a non-empty default grid")
	}
	cfg := DefaultGroupedConfig()
	var sawBelowMinSL, sawAtOrAboveMinSL, sawAtOrBelowMaxTP bool
	for _, p := range grid {
		if p.SLMult < cfg.MinSLMult {
			sawBelowMinSL = true
		} else {
			sawAtOrAboveMinSL = true
		}
		if p.TPMult <= cfg.MaxTPMult {
			sawAtOrBelowMaxTP = true
		}
	}
	if !sawBelowMinSL || !sawAtOrAboveMinSL {
		t.Fatalf("default grid should include sl_mult values on both sides of MinSLMult")
	}
	if !sawAtOrBelowMaxTP {
		t.Fatalf("default grid should include tp_mult values at or below MaxTPMult")
	}
}
