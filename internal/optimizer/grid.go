// Package optimizer implements the grid-search optimizer (C7): deterministic
// policy enumeration, concurrent evaluation over a call set, hard-contract
// scoring via package scoring, and per-caller partitioning.
package optimizer

import (
	"sort"

	"callsim/internal/policy"
)

// GridSpec enumerates the candidate parameter values per policy family. A
// nil/empty field disables that family entirely, except FixedTakeProfitPct:
// when it is empty, each FixedStopPct value yields one FixedStop with no
// take-profit.
type GridSpec struct {
	FixedStopPct       []float64
	FixedTakeProfitPct []float64
	TimeStopMaxHoldMs  []int64
	TrailingActivation []float64
	TrailingTrailPct   []float64
	LadderLevelSets    [][]policy.LadderLevel
}

// DefaultGridSpec returns a small, illustrative grid covering every V1
// policy family with a handful of values each.
func DefaultGridSpec() GridSpec {
	return GridSpec{
		FixedStopPct:       []float64{0.1, 0.2, 0.3},
		FixedTakeProfitPct: []float64{0.5, 1.0, 2.0},
		TimeStopMaxHoldMs:  []int64{3_600_000, 14_400_000},
		TrailingActivation: []float64{0.1, 0.2},
		TrailingTrailPct:   []float64{0.1, 0.2},
		LadderLevelSets: [][]policy.LadderLevel{
			{{Multiple: 2, Fraction: 0.5}, {Multiple: 3, Fraction: 0.3}, {Multiple: 4, Fraction: 0.2}},
		},
	}
}

// BuildGrid enumerates every policy implied by spec, sorted first by
// ascending numeric parameter value, then by policy.VariantOrder, matching
// a deterministic grid ordering.
func BuildGrid(spec GridSpec) ([]policy.RiskPolicy, error) {
	var grid []policy.RiskPolicy

	for _, stop := range sortedFloats(spec.FixedStopPct) {
		for _, tp := range sortedFloats(spec.FixedTakeProfitPct) {
			p, err := policy.NewFixedStop(stop, &tp)
			if err != nil {
				return nil, err
			}
			grid = append(grid, p)
		}
		if len(spec.FixedTakeProfitPct) == 0 {
			p, err := policy.NewFixedStop(stop, nil)
			if err != nil {
				return nil, err
			}
			grid = append(grid, p)
		}
	}

	for _, hold := range sortedInts(spec.TimeStopMaxHoldMs) {
		p, err := policy.NewTimeStop(hold, nil)
		if err != nil {
			return nil, err
		}
		grid = append(grid, p)
	}

	for _, act := range sortedFloats(spec.TrailingActivation) {
		for _, trail := range sortedFloats(spec.TrailingTrailPct) {
			p, err := policy.NewTrailingStop(act, trail, nil)
			if err != nil {
				return nil, err
			}
			grid = append(grid, p)
		}
	}

	for _, levels := range spec.LadderLevelSets {
		p, err := policy.NewLadder(levels, nil)
		if err != nil {
			return nil, err
		}
		grid = append(grid, p)
	}

	sort.SliceStable(grid, func(i, j int) bool {
		return policy.VariantOrder(grid[i].Kind) < policy.VariantOrder(grid[j].Kind)
	})

	return grid, nil
}

func sortedFloats(in []float64) []float64 {
	out := append([]float64(nil), in...)
	sort.Float64s(out)
	return out
}

func sortedInts(in []int64) []int64 {
	out := append([]int64(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
