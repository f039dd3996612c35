// Package scoring implements the hard-contract score, constraint violations,
// and tie-break comparator used to rank policies (C6).
package scoring

import (
	"math"
	"sort"

	"callsim/internal/executor"
)

// Constraints are the configurable hard limits a policy's result set must
// satisfy to be feasible.
type Constraints struct {
	MaxStopOutRate      float64
	MinP95DrawdownBps   float64
	MaxMeanTimeExposedMs float64
}

// DefaultConstraints returns the default hard contract.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxStopOutRate:       0.30,
		MinP95DrawdownBps:    -3000,
		MaxMeanTimeExposedMs: 4 * 3600 * 1000,
	}
}

// Summary aggregates an ExecutionResult set (no_entry results already
// discarded by the caller).
type Summary struct {
	Count              int
	MeanReturnBps      float64
	MedianReturnBps    float64
	StopOutRate        float64
	P95DrawdownBps     float64
	MedianDDBps        float64
	MeanTimeExposedMs  float64
	MeanTailCapture    float64
}

// Summarize derives a Summary from a non-empty slice of ExecutionResult.
func Summarize(results []executor.ExecutionResult) Summary {
	n := len(results)
	if n == 0 {
		return Summary{}
	}

	returns := make([]float64, n)
	maes := make([]float64, n)
	var sumReturn, sumTimeExposed, sumTail float64
	var tailCount int
	var stopOuts int

	for i, r := range results {
		returns[i] = r.RealizedReturnBps
		maes[i] = r.MaxAdverseExcursionBps
		sumReturn += r.RealizedReturnBps
		sumTimeExposed += float64(r.TimeExposedMs)
		if r.StopOut {
			stopOuts++
		}
		if r.TailCapture != nil {
			sumTail += *r.TailCapture
			tailCount++
		}
	}

	sortedReturns := append([]float64(nil), returns...)
	sort.Float64s(sortedReturns)
	sortedMAE := append([]float64(nil), maes...)
	sort.Float64s(sortedMAE)

	meanTail := 0.0
	if tailCount > 0 {
		meanTail = sumTail / float64(tailCount)
	}

	return Summary{
		Count:             n,
		MeanReturnBps:     sumReturn / float64(n),
		MedianReturnBps:   median(sortedReturns),
		StopOutRate:       float64(stopOuts) / float64(n),
		P95DrawdownBps:    percentile(sortedMAE, 0.05),
		MedianDDBps:       median(sortedMAE),
		MeanTimeExposedMs: sumTimeExposed / float64(n),
		MeanTailCapture:   meanTail,
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile returns the p-th percentile (p in [0,1]) of an ascending-sorted
// slice using linear interpolation between the two closest ranks. MAE values are sorted ascending
// (most negative, i.e. worst, first), so the 95th percentile of drawdown
// severity is read from the low end of that order: percentile(sorted, 0.05).
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Violations reports which hard constraints a Summary breaches.
func Violations(s Summary, c Constraints) []string {
	var vs []string
	if s.StopOutRate > c.MaxStopOutRate {
		vs = append(vs, "stop_out_rate")
	}
	if s.P95DrawdownBps < c.MinP95DrawdownBps {
		vs = append(vs, "p95_drawdown_bps")
	}
	if s.MeanTimeExposedMs > c.MaxMeanTimeExposedMs {
		vs = append(vs, "mean_time_exposed_ms")
	}
	return vs
}

// Score is the additive hard-contract objective: -Inf when infeasible, else
// median_return_bps + mean_tail_capture*100 - median_dd_bps/100.
func Score(s Summary, c Constraints) float64 {
	if len(Violations(s, c)) > 0 {
		return math.Inf(-1)
	}
	return s.MedianReturnBps + s.MeanTailCapture*100 - s.MedianDDBps/100
}

// Candidate bundles a policy's summary, score, and violation count for
// ranking.
type Candidate struct {
	Summary       Summary
	Score         float64
	ViolationCount int
}

// NewCandidate builds a Candidate from an ExecutionResult set.
func NewCandidate(results []executor.ExecutionResult, c Constraints) Candidate {
	s := Summarize(results)
	return Candidate{
		Summary:        s,
		Score:          Score(s, c),
		ViolationCount: len(Violations(s, c)),
	}
}

// Compare implements the strict total comparator: returns >0 if a ranks
// strictly above b, <0 if below, 0 if tied on every tie-break.
func Compare(a, b Candidate) int {
	aFeasible := a.ViolationCount == 0
	bFeasible := b.ViolationCount == 0
	if aFeasible != bFeasible {
		if aFeasible {
			return 1
		}
		return -1
	}
	if !aFeasible {
		if a.ViolationCount != b.ViolationCount {
			return b.ViolationCount - a.ViolationCount // fewer violations wins
		}
	}
	if a.Score != b.Score {
		return sign(a.Score - b.Score)
	}
	if a.Summary.MeanTailCapture != b.Summary.MeanTailCapture {
		return sign(a.Summary.MeanTailCapture - b.Summary.MeanTailCapture)
	}
	if a.Summary.MedianReturnBps != b.Summary.MedianReturnBps {
		return sign(a.Summary.MedianReturnBps - b.Summary.MedianReturnBps)
	}
	if a.Summary.MedianDDBps != b.Summary.MedianDDBps {
		return sign(a.Summary.MedianDDBps - b.Summary.MedianDDBps)
	}
	return 0
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}
