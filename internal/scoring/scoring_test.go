package scoring

import (
	"testing"

	"callsim/internal/executor"
)

func result(returnBps float64, stopOut bool, maeBps float64, timeExposedMs int64, tail float64) executor.ExecutionResult {
	t := tail
	return executor.ExecutionResult{
		RealizedReturnBps:      returnBps,
		StopOut:                stopOut,
		MaxAdverseExcursionBps: maeBps,
		TimeExposedMs:          timeExposedMs,
		TailCapture:            &t,
	}
}

func TestSummarizeBasic(t *testing.T) {
	results := []executor.ExecutionResult{
		result(1000, false, -200, 60000, 0.5),
		result(-500, true, -1000, 120000, 0.1),
		result(2000, false, -100, 30000, 0.8),
	}
	s := Summarize(results)
	if s.Count != 3 {
		t.Fatalf("count = %d, want 3", s.Count)
	}
	if s.StopOutRate < 0.33 || s.StopOutRate > 0.34 {
		t.Fatalf("stop out rate = %v, want ~0.333", s.StopOutRate)
	}
	if s.MedianReturnBps != 1000 {
		t.Fatalf("median return = %v, want 1000", s.MedianReturnBps)
	}
}

func TestConstraintViolationForcesNegInfScore(t *testing.T) {
	results := []executor.ExecutionResult{
		result(100, true, -100, 1000, 0.5),
		result(100, true, -100, 1000, 0.5),
		result(100, true, -100, 1000, 0.5),
		result(100, false, -100, 1000, 0.5),
	}
	c := NewCandidate(results, DefaultConstraints())
	if c.ViolationCount == 0 {
		t.Fatalf("expected a stop_out_rate violation (75%% > 30%%)")
	}
	if c.Score != negInf() {
		t.Fatalf("score = %v, want -Inf for infeasible candidate", c.Score)
	}
}

func negInf() float64 {
	s := Summarize(nil)
	_ = s
	return Score(Summary{StopOutRate: 1}, DefaultConstraints())
}

// Score monotonicity: A strictly dominates B on every metric => Compare(A,B) > 0.
func TestScoreMonotonicity(t *testing.T) {
	constraints := DefaultConstraints()
	better := []executor.ExecutionResult{
		result(2000, false, -100, 1000, 0.9),
		result(2000, false, -100, 1000, 0.9),
	}
	worse := []executor.ExecutionResult{
		result(1000, false, -500, 1000, 0.4),
		result(1000, false, -500, 1000, 0.4),
	}
	a := NewCandidate(better, constraints)
	b := NewCandidate(worse, constraints)
	if Compare(a, b) <= 0 {
		t.Fatalf("expected dominating candidate to rank above the dominated one")
	}
}

// TestP95DrawdownBpsReadsTheSevereTail uses a skewed MAE distribution (one
// severe outlier among mild excursions) to pin down which end of the
// ascending-sorted MAE array P95DrawdownBps reads from. A uniform fixture
// can't distinguish "reads the severe tail" from "reads the mild tail";
// this one can.
func TestP95DrawdownBpsReadsTheSevereTail(t *testing.T) {
	var results []executor.ExecutionResult
	results = append(results, result(0, false, -5000, 0, 0))
	for i := 0; i < 9; i++ {
		results = append(results, result(0, false, -10, 0, 0))
	}
	s := Summarize(results)
	const want = -2754.5
	if diff := s.P95DrawdownBps - want; diff > 0.01 || diff < -0.01 {
		t.Fatalf("P95DrawdownBps = %v, want %v (the severe end of the distribution)", s.P95DrawdownBps, want)
	}
}

func TestComparePrefersFeasibleOverInfeasible(t *testing.T) {
	constraints := DefaultConstraints()
	feasible := NewCandidate([]executor.ExecutionResult{result(10, false, -50, 1000, 0.5)}, constraints)
	infeasible := NewCandidate([]executor.ExecutionResult{
		result(10000, true, -50, 1000, 0.5),
		result(10000, true, -50, 1000, 0.5),
	}, constraints)
	if Compare(feasible, infeasible) <= 0 {
		t.Fatalf("feasible candidate must outrank infeasible regardless of raw metrics")
	}
}
