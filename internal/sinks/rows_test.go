package sinks

import (
	"testing"

	"callsim/internal/pathmetrics"
	"callsim/internal/scoring"
)

func TestNewPathMetricsRowAdaptsFields(t *testing.T) {
	t2x := int64(5000)
	r := pathmetrics.Row{AlertTsMs: 100, P0: 1.0, Hit2x: true, T2xMs: &t2x, PeakMultiple: 3.5}
	row := NewPathMetricsRow("call-1", r)
	if row.CallID != "call-1" || !row.Hit2x || row.T2xMs == nil || *row.T2xMs != 5000 {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestNewPolicyResultRowAdaptsFields(t *testing.T) {
	c := scoring.NewCandidate(nil, scoring.DefaultConstraints())
	row := NewPolicyResultRow("fixed_stop_0.2_1", c, true)
	if row.CanonicalPolicyID != "fixed_stop_0.2_1" || !row.IsBestFeasible {
		t.Fatalf("unexpected row: %+v", row)
	}
}
