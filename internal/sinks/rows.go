package sinks

import (
	"callsim/internal/pathmetrics"
	"callsim/internal/scoring"
)

// PathMetricsRow is the persisted shape of one call's path_metrics row.
type PathMetricsRow struct {
	CallID            string
	AlertTsMs         int64
	P0                float64
	Hit2x             bool
	T2xMs             *int64
	Hit3x             bool
	T3xMs             *int64
	Hit4x             bool
	T4xMs             *int64
	DDBps             float64
	DDTo2xBps         *float64
	AlertToActivityMs *int64
	PeakMultiple      float64
}

// NewPathMetricsRow adapts a pathmetrics.Row for persistence.
func NewPathMetricsRow(callID string, r pathmetrics.Row) PathMetricsRow {
	return PathMetricsRow{
		CallID:            callID,
		AlertTsMs:         r.AlertTsMs,
		P0:                r.P0,
		Hit2x:             r.Hit2x,
		T2xMs:             r.T2xMs,
		Hit3x:             r.Hit3x,
		T3xMs:             r.T3xMs,
		Hit4x:             r.Hit4x,
		T4xMs:             r.T4xMs,
		DDBps:             r.DDBps,
		DDTo2xBps:         r.DDTo2xBps,
		AlertToActivityMs: r.AlertToActivityMs,
		PeakMultiple:      r.PeakMultiple,
	}
}

// PolicyResultRow is the persisted shape of one policy's optimizer outcome row.
type PolicyResultRow struct {
	CanonicalPolicyID string
	Evaluated         int
	ViolationCount    int
	MeanReturnBps     float64
	MedianReturnBps   float64
	StopOutRate       float64
	P95DrawdownBps    float64
	MedianDDBps       float64
	MeanTailCapture   float64
	Score             float64
	IsBestFeasible    bool
}

// NewPolicyResultRow adapts an optimizer candidate for persistence.
func NewPolicyResultRow(canonicalID string, c scoring.Candidate, isBestFeasible bool) PolicyResultRow {
	return PolicyResultRow{
		CanonicalPolicyID: canonicalID,
		Evaluated:         c.Summary.Count,
		ViolationCount:    c.ViolationCount,
		MeanReturnBps:     c.Summary.MeanReturnBps,
		MedianReturnBps:   c.Summary.MedianReturnBps,
		StopOutRate:       c.Summary.StopOutRate,
		P95DrawdownBps:    c.Summary.P95DrawdownBps,
		MedianDDBps:       c.Summary.MedianDDBps,
		MeanTailCapture:   c.Summary.MeanTailCapture,
		Score:             c.Score,
		IsBestFeasible:    isBestFeasible,
	}
}

// RunRow is the persisted shape of one runs row.
type RunRow struct {
	RunID           string
	Command         string
	StrategyID      string
	Mint            string
	CallerName      string
	AlertTsMs       int64
	StartedAt       int64 // unix ms, supplied by the caller (never time.Now() inside this package)
	GridFingerprint uint64
}
