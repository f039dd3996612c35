// Package pathmetrics computes the truth-layer path metrics for a call: hit
// multiples, time-to-target, drawdown, peak, and activity latency. It never
// inspects a policy; metrics here describe the candle path alone.
package pathmetrics

import (
	"math"

	"callsim/internal/candle"

	"github.com/shopspring/decimal"
)

// ActivityThresholdBps is the default absolute log-return magnitude used to
// flag the first "active" candle after an alert. It is a package constant;
// 50bps is the value used here.
const ActivityThresholdBps = 50.0

// Row is the truth-layer PathMetricsRow (run/caller/mint identity fields are
// attached by the caller; this package only computes the path-derived
// values).
type Row struct {
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

// Compute derives a Row from the alert timestamp and the chronological
// candle stream for the call's mint. candles must already be causally
// visible (see package candle); Compute performs no causality filtering
// itself.
func Compute(alertTsMs int64, candles []candle.Candle) Row {
	row := Row{AlertTsMs: alertTsMs}

	entryIdx := -1
	for i, c := range candles {
		if c.TimestampMs() >= alertTsMs {
			entryIdx = i
			break
		}
	}
	if entryIdx == -1 {
		return row
	}

	entry := candles[entryIdx]
	p0 := f64(entry.Close)
	row.P0 = p0
	if p0 <= 0 {
		return row
	}

	peakHigh := f64(entry.High)
	minLowReturnBps := 0.0
	var ddBefore2xBps *float64
	var activityMs *int64

	thresholds := [3]float64{2, 3, 4}
	hit := [3]bool{}
	tMs := [3]*int64{}

	checkActivity := func(c candle.Candle) {
		if activityMs != nil {
			return
		}
		hi := f64(c.High)
		lo := f64(c.Low)
		upBps := math.Log(hi/p0) * 10000
		downBps := -math.Log(lo/p0) * 10000
		if upBps > ActivityThresholdBps || downBps > ActivityThresholdBps {
			ms := c.TimestampMs() - alertTsMs
			activityMs = &ms
		}
	}

	checkActivity(entry)

	for i := entryIdx; i < len(candles); i++ {
		c := candles[i]
		hi := f64(c.High)
		lo := f64(c.Low)

		if hi > peakHigh {
			peakHigh = hi
		}
		lowReturnBps := (lo/p0 - 1) * 10000
		if lowReturnBps < minLowReturnBps {
			minLowReturnBps = lowReturnBps
		}

		if i != entryIdx {
			checkActivity(c)
		}

		for k, mult := range thresholds {
			if hit[k] {
				continue
			}
			if hi >= p0*mult {
				hit[k] = true
				ms := c.TimestampMs() - alertTsMs
				tMs[k] = &ms
			}
		}

		if !hit[0] {
			v := minLowReturnBps
			ddBefore2xBps = &v
		}
	}
	if !hit[0] {
		ddBefore2xBps = nil
	}

	row.Hit2x, row.T2xMs = hit[0], tMs[0]
	row.Hit3x, row.T3xMs = hit[1], tMs[1]
	row.Hit4x, row.T4xMs = hit[2], tMs[2]
	row.DDBps = minLowReturnBps
	row.DDTo2xBps = ddBefore2xBps
	row.AlertToActivityMs = activityMs
	row.PeakMultiple = peakHigh / p0
	return row
}

func f64(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
