// Package candle defines the immutable OHLCV record and a causal accessor
// that never exposes a candle before it has closed.
package candle

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Interval is one of the supported candle granularities.
type Interval string

const (
	Interval15s Interval = "15s"
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
)

// Seconds returns the interval's duration in seconds.
func (i Interval) Seconds() int64 {
	switch i {
	case Interval15s:
		return 15
	case Interval1m:
		return 60
	case Interval5m:
		return 300
	case Interval15m:
		return 900
	case Interval1h:
		return 3600
	default:
		return 0
	}
}

// Valid reports whether i is one of the closed set of supported intervals.
func (i Interval) Valid() bool {
	return i.Seconds() > 0
}

// Candle is an immutable OHLCV record. TimestampS is the open time in
// seconds UTC; the candle closes at TimestampS + interval_seconds.
type Candle struct {
	TimestampS int64
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Close      decimal.Decimal
	Volume     decimal.Decimal
}

// CloseS returns the close time of the candle for the given interval.
func (c Candle) CloseS(interval Interval) int64 {
	return c.TimestampS + interval.Seconds()
}

// CloseMs returns CloseS in milliseconds, matching the millisecond
// timestamps used throughout the policy/path-metrics layers.
func (c Candle) CloseMs(interval Interval) int64 {
	return c.CloseS(interval) * 1000
}

// TimestampMs returns the open time in milliseconds.
func (c Candle) TimestampMs() int64 {
	return c.TimestampS * 1000
}

// Validate checks the candle's internal OHLC invariant:
// low <= min(open,close) <= max(open,close) <= high, plus finiteness and
// positivity of price fields and a non-negative volume.
func (c Candle) Validate() error {
	if c.Open.IsNegative() || c.Open.IsZero() {
		return fmt.Errorf("candle: open must be positive, got %s", c.Open)
	}
	if c.Close.IsNegative() || c.Close.IsZero() {
		return fmt.Errorf("candle: close must be positive, got %s", c.Close)
	}
	if c.High.IsNegative() || c.High.IsZero() {
		return fmt.Errorf("candle: high must be positive, got %s", c.High)
	}
	if c.Low.IsNegative() || c.Low.IsZero() {
		return fmt.Errorf("candle: low must be positive, got %s", c.Low)
	}
	if c.Volume.IsNegative() {
		return fmt.Errorf("candle: volume must be non-negative, got %s", c.Volume)
	}
	lo := decimal.Min(c.Open, c.Close)
	hi := decimal.Max(c.Open, c.Close)
	if c.Low.GreaterThan(lo) {
		return fmt.Errorf("candle: low %s exceeds min(open,close) %s", c.Low, lo)
	}
	if c.High.LessThan(hi) {
		return fmt.Errorf("candle: high %s is below max(open,close) %s", c.High, hi)
	}
	return nil
}

// Series is a chronologically ordered, immutable run of candles for a single
// (mint, interval) pair. The accessor owns the backing array; queries return
// slices bounded by close time rather than copying.
type Series struct {
	Mint     string
	Interval Interval
	candles  []Candle
}

// NewSeries builds a Series from chronologically sorted candles. Candles
// must have strictly increasing TimestampS; NewSeries returns an error
// otherwise, since a non-monotonic stream would silently break causal
// ordering downstream.
func NewSeries(mint string, interval Interval, candles []Candle) (*Series, error) {
	if !interval.Valid() {
		return nil, fmt.Errorf("candle: unsupported interval %q", interval)
	}
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("candle: series %s index %d: %w", mint, i, err)
		}
		if i > 0 && c.TimestampS <= candles[i-1].TimestampS {
			return nil, fmt.Errorf("candle: series %s non-monotonic timestamp at index %d", mint, i)
		}
	}
	cp := make([]Candle, len(candles))
	copy(cp, candles)
	return &Series{Mint: mint, Interval: interval, candles: cp}, nil
}

// Len returns the number of candles held by the series.
func (s *Series) Len() int { return len(s.candles) }

// At returns candles visible at simulationTimeS honoring the causal
// contract: every returned candle c satisfies
// c.TimestampS+interval_seconds <= simulationTimeS, and, when lookbackS > 0,
// c.TimestampS >= simulationTimeS-lookbackS. No forming/partial candle is
// ever returned.
//
// Future-scramble invariant: for any two Series built from candle arrays
// that agree on every candle whose close time is <= T, At returns
// byte-identical results for all simulationTimeS <= T, because At only
// ever reads candles whose close time already fell inside that window.
func (s *Series) At(simulationTimeS int64, lookbackS int64) []Candle {
	closeSecs := s.Interval.Seconds()
	lo := int64(0)
	if lookbackS > 0 {
		lo = simulationTimeS - lookbackS
	}
	start, end := -1, -1
	for i, c := range s.candles {
		if c.TimestampS+closeSecs > simulationTimeS {
			break
		}
		if lookbackS > 0 && c.TimestampS < lo {
			continue
		}
		if start == -1 {
			start = i
		}
		end = i + 1
	}
	if start == -1 {
		return nil
	}
	return s.candles[start:end]
}

// FromEntry returns every candle whose open timestamp (in ms) is >= alertTsMs,
// in chronological order. This is the slice the policy executor and
// path-metrics computer walk forward from; it never includes a forming
// candle because Series only ever holds closed candles.
func (s *Series) FromEntry(alertTsMs int64) []Candle {
	alertS := alertTsMs / 1000
	if alertTsMs%1000 != 0 {
		alertS++
	}
	for i, c := range s.candles {
		if c.TimestampS >= alertS || c.TimestampMs() >= alertTsMs {
			return s.candles[i:]
		}
	}
	return nil
}

// LastClosed returns the most recent candle whose close time is <= t, or
// false if none exists.
func (s *Series) LastClosed(t int64) (Candle, bool) {
	closeSecs := s.Interval.Seconds()
	var best Candle
	found := false
	for _, c := range s.candles {
		if c.TimestampS+closeSecs > t {
			break
		}
		best = c
		found = true
	}
	return best, found
}

// All returns every candle in the series, oldest first. Callers must not
// mutate the returned slice.
func (s *Series) All() []Candle {
	return s.candles
}
