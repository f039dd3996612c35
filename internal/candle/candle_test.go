package candle

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mk(tsS int64, o, h, l, c float64) Candle {
	d := decimal.NewFromFloat
	return Candle{TimestampS: tsS, Open: d(o), High: d(h), Low: d(l), Close: d(c), Volume: d(1)}
}

func TestCandleValidateRejectsInvertedHighLow(t *testing.T) {
	c := mk(0, 1.0, 0.5, 0.9, 1.0) // high below max(open,close)
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error for high below open/close")
	}
}

func TestCandleValidateAcceptsWellFormedCandle(t *testing.T) {
	c := mk(0, 1.0, 1.2, 0.9, 1.1)
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewSeriesRejectsNonMonotonicTimestamps(t *testing.T) {
	candles := []Candle{mk(100, 1, 1, 1, 1), mk(100, 1, 1, 1, 1)}
	if _, err := NewSeries("mint", Interval1m, candles); err == nil {
		t.Fatalf("expected error for non-increasing timestamps")
	}
}

func TestAtNeverReturnsAFormingCandle(t *testing.T) {
	candles := []Candle{mk(0, 1, 1, 1, 1), mk(60, 1, 1, 1, 1), mk(120, 1, 1, 1, 1)}
	s, err := NewSeries("mint", Interval1m, candles)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}

	// At t=119, the candle opened at t=60 has not yet closed (closes at 120).
	got := s.At(119, 0)
	if len(got) != 1 || got[0].TimestampS != 0 {
		t.Fatalf("expected only the t=0 candle to be visible at t=119, got %+v", got)
	}

	// At t=120 the t=60 candle has just closed and becomes visible.
	got = s.At(120, 0)
	if len(got) != 2 || got[1].TimestampS != 60 {
		t.Fatalf("expected the t=60 candle visible at t=120, got %+v", got)
	}
}

// TestAtIsFutureScrambleInvariant checks that mutating candles after the
// simulation horizon never changes what At returns up to that horizon.
func TestAtIsFutureScrambleInvariant(t *testing.T) {
	base := []Candle{mk(0, 1, 1, 1, 1), mk(60, 1, 1, 1, 1), mk(120, 1, 1, 1, 1)}
	scrambled := []Candle{mk(0, 1, 1, 1, 1), mk(60, 1, 1, 1, 1), mk(120, 9, 20, 0.1, 15)}

	sBase, err := NewSeries("mint", Interval1m, base)
	if err != nil {
		t.Fatalf("NewSeries base: %v", err)
	}
	sScrambled, err := NewSeries("mint", Interval1m, scrambled)
	if err != nil {
		t.Fatalf("NewSeries scrambled: %v", err)
	}

	// Horizon t=120: the t=120 candle (closes at 180) is not yet visible in
	// either series, so scrambling its OHLC must not change the result.
	gotBase := sBase.At(120, 0)
	gotScrambled := sScrambled.At(120, 0)
	if len(gotBase) != len(gotScrambled) {
		t.Fatalf("future scramble changed visible candle count: %d vs %d", len(gotBase), len(gotScrambled))
	}
	for i := range gotBase {
		if !gotBase[i].Close.Equal(gotScrambled[i].Close) {
			t.Fatalf("future scramble leaked into closed candle %d", i)
		}
	}
}

func TestFromEntrySkipsCandlesBeforeAlert(t *testing.T) {
	candles := []Candle{mk(0, 1, 1, 1, 1), mk(60, 1, 1, 1, 1), mk(120, 1, 1, 1, 1)}
	s, err := NewSeries("mint", Interval1m, candles)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	got := s.FromEntry(65_000)
	if len(got) != 1 || got[0].TimestampS != 120 {
		t.Fatalf("expected only the t=120 candle from entry at 65000ms, got %+v", got)
	}
}

func TestLastClosedReturnsFalseBeforeFirstClose(t *testing.T) {
	candles := []Candle{mk(0, 1, 1, 1, 1)}
	s, err := NewSeries("mint", Interval1m, candles)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	if _, ok := s.LastClosed(30); ok {
		t.Fatalf("expected no closed candle at t=30 for a candle opened at t=0 on a 1m interval")
	}
	if _, ok := s.LastClosed(60); !ok {
		t.Fatalf("expected the t=0 candle to be closed by t=60")
	}
}
