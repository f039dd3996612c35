package ports

import (
	"github.com/shopspring/decimal"

	"callsim/internal/candle"
)

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func intervalFromString(s string) candle.Interval {
	switch s {
	case "15s":
		return candle.Interval15s
	case "1m":
		return candle.Interval1m
	case "5m":
		return candle.Interval5m
	case "15m":
		return candle.Interval15m
	case "1h":
		return candle.Interval1h
	default:
		return candle.Interval1m
	}
}
