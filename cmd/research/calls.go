package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"callsim/internal/calls"
	"callsim/internal/candle"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// callValidate runs the struct-tag checks below loadCalls applies to every
// parsed record, ahead of calls.CallRecord's own domain validation.
var callValidate = validator.New()

type callRecordJSON struct {
	CallID     string   `json:"call_id" validate:"required"`
	CallerName string   `json:"caller_name" validate:"required"`
	Mint       string   `json:"mint" validate:"required"`
	Chain      string   `json:"chain" validate:"required,oneof=solana ethereum base bsc"`
	AlertTsMs  int64    `json:"alert_ts_ms" validate:"required,gt=0"`
	AlertPrice *float64 `json:"alert_price,omitempty" validate:"omitempty,gt=0"`
}

// loadCalls reads a JSON array of call records from path.
func loadCalls(path string) ([]calls.CallRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calls file: %w", err)
	}
	var in []callRecordJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parse calls file: %w", err)
	}

	out := make([]calls.CallRecord, 0, len(in))
	for _, c := range in {
		if err := callValidate.Struct(c); err != nil {
			return nil, fmt.Errorf("call record %q: %w", c.CallID, err)
		}
		rec := calls.CallRecord{
			CallID:     c.CallID,
			CallerName: c.CallerName,
			Mint:       c.Mint,
			Chain:      calls.Chain(c.Chain),
			AlertTsMs:  c.AlertTsMs,
			AlertPrice: c.AlertPrice,
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid call record %q: %w", c.CallID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

type candleJSON struct {
	TsS    int64   `json:"ts_s"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

// loadCandlesDir reads one "<call_id>.json" file per call from dir, each
// holding a chronological JSON array of candles, and returns them keyed by
// call_id.
func loadCandlesDir(dir string, callIDs []string) (map[string][]candle.Candle, error) {
	out := make(map[string][]candle.Candle, len(callIDs))
	for _, id := range callIDs {
		path := filepath.Join(dir, id+".json")
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read candles for %q: %w", id, err)
		}
		var in []candleJSON
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("parse candles for %q: %w", id, err)
		}
		cs := make([]candle.Candle, 0, len(in))
		for _, c := range in {
			cs = append(cs, candle.Candle{
				TimestampS: c.TsS,
				Open:       decimal.NewFromFloat(c.Open),
				High:       decimal.NewFromFloat(c.High),
				Low:        decimal.NewFromFloat(c.Low),
				Close:      decimal.NewFromFloat(c.Close),
				Volume:     decimal.NewFromFloat(c.Volume),
			})
		}
		out[id] = cs
	}
	return out, nil
}
