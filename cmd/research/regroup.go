package main

import (
	"context"
	"flag"
	"fmt"

	"callsim/internal/capital"
	"callsim/internal/obslog"
	"callsim/internal/optimizer"
)

func regroupCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("regroup", flag.ContinueOnError)
	callsPath := fs.String("calls", "", "path to a JSON array of call records")
	candlesDir := fs.String("candles", "", "directory of <call_id>.json candle files")
	initialCapital := fs.Float64("initial-capital", 10_000, "starting capital for the capital simulator")
	format := fs.String("format", "table", "output format: table|json|csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *callsPath == "" || *candlesDir == "" {
		return fmt.Errorf("--calls and --candles are required")
	}

	callRecords, err := loadCalls(*callsPath)
	if err != nil {
		return err
	}
	ids := make([]string, len(callRecords))
	for i, c := range callRecords {
		ids[i] = c.CallID
	}
	candlesByCallID, err := loadCandlesDir(*candlesDir, ids)
	if err != nil {
		return err
	}

	cfg := capital.DefaultConfig(*initialCapital)
	paramGrid := optimizer.DefaultV1ParamGrid()
	grouped := optimizer.DefaultGroupedConfig()

	obslog.RunStart(ctx, "regroup", len(paramGrid))

	result, outcomes, err := optimizer.RunGroupedReevaluation(ctx, callRecords, candlesByCallID, paramGrid, cfg, grouped)
	if err != nil {
		return err
	}

	return printRegroupResult(*format, outcomes, result)
}
