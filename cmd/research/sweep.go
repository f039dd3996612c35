package main

import (
	"context"
	"flag"
	"fmt"

	"callsim/internal/config"
	"callsim/internal/executor"
	"callsim/internal/obslog"
	"callsim/internal/optimizer"
	"callsim/internal/scoring"
)

func sweepCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	callsPath := fs.String("calls", "", "path to a JSON array of call records")
	candlesDir := fs.String("candles", "", "directory of <call_id>.json candle files")
	configPath := fs.String("config", "", "path to a research CLI config file")
	shards := fs.Int("shards", 0, "number of concurrent grid shards (0 = config default)")
	format := fs.String("format", "table", "output format: table|json|csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *callsPath == "" || *candlesDir == "" {
		return fmt.Errorf("--calls and --candles are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *shards <= 0 {
		*shards = cfg.GridShards
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

	grid, err := buildDefaultGrid()
	if err != nil {
		return err
	}

	obslog.RunStart(ctx, "sweep", len(grid))

	opts := optimizer.Options{Fees: executor.Fees{}, Constraints: scoring.DefaultConstraints(), Shards: *shards}
	res, err := optimizer.Run(ctx, grid, callRecords, candlesByCallID, opts)
	if err != nil {
		return err
	}

	for _, r := range res.Ranked {
		obslog.PolicyEvaluated(ctx, r.CanonicalID, r.Candidate.Summary.Count, r.Candidate.ViolationCount, r.Candidate.Score)
	}

	return printSweepResult(*format, res)
}
