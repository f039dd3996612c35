package main

import (
	"context"
	"flag"
	"fmt"

	"callsim/internal/executor"
	"callsim/internal/obslog"
	"callsim/internal/policy"
)

// resolvePolicy looks up a canonical policy id against the default grid.
// Only grid-enumerable families are resolvable this way; ladder/wash-rebound
// combos with bespoke parameters must be supplied as a policy grid file in a
// future iteration of this command.
func resolvePolicy(canonicalID string) (policy.RiskPolicy, error) {
	grid, err := buildDefaultGrid()
	if err != nil {
		return policy.RiskPolicy{}, err
	}
	for _, p := range grid {
		if p.CanonicalID() == canonicalID {
			return p, nil
		}
	}
	return policy.RiskPolicy{}, fmt.Errorf("no policy in the default grid matches canonical id %q", canonicalID)
}

func runCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	callsPath := fs.String("calls", "", "path to a JSON array of call records")
	candlesDir := fs.String("candles", "", "directory of <call_id>.json candle files")
	canonicalID := fs.String("policy", "", "canonical policy id to evaluate, from `research grid`")
	format := fs.String("format", "table", "output format: table|json|csv")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *callsPath == "" || *candlesDir == "" || *canonicalID == "" {
		return fmt.Errorf("--calls, --candles, and --policy are required")
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

	p, err := resolvePolicy(*canonicalID)
	if err != nil {
		return err
	}

	obslog.RunStart(ctx, "run", 1)

	rows := make([]runRow, 0, len(callRecords))
	for _, c := range callRecords {
		res := executor.Run(candlesByCallID[c.CallID], c.AlertTsMs, p, executor.Fees{})
		rows = append(rows, runRow{CallID: c.CallID, Result: res})
	}

	return printRunRows(*format, rows)
}
