package main

import (
	"context"
	"flag"

	"callsim/internal/optimizer"
	"callsim/internal/policy"
)

func buildDefaultGrid() ([]policy.RiskPolicy, error) {
	return optimizer.BuildGrid(optimizer.DefaultGridSpec())
}

func gridCommand(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("grid", flag.ContinueOnError)
	format := fs.String("format", "table", "output format: table|json|csv")
	if err := fs.Parse(args); err != nil {
		return err
	}

	grid, err := buildDefaultGrid()
	if err != nil {
		return err
	}
	return printGrid(*format, grid)
}
