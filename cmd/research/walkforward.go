package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"callsim/internal/executor"
	"callsim/internal/obslog"
	"callsim/internal/optimizer"
	"callsim/internal/scoring"
	"callsim/internal/walkforward"
)

func walkforwardCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("walkforward", flag.ContinueOnError)
	callsPath := fs.String("calls", "", "path to a JSON array of call records")
	candlesDir := fs.String("candles", "", "directory of <call_id>.json candle files")
	fromMs := fs.Int64("from-ms", 0, "range start, alert-time milliseconds")
	toMs := fs.Int64("to-ms", 0, "range end, alert-time milliseconds")
	isDays := fs.Int64("is-days", 7, "in-sample window length in days")
	oosDays := fs.Int64("oos-days", 3, "out-of-sample window length in days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *callsPath == "" || *candlesDir == "" || *toMs == 0 {
		return fmt.Errorf("--calls, --candles, and --to-ms are required")
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

	dayMs := int64(24 * 3600 * 1000)
	wfCfg := walkforward.Config{
		GridSpec:    optimizer.DefaultGridSpec(),
		Fees:        executor.Fees{},
		Constraints: scoring.DefaultConstraints(),
		ISPeriodMs:  *isDays * dayMs,
		OOSPeriodMs: *oosDays * dayMs,
	}

	obslog.RunStart(ctx, "walkforward", 0)
	res, err := walkforward.Run(ctx, callRecords, candlesByCallID, *fromMs, *toMs, wfCfg)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tBEST_POLICY\tIS_RETURN_BPS\tOOS_RETURN_BPS\tOOS_VIOLATIONS")
	for _, w := range res.Windows {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%d\n", w.Index, w.BestPolicyID, w.ISMedianReturnBps, w.OOSMedianReturnBps, w.OOSViolationCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nWFER=%.3f passRate=%.0f%% — %s\n", res.WFER, res.PassRate*100, walkforward.Verdict(res))
	return nil
}
