package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"callsim/internal/capital"
	"callsim/internal/executor"
	"callsim/internal/optimizer"
	"callsim/internal/policy"
)

type runRow struct {
	CallID string
	Result executor.ExecutionResult
}

func printRunRows(format string, rows []runRow) error {
	switch format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(rows)
	case "csv":
		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		if err := w.Write([]string{"call_id", "exit_reason", "realized_return_bps", "mae_bps", "time_exposed_ms"}); err != nil {
			return err
		}
		for _, r := range rows {
			if err := w.Write([]string{
				r.CallID,
				string(r.Result.ExitReason),
				fmt.Sprintf("%.4f", r.Result.RealizedReturnBps),
				fmt.Sprintf("%.4f", r.Result.MaxAdverseExcursionBps),
				fmt.Sprintf("%d", r.Result.TimeExposedMs),
			}); err != nil {
				return err
			}
		}
		return nil
	default:
		tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, "CALL_ID\tEXIT_REASON\tRETURN_BPS\tMAE_BPS\tTIME_EXPOSED_MS")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%d\n",
				r.CallID, r.Result.ExitReason, r.Result.RealizedReturnBps, r.Result.MaxAdverseExcursionBps, r.Result.TimeExposedMs)
		}
		return tw.Flush()
	}
}

func printGrid(format string, grid []policy.RiskPolicy) error {
	ids := make([]string, len(grid))
	for i, p := range grid {
		ids[i] = p.CanonicalID()
	}

	switch format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(ids)
	case "csv":
		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		for _, id := range ids {
			if err := w.Write([]string{id}); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}
}

func printSweepResult(format string, res optimizer.Result) error {
	switch format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(res)
	case "csv":
		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		if err := w.Write([]string{"canonical_policy_id", "evaluated", "violations", "score", "median_return_bps"}); err != nil {
			return err
		}
		for _, r := range res.Ranked {
			if err := w.Write([]string{
				r.CanonicalID,
				fmt.Sprintf("%d", r.Candidate.Summary.Count),
				fmt.Sprintf("%d", r.Candidate.ViolationCount),
				fmt.Sprintf("%.4f", r.Candidate.Score),
				fmt.Sprintf("%.4f", r.Candidate.Summary.MedianReturnBps),
			}); err != nil {
				return err
			}
		}
		return nil
	default:
		tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, "CANONICAL_POLICY_ID\tEVALUATED\tVIOLATIONS\tSCORE\tMEDIAN_RETURN_BPS")
		for _, r := range res.Ranked {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.2f\n",
				r.CanonicalID, r.Candidate.Summary.Count, r.Candidate.ViolationCount, r.Candidate.Score, r.Candidate.Summary.MedianReturnBps)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if res.BestFeasible != nil {
			fmt.Printf("\nbest feasible: %s (score=%.2f)\n", res.BestFeasible.CanonicalID, res.BestFeasible.Candidate.Score)
		} else {
			fmt.Println("\nno feasible policy found")
		}
		return nil
	}
}

func printRegroupResult(format string, outcomes []optimizer.CallerOutcome, grouped capital.Result) error {
	switch format {
	case "json":
		out := struct {
			Outcomes []optimizer.CallerOutcome `json:"outcomes"`
			Grouped  capital.Result            `json:"grouped"`
		}{outcomes, grouped}
		return json.NewEncoder(os.Stdout).Encode(out)
	case "csv":
		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		if err := w.Write([]string{"caller", "sl_mult", "tp_mult", "max_hold_hrs", "final_capital"}); err != nil {
			return err
		}
		for _, o := range outcomes {
			if err := w.Write([]string{
				o.Caller,
				fmt.Sprintf("%.4f", o.Params.SLMult),
				fmt.Sprintf("%.4f", o.Params.TPMult),
				fmt.Sprintf("%.2f", o.Params.MaxHoldHrs),
				fmt.Sprintf("%.2f", o.FinalCapital),
			}); err != nil {
				return err
			}
		}
		return nil
	default:
		tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, "CALLER\tSL_MULT\tTP_MULT\tMAX_HOLD_HRS\tFINAL_CAPITAL")
		for _, o := range outcomes {
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.1f\t%.2f\n", o.Caller, o.Params.SLMult, o.Params.TPMult, o.Params.MaxHoldHrs, o.FinalCapital)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Printf("\ngrouped: final_capital=%.2f total_return=%.4f max_drawdown=%.4f trades=%d skips=%d\n",
			grouped.FinalCapital, grouped.TotalReturn, grouped.MaxDrawdown, len(grouped.Trades), len(grouped.Skips))
		return nil
	}
}
