// cmd/research is the CLI surface for the call-simulation research engine:
// run a single policy against a call set, sweep the default grid, or print
// the grid's canonical policy IDs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	log.SetFlags(0)
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(ctx, os.Args[2:])
	case "sweep":
		err = sweepCommand(ctx, os.Args[2:])
	case "grid":
		err = gridCommand(ctx, os.Args[2:])
	case "walkforward":
		err = walkforwardCommand(ctx, os.Args[2:])
	case "regroup":
		err = regroupCommand(ctx, os.Args[2:])
	case "version":
		fmt.Printf("callsim research v%s (built: %s)\n", version, buildTime)
		return
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Printf("research %s: %v", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `callsim research — call simulation engine CLI

Usage:
  research run   --calls <path> --candles <dir> --policy <canonical_id> [--format table|json|csv]
  research sweep --calls <path> --candles <dir> [--shards N] [--format table|json|csv]
  research grid  [--format table|json|csv]
  research walkforward --calls <path> --candles <dir> --to-ms <ms> [--from-ms <ms>] [--is-days N] [--oos-days N]
  research regroup --calls <path> --candles <dir> [--initial-capital N] [--format table|json|csv]
  research version

Environment:
  DUCKDB_PATH, CLICKHOUSE_URL, ARTIFACTS_DIR, BIRDEYE_API_KEY, HELIUS_API_KEY`)
}
