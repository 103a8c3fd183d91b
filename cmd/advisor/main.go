// advisor analyzes a single PSE-listed stock from the command line.
//
// Usage:
//
//	advisor [-config path] [-data-only] SYMBOL
//
// The -data-only flag skips the LLM passes and prints the raw snapshots,
// which needs no Gemini API key.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rcabral/pse-advisor/internal/app"
)

func main() {
	configPath := flag.String("config", os.Getenv("ADVISOR_CONFIG"), "path to config file")
	dataOnly := flag.Bool("data-only", false, "gather snapshots without running the LLM analysis")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: advisor [-config path] [-data-only] SYMBOL")
		os.Exit(2)
	}
	symbol := flag.Arg(0)

	ctx := context.Background()

	a, err := app.NewApp(ctx, *configPath, app.Options{SkipLLM: *dataOnly, SkipStore: *dataOnly})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if *dataOnly {
		resolved, err := a.Data.ValidateSymbol(ctx, symbol)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		bundle := map[string]interface{}{
			"symbol":      resolved,
			"price":       a.Data.Price(ctx, resolved),
			"dividend":    a.Data.Dividend(ctx, resolved),
			"movement":    a.Data.Movement(ctx, resolved),
			"valuation":   a.Data.Valuation(ctx, resolved),
			"controversy": a.Data.Controversy(ctx, resolved),
		}
		printJSON(bundle)
		return
	}

	report, _, err := a.Advisor.Analyze(ctx, symbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== %s — Verdict: %s ===\n\n", report.Symbol, report.Verdict)
	fmt.Println(report.Summary)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
