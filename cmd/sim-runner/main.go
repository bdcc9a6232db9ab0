// Package main runs the headless simulation scenarios and prints a summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/JailbreakIdle/internal/platform/logger"
	"github.com/MRamiBalles/JailbreakIdle/test"
)

func main() {
	opts := test.DefaultOptions()
	flag.Int64Var(&opts.Seed, "seed", opts.Seed, "RNG seed")
	flag.Float64Var(&opts.Step, "step", opts.Step, "seconds per tick")
	flag.Float64Var(&opts.Duration, "duration", opts.Duration, "simulated seconds per scenario")
	verbose := flag.Bool("v", false, "log engine events")
	jsonOut := flag.String("json", "", "write results as JSON to this file")
	flag.Parse()

	if opts.Step <= 0 || opts.Duration <= 0 {
		fmt.Fprintln(os.Stderr, "step and duration must be positive")
		os.Exit(2)
	}
	if *verbose {
		opts.Log = logger.New(os.Stdout, os.Stderr, "SIM")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := test.RunAll(ctx, opts)
	failed := printSummary(os.Stdout, results, opts)

	if *jsonOut != "" {
		data, _ := json.MarshalIndent(results, "", "  ")
		if err := os.WriteFile(*jsonOut, data, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func printSummary(w io.Writer, results []test.Result, opts test.Options) int {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "SCENARIOS  seed=%d step=%gs duration=%s\n", opts.Seed, opts.Step, humanSeconds(opts.Duration))
	fmt.Fprintln(w, rule)

	failed := 0
	for _, r := range results {
		mark := "PASS"
		if !r.Passed {
			mark = "FAIL"
			failed++
		}
		fmt.Fprintf(w, "[%s] %-16s %s\n", mark, r.Name, r.Reason)
		fmt.Fprintf(w, "       ticks=%s messages=%s wall=%s\n",
			humanize.Comma(int64(r.Ticks)), humanize.Comma(int64(r.Messages)), r.Elapsed)
		fmt.Fprintf(w, "       stage=%d cash=%s xp=%s experience=%s\n",
			r.Final.Stage, humanize.SIWithDigits(r.Final.Cash, 2, ""), humanize.SIWithDigits(r.Final.XP, 2, ""),
			humanize.SIWithDigits(r.Final.Experience, 2, ""))
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "passed %d, failed %d\n", len(results)-failed, failed)
	return failed
}

func humanSeconds(s float64) string {
	if s < 60 {
		return humanize.Ftoa(s) + "s"
	}
	return humanize.Ftoa(s/60) + "m"
}
