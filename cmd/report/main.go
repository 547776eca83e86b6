// Command report prints the analytics report for one city, or for every city
// in the dataset, as JSON.
//
// Usage:
//
//	go run ./cmd/report -data data/lepto_cases.csv -city "Iloilo City"
//	go run ./cmd/report -data data/lepto_cases.xlsx -all -k 4
//
// Defaults come from the same environment variables as the service
// (DATA_PATH, COVARIATES, PEAK_MONTHS, STRICT_CITIES).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/lepto-analytics/internal/adapter/source"
	"github.com/couchcryptid/lepto-analytics/internal/analytics"
	"github.com/couchcryptid/lepto-analytics/internal/config"
	"github.com/couchcryptid/lepto-analytics/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dataPath := fs.String("data", cfg.DataPath, "path to the case dataset (.csv or .xlsx)")
	city := fs.String("city", "", "city to report on")
	all := fs.Bool("all", false, "report on every city")
	k := fs.Int("k", cfg.PeakMonths, "number of peak months")
	strict := fs.Bool("strict", cfg.StrictCities, "fail for cities with no records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*city == "") == !*all {
		return errors.New("exactly one of -city or -all is required")
	}
	if *k < 1 || *k > 12 {
		return fmt.Errorf("invalid -k %d: must be between 1 and 12", *k)
	}

	ds, err := source.Load(*dataPath, cfg.Covariates)
	if err != nil {
		return err
	}

	// A one-shot run exports no metrics and logs nothing beyond its result.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := analytics.New(ds, analytics.Options{
		StrictCities: *strict,
		PeakMonths:   *k,
	}, quiet, observability.NewMetricsForTesting())

	var out any
	if *all {
		reports, err := svc.Reports(ctx, *k)
		if err != nil {
			return err
		}
		out = reports
	} else {
		report, err := svc.Report(*city, *k)
		if err != nil {
			return err
		}
		out = report
	}
	return writeJSON(stdout, out)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
