// Command validate performs integrity checks on a surveillance dataset and,
// optionally, its city summary table. It verifies weekly cadence, covariate
// coverage, and that the summary table agrees with the case rows it
// summarizes. Load errors are reported and exit 1 before any phase runs.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data data/lepto_cases.csv \
//	  -summary data/city_summary.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/adapter/source"
	"github.com/couchcryptid/lepto-analytics/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataPath := flag.String("data", "", "path to the case dataset (.csv or .xlsx)")
	summaryPath := flag.String("summary", "", "optional path to the city summary table")
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *dataPath, *summaryPath); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, dataPath, summaryPath string) int {
	fmt.Fprintln(w, "=== Surveillance Data Integrity Validation ===")
	fmt.Fprintln(w)

	ds, err := source.Load(dataPath, domain.DefaultCovariates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	var summaries domain.CitySummaries
	if summaryPath != "" {
		summaries, err = source.LoadCitySummaries(summaryPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load city summaries: %v\n", err)
			return 1
		}
	}

	phases := []*phase{
		validateWeeklyCadence(ds),
		validateCovariateCoverage(ds),
	}
	if summaries != nil {
		phases = append(phases, validateSummaryConsistency(ds, summaries))
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d rows, %d cities, %d covariates, %d summary rows\n",
		ds.Len(), len(ds.Cities()), len(ds.Covariates()), len(summaries))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phases ──

// validateWeeklyCadence checks that each city has at most one row per ISO
// week and no gaps longer than a week between consecutive rows.
func validateWeeklyCadence(ds *domain.Dataset) *phase {
	p := &phase{name: "Weekly cadence"}

	byCity := recordsByCity(ds)
	for _, city := range ds.Cities() {
		records := byCity[city]
		sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })

		seen := make(map[[2]int]time.Time, len(records))
		for i, r := range records {
			week := [2]int{r.ISOYear, r.ISOWeek}
			if prev, ok := seen[week]; ok {
				p.errorf("%s: %s and %s fall in the same ISO week %d-W%02d",
					city, prev.Format(time.DateOnly), r.Date.Format(time.DateOnly), r.ISOYear, r.ISOWeek)
			} else {
				seen[week] = r.Date
			}

			if i == 0 {
				continue
			}
			if gap := r.Date.Sub(records[i-1].Date); gap > 7*24*time.Hour {
				p.errorf("%s: %d-day gap after %s",
					city, int(gap.Hours()/24), records[i-1].Date.Format(time.DateOnly))
			}
		}
	}
	return p
}

// validateCovariateCoverage checks that every covariate has at least one
// measurement for every city.
func validateCovariateCoverage(ds *domain.Dataset) *phase {
	p := &phase{name: "Covariate coverage"}

	byCity := recordsByCity(ds)
	for _, city := range ds.Cities() {
		for _, c := range ds.Covariates() {
			measured := false
			for _, r := range byCity[city] {
				if _, ok := r.Covariate(c); ok {
					measured = true
					break
				}
			}
			if !measured {
				p.errorf("%s: %s has no measurements", city, c)
			}
		}
	}
	return p
}

// validateSummaryConsistency checks that the summary table covers the same
// cities as the dataset and that its case totals match the case rows.
func validateSummaryConsistency(ds *domain.Dataset, summaries domain.CitySummaries) *phase {
	p := &phase{name: "Summary consistency"}

	for _, city := range ds.Cities() {
		s, ok := summaries[city]
		if !ok {
			p.errorf("%s: in dataset but missing from summary table", city)
			continue
		}
		var total int
		for _, y := range domain.YearlyTotals(ds.FilterByCity(city)) {
			total += y.Cases
		}
		if s.CaseTotal != total {
			p.errorf("%s: summary case_total=%d, dataset total=%d", city, s.CaseTotal, total)
		}
	}
	for _, city := range summaries.Cities() {
		if !ds.HasCity(city) {
			p.errorf("%s: in summary table but has no case rows", city)
		}
	}
	return p
}

func recordsByCity(ds *domain.Dataset) map[string][]domain.Record {
	out := make(map[string][]domain.Record)
	for _, r := range ds.Records() {
		out[r.CityID] = append(out[r.CityID], r)
	}
	return out
}
