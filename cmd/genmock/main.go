// Command genmock writes a deterministic synthetic surveillance dataset for
// demos and local runs: one row per city per week, with a rainy-season case
// peak and covariates that follow the same seasonal cycle. It reloads the
// output through the real loader and prints the numbers tests and demos
// assert against.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/lepto_cases.csv \
//	  -summary-out data/city_summary.csv \
//	  -years 3 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/adapter/source"
	"github.com/couchcryptid/lepto-analytics/internal/domain"
	"github.com/xuri/excelize/v2"
)

var defaultCities = []cityProfile{
	{name: "Arevalo", area: 10.2, population: 78000, baseRate: 0.6},
	{name: "City Proper", area: 6.7, population: 52000, baseRate: 0.4},
	{name: "Iloilo City", area: 56.3, population: 457626, baseRate: 2.5},
	{name: "Jaro", area: 29.1, population: 120000, baseRate: 1.4},
	{name: "La Paz", area: 7.6, population: 64000, baseRate: 0.9},
	{name: "Mandurriao", area: 13.4, population: 71000, baseRate: 0.7},
	{name: "Molo", area: 4.9, population: 59000, baseRate: 0.8},
}

type cityProfile struct {
	name       string
	area       float64 // km²
	population float64
	baseRate   float64 // mean weekly cases outside the rainy season
}

type genOptions struct {
	start       time.Time
	years       int
	seed        uint64
	missingRate float64
	cities      []cityProfile
}

var header = []string{
	domain.ColumnCity, domain.ColumnDate, domain.ColumnCaseTotal,
	string(domain.CovariateHeatIndex), string(domain.CovariateRelativeHumidity), string(domain.CovariatePrecipitation),
	string(domain.CovariatePopulationCount), string(domain.CovariatePopulationDensity),
}

var summaryHeader = []string{
	domain.ColumnCity, domain.ColumnCityArea, domain.ColumnPopulationCount, domain.ColumnPopulationDensity, domain.ColumnCaseTotal,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the case dataset (.csv or .xlsx)")
	summaryOut := flag.String("summary-out", "", "optional output path for the city summary table (.csv or .xlsx)")
	startStr := flag.String("start", "2019-01-07", "first week (YYYY-MM-DD, moved back to its Monday)")
	years := flag.Int("years", 3, "number of years to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	missing := flag.Float64("missing-rate", 0.03, "fraction of covariate cells left blank")
	cities := flag.String("cities", "", "comma-separated subset of the built-in cities (default all)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	start, err := time.Parse(time.DateOnly, *startStr)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	if *years < 1 {
		return fmt.Errorf("invalid -years %d: must be at least 1", *years)
	}
	if *missing < 0 || *missing >= 1 {
		return fmt.Errorf("invalid -missing-rate %g: must be in [0, 1)", *missing)
	}
	profiles, err := selectCities(*cities)
	if err != nil {
		return err
	}

	opts := genOptions{start: start, years: *years, seed: *seed, missingRate: *missing, cities: profiles}
	rows := generate(opts)
	log.Printf("generated %d rows for %d cities", len(rows), len(profiles))

	if err := writeTable(*out, header, rows); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	log.Printf("wrote dataset: %s", *out)

	if *summaryOut != "" {
		if err := writeTable(*summaryOut, summaryHeader, summarize(profiles, rows)); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		log.Printf("wrote summary: %s", *summaryOut)
	}

	ds, err := source.Load(*out, domain.DefaultCovariates)
	if err != nil {
		return fmt.Errorf("reloading dataset: %w", err)
	}
	printStats(ds)
	return nil
}

func selectCities(list string) ([]cityProfile, error) {
	if strings.TrimSpace(list) == "" {
		return defaultCities, nil
	}
	byName := make(map[string]cityProfile, len(defaultCities))
	for _, c := range defaultCities {
		byName[strings.ToLower(c.name)] = c
	}

	var out []cityProfile
	for _, name := range strings.Split(list, ",") {
		c, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown city %q", strings.TrimSpace(name))
		}
		out = append(out, c)
	}
	return out, nil
}

// generate produces one row per city per week. Output is a pure function of opts.
func generate(opts genOptions) [][]string {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))

	start := mondayOf(opts.start)
	end := start.AddDate(opts.years, 0, 0)

	var rows [][]string
	for _, c := range opts.cities {
		for week := start; week.Before(end); week = week.AddDate(0, 0, 7) {
			s := season(week)
			yearsIn := week.Sub(start).Hours() / (24 * 365.25)
			pop := c.population * math.Pow(1.015, yearsIn)

			// Rainy season (roughly Jun to Oct) multiplies the base rate up to 4x.
			cases := poisson(rng, c.baseRate*(1+3*s))

			rows = append(rows, []string{
				c.name,
				week.Format(time.DateOnly),
				strconv.Itoa(cases),
				maybe(rng, opts.missingRate, 29+4*s+rng.NormFloat64()*0.8, 1),
				maybe(rng, opts.missingRate, 72+14*s+rng.NormFloat64()*2, 1),
				maybe(rng, opts.missingRate, math.Max(0, 2+38*s+rng.NormFloat64()*5), 1),
				maybe(rng, opts.missingRate, math.Round(pop), 0),
				maybe(rng, opts.missingRate, pop/c.area, 1),
			})
		}
	}
	return rows
}

// season maps a date to [0, 1], peaking in mid-August.
func season(t time.Time) float64 {
	day := float64(t.YearDay())
	return (1 + math.Cos(2*math.Pi*(day-227)/365.25)) / 2
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// poisson draws from a Poisson distribution using Knuth's method, which is
// fine for the small weekly rates used here.
func poisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func maybe(rng *rand.Rand, missingRate, v float64, decimals int) string {
	if rng.Float64() < missingRate {
		return ""
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// summarize builds the city summary table from the generated rows, using the
// population of each city's last week.
func summarize(profiles []cityProfile, rows [][]string) [][]string {
	type acc struct {
		cases   int
		lastPop string
		lastDen string
	}
	byCity := make(map[string]*acc, len(profiles))
	for _, row := range rows {
		a := byCity[row[0]]
		if a == nil {
			a = &acc{}
			byCity[row[0]] = a
		}
		n, _ := strconv.Atoi(row[2])
		a.cases += n
		if row[6] != "" {
			a.lastPop = row[6]
		}
		if row[7] != "" {
			a.lastDen = row[7]
		}
	}

	out := make([][]string, 0, len(profiles))
	for _, c := range profiles {
		a := byCity[c.name]
		if a == nil {
			continue
		}
		out = append(out, []string{
			c.name,
			strconv.FormatFloat(c.area, 'f', 1, 64),
			a.lastPop,
			a.lastDen,
			strconv.Itoa(a.cases),
		})
	}
	return out
}

func writeTable(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return writeWorkbook(path, header, rows)
	default:
		return writeCSV(path, header, rows)
	}
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func writeWorkbook(path string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", toCells(header)); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(row)); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// toCells keeps numbers numeric in the workbook; dates stay ISO text.
func toCells(row []string) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cells[i] = n
			continue
		}
		cells[i] = v
	}
	return cells
}

func printStats(ds *domain.Dataset) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d, cities: %d, covariates: %v\n", ds.Len(), len(ds.Cities()), ds.Covariates())

	for _, city := range ds.Cities() {
		sub := ds.FilterByCity(city)
		presence := domain.PresenceCounts(sub)
		fmt.Printf("\n%s (%d rows, %d with cases)\n", city, sub.Len(), presence.WithCases)

		fmt.Print("  yearly:")
		for _, y := range domain.YearlyTotals(sub) {
			fmt.Printf(" %d=%d", y.Year, y.Cases)
		}
		fmt.Println()

		fmt.Print("  peaks:")
		for _, p := range domain.TopPeakMonths(domain.MonthlySeasonalAverage(sub), domain.DefaultPeakMonths) {
			fmt.Printf(" %s=%.2f", p.Month, p.Value)
		}
		fmt.Println()
	}
}
