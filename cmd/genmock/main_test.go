package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/adapter/source"
	"github.com/couchcryptid/lepto-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() genOptions {
	return genOptions{
		start:       time.Date(2019, time.January, 9, 0, 0, 0, 0, time.UTC),
		years:       2,
		seed:        7,
		missingRate: 0.05,
		cities:      defaultCities[2:4],
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	assert.Equal(t, generate(testOptions()), generate(testOptions()))

	other := testOptions()
	other.seed = 8
	assert.NotEqual(t, generate(testOptions()), generate(other))
}

func TestGenerate_WeeklyRowsFromMonday(t *testing.T) {
	rows := generate(testOptions())

	// 2 years of weeks for each of 2 cities.
	require.Len(t, rows, 2*105)
	assert.Equal(t, "Iloilo City", rows[0][0])
	assert.Equal(t, "2019-01-07", rows[0][1], "start moves back to Monday")
	assert.Equal(t, "2019-01-14", rows[1][1])
	for _, row := range rows {
		assert.Len(t, row, len(header))
	}
}

func TestGenerate_RainySeasonPeak(t *testing.T) {
	opts := testOptions()
	opts.years = 6
	opts.cities = defaultCities[2:3]
	opts.missingRate = 0

	ds, err := domain.BuildDataset("generated", header, generate(opts), domain.DefaultCovariates)
	require.NoError(t, err)

	peaks := domain.TopPeakMonths(domain.MonthlySeasonalAverage(ds.FilterByCity("Iloilo City")), 3)
	require.Len(t, peaks, 3)
	for _, p := range peaks {
		assert.GreaterOrEqual(t, p.Month, time.June, "peak month %s", p.Month)
		assert.LessOrEqual(t, p.Month, time.October, "peak month %s", p.Month)
	}
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2019-01-07", "2019-01-07"},
		{"2019-01-13", "2019-01-07"},
		{"2020-01-01", "2019-12-30"},
	}
	for _, tt := range tests {
		in, err := time.Parse(time.DateOnly, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, mondayOf(in).Format(time.DateOnly))
	}
}

func TestSelectCities(t *testing.T) {
	all, err := selectCities("")
	require.NoError(t, err)
	assert.Equal(t, defaultCities, all)

	some, err := selectCities("jaro, Molo")
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "Jaro", some[0].name)
	assert.Equal(t, "Molo", some[1].name)

	_, err = selectCities("Atlantis")
	assert.Error(t, err)
}

func TestWriteTable_RoundTrip(t *testing.T) {
	opts := testOptions()
	rows := generate(opts)
	summary := summarize(opts.cities, rows)

	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			dataPath := filepath.Join(dir, "cases"+ext)
			summaryPath := filepath.Join(dir, "summary"+ext)
			require.NoError(t, writeTable(dataPath, header, rows))
			require.NoError(t, writeTable(summaryPath, summaryHeader, summary))

			ds, err := source.Load(dataPath, domain.DefaultCovariates)
			require.NoError(t, err)
			assert.Equal(t, len(rows), ds.Len())
			assert.Equal(t, []string{"Iloilo City", "Jaro"}, ds.Cities())
			assert.Equal(t, domain.DefaultCovariates, ds.Covariates())

			summaries, err := source.LoadCitySummaries(summaryPath)
			require.NoError(t, err)
			var total int
			for _, y := range domain.YearlyTotals(ds.FilterByCity("Jaro")) {
				total += y.Cases
			}
			assert.Equal(t, total, summaries["Jaro"].CaseTotal)
		})
	}
}
