package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoad_CSV(t *testing.T) {
	ds, err := Load(filepath.Join("testdata", "lepto_cases.csv"), domain.DefaultCovariates)
	require.NoError(t, err)

	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, []string{"Iloilo City", "Jaro"}, ds.Cities())
	assert.Equal(t, domain.DefaultCovariates, ds.Covariates())

	iloilo := ds.FilterByCity("Iloilo City")
	assert.Equal(t, domain.YearlyAggregate{{Year: 2019, Cases: 15}, {Year: 2020, Cases: 3}}, domain.YearlyTotals(iloilo))
}

func TestLoad_RestrictsCovariates(t *testing.T) {
	ds, err := Load(filepath.Join("testdata", "lepto_cases.csv"), []domain.Covariate{domain.CovariateHeatIndex})
	require.NoError(t, err)
	assert.Equal(t, []domain.Covariate{domain.CovariateHeatIndex}, ds.Covariates())
}

func TestLoad_Errors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	tests := []struct {
		name   string
		path   string
		target any
	}{
		{"missing file", filepath.Join("testdata", "nope.csv"), new(*domain.NotFoundError)},
		{"directory", "testdata", new(*domain.NotFoundError)},
		{"zero bytes", empty, new(*domain.EmptyDataError)},
		{"header only", filepath.Join("testdata", "header_only.csv"), new(*domain.EmptyDataError)},
		{"missing columns", filepath.Join("testdata", "missing_columns.csv"), new(*domain.SchemaError)},
		{"bad date", filepath.Join("testdata", "bad_date.csv"), new(*domain.ParseError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Load(tt.path, domain.DefaultCovariates)
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.ErrorAs(t, err, tt.target)
		})
	}
}

func TestDecodeCSV_MalformedQuoting(t *testing.T) {
	_, err := decodeCSV("broken.csv", strings.NewReader("adm3_en,date,case_total\nJaro,\"2019-01-07,1\n"))
	var target *domain.ParseError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "broken.csv", target.Source)
}

func TestLoadCitySummaries(t *testing.T) {
	summaries, err := LoadCitySummaries(filepath.Join("testdata", "city_summary.csv"))
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 18, summaries["Iloilo City"].CaseTotal)
	assert.InDelta(t, 29.1, summaries["Jaro"].Area, 1e-9)

	_, err = LoadCitySummaries(filepath.Join("testdata", "lepto_cases.csv"))
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestLoad_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lepto.xlsx")

	f := excelize.NewFile()
	const sheet = "Sheet1"
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"adm3_en", "date", "case_total", "heat_index"}))
	// A real date cell (stored as a serial number) and a text date.
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Jaro", time.Date(2019, time.January, 7, 0, 0, 0, 0, time.UTC), 4, 30.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Jaro", "2019-02-04", 0}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := Load(path, domain.DefaultCovariates)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	records := ds.Records()
	assert.Equal(t, time.Date(2019, time.January, 7, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, 4, records[0].CaseTotal)
	v, ok := records[0].Covariate(domain.CovariateHeatIndex)
	require.True(t, ok)
	assert.InDelta(t, 30.5, v, 1e-9)

	assert.Equal(t, time.February, records[1].Month)
	_, ok = records[1].Covariate(domain.CovariateHeatIndex)
	assert.False(t, ok, "trailing empty cells are not measured")
}

func TestLoad_EmptyWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := Load(path, nil)
	var target *domain.EmptyDataError
	require.ErrorAs(t, err, &target)
}
