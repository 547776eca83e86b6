package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = "lepto.csv"

var testHeader = []string{"adm3_en", "date", "case_total", "heat_index", "rh", "pr"}

func TestBuildDataset(t *testing.T) {
	rows := [][]string{
		{"Iloilo City", "2019-01-07", "5", "31.2", "82.5", "4.1"},
		{"Iloilo City", "2019-02-04", "10", "30.8", "", "2.0"},
		{"Jaro", "2020-01-06", "3.0", "NA", "80", "0"},
		{"", "", "", "", "", ""},
	}

	ds, err := BuildDataset(testSource, testHeader, rows, DefaultCovariates)
	require.NoError(t, err)

	assert.Equal(t, testSource, ds.Source())
	assert.Equal(t, 3, ds.Len(), "blank rows are skipped")
	assert.Equal(t, []string{"Iloilo City", "Jaro"}, ds.Cities())
	assert.Equal(t, []Covariate{CovariateHeatIndex, CovariateRelativeHumidity, CovariatePrecipitation}, ds.Covariates())
	assert.False(t, ds.HasCovariate(CovariatePopulationDensity), "columns absent from the header are not covariates")

	records := ds.Records()
	assert.Equal(t, 2019, records[0].Year)
	assert.Equal(t, time.February, records[1].Month)
	assert.Equal(t, 3, records[2].CaseTotal)

	_, ok := records[1].Covariate(CovariateRelativeHumidity)
	assert.False(t, ok, "blank covariate is not measured")
	_, ok = records[2].Covariate(CovariateHeatIndex)
	assert.False(t, ok, "NA covariate is not measured")
	pr, ok := records[2].Covariate(CovariatePrecipitation)
	require.True(t, ok)
	assert.Zero(t, pr)
}

func TestBuildDataset_HeaderNormalization(t *testing.T) {
	cols := []string{"\ufeffCITY_ID ", " Date", "Case_Total"}
	ds, err := BuildDataset(testSource, cols, [][]string{{"Jaro", "2019-01-07", "1"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jaro"}, ds.Cities())
	assert.Empty(t, ds.Covariates())
}

func TestBuildDataset_Errors(t *testing.T) {
	tests := []struct {
		name  string
		cols  []string
		rows  [][]string
		check func(t *testing.T, err error)
	}{
		{
			name: "no header",
			cols: nil,
			check: func(t *testing.T, err error) {
				var target *EmptyDataError
				require.ErrorAs(t, err, &target)
			},
		},
		{
			name: "header only",
			cols: testHeader,
			rows: [][]string{{"", "", ""}},
			check: func(t *testing.T, err error) {
				var target *EmptyDataError
				require.ErrorAs(t, err, &target)
				assert.Contains(t, err.Error(), testSource)
			},
		},
		{
			name: "missing columns",
			cols: []string{"adm3_en", "heat_index"},
			rows: [][]string{{"Jaro", "30"}},
			check: func(t *testing.T, err error) {
				var target *SchemaError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, []string{"date", "case_total"}, target.Missing)
			},
		},
		{
			name: "bad date",
			cols: testHeader,
			rows: [][]string{
				{"Jaro", "2019-01-07", "1"},
				{"Jaro", "07/01/2019", "1"},
			},
			check: func(t *testing.T, err error) {
				var target *ParseError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 2, target.Row)
				assert.Equal(t, ColumnDate, target.Column)
				assert.Equal(t, "07/01/2019", target.Value)
			},
		},
		{
			name: "case total too large",
			cols: testHeader,
			rows: [][]string{{"Jaro", "2019-01-07", "1e20"}},
			check: func(t *testing.T, err error) {
				var target *ParseError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, ColumnCaseTotal, target.Column)
				require.ErrorIs(t, err, errOutOfRange)
			},
		},
		{
			name: "blank case total",
			cols: testHeader,
			rows: [][]string{{"Jaro", "2019-01-07", ""}},
			check: func(t *testing.T, err error) {
				var target *ParseError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, ColumnCaseTotal, target.Column)
				assert.ErrorIs(t, err, errEmptyValue)
			},
		},
		{
			name: "bad covariate",
			cols: testHeader,
			rows: [][]string{{"Jaro", "2019-01-07", "0", "hot"}},
			check: func(t *testing.T, err error) {
				var target *ParseError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "heat_index", target.Column)
			},
		},
		{
			name: "blank city",
			cols: testHeader,
			rows: [][]string{{" ", "2019-01-07", "0"}},
			check: func(t *testing.T, err error) {
				var target *ParseError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, ColumnCity, target.Column)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := BuildDataset(testSource, tt.cols, tt.rows, DefaultCovariates)
			require.Error(t, err)
			assert.Nil(t, ds, "no partial dataset on failure")
			tt.check(t, err)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{"date only", "2019-01-07", time.Date(2019, 1, 7, 0, 0, 0, 0, time.UTC), false},
		{"datetime", "2019-01-07 00:00:00", time.Date(2019, 1, 7, 0, 0, 0, 0, time.UTC), false},
		{"iso without zone", "2019-01-07T12:00:00", time.Date(2019, 1, 7, 12, 0, 0, 0, time.UTC), false},
		{"slashes", "2019/01/07", time.Date(2019, 1, 7, 0, 0, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, true},
		{"day first", "07-01-2019", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
		})
	}
}

func TestParseDate_RFC3339KeepsWrittenCalendarDate(t *testing.T) {
	d, err := parseDate("2019-12-31T23:00:00+08:00")
	require.NoError(t, err)
	r := NewRecord(testCity, d, 0, nil)
	assert.Equal(t, 2019, r.Year)
	assert.Equal(t, time.December, r.Month)
}

func TestParseCaseTotal(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr error
	}{
		{"0", 0, nil},
		{"12", 12, nil},
		{"3.0", 3, nil},
		{"", 0, errEmptyValue},
		{"-1", 0, errNegative},
		{"-2.0", 0, errNegative},
		{"3.5", 0, errNotIntegral},
		{"NaN", 0, errNotFinite},
		{"1e20", 0, errOutOfRange},
		{"99999999999999999999", 0, errOutOfRange},
		{"-99999999999999999999", 0, errOutOfRange},
		{"9007199254740992.0", 1 << 53, nil},
		{"9007199254740994.0", 0, errOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCaseTotal(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseCaseTotal("many")
	assert.Error(t, err)
}

func TestParseCovariates(t *testing.T) {
	got := ParseCovariates(" heat_index, RH,,pr,heat_index ")
	assert.Equal(t, []Covariate{CovariateHeatIndex, CovariateRelativeHumidity, CovariatePrecipitation}, got)
	assert.Empty(t, ParseCovariates(""))
}
