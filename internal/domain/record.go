package domain

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Covariate names a numeric environmental or socioeconomic column that can be
// overlaid against case counts. Values are validated against the loaded
// dataset's schema before use.
type Covariate string

// Known covariate columns in the surveillance extract.
const (
	CovariateHeatIndex         Covariate = "heat_index"
	CovariateRelativeHumidity  Covariate = "rh"
	CovariatePrecipitation     Covariate = "pr"
	CovariatePopulationCount   Covariate = "pop_count_total"
	CovariatePopulationDensity Covariate = "pop_density"
)

// DefaultCovariates is the covariate schema used when none is configured.
var DefaultCovariates = []Covariate{
	CovariateHeatIndex,
	CovariateRelativeHumidity,
	CovariatePrecipitation,
	CovariatePopulationCount,
	CovariatePopulationDensity,
}

// ParseCovariates splits a comma-separated list of column names into
// covariate keys, dropping blanks and duplicates while preserving order.
func ParseCovariates(s string) []Covariate {
	var out []Covariate
	for _, part := range strings.Split(s, ",") {
		c := Covariate(strings.ToLower(strings.TrimSpace(part)))
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Record is a single surveillance observation for one city on one date.
// Year, Month, ISOYear and ISOWeek are derived from Date by NewRecord and
// always agree with it.
type Record struct {
	CityID    string    `json:"city_id"`
	Date      time.Time `json:"date"`
	CaseTotal int       `json:"case_total"`

	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	ISOYear int        `json:"iso_year"`
	ISOWeek int        `json:"iso_week"`

	covariates map[Covariate]float64
}

// NewRecord builds a Record, normalizing date to a UTC calendar date and
// deriving its calendar fields. The covariates map is copied; a missing key
// means the covariate was not measured for this row.
func NewRecord(cityID string, date time.Time, caseTotal int, covariates map[Covariate]float64) Record {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	isoYear, isoWeek := day.ISOWeek()

	return Record{
		CityID:     cityID,
		Date:       day,
		CaseTotal:  caseTotal,
		Year:       y,
		Month:      m,
		ISOYear:    isoYear,
		ISOWeek:    isoWeek,
		covariates: maps.Clone(covariates),
	}
}

// Covariate returns the measured value of c for this record, if any.
func (r Record) Covariate(c Covariate) (float64, bool) {
	v, ok := r.covariates[c]
	return v, ok
}

// HasCases reports whether the record counts toward the "with cases" partition.
func (r Record) HasCases() bool {
	return r.CaseTotal > 0
}
