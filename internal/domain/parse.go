package domain

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Column names in the surveillance extract. The city column is adm3_en (the
// administrative level-3 English name); city_id is accepted as an alias.
const (
	ColumnCity      = "adm3_en"
	ColumnCityAlias = "city_id"
	ColumnDate      = "date"
	ColumnCaseTotal = "case_total"
)

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// missingMarkers are covariate cell values treated as "not measured".
var missingMarkers = []string{"", "na", "nan", "null", "none"}

var (
	errEmptyValue  = errors.New("value is empty")
	errNegative    = errors.New("value is negative")
	errNotIntegral = errors.New("value is not a whole number")
	errNotFinite   = errors.New("value is not finite")
	errOutOfRange  = errors.New("value is out of range")
	errUnknownDate = errors.New("not an ISO date")
)

// header maps normalized column names to their positions.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		name := normalizeColumn(c)
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

// normalizeColumn lowercases and trims a header cell, dropping a UTF-8 BOM
// that spreadsheet exports put in front of the first column.
func normalizeColumn(c string) string {
	c = strings.TrimPrefix(c, "\ufeff")
	return strings.ToLower(strings.TrimSpace(c))
}

func (h header) lookup(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := h[n]; ok {
			return i, true
		}
	}
	return 0, false
}

// cell returns the trimmed value at index i, or "" when the row is short.
// Spreadsheet readers drop trailing empty cells, so short rows are normal.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// BuildDataset validates a tabular source and returns an immutable Dataset.
// The header must contain the city, date and case_total columns; any of the
// given covariates present in the header become the dataset's covariate
// schema. Validation is all-or-nothing: the first bad cell fails the load.
func BuildDataset(source string, cols []string, rows [][]string, covariates []Covariate) (*Dataset, error) {
	if len(cols) == 0 || isBlankRow(cols) {
		return nil, &EmptyDataError{Source: source}
	}

	h := newHeader(cols)
	cityIdx, hasCity := h.lookup(ColumnCity, ColumnCityAlias)
	dateIdx, hasDate := h.lookup(ColumnDate)
	caseIdx, hasCases := h.lookup(ColumnCaseTotal)

	var missing []string
	if !hasCity {
		missing = append(missing, ColumnCity)
	}
	if !hasDate {
		missing = append(missing, ColumnDate)
	}
	if !hasCases {
		missing = append(missing, ColumnCaseTotal)
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Source: source, Missing: missing}
	}

	schema := make([]Covariate, 0, len(covariates))
	covIdx := make(map[Covariate]int, len(covariates))
	for _, c := range covariates {
		if i, ok := h.lookup(string(c)); ok && !slices.Contains(schema, c) {
			schema = append(schema, c)
			covIdx[c] = i
		}
	}

	records := make([]Record, 0, len(rows))
	for n, row := range rows {
		if isBlankRow(row) {
			continue
		}
		rowNum := n + 1
		city := cell(row, cityIdx)
		if city == "" {
			return nil, &ParseError{Source: source, Row: rowNum, Column: ColumnCity, Err: errEmptyValue}
		}

		rawDate := cell(row, dateIdx)
		date, err := parseDate(rawDate)
		if err != nil {
			return nil, &ParseError{Source: source, Row: rowNum, Column: ColumnDate, Value: rawDate, Err: err}
		}

		rawCases := cell(row, caseIdx)
		cases, err := parseCaseTotal(rawCases)
		if err != nil {
			return nil, &ParseError{Source: source, Row: rowNum, Column: ColumnCaseTotal, Value: rawCases, Err: err}
		}

		values := make(map[Covariate]float64, len(schema))
		for _, c := range schema {
			raw := cell(row, covIdx[c])
			v, ok, err := parseMeasurement(raw)
			if err != nil {
				return nil, &ParseError{Source: source, Row: rowNum, Column: string(c), Value: raw, Err: err}
			}
			if ok {
				values[c] = v
			}
		}

		records = append(records, NewRecord(city, date, cases, values))
	}

	if len(records) == 0 {
		return nil, &EmptyDataError{Source: source}
	}

	return newDataset(source, records, schema), nil
}

// parseDate accepts ISO-8601 dates with or without a time component. The
// calendar date is taken as written; no timezone conversion is applied.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errEmptyValue
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errUnknownDate
}

// maxExactCount is the largest float case count that converts to int without
// losing precision.
const maxExactCount = 1 << 53

// parseCaseTotal parses a non-negative whole number. Integral floats such as
// "3.0" are accepted because spreadsheet exports often widen integer columns.
// Empty values are rejected rather than treated as zero.
func parseCaseTotal(s string) (int, error) {
	if s == "" {
		return 0, errEmptyValue
	}
	n, err := strconv.Atoi(s)
	switch {
	case err == nil && n < 0:
		return 0, errNegative
	case err == nil:
		return n, nil
	case errors.Is(err, strconv.ErrRange):
		return 0, errOutOfRange
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, errNotFinite
	case f < 0:
		return 0, errNegative
	case f != math.Trunc(f):
		return 0, errNotIntegral
	case f > maxExactCount:
		return 0, errOutOfRange
	}
	return int(f), nil
}

// parseMeasurement parses a covariate cell. The boolean is false when the
// cell is a missing-value marker.
func parseMeasurement(s string) (float64, bool, error) {
	if slices.Contains(missingMarkers, strings.ToLower(s)) {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false, errNotFinite
	}
	return v, true, nil
}
