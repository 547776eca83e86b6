package domain

import "sort"

// City summary table columns.
const (
	ColumnCityArea          = "city_area"
	ColumnPopulationCount   = "pop_count_total"
	ColumnPopulationDensity = "pop_density"
)

// CitySummary is one row of the optional pre-computed city table. Values are
// served as-is and never recomputed from the case dataset.
type CitySummary struct {
	City              string  `json:"city"`
	Area              float64 `json:"city_area"`
	PopulationCount   float64 `json:"pop_count_total"`
	PopulationDensity float64 `json:"pop_density"`
	CaseTotal         int     `json:"case_total"`
}

// CitySummaries indexes summary rows by city.
type CitySummaries map[string]CitySummary

// Cities returns the summarized cities, sorted.
func (cs CitySummaries) Cities() []string {
	out := make([]string, 0, len(cs))
	for c := range cs {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// BuildCitySummaries validates the city summary table with the same error
// taxonomy as BuildDataset. A later row for the same city replaces an earlier one.
func BuildCitySummaries(source string, cols []string, rows [][]string) (CitySummaries, error) {
	if len(cols) == 0 || isBlankRow(cols) {
		return nil, &EmptyDataError{Source: source}
	}

	h := newHeader(cols)
	required := []string{ColumnCity, ColumnCityArea, ColumnPopulationCount, ColumnPopulationDensity, ColumnCaseTotal}
	idx := make(map[string]int, len(required))
	var missing []string
	for _, name := range required {
		names := []string{name}
		if name == ColumnCity {
			names = append(names, ColumnCityAlias)
		}
		i, ok := h.lookup(names...)
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[name] = i
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Source: source, Missing: missing}
	}

	out := make(CitySummaries, len(rows))
	for n, row := range rows {
		if isBlankRow(row) {
			continue
		}
		rowNum := n + 1

		city := cell(row, idx[ColumnCity])
		if city == "" {
			return nil, &ParseError{Source: source, Row: rowNum, Column: ColumnCity, Err: errEmptyValue}
		}

		floats := make(map[string]float64, 3)
		for _, col := range []string{ColumnCityArea, ColumnPopulationCount, ColumnPopulationDensity} {
			raw := cell(row, idx[col])
			v, ok, err := parseMeasurement(raw)
			if err == nil && !ok {
				err = errEmptyValue
			}
			if err != nil {
				return nil, &ParseError{Source: source, Row: rowNum, Column: col, Value: raw, Err: err}
			}
			floats[col] = v
		}

		rawCases := cell(row, idx[ColumnCaseTotal])
		cases, err := parseCaseTotal(rawCases)
		if err != nil {
			return nil, &ParseError{Source: source, Row: rowNum, Column: ColumnCaseTotal, Value: rawCases, Err: err}
		}

		out[city] = CitySummary{
			City:              city,
			Area:              floats[ColumnCityArea],
			PopulationCount:   floats[ColumnPopulationCount],
			PopulationDensity: floats[ColumnPopulationDensity],
			CaseTotal:         cases,
		}
	}

	if len(out) == 0 {
		return nil, &EmptyDataError{Source: source}
	}
	return out, nil
}
