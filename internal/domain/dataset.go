package domain

import (
	"slices"
	"sort"
)

// Dataset is a validated, immutable snapshot of surveillance records. It is
// built once by BuildDataset and shared read-only; no method mutates it.
type Dataset struct {
	source     string
	records    []Record
	covariates []Covariate
	cities     []string
}

func newDataset(source string, records []Record, covariates []Covariate) *Dataset {
	seen := make(map[string]struct{})
	var cities []string
	for _, r := range records {
		if _, ok := seen[r.CityID]; !ok {
			seen[r.CityID] = struct{}{}
			cities = append(cities, r.CityID)
		}
	}
	sort.Strings(cities)

	return &Dataset{
		source:     source,
		records:    records,
		covariates: covariates,
		cities:     cities,
	}
}

// Source returns the name of the source the dataset was loaded from.
func (d *Dataset) Source() string { return d.source }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Records returns a copy of all records in load order.
func (d *Dataset) Records() []Record { return slices.Clone(d.records) }

// Covariates returns the covariate columns present in the source, in
// configured order.
func (d *Dataset) Covariates() []Covariate { return slices.Clone(d.covariates) }

// HasCovariate reports whether c is part of the dataset schema.
func (d *Dataset) HasCovariate(c Covariate) bool { return slices.Contains(d.covariates, c) }

// Cities returns the distinct city identifiers, sorted.
func (d *Dataset) Cities() []string { return slices.Clone(d.cities) }

// HasCity reports whether any record belongs to city.
func (d *Dataset) HasCity(city string) bool {
	_, ok := slices.BinarySearch(d.cities, city)
	return ok
}

// FilterByCity returns the records for city in load order. An unknown city
// yields an empty subset, not an error.
func (d *Dataset) FilterByCity(city string) CitySubset {
	var rows []Record
	for _, r := range d.records {
		if r.CityID == city {
			rows = append(rows, r)
		}
	}
	return CitySubset{City: city, records: rows, covariates: d.covariates}
}

// RequireCity is FilterByCity that returns UnknownCityError when the city has
// no records.
func (d *Dataset) RequireCity(city string) (CitySubset, error) {
	if !d.HasCity(city) {
		return CitySubset{}, &UnknownCityError{City: city}
	}
	return d.FilterByCity(city), nil
}

// CitySubset is the rows of a Dataset for one city. It carries the parent
// dataset's covariate schema so that covariate lookups on an empty subset are
// still validated.
type CitySubset struct {
	City       string
	records    []Record
	covariates []Covariate
}

// NewCitySubset builds a subset directly from records, for callers that
// assemble rows outside a Dataset.
func NewCitySubset(city string, records []Record, covariates []Covariate) CitySubset {
	return CitySubset{
		City:       city,
		records:    slices.Clone(records),
		covariates: slices.Clone(covariates),
	}
}

// Len returns the number of records in the subset.
func (s CitySubset) Len() int { return len(s.records) }

// Empty reports whether the subset has no records.
func (s CitySubset) Empty() bool { return len(s.records) == 0 }

// Records returns a copy of the subset's records.
func (s CitySubset) Records() []Record { return slices.Clone(s.records) }

// HasCovariate reports whether c is a column of the subset.
func (s CitySubset) HasCovariate(c Covariate) bool { return slices.Contains(s.covariates, c) }

// Covariates returns the subset's covariate columns.
func (s CitySubset) Covariates() []Covariate { return slices.Clone(s.covariates) }
