package domain

import (
	"fmt"
	"strings"
)

// NotFoundError reports that a data source does not exist.
type NotFoundError struct {
	Source string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("source not found: %s", e.Source)
}

// EmptyDataError reports that a data source has a header but no data rows.
type EmptyDataError struct {
	Source string
}

func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("source %s contains no data rows", e.Source)
}

// SchemaError reports required columns absent from a source header.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s is missing required column(s): %s", e.Source, strings.Join(e.Missing, ", "))
}

// ParseError reports a cell that could not be parsed. Row is 1-based and
// counts data rows only (the header is not row 1).
type ParseError struct {
	Source string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("source %s row %d column %q: cannot parse %q: %v", e.Source, e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnknownCovariateError reports a covariate that is not part of the dataset schema.
type UnknownCovariateError struct {
	Name      string
	Available []Covariate
}

func (e *UnknownCovariateError) Error() string {
	names := make([]string, len(e.Available))
	for i, c := range e.Available {
		names[i] = string(c)
	}
	return fmt.Sprintf("unknown covariate %q (available: %s)", e.Name, strings.Join(names, ", "))
}

// UnknownCityError reports a city with no records, returned only when strict
// city lookup is requested.
type UnknownCityError struct {
	City string
}

func (e *UnknownCityError) Error() string {
	return fmt.Sprintf("unknown city %q", e.City)
}
