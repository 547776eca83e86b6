// Package domain models leptospirosis surveillance data and the descriptive
// analytics computed over it.
//
// # Data Source
//
// The primary table is a per-city time series exported from the provincial
// surveillance system, one row per city per reporting period (usually a week):
//
//	adm3_en,date,case_total,heat_index,rh,pr,pop_count_total,pop_density
//	Iloilo City,2019-01-07,5,31.2,82.5,4.1,457626,8131.2
//
// adm3_en is the administrative level-3 English name and serves as the city
// identifier. Covariates (heat index, relative humidity, precipitation and the
// yearly population figures) are optional; only columns named in the
// configured covariate list are read.
//
// An optional city summary table carries one pre-computed row per city
// (adm3_en, city_area, pop_count_total, pop_density, case_total). It is served
// as-is.
//
// # Parsing Conventions
//
// Dates are ISO-8601 and taken as calendar dates with no timezone shift; year,
// month and ISO week are derived from them once at load. case_total must be a
// non-negative whole number; a blank case_total rejects the whole load rather
// than being read as zero. Blank or NA covariate cells mean "not measured" and
// are skipped when averaging.
//
// # Aggregation
//
// Seasonal averages are two-stage. Cases are first summed per (year, month),
// then those monthly totals are averaged per month across the years in which
// the month appears. Covariates are averaged, not summed, at the first stage.
// With weekly rows and uneven year coverage this differs from a flat mean over
// rows, which is why the stages are kept separate.
//
// Overlays rescale the case series and a covariate series to [0, 1]
// independently with [MinMaxScale]. A constant series scales to zeros.
//
// Every aggregation is a pure function of an immutable [CitySubset] and is
// safe to call concurrently. Empty subsets produce empty results, not errors.
package domain
