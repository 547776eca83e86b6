package domain

import (
	"slices"
	"sort"
	"time"
)

// DefaultPeakMonths is the number of peak months reported when none is requested.
const DefaultPeakMonths = 3

// YearTotal is the summed case count for one calendar year.
type YearTotal struct {
	Year  int `json:"year"`
	Cases int `json:"cases"`
}

// YearlyAggregate maps year to summed cases, ordered by ascending year.
type YearlyAggregate []YearTotal

// MonthValue is one month's value in a seasonal series.
type MonthValue struct {
	Month time.Month `json:"month"`
	Value float64    `json:"value"`
}

// MonthlyAggregate maps month to a seasonal value, ordered by ascending month.
// Months with no observations are omitted; see ZeroFill.
type MonthlyAggregate []MonthValue

// Get returns the value for month m, if present.
func (a MonthlyAggregate) Get(m time.Month) (float64, bool) {
	i, ok := slices.BinarySearchFunc(a, m, func(v MonthValue, m time.Month) int { return int(v.Month) - int(m) })
	if !ok {
		return 0, false
	}
	return a[i].Value, true
}

// Months returns the months present, ascending.
func (a MonthlyAggregate) Months() []time.Month {
	out := make([]time.Month, len(a))
	for i, v := range a {
		out[i] = v.Month
	}
	return out
}

// Values returns the values in month order.
func (a MonthlyAggregate) Values() []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = v.Value
	}
	return out
}

// PeakSet is the top months of a MonthlyAggregate, highest value first.
type PeakSet []MonthValue

// PresenceCount tallies records with and without reported cases.
type PresenceCount struct {
	WithCases    int `json:"with_cases"`
	WithoutCases int `json:"without_cases"`
}

// Total returns the number of units counted.
func (p PresenceCount) Total() int { return p.WithCases + p.WithoutCases }

// YearlyTotals sums case_total by calendar year.
func YearlyTotals(s CitySubset) YearlyAggregate {
	sums := make(map[int]int)
	for _, r := range s.records {
		sums[r.Year] += r.CaseTotal
	}

	out := make(YearlyAggregate, 0, len(sums))
	for y, n := range sums {
		out = append(out, YearTotal{Year: y, Cases: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// MonthlySeasonalAverage sums case_total by (year, month) and then averages
// those monthly totals across the years in which the month was observed.
// Years with no rows in a month do not contribute a zero to that month's mean.
func MonthlySeasonalAverage(s CitySubset) MonthlyAggregate {
	return seasonalAverage(s.records, func(r Record) (float64, bool) {
		return float64(r.CaseTotal), true
	}, reduceSum)
}

// covariateSeasonalAverage is MonthlySeasonalAverage for a covariate, except
// that each (year, month) is reduced by mean rather than sum: covariates are
// point measurements, not event counts. Rows without a value are skipped.
func covariateSeasonalAverage(s CitySubset, c Covariate) MonthlyAggregate {
	return seasonalAverage(s.records, func(r Record) (float64, bool) {
		return r.Covariate(c)
	}, reduceMean)
}

type reduction int

const (
	reduceSum reduction = iota
	reduceMean
)

type yearMonth struct {
	year  int
	month time.Month
}

type accumulator struct {
	sum   float64
	count int
}

func seasonalAverage(records []Record, value func(Record) (float64, bool), reduce reduction) MonthlyAggregate {
	// Stage one: one value per (year, month).
	cells := make(map[yearMonth]*accumulator)
	for _, r := range records {
		v, ok := value(r)
		if !ok {
			continue
		}
		key := yearMonth{year: r.Year, month: r.Month}
		acc := cells[key]
		if acc == nil {
			acc = &accumulator{}
			cells[key] = acc
		}
		acc.sum += v
		acc.count++
	}

	// Stage two: mean of the stage-one values per month. Keys are visited in
	// order so float sums are reproducible.
	keys := make([]yearMonth, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].year < keys[j].year
	})

	months := make(map[time.Month]*accumulator)
	for _, key := range keys {
		acc := cells[key]
		v := acc.sum
		if reduce == reduceMean {
			v /= float64(acc.count)
		}
		m := months[key.month]
		if m == nil {
			m = &accumulator{}
			months[key.month] = m
		}
		m.sum += v
		m.count++
	}

	out := make(MonthlyAggregate, 0, len(months))
	for month, acc := range months {
		out = append(out, MonthValue{Month: month, Value: acc.sum / float64(acc.count)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// TopPeakMonths returns the k highest months, ties broken by ascending month.
// k is clamped to the number of available months; a non-positive k also
// yields every month.
func TopPeakMonths(a MonthlyAggregate, k int) PeakSet {
	if k <= 0 || k > len(a) {
		k = len(a)
	}

	ranked := slices.Clone(a)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Month < ranked[j].Month
	})
	return PeakSet(ranked[:k])
}

// PresenceCounts partitions the subset's rows by case_total > 0. Counts are
// of rows, so with sub-weekly data they are not distinct weeks; see
// PresenceCountsByWeek.
func PresenceCounts(s CitySubset) PresenceCount {
	var p PresenceCount
	for _, r := range s.records {
		if r.HasCases() {
			p.WithCases++
		} else {
			p.WithoutCases++
		}
	}
	return p
}

// PresenceCountsByWeek counts distinct ISO weeks instead of rows. A week has
// cases when its rows sum to more than zero.
func PresenceCountsByWeek(s CitySubset) PresenceCount {
	type isoWeek struct{ year, week int }
	weeks := make(map[isoWeek]int)
	for _, r := range s.records {
		weeks[isoWeek{year: r.ISOYear, week: r.ISOWeek}] += r.CaseTotal
	}

	var p PresenceCount
	for _, cases := range weeks {
		if cases > 0 {
			p.WithCases++
		} else {
			p.WithoutCases++
		}
	}
	return p
}

// ZeroFill returns a 12-month series, using zero for months absent from a.
// Filling is a display choice; the engine itself omits unobserved months.
func ZeroFill(a MonthlyAggregate) MonthlyAggregate {
	out := make(MonthlyAggregate, 12)
	for m := time.January; m <= time.December; m++ {
		v, _ := a.Get(m)
		out[m-1] = MonthValue{Month: m, Value: v}
	}
	return out
}
