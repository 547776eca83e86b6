package domain

import (
	"math"
	"time"
)

// MinMaxScale rescales values to [0, 1] using the series' own min and max.
// A constant series, including a single value, scales to all zeros rather
// than NaN so that degenerate overlays still render.
func MinMaxScale(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	span := hi - lo
	if span == 0 {
		return out
	}
	// Finite inputs far enough apart overflow the span; halving keeps it finite.
	scale := 1.0
	if math.IsInf(span, 0) {
		scale = 0.5
		span = hi*scale - lo*scale
	}
	for i, v := range values {
		out[i] = clamp01((v*scale - lo*scale) / span)
	}
	return out
}

// clamp01 guards against rounding pushing a result a hair outside [0, 1].
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// ScaledOverlaySeries pairs the seasonal case series with a covariate's
// seasonal series, each min-max scaled on its own range and aligned by month.
// Independent scaling means magnitudes are not comparable across the two
// series; only their shapes are.
type ScaledOverlaySeries struct {
	Covariate Covariate    `json:"covariate"`
	Months    []time.Month `json:"months"`
	Cases     []float64    `json:"cases"`
	Values    []float64    `json:"values"`
}

// Len returns the number of aligned months.
func (o ScaledOverlaySeries) Len() int { return len(o.Months) }

// OverlaySeries computes the scaled case/covariate overlay for c. It fails
// with UnknownCovariateError when c is not a column of the subset. Months are
// aligned to those where both series have a value; since every row carries a
// case count, that is the months where c was measured at least once.
func OverlaySeries(s CitySubset, c Covariate) (ScaledOverlaySeries, error) {
	if !s.HasCovariate(c) {
		return ScaledOverlaySeries{}, &UnknownCovariateError{Name: string(c), Available: s.Covariates()}
	}

	cases := MonthlySeasonalAverage(s)
	covariate := covariateSeasonalAverage(s, c)

	months := make([]time.Month, 0, len(covariate))
	caseValues := make([]float64, 0, len(covariate))
	covValues := make([]float64, 0, len(covariate))
	for _, mv := range covariate {
		cv, ok := cases.Get(mv.Month)
		if !ok {
			continue
		}
		months = append(months, mv.Month)
		caseValues = append(caseValues, cv)
		covValues = append(covValues, mv.Value)
	}

	return ScaledOverlaySeries{
		Covariate: c,
		Months:    months,
		Cases:     MinMaxScale(caseValues),
		Values:    MinMaxScale(covValues),
	}, nil
}
