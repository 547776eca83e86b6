// Package analytics serves per-city aggregations over a loaded surveillance
// dataset. The dataset is immutable after load; the only mutable state is the
// overlay cache.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"slices"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/domain"
	"github.com/couchcryptid/lepto-analytics/internal/observability"
	"golang.org/x/sync/errgroup"
)

// ErrSummariesUnavailable is returned by Summary when no city summary table
// was loaded.
var ErrSummariesUnavailable = errors.New("city summary table not loaded")

// Options tunes a Service. The zero value is usable.
type Options struct {
	// Summaries is the optional per-city summary table.
	Summaries domain.CitySummaries
	// StrictCities makes queries for cities without records fail with
	// UnknownCityError instead of returning empty results.
	StrictCities bool
	// PeakMonths is the k used when a caller does not give one.
	PeakMonths int
	// OverlayCacheSize bounds the overlay cache; 0 disables it.
	OverlayCacheSize int
}

// Service answers analytics queries for one dataset.
type Service struct {
	dataset    *domain.Dataset
	summaries  domain.CitySummaries
	strict     bool
	peakMonths int
	overlays   *lruCache[domain.ScaledOverlaySeries]
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Service over ds.
func New(ds *domain.Dataset, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	s := &Service{
		dataset:    ds,
		summaries:  opts.Summaries,
		strict:     opts.StrictCities,
		peakMonths: opts.PeakMonths,
		logger:     logger,
		metrics:    metrics,
	}
	if s.peakMonths <= 0 {
		s.peakMonths = domain.DefaultPeakMonths
	}
	if opts.OverlayCacheSize > 0 {
		s.overlays = newLRUCache[domain.ScaledOverlaySeries](opts.OverlayCacheSize)
	}

	if ds != nil {
		metrics.DatasetRows.Set(float64(ds.Len()))
		metrics.DatasetCities.Set(float64(len(ds.Cities())))
	}
	return s
}

// CheckReadiness reports whether a non-empty dataset is loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.dataset == nil || s.dataset.Len() == 0 {
		return errors.New("dataset not loaded")
	}
	return nil
}

// Cities returns the sorted distinct cities in the dataset.
func (s *Service) Cities() []string { return s.dataset.Cities() }

// Covariates returns the covariate columns present in the dataset.
func (s *Service) Covariates() []domain.Covariate { return s.dataset.Covariates() }

// Subset returns the records for city. Unknown cities yield an empty subset
// unless strict city lookup is enabled.
func (s *Service) Subset(city string) (domain.CitySubset, error) {
	if s.strict {
		return s.dataset.RequireCity(city)
	}
	return s.dataset.FilterByCity(city), nil
}

// YearlyTotals sums case counts per calendar year for city.
func (s *Service) YearlyTotals(city string) (agg domain.YearlyAggregate, err error) {
	defer s.observe("yearly", time.Now(), &err)

	sub, err := s.Subset(city)
	if err != nil {
		return nil, err
	}
	return domain.YearlyTotals(sub), nil
}

// MonthlyAverage returns the seasonal monthly case average for city. With
// zeroFill, months without data are reported as 0.
func (s *Service) MonthlyAverage(city string, zeroFill bool) (agg domain.MonthlyAggregate, err error) {
	defer s.observe("monthly", time.Now(), &err)

	sub, err := s.Subset(city)
	if err != nil {
		return nil, err
	}
	agg = domain.MonthlySeasonalAverage(sub)
	if zeroFill {
		agg = domain.ZeroFill(agg)
	}
	return agg, nil
}

// PeakMonths returns the k highest months of the seasonal average. k <= 0
// uses the configured default.
func (s *Service) PeakMonths(city string, k int) (peaks domain.PeakSet, err error) {
	defer s.observe("peaks", time.Now(), &err)

	sub, err := s.Subset(city)
	if err != nil {
		return nil, err
	}
	return domain.TopPeakMonths(domain.MonthlySeasonalAverage(sub), s.k(k)), nil
}

// Presence counts rows with and without cases. With byWeek, rows are first
// collapsed to one per ISO week.
func (s *Service) Presence(city string, byWeek bool) (pc domain.PresenceCount, err error) {
	defer s.observe("presence", time.Now(), &err)

	sub, err := s.Subset(city)
	if err != nil {
		return domain.PresenceCount{}, err
	}
	if byWeek {
		return domain.PresenceCountsByWeek(sub), nil
	}
	return domain.PresenceCounts(sub), nil
}

// Overlay returns the scaled case/covariate overlay for city. Results for
// cities with records are cached by city and covariate.
func (s *Service) Overlay(city string, c domain.Covariate) (o domain.ScaledOverlaySeries, err error) {
	defer s.observe("overlay", time.Now(), &err)

	if !s.dataset.HasCovariate(c) {
		return domain.ScaledOverlaySeries{}, &domain.UnknownCovariateError{Name: string(c), Available: s.dataset.Covariates()}
	}

	key := city + "|" + string(c)
	if s.overlays != nil {
		if cached, ok := s.overlays.get(key); ok {
			s.metrics.OverlayCache.WithLabelValues("hit").Inc()
			return cloneOverlay(cached), nil
		}
		s.metrics.OverlayCache.WithLabelValues("miss").Inc()
	}

	sub, err := s.Subset(city)
	if err != nil {
		return domain.ScaledOverlaySeries{}, err
	}
	o, err = domain.OverlaySeries(sub, c)
	if err != nil {
		return domain.ScaledOverlaySeries{}, err
	}

	// Unknown cities are not cached so arbitrary names cannot crowd out real entries.
	if s.overlays != nil && !sub.Empty() {
		s.overlays.put(key, cloneOverlay(o))
		s.logger.Debug("overlay cached", "city", city, "covariate", c)
	}
	return o, nil
}

// cloneOverlay copies o's slices so cached entries never alias a caller's result.
func cloneOverlay(o domain.ScaledOverlaySeries) domain.ScaledOverlaySeries {
	o.Months = slices.Clone(o.Months)
	o.Cases = slices.Clone(o.Cases)
	o.Values = slices.Clone(o.Values)
	return o
}

// Report builds the full report for city with k peak months.
func (s *Service) Report(city string, k int) (r domain.CityReport, err error) {
	defer s.observe("report", time.Now(), &err)

	sub, err := s.Subset(city)
	if err != nil {
		return domain.CityReport{}, err
	}
	return domain.BuildCityReport(sub, s.k(k)), nil
}

// Reports builds a report for every city concurrently, in city order.
func (s *Service) Reports(ctx context.Context, k int) ([]domain.CityReport, error) {
	cities := s.dataset.Cities()
	reports := make([]domain.CityReport, len(cities))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, city := range cities {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := s.Report(city, k)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Summary returns the summary table row for city.
func (s *Service) Summary(city string) (cs domain.CitySummary, err error) {
	defer s.observe("summary", time.Now(), &err)

	if s.summaries == nil {
		return domain.CitySummary{}, ErrSummariesUnavailable
	}
	cs, ok := s.summaries[city]
	if !ok {
		return domain.CitySummary{}, &domain.UnknownCityError{City: city}
	}
	return cs, nil
}

func (s *Service) k(k int) int {
	if k <= 0 {
		return s.peakMonths
	}
	return k
}

func (s *Service) observe(op string, start time.Time, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = "error"
	}
	s.metrics.QueriesTotal.WithLabelValues(op, outcome).Inc()
	s.metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
