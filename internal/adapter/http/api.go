package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/lepto-analytics/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Analytics is the query surface the API serves.
type Analytics interface {
	Cities() []string
	Covariates() []domain.Covariate
	YearlyTotals(city string) (domain.YearlyAggregate, error)
	MonthlyAverage(city string, zeroFill bool) (domain.MonthlyAggregate, error)
	PeakMonths(city string, k int) (domain.PeakSet, error)
	Presence(city string, byWeek bool) (domain.PresenceCount, error)
	Overlay(city string, c domain.Covariate) (domain.ScaledOverlaySeries, error)
	Report(city string, k int) (domain.CityReport, error)
	Summary(city string) (domain.CitySummary, error)
}

type api struct {
	svc      Analytics
	validate *validator.Validate
	logger   *slog.Logger
}

// Query parameters. Zero values mean "not given".
type (
	monthlyQuery struct {
		Fill string `query:"fill" validate:"omitempty,oneof=zero none"`
	}
	peaksQuery struct {
		K int `query:"k" validate:"omitempty,min=1,max=12"`
	}
	presenceQuery struct {
		By string `query:"by" validate:"omitempty,oneof=rows weeks"`
	}
	overlayQuery struct {
		Covariate string `query:"covariate" validate:"required"`
	}
)

func newAPIRouter(svc Analytics, logger *slog.Logger) chi.Router {
	v := validator.New()
	// Report query parameter names, not Go field names, in validation errors.
	v.RegisterTagNameFunc(queryTagName)

	a := &api{svc: svc, validate: v, logger: logger}

	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(a.logRequests)

	r.Get("/cities", a.handleCities)
	r.Get("/covariates", a.handleCovariates)
	r.Route("/cities/{city}", func(r chi.Router) {
		r.Get("/yearly", a.handleYearly)
		r.Get("/monthly", a.handleMonthly)
		r.Get("/peaks", a.handlePeaks)
		r.Get("/presence", a.handlePresence)
		r.Get("/overlay", a.handleOverlay)
		r.Get("/report", a.handleReport)
		r.Get("/summary", a.handleSummary)
	})
	return r
}

func (a *api) handleCities(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"cities": nonNil(a.svc.Cities())})
}

func (a *api) handleCovariates(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"covariates": nonNil(a.svc.Covariates())})
}

func (a *api) handleYearly(w http.ResponseWriter, r *http.Request) {
	city := cityParam(r)
	yearly, err := a.svc.YearlyTotals(city)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"city": city, "yearly": nonNil(yearly)})
}

func (a *api) handleMonthly(w http.ResponseWriter, r *http.Request) {
	q := monthlyQuery{Fill: r.URL.Query().Get("fill")}
	if err := a.validate.Struct(q); err != nil {
		a.renderError(w, r, err)
		return
	}

	city := cityParam(r)
	monthly, err := a.svc.MonthlyAverage(city, q.Fill == "zero")
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"city": city, "monthly": nonNil(monthly)})
}

func (a *api) handlePeaks(w http.ResponseWriter, r *http.Request) {
	k, err := intQuery(r, "k")
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	if err := a.validate.Struct(peaksQuery{K: k}); err != nil {
		a.renderError(w, r, err)
		return
	}

	city := cityParam(r)
	peaks, err := a.svc.PeakMonths(city, k)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{"city": city, "peaks": nonNil(peaks)})
}

func (a *api) handlePresence(w http.ResponseWriter, r *http.Request) {
	q := presenceQuery{By: r.URL.Query().Get("by")}
	if err := a.validate.Struct(q); err != nil {
		a.renderError(w, r, err)
		return
	}

	city := cityParam(r)
	pc, err := a.svc.Presence(city, q.By == "weeks")
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	by := q.By
	if by == "" {
		by = "rows"
	}
	render.JSON(w, r, map[string]any{
		"city":          city,
		"by":            by,
		"with_cases":    pc.WithCases,
		"without_cases": pc.WithoutCases,
		"total":         pc.Total(),
	})
}

func (a *api) handleOverlay(w http.ResponseWriter, r *http.Request) {
	q := overlayQuery{Covariate: r.URL.Query().Get("covariate")}
	if err := a.validate.Struct(q); err != nil {
		a.renderError(w, r, err)
		return
	}

	city := cityParam(r)
	overlay, err := a.svc.Overlay(city, domain.Covariate(q.Covariate))
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]any{
		"city":      city,
		"covariate": overlay.Covariate,
		"months":    nonNil(overlay.Months),
		"cases":     nonNil(overlay.Cases),
		"values":    nonNil(overlay.Values),
	})
}

func (a *api) handleReport(w http.ResponseWriter, r *http.Request) {
	k, err := intQuery(r, "k")
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	if err := a.validate.Struct(peaksQuery{K: k}); err != nil {
		a.renderError(w, r, err)
		return
	}

	report, err := a.svc.Report(cityParam(r), k)
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

func (a *api) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.svc.Summary(cityParam(r))
	if err != nil {
		a.renderError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

func (a *api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Debug("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// cityParam returns the decoded {city} path segment. chi routes on RawPath
// when the request has one, so the segment is still escaped only then.
func cityParam(r *http.Request) string {
	city := chi.URLParam(r, "city")
	if r.URL.RawPath == "" {
		return city
	}
	if decoded, err := url.PathUnescape(city); err == nil {
		return decoded
	}
	return city
}

// intQuery parses an optional integer query parameter; absent means 0.
func intQuery(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &queryError{Param: name, Value: s}
	}
	return n, nil
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
