package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/couchcryptid/lepto-analytics/internal/analytics"
	"github.com/couchcryptid/lepto-analytics/internal/domain"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Error codes returned in the "code" field of error bodies.
const (
	codeInvalidQuery       = "invalid_query"
	codeUnknownCovariate   = "unknown_covariate"
	codeUnknownCity        = "unknown_city"
	codeSummaryUnavailable = "summary_unavailable"
	codeInternal           = "internal"
)

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Status int    `json:"-"`
	Error  string `json:"error"`
	Code   string `json:"code"`
}

// Render implements render.Renderer.
func (e *errorResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Status)
	return nil
}

// queryError is a query parameter that could not be parsed.
type queryError struct {
	Param string
	Value string
}

func (e *queryError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Param, e.Value)
}

func (a *api) renderError(w http.ResponseWriter, r *http.Request, err error) {
	resp := toErrorResponse(err)
	if resp.Status >= http.StatusInternalServerError {
		a.logger.Error("api request failed", "path", r.URL.Path, "error", err)
	}
	_ = render.Render(w, r, resp)
}

func toErrorResponse(err error) *errorResponse {
	var (
		qErr    *queryError
		vErrs   validator.ValidationErrors
		covErr  *domain.UnknownCovariateError
		cityErr *domain.UnknownCityError
	)
	response := &errorResponse{Error: err.Error()}

	switch {
	case errors.As(err, &qErr):
		response.Status, response.Code = http.StatusBadRequest, codeInvalidQuery
	case errors.As(err, &vErrs):
		response.Status, response.Code = http.StatusBadRequest, codeInvalidQuery
		response.Error = describeValidation(vErrs)
	case errors.As(err, &covErr):
		response.Status, response.Code = http.StatusBadRequest, codeUnknownCovariate
	case errors.As(err, &cityErr):
		response.Status, response.Code = http.StatusNotFound, codeUnknownCity
	case errors.Is(err, analytics.ErrSummariesUnavailable):
		response.Status, response.Code = http.StatusNotFound, codeSummaryUnavailable
	default:
		response.Status, response.Code = http.StatusInternalServerError, codeInternal
		response.Error = "internal error"
	}
	return response
}

func describeValidation(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must be between 1 and 12", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

func queryTagName(fld reflect.StructField) string {
	name := fld.Tag.Get("query")
	if name == "" {
		return fld.Name
	}
	return name
}
