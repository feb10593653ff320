package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://fortuna.app/errors/validation"
	ErrorTypeNotFound     = "https://fortuna.app/errors/not-found"
	ErrorTypeUnauthorized = "https://fortuna.app/errors/unauthorized"
	ErrorTypeConflict     = "https://fortuna.app/errors/conflict"
	ErrorTypeUpstream     = "https://fortuna.app/errors/upstream"
	ErrorTypeUnavailable  = "https://fortuna.app/errors/service-unavailable"
	ErrorTypeInternal     = "https://fortuna.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUpstreamError reports that the finance API could not be reached or failed
func NewUpstreamError(c echo.Context, detail string) error {
	return c.JSON(http.StatusBadGateway, ProblemDetails{
		Type:     ErrorTypeUpstream,
		Title:    "Bad Gateway",
		Status:   http.StatusBadGateway,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewServiceUnavailableError reports a feature whose backing service is not configured
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypeUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// respondError maps a domain error kind to its problem response
func respondError(c echo.Context, err error, action string) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		fields := make([]ValidationError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, ValidationError{Field: f.Field, Message: f.Message})
		}
		detail := verr.Detail
		if detail == "" {
			detail = "Validation failed"
		}
		return NewValidationError(c, detail, fields)
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return NewValidationError(c, err.Error(), nil)
	case errors.Is(err, domain.ErrAuth):
		return NewUnauthorizedError(c, "Your session has expired, please log in again")
	case errors.Is(err, domain.ErrConflict):
		return NewConflictError(c, detailOf(err, "Resource already exists"))
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, detailOf(err, "Resource not found"))
	case errors.Is(err, domain.ErrNetwork):
		log.Warn().Err(err).Str("action", action).Msg("Finance API call failed")
		return NewUpstreamError(c, "Finance service is unavailable, please try again")
	}

	log.Error().Err(err).Str("action", action).Msg("Unexpected error")
	return NewInternalError(c, "Failed to "+action)
}

func detailOf(err error, fallback string) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// StaleViewHeader is set when a change was saved but the snapshot could not be reloaded
const StaleViewHeader = "X-Dashboard-Stale"

// reloadFailed reports whether err only means the reload after an accepted
// change failed. The change stands, so the caller answers with success.
func reloadFailed(c echo.Context, err error) bool {
	var reloadErr *viewmodel.ReloadError
	if !errors.As(err, &reloadErr) {
		return false
	}
	log.Warn().Err(reloadErr.Err).Str("path", c.Request().URL.Path).Msg("Change saved but dashboard reload failed")
	c.Response().Header().Set(StaleViewHeader, "true")
	return true
}
