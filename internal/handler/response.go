package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/tally/tally-backend/internal/domain"
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
	ErrorTypeValidation    = "https://tally.app/errors/validation"
	ErrorTypeUnprocessable = "https://tally.app/errors/unprocessable"
	ErrorTypeNotFound      = "https://tally.app/errors/not-found"
	ErrorTypeUnauthorized  = "https://tally.app/errors/unauthorized"
	ErrorTypeConflict      = "https://tally.app/errors/conflict"
	ErrorTypeUnavailable   = "https://tally.app/errors/dependency-unavailable"
	ErrorTypeInternal      = "https://tally.app/errors/internal"
)

func problem(c echo.Context, status int, typ, title, detail string, errs []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errs,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return problem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewUnprocessableError creates a response for well-formed requests that break a business rule
func NewUnprocessableError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnprocessableEntity, ErrorTypeUnprocessable, "Unprocessable Entity", detail, nil)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail, nil)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, nil)
}

// NewServiceUnavailableError creates a response for a failed downstream dependency
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return problem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

// respondError maps a service error onto a problem response. Handlers check
// field-level errors first and fall through to this for everything else.
func respondError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrBudgetNotFound),
		errors.Is(err, domain.ErrExpenseTypeNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, err.Error())

	case errors.Is(err, domain.ErrDuplicateBudget),
		errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, domain.ErrBudgetInUse),
		errors.Is(err, domain.ErrExpenseTypeInUse):
		return NewConflictError(c, err.Error())

	case errors.Is(err, domain.ErrInvalidItemState),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnknownOrForeignCategory):
		return NewUnprocessableError(c, err.Error())

	case errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidPreferences),
		errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrNameTooLong),
		errors.Is(err, domain.ErrIconTooLong),
		errors.Is(err, domain.ErrDescriptionTooLong):
		return NewValidationError(c, err.Error(), nil)

	case errors.Is(err, domain.ErrDependencyUnavailable):
		log.Warn().Err(err).Str("path", c.Request().URL.Path).Msg(action + ": dependency unavailable")
		return NewServiceUnavailableError(c, "A required service is unavailable, please retry")

	default:
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg(action)
		return NewInternalError(c, "Failed to complete request")
	}
}
