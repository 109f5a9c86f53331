package handler

import (
	"net/http"

	"github.com/dafibh/tally/tally-backend/internal/middleware"
	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// PreferencesHandler handles user preference HTTP requests
type PreferencesHandler struct {
	preferencesService *service.PreferencesService
}

// NewPreferencesHandler creates a new PreferencesHandler
func NewPreferencesHandler(preferencesService *service.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{preferencesService: preferencesService}
}

// UpdatePreferencesRequest represents the update preferences request body. Omitted fields are unchanged.
type UpdatePreferencesRequest struct {
	Currency            *string `json:"currency,omitempty" validate:"omitempty,iso4217"`
	EmergencyFundMonths *int    `json:"emergencyFundMonths,omitempty" validate:"omitempty,min=1,max=24"`
	MonthlySalary       *string `json:"monthlySalary,omitempty"`
	EmergencyFundSaved  *string `json:"emergencyFundSaved,omitempty"`
}

// GetPreferences handles GET /api/v1/users/preferences
func (h *PreferencesHandler) GetPreferences(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	prefs, err := h.preferencesService.GetPreferences(c.Request().Context(), owner)
	if err != nil {
		return respondError(c, err, "Failed to get preferences")
	}
	return c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences handles PUT /api/v1/users/preferences
func (h *PreferencesHandler) UpdatePreferences(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	input := service.PreferencesInput{
		Currency:            req.Currency,
		EmergencyFundMonths: req.EmergencyFundMonths,
	}
	var verrs []ValidationError
	if req.MonthlySalary != nil {
		v, err := decimal.NewFromString(*req.MonthlySalary)
		if err != nil {
			verrs = append(verrs, ValidationError{Field: "monthlySalary", Message: "Must be a valid decimal number"})
		} else {
			input.MonthlySalary = &v
		}
	}
	if req.EmergencyFundSaved != nil {
		v, err := decimal.NewFromString(*req.EmergencyFundSaved)
		if err != nil {
			verrs = append(verrs, ValidationError{Field: "emergencyFundSaved", Message: "Must be a valid decimal number"})
		} else {
			input.EmergencyFundSaved = &v
		}
	}
	if len(verrs) > 0 {
		return NewValidationError(c, "Validation failed", verrs)
	}

	prefs, err := h.preferencesService.SavePreferences(c.Request().Context(), owner, input)
	if err != nil {
		return respondError(c, err, "Failed to save preferences")
	}
	return c.JSON(http.StatusOK, prefs)
}
