package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/middleware"
	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ExpenseTypeHandler handles expense category HTTP requests
type ExpenseTypeHandler struct {
	expenseTypeService *service.ExpenseTypeService
}

// NewExpenseTypeHandler creates a new ExpenseTypeHandler
func NewExpenseTypeHandler(expenseTypeService *service.ExpenseTypeService) *ExpenseTypeHandler {
	return &ExpenseTypeHandler{expenseTypeService: expenseTypeService}
}

// ExpenseTypeRequest represents the create and update request body
type ExpenseTypeRequest struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	IsMandatory *bool  `json:"isMandatory,omitempty"`
	Accumulate  *bool  `json:"accumulate,omitempty"`
}

func (r ExpenseTypeRequest) toInput() service.ExpenseTypeInput {
	return service.ExpenseTypeInput{
		Name:        r.Name,
		Icon:        r.Icon,
		IsMandatory: r.IsMandatory,
		Accumulate:  r.Accumulate,
	}
}

// GetExpenseTypes handles GET /api/v1/expense-types
func (h *ExpenseTypeHandler) GetExpenseTypes(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	types, err := h.expenseTypeService.GetExpenseTypes(c.Request().Context(), owner)
	if err != nil {
		return respondError(c, err, "Failed to list expense types")
	}
	return c.JSON(http.StatusOK, types)
}

// GetExpenseType handles GET /api/v1/expense-types/:id
func (h *ExpenseTypeHandler) GetExpenseType(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense type ID", nil)
	}

	et, err := h.expenseTypeService.GetExpenseType(c.Request().Context(), owner, id)
	if err != nil {
		return respondError(c, err, "Failed to get expense type")
	}
	return c.JSON(http.StatusOK, et)
}

// CreateExpenseType handles POST /api/v1/expense-types
func (h *ExpenseTypeHandler) CreateExpenseType(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req ExpenseTypeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	et, err := h.expenseTypeService.CreateExpenseType(c.Request().Context(), owner, req.toInput())
	if err != nil {
		if verr := expenseTypeFieldError(err); verr != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{*verr})
		}
		return respondError(c, err, "Failed to create expense type")
	}
	return c.JSON(http.StatusCreated, et)
}

// UpdateExpenseType handles PUT /api/v1/expense-types/:id
func (h *ExpenseTypeHandler) UpdateExpenseType(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense type ID", nil)
	}

	var req ExpenseTypeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	et, err := h.expenseTypeService.UpdateExpenseType(c.Request().Context(), owner, id, req.toInput())
	if err != nil {
		if verr := expenseTypeFieldError(err); verr != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{*verr})
		}
		return respondError(c, err, "Failed to update expense type")
	}
	return c.JSON(http.StatusOK, et)
}

// DeleteExpenseType handles DELETE /api/v1/expense-types/:id
func (h *ExpenseTypeHandler) DeleteExpenseType(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid expense type ID", nil)
	}

	if err := h.expenseTypeService.DeleteExpenseType(c.Request().Context(), owner, id); err != nil {
		return respondError(c, err, "Failed to delete expense type")
	}
	return c.NoContent(http.StatusNoContent)
}

func expenseTypeFieldError(err error) *ValidationError {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return &ValidationError{Field: "name", Message: "Name is required"}
	case errors.Is(err, domain.ErrNameTooLong):
		return &ValidationError{Field: "name", Message: "Name must be 100 characters or less"}
	case errors.Is(err, domain.ErrIconTooLong):
		return &ValidationError{Field: "icon", Message: "Icon must be 50 characters or less"}
	}
	return nil
}
