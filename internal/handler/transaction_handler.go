package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/client/ledger"
	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/middleware"
	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles ledger HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// TransactionRequest represents the create and update request body
type TransactionRequest struct {
	BudgetItemID    *string `json:"budgetItemId,omitempty" validate:"omitempty,uuid"`
	ExpenseTypeID   string  `json:"expenseTypeId" validate:"required,uuid"`
	Amount          string  `json:"amount" validate:"required"`
	Description     *string `json:"description,omitempty"`
	TransactionDate string  `json:"transactionDate" validate:"required"`
}

// SpentResponse reports spending on one expense type in a month
type SpentResponse struct {
	ExpenseTypeID uuid.UUID       `json:"expenseTypeId"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
}

// parseRequest binds and validates a transaction body. A nil input means the
// error response has already been written and the returned error should be passed on.
func (h *TransactionHandler) parseRequest(c echo.Context) (*service.TransactionInput, error) {
	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return nil, NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return nil, NewValidationError(c, err.Error(), nil)
	}

	expenseTypeID, err := uuid.Parse(req.ExpenseTypeID)
	if err != nil {
		return nil, NewValidationError(c, "Invalid expenseTypeId", []ValidationError{
			{Field: "expenseTypeId", Message: "Must be a valid UUID"},
		})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}
	date, err := time.Parse(dateLayout, req.TransactionDate)
	if err != nil {
		return nil, NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "transactionDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}

	input := &service.TransactionInput{
		ExpenseTypeID:   expenseTypeID,
		Amount:          amount,
		Description:     req.Description,
		TransactionDate: date,
	}
	if req.BudgetItemID != nil && *req.BudgetItemID != "" {
		id, err := uuid.Parse(*req.BudgetItemID)
		if err != nil {
			return nil, NewValidationError(c, "Invalid budgetItemId", []ValidationError{
				{Field: "budgetItemId", Message: "Must be a valid UUID"},
			})
		}
		input.BudgetItemID = &id
	}
	return input, nil
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	input, err := h.parseRequest(c)
	if input == nil {
		return err
	}

	tx, err := h.transactionService.CreateTransaction(c.Request().Context(), owner, *input)
	if err != nil {
		return respondError(c, err, "Failed to create transaction")
	}
	return c.JSON(http.StatusCreated, tx)
}

// GetTransactions handles GET /api/v1/transactions?startDate&endDate&expenseTypeId&page&pageSize
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	filters := &domain.TransactionFilters{}
	var err error
	if filters.StartDate, err = optionalDate(c.QueryParam("startDate")); err != nil {
		return NewValidationError(c, "Invalid startDate", []ValidationError{
			{Field: "startDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	if filters.EndDate, err = optionalDate(c.QueryParam("endDate")); err != nil {
		return NewValidationError(c, "Invalid endDate", []ValidationError{
			{Field: "endDate", Message: "Must be in YYYY-MM-DD format"},
		})
	}
	if raw := c.QueryParam("expenseTypeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return NewValidationError(c, "Invalid expenseTypeId", []ValidationError{
				{Field: "expenseTypeId", Message: "Must be a valid UUID"},
			})
		}
		filters.ExpenseTypeID = &id
	}
	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError(c, "Invalid page", nil)
		}
		filters.Page = int32(page)
	}
	if raw := c.QueryParam("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError(c, "Invalid pageSize", nil)
		}
		filters.PageSize = int32(size)
	}

	result, err := h.transactionService.GetTransactions(c.Request().Context(), owner, filters)
	if err != nil {
		return respondError(c, err, "Failed to list transactions")
	}
	return c.JSON(http.StatusOK, result)
}

// GetTransaction handles GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	tx, err := h.transactionService.GetTransaction(c.Request().Context(), owner, id)
	if err != nil {
		return respondError(c, err, "Failed to get transaction")
	}
	return c.JSON(http.StatusOK, tx)
}

// UpdateTransaction handles PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	input, err := h.parseRequest(c)
	if input == nil {
		return err
	}

	tx, err := h.transactionService.UpdateTransaction(c.Request().Context(), owner, id, *input)
	if err != nil {
		return respondError(c, err, "Failed to update transaction")
	}
	return c.JSON(http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), owner, id); err != nil {
		return respondError(c, err, "Failed to delete transaction")
	}
	return c.NoContent(http.StatusNoContent)
}

// CheckBudgetItem handles GET /api/v1/transactions/check-budget-item/:budgetItemId.
// Called by the budget service with a service key, not a user token.
func (h *TransactionHandler) CheckBudgetItem(c echo.Context) error {
	id, ok := uuidParam(c, "budgetItemId")
	if !ok {
		return NewValidationError(c, "Invalid budget item ID", nil)
	}

	has, err := h.transactionService.HasBudgetItemTransactions(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to check budget item")
	}
	return c.JSON(http.StatusOK, ledger.CheckResponse{BudgetItemID: id, HasTransactions: has})
}

// GetMonthlySummary handles GET /api/v1/transactions/summary/monthly?year&month
func (h *TransactionHandler) GetMonthlySummary(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	year, month, err := yearMonthQuery(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	summary, err := h.transactionService.GetMonthlySummary(c.Request().Context(), owner, year, month)
	if err != nil {
		return respondError(c, err, "Failed to get monthly summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// GetExpenseTypeSummary handles GET /api/v1/transactions/summary/by-type?year&month
func (h *TransactionHandler) GetExpenseTypeSummary(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	year, month, err := yearMonthQuery(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	totals, err := h.transactionService.GetExpenseTypeSummary(c.Request().Context(), owner, year, month)
	if err != nil {
		return respondError(c, err, "Failed to get expense type summary")
	}
	return c.JSON(http.StatusOK, totals)
}

// GetYearlySummary handles GET /api/v1/transactions/summary/yearly?year
func (h *TransactionHandler) GetYearlySummary(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil {
		return NewValidationError(c, "year is required and must be an integer", nil)
	}

	summary, err := h.transactionService.GetYearlySummary(c.Request().Context(), owner, year)
	if err != nil {
		return respondError(c, err, "Failed to get yearly summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// GetSpentByExpenseType handles GET /api/v1/transactions/spent/:expenseTypeId?year&month
func (h *TransactionHandler) GetSpentByExpenseType(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, ok := uuidParam(c, "expenseTypeId")
	if !ok {
		return NewValidationError(c, "Invalid expense type ID", nil)
	}
	year, month, err := yearMonthQuery(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	spent, err := h.transactionService.GetSpentByExpenseType(c.Request().Context(), owner, id, year, month)
	if err != nil {
		return respondError(c, err, "Failed to get spent amount")
	}
	return c.JSON(http.StatusOK, SpentResponse{ExpenseTypeID: id, Year: year, Month: month, TotalSpent: spent})
}

func yearMonthQuery(c echo.Context) (int, int, error) {
	year, err := strconv.Atoi(c.QueryParam("year"))
	if err != nil {
		return 0, 0, errInvalidPathYear
	}
	month, err := strconv.Atoi(c.QueryParam("month"))
	if err != nil {
		return 0, 0, errInvalidPathMonth
	}
	return year, month, nil
}
