package handler

import (
	"net/http"
	"strconv"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/middleware"
	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/dafibh/tally/tally-backend/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// BudgetHandler handles budget lifecycle HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// BudgetItemRequest represents a single line item in create and update requests
type BudgetItemRequest struct {
	ExpenseTypeID   string `json:"expenseTypeId" validate:"required,uuid"`
	Amount          string `json:"amount" validate:"required"`
	IsOneTime       bool   `json:"isOneTime"`
	ApplicableMonth *int   `json:"applicableMonth,omitempty" validate:"omitempty,min=1,max=12"`
}

// CreateBudgetRequest represents the create budget request body. Month is omitted for yearly budgets.
type CreateBudgetRequest struct {
	Year  int                 `json:"year" validate:"required"`
	Month int                 `json:"month,omitempty"`
	Items []BudgetItemRequest `json:"items" validate:"dive"`
}

// UpdateBudgetRequest represents the update budget request body
type UpdateBudgetRequest struct {
	Items []BudgetItemRequest `json:"items" validate:"dive"`
}

// GetBudgets handles GET /api/v1/budgets
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var year *int
	if raw := c.QueryParam("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError(c, "Invalid year", []ValidationError{
				{Field: "year", Message: "Must be an integer"},
			})
		}
		year = &y
	}

	budgets, err := h.budgetService.GetBudgets(c.Request().Context(), owner, year)
	if err != nil {
		return respondError(c, err, "Failed to list budgets")
	}
	return c.JSON(http.StatusOK, budgets)
}

// GetBudget handles GET /api/v1/budgets/:year and /api/v1/budgets/:year/:month
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	period, err := periodFromPath(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	budget, err := h.budgetService.GetBudget(c.Request().Context(), owner, period)
	if err != nil {
		return respondError(c, err, "Failed to get budget")
	}
	return c.JSON(http.StatusOK, budget)
}

// CreateBudget handles POST /api/v1/budgets
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	items, verrs := toItemInputs(req.Items)
	if len(verrs) > 0 {
		return NewValidationError(c, "Validation failed", verrs)
	}

	period := domain.BudgetPeriod{Year: req.Year, Month: req.Month}
	budget, err := h.budgetService.CreateBudget(c.Request().Context(), owner, period, items)
	if err != nil {
		return respondError(c, err, "Failed to create budget")
	}
	return c.JSON(http.StatusCreated, budget)
}

// UpdateBudget handles PUT /api/v1/budgets/:year and /api/v1/budgets/:year/:month.
// The request's items replace the budget's items.
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	period, err := periodFromPath(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	var req UpdateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	items, verrs := toItemInputs(req.Items)
	if len(verrs) > 0 {
		return NewValidationError(c, "Validation failed", verrs)
	}

	budget, err := h.budgetService.UpdateBudget(c.Request().Context(), owner, period, items)
	if err != nil {
		return respondError(c, err, "Failed to update budget")
	}
	return c.JSON(http.StatusOK, budget)
}

// DeleteBudget handles DELETE /api/v1/budgets/:year and /api/v1/budgets/:year/:month
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	period, err := periodFromPath(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	if err := h.budgetService.DeleteBudget(c.Request().Context(), owner, period); err != nil {
		return respondError(c, err, "Failed to delete budget")
	}
	return c.NoContent(http.StatusNoContent)
}

// CopyBudget handles POST /api/v1/budgets/copy?fromYear&fromMonth&toYear&toMonth.
// When the source is omitted it defaults to the period before the target.
func (h *BudgetHandler) CopyBudget(c echo.Context) error {
	owner := middleware.GetOwnerEmail(c)
	if owner == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	toYear, err := strconv.Atoi(c.QueryParam("toYear"))
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "toYear", Message: "toYear is required and must be an integer"},
		})
	}
	toMonth, err := optionalInt(c.QueryParam("toMonth"))
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "toMonth", Message: "Must be an integer"},
		})
	}
	to := domain.BudgetPeriod{Year: toYear, Month: toMonth}

	from := h.previousPeriod(to)
	if raw := c.QueryParam("fromYear"); raw != "" {
		fromYear, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "fromYear", Message: "Must be an integer"},
			})
		}
		fromMonth, err := optionalInt(c.QueryParam("fromMonth"))
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "fromMonth", Message: "Must be an integer"},
			})
		}
		from = domain.BudgetPeriod{Year: fromYear, Month: fromMonth}
	}

	budget, err := h.budgetService.CopyBudget(c.Request().Context(), owner, from, to)
	if err != nil {
		return respondError(c, err, "Failed to copy budget")
	}
	return c.JSON(http.StatusCreated, budget)
}

func (h *BudgetHandler) previousPeriod(to domain.BudgetPeriod) domain.BudgetPeriod {
	if h.budgetService.Granularity() == domain.PeriodYearly || to.Month == 0 {
		return domain.YearlyPeriod(to.Year - 1)
	}
	y, m := util.PreviousMonth(to.Year, to.Month)
	return domain.MonthlyPeriod(y, m)
}

func periodFromPath(c echo.Context) (domain.BudgetPeriod, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return domain.BudgetPeriod{}, errInvalidPathYear
	}
	month, err := optionalInt(c.Param("month"))
	if err != nil {
		return domain.BudgetPeriod{}, errInvalidPathMonth
	}
	return domain.BudgetPeriod{Year: year, Month: month}, nil
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func toItemInputs(reqs []BudgetItemRequest) ([]domain.BudgetItemInput, []ValidationError) {
	items := make([]domain.BudgetItemInput, 0, len(reqs))
	var verrs []ValidationError
	for i, r := range reqs {
		id, err := uuid.Parse(r.ExpenseTypeID)
		if err != nil {
			verrs = append(verrs, ValidationError{
				Field:   "items[" + strconv.Itoa(i) + "].expenseTypeId",
				Message: "Must be a valid UUID",
			})
			continue
		}
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			verrs = append(verrs, ValidationError{
				Field:   "items[" + strconv.Itoa(i) + "].amount",
				Message: "Must be a valid decimal number",
			})
			continue
		}
		items = append(items, domain.BudgetItemInput{
			ExpenseTypeID:   id,
			Amount:          amount,
			IsOneTime:       r.IsOneTime,
			ApplicableMonth: r.ApplicableMonth,
		})
	}
	return items, verrs
}
