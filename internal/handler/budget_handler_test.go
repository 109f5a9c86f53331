package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/dafibh/tally/tally-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type budgetHandlerFixture struct {
	e       *echo.Echo
	handler *BudgetHandler
	service *service.BudgetService
	ledger  *testutil.MockLedgerChecker
	rent    *domain.ExpenseType
	food    *domain.ExpenseType
}

func newBudgetHandlerFixture(granularity domain.PeriodGranularity) *budgetHandlerFixture {
	types := testutil.NewMockExpenseTypeRepository()
	ledger := testutil.NewMockLedgerChecker()
	svc := service.NewBudgetService(testutil.NewMockBudgetRepository(), types, ledger, service.BudgetServiceConfig{
		Granularity: granularity,
		ItemPolicy:  domain.ItemMonthStrict,
	})
	svc.SetClock(func() time.Time { return time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC) })

	return &budgetHandlerFixture{
		e:       newTestEcho(),
		handler: NewBudgetHandler(svc),
		service: svc,
		ledger:  ledger,
		rent:    types.AddExpenseType(&domain.ExpenseType{OwnerEmail: testOwner, Name: "Rent", Icon: "home", IsMandatory: true}),
		food:    types.AddExpenseType(&domain.ExpenseType{OwnerEmail: testOwner, Name: "Food"}),
	}
}

func (f *budgetHandlerFixture) seed(t *testing.T, period domain.BudgetPeriod) *domain.BudgetView {
	t.Helper()
	view, err := f.service.CreateBudget(context.Background(), testOwner, period, []domain.BudgetItemInput{
		{ExpenseTypeID: f.rent.ID, Amount: decimal.NewFromInt(1200)},
		{ExpenseTypeID: f.food.ID, Amount: decimal.NewFromInt(400)},
	})
	require.NoError(t, err)
	return view
}

func TestCreateBudget_Success(t *testing.T) {
	f := newBudgetHandlerFixture(domain.PeriodMonthly)
	body := fmt.Sprintf(`{"year": 2024, "month": 6, "items": [
		{"expenseTypeId": %q, "amount": "1200.00"},
		{"expenseTypeId": %q, "amount": "55.50", "isOneTime": true, "applicableMonth": 6}
	]}`, f.rent.ID, f.food.ID)

	c, rec := newRequest(f.e, http.MethodPost, "/api/v1/budgets", body, testOwner)
	require.NoError(t, f.handler.CreateBudget(c))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var view domain.BudgetView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, domain.MonthlyPeriod(2024, 6), view.Period)
	assert.Equal(t, testOwner, view.OwnerEmail)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Rent", view.Items[0].ExpenseTypeName)
	assert.True(t, view.Items[0].IsMandatory)
	assert.Equal(t, "1255.5", view.TotalAmount.String())
}

func TestCreateBudget_Errors(t *testing.T) {
	f := newBudgetHandlerFixture(domain.PeriodMonthly)
	f.seed(t, domain.MonthlyPeriod(2024, 7))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"malformed json", `{"year": `, http.StatusBadRequest, ""},
		{"missing year", `{"month": 6, "items": []}`, http.StatusBadRequest, ""},
		{"expense type not a uuid", `{"year": 2024, "month": 6, "items": [{"expenseTypeId": "nope", "amount": "1"}]}`, http.StatusBadRequest, ""},
		{"amount not a number", fmt.Sprintf(`{"year": 2024, "month": 6, "items": [{"expenseTypeId": %q, "amount": "abc"}]}`, f.rent.ID), http.StatusBadRequest, "items[0].amount"},
		{"month out of range", `{"year": 2024, "month": 13, "items": []}`, http.StatusBadRequest, ""},
		{"past year", `{"year": 2023, "month": 6, "items": []}`, http.StatusBadRequest, ""},
		{"duplicate period", `{"year": 2024, "month": 7, "items": []}`, http.StatusConflict, ""},
		{"unknown category", `{"year": 2024, "month": 8, "items": [{"expenseTypeId": "6f1c1a52-2f7e-4a8e-9d3b-2f1f9c0e7a11", "amount": "10"}]}`, http.StatusUnprocessableEntity, ""},
		{"negative amount", fmt.Sprintf(`{"year": 2024, "month": 8, "items": [{"expenseTypeId": %q, "amount": "-1"}]}`, f.rent.ID), http.StatusUnprocessableEntity, ""},
		{"one-time without month", fmt.Sprintf(`{"year": 2024, "month": 8, "items": [{"expenseTypeId": %q, "amount": "10", "isOneTime": true}]}`, f.rent.ID), http.StatusUnprocessableEntity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newRequest(f.e, http.MethodPost, "/api/v1/budgets", tt.body, testOwner)
			require.NoError(t, f.handler.CreateBudget(c))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			problem := decodeProblem(t, rec)
			assert.Equal(t, tt.wantStatus, problem.Status)
			if tt.wantField != "" {
				require.NotEmpty(t, problem.Errors)
				assert.Equal(t, tt.wantField, problem.Errors[0].Field)
			}
		})
	}
}

func TestCreateBudget_Unauthorized(t *testing.T) {
	f := newBudgetHandlerFixture(domain.PeriodMonthly)
	c, rec := newRequest(f.e, http.MethodPost, "/api/v1/budgets", `{"year": 2024, "month": 6}`, "")

	require.NoError(t, f.handler.CreateBudget(c))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetBudget(t *testing.T) {
	f := newBudgetHandlerFixture(domain.PeriodMonthly)
	seeded := f.seed(t, domain.MonthlyPeriod(2024, 6))

	t.Run("found", func(t *testing.T) {
		c, rec := newRequest(f.e, http.MethodGet, "/api/v1/budgets/2024/6", "", testOwner)
		withParams(c, "year", "2024", "month", "6")
		require.NoError(t, f.handler.GetBudget(c))

		require.Equal(t, http.StatusOK, rec.Code)
		var view domain.BudgetView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, seeded.ID, view.ID)
		assert.Len(t, view.Items, 2)
	})

	t.Run("other owner sees nothing", func(t *testing.T) {
		c, rec := newRequest(f.e, http.MethodGet, "/api/v1/budgets/2024/6", "", "bob@example.com")
		withParams(c, "year", "2024", "month", "6")
		require.NoError(t, f.handler.GetBudget(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing month for monthly deployment", func(t *testing.T) {
		c, rec := newRequest(f.e, http.MethodGet, "/api/v1/budgets/2024", "", testOwner)
		withParams(c, "year", "2024")
		require.NoError(t, f.handler.GetBudget(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-numeric year", func(t *testing.T) {
		c, rec := newRequest(f.e, http.MethodGet, "/api/v1/budgets/abc/6", "", testOwner)
		withParams(c, "year", "abc", "month", "6")
		require.NoError(t, f.handler.GetBudget(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetBudgets(t *testing.T) {
	f := newBudgetHandlerFixture(domain.PeriodMonthly)
	f.seed(t, domain.MonthlyPeriod(2024, 5))
	f.seed(t, domain.MonthlyPeriod(2024, 6))

	c, rec := newRequest(f.e, http.MethodGet, "/api/v1/budgets?year=2024", "", testOwner)
	require.NoError(t, f.handler.GetBudgets(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var views []domain.BudgetView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	assert.Len(t, views, 2)

	c, rec = newRequest(f.e, http.MethodGet, "/api/v1/budgets?year=soon", "", testOwner)
	require.NoError(t, f.handler.GetBudgets(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateBudget_ReplacesItems(t *testing.T) {
	f := newBudgetHandlerFixture(domain.PeriodMonthly)
	f.seed(t, domain.MonthlyPeriod(2024, 6))

	body := fmt.Sprintf(`{"items": [{"expenseTypeId": %q, "amount": "900"}]}`, f.rent.ID)
	c, rec := newRequest(f.e, http.MethodPut, "/api/v1/budgets/2024/6", body, testOwner)
	withParams(c, "year", "2024", "month", "6")
	require.NoError(t, f.handler.UpdateBudget(c))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view domain.BudgetView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, "900", view.TotalAmount.String())
}

func TestDeleteBudget(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newBudgetHandlerFixture(domain.PeriodMonthly)
		f.seed(t, domain.MonthlyPeriod(2024, 6))

		c, rec := newRequest(f.e, http.MethodDelete, "/api/v1/budgets/2024/6", "", testOwner)
		withParams(c, "year", "2024", "month", "6")
		require.NoError(t, f.handler.DeleteBudget(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("items with transactions", func(t *testing.T) {
		f := newBudgetHandlerFixture(domain.PeriodMonthly)
		view := f.seed(t, domain.MonthlyPeriod(2024, 6))
		f.ledger.MarkInUse(view.Items[1].ID)

		c, rec := newRequest(f.e, http.MethodDelete, "/api/v1/budgets/2024/6", "", testOwner)
		withParams(c, "year", "2024", "month", "6")
		require.NoError(t, f.handler.DeleteBudget(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, ErrorTypeConflict, decodeProblem(t, rec).Type)
	})

	t.Run("ledger unreachable", func(t *testing.T) {
		f := newBudgetHandlerFixture(domain.PeriodMonthly)
		f.seed(t, domain.MonthlyPeriod(2024, 6))
		f.ledger.Err = fmt.Errorf("%w: connection refused", domain.ErrDependencyUnavailable)

		c, rec := newRequest(f.e, http.MethodDelete, "/api/v1/budgets/2024/6", "", testOwner)
		withParams(c, "year", "2024", "month", "6")
		require.NoError(t, f.handler.DeleteBudget(c))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, ErrorTypeUnavailable, decodeProblem(t, rec).Type)

		// the budget must survive a refused delete
		_, err := f.service.GetBudget(context.Background(), testOwner, domain.MonthlyPeriod(2024, 6))
		assert.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		f := newBudgetHandlerFixture(domain.PeriodMonthly)
		c, rec := newRequest(f.e, http.MethodDelete, "/api/v1/budgets/2024/6", "", testOwner)
		withParams(c, "year", "2024", "month", "6")
		require.NoError(t, f.handler.DeleteBudget(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCopyBudget(t *testing.T) {
	t.Run("defaults to previous month", func(t *testing.T) {
		f := newBudgetHandlerFixture(domain.PeriodMonthly)
		f.seed(t, domain.MonthlyPeriod(2024, 5))

		c, rec := newRequest(f.e, http.MethodPost, "/api/v1/budgets/copy?toYear=2024&toMonth=6", "", testOwner)
		require.NoError(t, f.handler.CopyBudget(c))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var view domain.BudgetView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, domain.MonthlyPeriod(2024, 6), view.Period)
		assert.Len(t, view.Items, 2)
	})

	t.Run("explicit source", func(t *testing.T) {
		f := newBudgetHandlerFixture(domain.PeriodMonthly)
		f.seed(t, domain.MonthlyPeriod(2024, 2))

		c, rec := newRequest(f.e, http.MethodPost, "/api/v1/budgets/copy?fromYear=2024&fromMonth=2&toYear=2024&toMonth=9", "", testOwner)
		require.NoError(t, f.handler.CopyBudget(c))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("yearly deployment", func(t *testing.T) {
		f := newBudgetHandlerFixture(domain.PeriodYearly)
		f.seed(t, domain.YearlyPeriod(2024))
		f.service.SetClock(func() time.Time { return time.Date(2024, time.December, 2, 0, 0, 0, 0, time.UTC) })

		c, rec := newRequest(f.e, http.MethodPost, "/api/v1/budgets/copy?toYear=2025", "", testOwner)
		require.NoError(t, f.handler.CopyBudget(c))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var view domain.BudgetView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, domain.YearlyPeriod(2025), view.Period)
	})

	t.Run("missing source", func(t *testing.T) {
		f := newBudgetHandlerFixture(domain.PeriodMonthly)
		c, rec := newRequest(f.e, http.MethodPost, "/api/v1/budgets/copy?toYear=2024&toMonth=6", "", testOwner)
		require.NoError(t, f.handler.CopyBudget(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("target required", func(t *testing.T) {
		f := newBudgetHandlerFixture(domain.PeriodMonthly)
		c, rec := newRequest(f.e, http.MethodPost, "/api/v1/budgets/copy", "", testOwner)
		require.NoError(t, f.handler.CopyBudget(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		problem := decodeProblem(t, rec)
		require.Len(t, problem.Errors, 1)
		assert.Equal(t, "toYear", problem.Errors[0].Field)
	})
}

func TestRespondError_Mapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrBudgetNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrDuplicateName), http.StatusConflict},
		{domain.ErrExpenseTypeInUse, http.StatusConflict},
		{domain.ErrInvalidItemState, http.StatusUnprocessableEntity},
		{domain.ErrInvalidPreferences, http.StatusBadRequest},
		{domain.ErrDependencyUnavailable, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	e := newTestEcho()
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			c, rec := newRequest(e, http.MethodGet, "/x", "", testOwner)
			require.NoError(t, respondError(c, tt.err, "test"))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
