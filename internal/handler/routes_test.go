package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/middleware"
	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/dafibh/tally/tally-backend/internal/testutil"
	"github.com/dafibh/tally/tally-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	goodToken      = "good-token"
	testServiceKey = "s3cret"
)

// stubJWT accepts goodToken and issues claims for testOwner
type stubJWT struct{}

func (stubJWT) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	if token != goodToken {
		return nil, errors.New("bad token")
	}
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|alice"},
		CustomClaims:     &middleware.CustomClaims{Email: "Alice@Example.com"},
	}, nil
}

func newLedgerServer(t *testing.T) (*echo.Echo, *testutil.MockTransactionRepository) {
	t.Helper()
	repo := testutil.NewMockTransactionRepository()
	limiter := middleware.NewRateLimiterWithConfig(600, 50)
	t.Cleanup(limiter.Stop)

	e := newTestEcho()
	RegisterLedgerRoutes(e,
		middleware.NewAuthMiddlewareWithValidator(stubJWT{}),
		middleware.NewServiceKeyAuthMiddleware(testServiceKey),
		limiter,
		NewTransactionHandler(service.NewTransactionService(repo)),
		NewWebSocketHandler(websocket.NewHub(), &mockTokenValidator{owner: testOwner}, testAllowedOrigins),
	)
	return e, repo
}

func serve(e *echo.Echo, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLedgerRoutes_CheckBudgetItemRequiresServiceKey(t *testing.T) {
	e, repo := newLedgerServer(t)
	itemID := uuid.New()
	repo.AddTransaction(&domain.Transaction{
		OwnerEmail:      testOwner,
		BudgetItemID:    &itemID,
		ExpenseTypeID:   uuid.New(),
		Amount:          decimal.NewFromInt(1),
		TransactionDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	target := "/api/v1/transactions/check-budget-item/" + itemID.String()

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"no key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{middleware.ServiceKeyHeader: "nope"}, http.StatusUnauthorized},
		{"user token is not enough", map[string]string{"Authorization": "Bearer " + goodToken}, http.StatusUnauthorized},
		{"valid key", map[string]string{middleware.ServiceKeyHeader: testServiceKey}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, target, tt.headers)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLedgerRoutes_UserEndpoints(t *testing.T) {
	e, repo := newLedgerServer(t)
	tx := repo.AddTransaction(&domain.Transaction{
		OwnerEmail:      testOwner,
		ExpenseTypeID:   uuid.New(),
		Amount:          decimal.NewFromInt(8),
		TransactionDate: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
	})
	auth := map[string]string{"Authorization": "Bearer " + goodToken}

	rec := serve(e, http.MethodGet, "/api/v1/transactions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// the email claim is lowercased before it scopes data
	rec = serve(e, http.MethodGet, "/api/v1/transactions/"+tx.ID.String(), auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/api/v1/transactions/summary/monthly?year=2024&month=3", auth)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"transactionCount":1`)

	rec = serve(e, http.MethodGet, "/api/v1/transactions/summary/yearly?year=2024", auth)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBudgetRoutes_Registered(t *testing.T) {
	limiter := middleware.NewRateLimiterWithConfig(600, 50)
	t.Cleanup(limiter.Stop)

	types := testutil.NewMockExpenseTypeRepository()
	budgets := testutil.NewMockBudgetRepository()
	budgetService := service.NewBudgetService(budgets, types, testutil.NewMockLedgerChecker(), service.BudgetServiceConfig{})

	e := newTestEcho()
	RegisterBudgetRoutes(e,
		middleware.NewAuthMiddlewareWithValidator(stubJWT{}),
		limiter,
		NewBudgetHandler(budgetService),
		NewExpenseTypeHandler(service.NewExpenseTypeService(types, budgets)),
		NewPreferencesHandler(service.NewPreferencesService(testutil.NewMockPreferencesRepository())),
		NewWebSocketHandler(websocket.NewHub(), &mockTokenValidator{owner: testOwner}, testAllowedOrigins),
	)
	auth := map[string]string{"Authorization": "Bearer " + goodToken}

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/api/v1/budgets", http.StatusOK},
		{http.MethodGet, "/api/v1/budgets/2024/6", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/budgets/2024/6", http.StatusNotFound},
		{http.MethodGet, "/api/v1/expense-types", http.StatusOK},
		{http.MethodGet, "/api/v1/users/preferences", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(e, tt.method, tt.target, auth).Code)
			assert.Equal(t, http.StatusUnauthorized, serve(e, tt.method, tt.target, nil).Code)
		})
	}
}
