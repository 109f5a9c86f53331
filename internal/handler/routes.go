package handler

import (
	"github.com/dafibh/tally/tally-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterBudgetRoutes sets up the budget service API
func RegisterBudgetRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, budgetHandler *BudgetHandler, expenseTypeHandler *ExpenseTypeHandler, preferencesHandler *PreferencesHandler, wsHandler *WebSocketHandler) {
	api := e.Group("/api/v1")
	protected := []echo.MiddlewareFunc{authMiddleware.Authenticate(), middleware.RateLimitMiddleware(rateLimiter)}

	// Budget routes (protected)
	budgets := api.Group("/budgets", protected...)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.POST("/copy", budgetHandler.CopyBudget)
	budgets.GET("/:year", budgetHandler.GetBudget)
	budgets.GET("/:year/:month", budgetHandler.GetBudget)
	budgets.PUT("/:year", budgetHandler.UpdateBudget)
	budgets.PUT("/:year/:month", budgetHandler.UpdateBudget)
	budgets.DELETE("/:year", budgetHandler.DeleteBudget)
	budgets.DELETE("/:year/:month", budgetHandler.DeleteBudget)

	// Expense type routes (protected)
	expenseTypes := api.Group("/expense-types", protected...)
	expenseTypes.GET("", expenseTypeHandler.GetExpenseTypes)
	expenseTypes.POST("", expenseTypeHandler.CreateExpenseType)
	expenseTypes.GET("/:id", expenseTypeHandler.GetExpenseType)
	expenseTypes.PUT("/:id", expenseTypeHandler.UpdateExpenseType)
	expenseTypes.DELETE("/:id", expenseTypeHandler.DeleteExpenseType)

	// Preference routes (protected)
	users := api.Group("/users", protected...)
	users.GET("/preferences", preferencesHandler.GetPreferences)
	users.PUT("/preferences", preferencesHandler.UpdatePreferences)

	// WebSocket authenticates via ?token= since browsers cannot set headers
	e.GET("/ws", wsHandler.HandleWS)
}

// RegisterLedgerRoutes sets up the transaction ledger API
func RegisterLedgerRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, serviceKeyMiddleware *middleware.ServiceKeyAuthMiddleware, rateLimiter *middleware.RateLimiter, transactionHandler *TransactionHandler, wsHandler *WebSocketHandler) {
	api := e.Group("/api/v1")

	// Service-to-service check used by the budget delete guard
	api.GET("/transactions/check-budget-item/:budgetItemId", transactionHandler.CheckBudgetItem, serviceKeyMiddleware.Authenticate())

	// Transaction routes (protected)
	transactions := api.Group("/transactions", authMiddleware.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/summary/monthly", transactionHandler.GetMonthlySummary)
	transactions.GET("/summary/by-type", transactionHandler.GetExpenseTypeSummary)
	transactions.GET("/summary/yearly", transactionHandler.GetYearlySummary)
	transactions.GET("/spent/:expenseTypeId", transactionHandler.GetSpentByExpenseType)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	e.GET("/ws", wsHandler.HandleWS)
}
