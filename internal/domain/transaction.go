package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	OwnerEmail      string          `json:"ownerEmail"`
	BudgetItemID    *uuid.UUID      `json:"budgetItemId,omitempty"`
	ExpenseTypeID   uuid.UUID       `json:"expenseTypeId"`
	Amount          decimal.Decimal `json:"amount"`
	Description     *string         `json:"description,omitempty"`
	TransactionDate time.Time       `json:"transactionDate"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type TransactionFilters struct {
	StartDate     *time.Time
	EndDate       *time.Time
	ExpenseTypeID *uuid.UUID
	// Page is zero-based.
	Page     int32
	PageSize int32
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type PaginatedTransactions struct {
	Data       []*Transaction `json:"data"`
	Page       int32          `json:"page"`
	PageSize   int32          `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int32          `json:"totalPages"`
}

type MonthlySummary struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	TransactionCount int64           `json:"transactionCount"`
}

type ExpenseTypeTotal struct {
	ExpenseTypeID uuid.UUID       `json:"expenseTypeId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

type YearlySummary struct {
	Year          int                     `json:"year"`
	MonthlyTotals map[int]decimal.Decimal `json:"monthlyTotals"`
	YearlyTotal   decimal.Decimal         `json:"yearlyTotal"`
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, ownerEmail string, id uuid.UUID) (*Transaction, error)
	List(ctx context.Context, ownerEmail string, filters *TransactionFilters) (*PaginatedTransactions, error)
	Update(ctx context.Context, tx *Transaction) (*Transaction, error)
	Delete(ctx context.Context, ownerEmail string, id uuid.UUID) error
	ExistsByBudgetItemID(ctx context.Context, budgetItemID uuid.UUID) (bool, error)
	// SumInRange returns the total amount and count of the owner's transactions dated in [start, end].
	SumInRange(ctx context.Context, ownerEmail string, start, end time.Time) (decimal.Decimal, int64, error)
	SumByExpenseType(ctx context.Context, ownerEmail string, start, end time.Time) ([]*ExpenseTypeTotal, error)
	SumByMonth(ctx context.Context, ownerEmail string, year int) (map[int]decimal.Decimal, error)
	SumForExpenseType(ctx context.Context, ownerEmail string, expenseTypeID uuid.UUID, start, end time.Time) (decimal.Decimal, error)
}
