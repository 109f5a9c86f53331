package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Budget struct {
	ID         uuid.UUID    `json:"id"`
	OwnerEmail string       `json:"ownerEmail"`
	Period     BudgetPeriod `json:"period"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

type BudgetItem struct {
	ID              uuid.UUID       `json:"id"`
	BudgetID        uuid.UUID       `json:"budgetId"`
	ExpenseTypeID   uuid.UUID       `json:"expenseTypeId"`
	Amount          decimal.Decimal `json:"amount"`
	IsOneTime       bool            `json:"isOneTime"`
	ApplicableMonth *int            `json:"applicableMonth,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// BudgetItemInput is a requested line item before it is assigned ids.
type BudgetItemInput struct {
	ExpenseTypeID   uuid.UUID
	Amount          decimal.Decimal
	IsOneTime       bool
	ApplicableMonth *int
}

// Validate checks a single item against the deployment's item-month policy.
func (in BudgetItemInput) Validate(policy ItemMonthPolicy) error {
	if in.ExpenseTypeID == uuid.Nil {
		return fmt.Errorf("%w: expense type is required", ErrInvalidItemState)
	}
	if in.Amount.IsNegative() {
		return fmt.Errorf("%w: item amount cannot be negative", ErrInvalidAmount)
	}
	if in.ApplicableMonth != nil && (*in.ApplicableMonth < 1 || *in.ApplicableMonth > 12) {
		return fmt.Errorf("%w: applicable month must be between 1 and 12", ErrInvalidItemState)
	}
	if policy == ItemMonthStrict {
		if in.IsOneTime && in.ApplicableMonth == nil {
			return fmt.Errorf("%w: one-time items require an applicable month", ErrInvalidItemState)
		}
		if !in.IsOneTime && in.ApplicableMonth != nil {
			return fmt.Errorf("%w: recurring items cannot have an applicable month", ErrInvalidItemState)
		}
	}
	return nil
}

// ToItem builds a persistable item for budgetID with a fresh id.
func (in BudgetItemInput) ToItem(budgetID uuid.UUID) *BudgetItem {
	return &BudgetItem{
		ID:              uuid.New(),
		BudgetID:        budgetID,
		ExpenseTypeID:   in.ExpenseTypeID,
		Amount:          in.Amount,
		IsOneTime:       in.IsOneTime,
		ApplicableMonth: in.ApplicableMonth,
	}
}

// BudgetItemView is an item joined with its expense type.
type BudgetItemView struct {
	BudgetItem
	ExpenseTypeName string `json:"expenseTypeName"`
	ExpenseTypeIcon string `json:"expenseTypeIcon"`
	IsMandatory     bool   `json:"isMandatory"`
}

// BudgetView is the assembled read model of a budget and its items.
type BudgetView struct {
	Budget
	Items       []*BudgetItemView `json:"items"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
}

type BudgetRepository interface {
	// Create persists the header and items atomically. A second budget for the
	// same owner and period returns ErrDuplicateBudget.
	Create(ctx context.Context, budget *Budget, items []*BudgetItem) (*Budget, error)
	GetByPeriod(ctx context.Context, ownerEmail string, period BudgetPeriod) (*Budget, error)
	// ListByOwner returns budgets newest first, optionally restricted to one year.
	ListByOwner(ctx context.Context, ownerEmail string, year *int) ([]*Budget, error)
	ExistsByPeriod(ctx context.Context, ownerEmail string, period BudgetPeriod) (bool, error)
	GetItems(ctx context.Context, budgetID uuid.UUID) ([]*BudgetItem, error)
	// ReplaceItems deletes every item of the budget and inserts items atomically.
	ReplaceItems(ctx context.Context, budgetID uuid.UUID, items []*BudgetItem) error
	// Delete removes the header. Items are removed by cascade.
	Delete(ctx context.Context, budgetID uuid.UUID) error
	// CountItemsByExpenseType returns the number of budget items referencing each of the owner's expense types.
	CountItemsByExpenseType(ctx context.Context, ownerEmail string) (map[uuid.UUID]int64, error)
}

// LedgerChecker asks the transaction ledger whether any transaction references a budget item.
//
// A result is only valid at the instant it was produced. Transactions recorded
// between a check and a subsequent delete are not detected; there is no
// distributed lock between the services.
type LedgerChecker interface {
	HasBudgetItemTransactions(ctx context.Context, budgetItemID uuid.UUID) (bool, error)
}
