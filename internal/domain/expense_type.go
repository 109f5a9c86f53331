package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const DefaultExpenseTypeIcon = "circle"

type ExpenseType struct {
	ID          uuid.UUID `json:"id"`
	OwnerEmail  string    `json:"ownerEmail"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	IsMandatory bool      `json:"isMandatory"`
	Accumulate  bool      `json:"accumulate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ExpenseTypeWithUsage decorates an expense type with whether it can be deleted.
type ExpenseTypeWithUsage struct {
	ExpenseType
	CanDelete bool `json:"canDelete"`
}

type ExpenseTypeRepository interface {
	Create(ctx context.Context, et *ExpenseType) (*ExpenseType, error)
	GetByID(ctx context.Context, ownerEmail string, id uuid.UUID) (*ExpenseType, error)
	// GetByIDs returns the owner's expense types whose id is in ids. Ids that are
	// unknown or belong to another owner are silently absent.
	GetByIDs(ctx context.Context, ownerEmail string, ids []uuid.UUID) ([]*ExpenseType, error)
	GetByName(ctx context.Context, ownerEmail string, name string) (*ExpenseType, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]*ExpenseType, error)
	Update(ctx context.Context, et *ExpenseType) (*ExpenseType, error)
	Delete(ctx context.Context, ownerEmail string, id uuid.UUID) error
}
