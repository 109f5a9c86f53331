package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const expenseTypeColumns = `id, owner_email, name, icon, is_mandatory, accumulate, created_at, updated_at`

// ExpenseTypeRepository implements domain.ExpenseTypeRepository using PostgreSQL
type ExpenseTypeRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseTypeRepository creates a new ExpenseTypeRepository
func NewExpenseTypeRepository(pool *pgxpool.Pool) *ExpenseTypeRepository {
	return &ExpenseTypeRepository{pool: pool}
}

// Create creates a new expense type
func (r *ExpenseTypeRepository) Create(ctx context.Context, et *domain.ExpenseType) (*domain.ExpenseType, error) {
	if et.ID == uuid.Nil {
		et.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO expense_types (id, owner_email, name, icon, is_mandatory, accumulate)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+expenseTypeColumns,
		et.ID, et.OwnerEmail, et.Name, et.Icon, et.IsMandatory, et.Accumulate,
	)
	created, err := scanExpenseType(row)
	if err != nil {
		// Check for unique constraint violation
		if isPgUniqueViolation(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves an expense type by its ID for an owner
func (r *ExpenseTypeRepository) GetByID(ctx context.Context, ownerEmail string, id uuid.UUID) (*domain.ExpenseType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+expenseTypeColumns+`
		FROM expense_types
		WHERE owner_email = $1 AND id = $2`,
		ownerEmail, id,
	)
	et, err := scanExpenseType(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseTypeNotFound
		}
		return nil, err
	}
	return et, nil
}

// GetByIDs retrieves the owner's expense types among ids in one query
func (r *ExpenseTypeRepository) GetByIDs(ctx context.Context, ownerEmail string, ids []uuid.UUID) ([]*domain.ExpenseType, error) {
	if len(ids) == 0 {
		return []*domain.ExpenseType{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+expenseTypeColumns+`
		FROM expense_types
		WHERE owner_email = $1 AND id = ANY($2::uuid[])`,
		ownerEmail, uuidsToStrings(ids),
	)
	if err != nil {
		return nil, err
	}
	return collectExpenseTypes(rows)
}

// GetByName retrieves an expense type by its name for an owner
func (r *ExpenseTypeRepository) GetByName(ctx context.Context, ownerEmail string, name string) (*domain.ExpenseType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+expenseTypeColumns+`
		FROM expense_types
		WHERE owner_email = $1 AND name = $2`,
		ownerEmail, name,
	)
	et, err := scanExpenseType(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseTypeNotFound
		}
		return nil, err
	}
	return et, nil
}

// ListByOwner retrieves all expense types for an owner ordered by name
func (r *ExpenseTypeRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*domain.ExpenseType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+expenseTypeColumns+`
		FROM expense_types
		WHERE owner_email = $1
		ORDER BY name`,
		ownerEmail,
	)
	if err != nil {
		return nil, err
	}
	return collectExpenseTypes(rows)
}

// Update updates an expense type's mutable fields
func (r *ExpenseTypeRepository) Update(ctx context.Context, et *domain.ExpenseType) (*domain.ExpenseType, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE expense_types
		SET name = $3, icon = $4, is_mandatory = $5, accumulate = $6, updated_at = NOW()
		WHERE owner_email = $1 AND id = $2
		RETURNING `+expenseTypeColumns,
		et.OwnerEmail, et.ID, et.Name, et.Icon, et.IsMandatory, et.Accumulate,
	)
	updated, err := scanExpenseType(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseTypeNotFound
		}
		if isPgUniqueViolation(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes an expense type
func (r *ExpenseTypeRepository) Delete(ctx context.Context, ownerEmail string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expense_types WHERE owner_email = $1 AND id = $2`, ownerEmail, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseTypeNotFound
	}
	return nil
}

func collectExpenseTypes(rows pgx.Rows) ([]*domain.ExpenseType, error) {
	defer rows.Close()

	result := make([]*domain.ExpenseType, 0)
	for rows.Next() {
		et, err := scanExpenseType(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, et)
	}
	return result, rows.Err()
}

func scanExpenseType(row pgx.Row) (*domain.ExpenseType, error) {
	var et domain.ExpenseType
	if err := row.Scan(
		&et.ID,
		&et.OwnerEmail,
		&et.Name,
		&et.Icon,
		&et.IsMandatory,
		&et.Accumulate,
		&et.CreatedAt,
		&et.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &et, nil
}
