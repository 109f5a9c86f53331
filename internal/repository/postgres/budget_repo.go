package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const budgetColumns = `id, owner_email, year, month, created_at, updated_at`

const budgetItemColumns = `id, budget_id, expense_type_id, amount, is_one_time, applicable_month, created_at, updated_at`

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

// Create inserts the budget header and its items in a single transaction
func (r *BudgetRepository) Create(ctx context.Context, budget *domain.Budget, items []*domain.BudgetItem) (*domain.Budget, error) {
	if budget.ID == uuid.Nil {
		budget.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO budgets (id, owner_email, year, month)
		VALUES ($1, $2, $3, $4)
		RETURNING `+budgetColumns,
		budget.ID, budget.OwnerEmail, budget.Period.Year, budget.Period.Month,
	)
	created, err := scanBudget(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrDuplicateBudget
		}
		return nil, err
	}

	if err := insertBudgetItems(ctx, tx, created.ID, items); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByPeriod retrieves the owner's budget for a period
func (r *BudgetRepository) GetByPeriod(ctx context.Context, ownerEmail string, period domain.BudgetPeriod) (*domain.Budget, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE owner_email = $1 AND year = $2 AND month = $3`,
		ownerEmail, period.Year, period.Month,
	)
	budget, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	return budget, nil
}

// ListByOwner retrieves the owner's budgets, newest period first
func (r *BudgetRepository) ListByOwner(ctx context.Context, ownerEmail string, year *int) ([]*domain.Budget, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE owner_email = $1 AND ($2::int IS NULL OR year = $2::int)
		ORDER BY year DESC, month DESC`,
		ownerEmail, year,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := make([]*domain.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// ExistsByPeriod reports whether the owner already has a budget for the period
func (r *BudgetRepository) ExistsByPeriod(ctx context.Context, ownerEmail string, period domain.BudgetPeriod) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM budgets WHERE owner_email = $1 AND year = $2 AND month = $3)`,
		ownerEmail, period.Year, period.Month,
	).Scan(&exists)
	return exists, err
}

// GetItems retrieves a budget's items in insertion order
func (r *BudgetRepository) GetItems(ctx context.Context, budgetID uuid.UUID) ([]*domain.BudgetItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+budgetItemColumns+`
		FROM budget_items
		WHERE budget_id = $1
		ORDER BY position, id`,
		budgetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.BudgetItem, 0)
	for rows.Next() {
		item, err := scanBudgetItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReplaceItems swaps the full item set of a budget atomically
func (r *BudgetRepository) ReplaceItems(ctx context.Context, budgetID uuid.UUID, items []*domain.BudgetItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM budget_items WHERE budget_id = $1`, budgetID); err != nil {
		return err
	}
	if err := insertBudgetItems(ctx, tx, budgetID, items); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE budgets SET updated_at = NOW() WHERE id = $1`, budgetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}

	return tx.Commit(ctx)
}

// Delete removes a budget; its items are removed by cascade
func (r *BudgetRepository) Delete(ctx context.Context, budgetID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, budgetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}

// CountItemsByExpenseType counts the owner's budget items per expense type
func (r *BudgetRepository) CountItemsByExpenseType(ctx context.Context, ownerEmail string) (map[uuid.UUID]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT bi.expense_type_id, COUNT(*)
		FROM budget_items bi
		JOIN budgets b ON b.id = bi.budget_id
		WHERE b.owner_email = $1
		GROUP BY bi.expense_type_id`,
		ownerEmail,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int64)
	for rows.Next() {
		var id uuid.UUID
		var count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

func insertBudgetItems(ctx context.Context, q querier, budgetID uuid.UUID, items []*domain.BudgetItem) error {
	for i, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.BudgetID = budgetID

		amount, err := decimalToPgNumeric(item.Amount)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO budget_items (id, budget_id, expense_type_id, amount, is_one_time, applicable_month, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, budgetID, item.ExpenseTypeID, amount, item.IsOneTime, item.ApplicableMonth, i,
		); err != nil {
			return fmt.Errorf("insert budget item %d: %w", i, err)
		}
	}
	return nil
}

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var b domain.Budget
	if err := row.Scan(&b.ID, &b.OwnerEmail, &b.Period.Year, &b.Period.Month, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBudgetItem(row pgx.Row) (*domain.BudgetItem, error) {
	var item domain.BudgetItem
	var amount pgtype.Numeric
	if err := row.Scan(
		&item.ID,
		&item.BudgetID,
		&item.ExpenseTypeID,
		&amount,
		&item.IsOneTime,
		&item.ApplicableMonth,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.Amount = pgNumericToDecimal(amount)
	return &item, nil
}
