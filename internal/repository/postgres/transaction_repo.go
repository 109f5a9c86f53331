package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, owner_email, budget_item_id, expense_type_id, amount, description, transaction_date, created_at, updated_at`

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create creates a new transaction
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	amount, err := decimalToPgNumeric(t.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (id, owner_email, budget_item_id, expense_type_id, amount, description, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+transactionColumns,
		t.ID, t.OwnerEmail, t.BudgetItemID, t.ExpenseTypeID, amount, t.Description, timeToPgDate(t.TransactionDate),
	)
	return scanTransaction(row)
}

// GetByID retrieves a transaction by its ID for an owner
func (r *TransactionRepository) GetByID(ctx context.Context, ownerEmail string, id uuid.UUID) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_email = $1 AND id = $2`,
		ownerEmail, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

// List retrieves an owner's transactions with optional filters and pagination, newest first
func (r *TransactionRepository) List(ctx context.Context, ownerEmail string, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	// Set default pagination values
	page := int32(0)
	pageSize := int32(domain.DefaultPageSize)

	conditions := []string{"owner_email = $1"}
	args := []any{ownerEmail}

	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
			if pageSize > domain.MaxPageSize {
				pageSize = domain.MaxPageSize
			}
		}
		if filters.StartDate != nil {
			args = append(args, timeToPgDate(*filters.StartDate))
			conditions = append(conditions, fmt.Sprintf("transaction_date >= $%d", len(args)))
		}
		if filters.EndDate != nil {
			args = append(args, timeToPgDate(*filters.EndDate))
			conditions = append(conditions, fmt.Sprintf("transaction_date <= $%d", len(args)))
		}
		if filters.ExpenseTypeID != nil {
			args = append(args, *filters.ExpenseTypeID)
			conditions = append(conditions, fmt.Sprintf("expense_type_id = $%d", len(args)))
		}
	}
	where := strings.Join(conditions, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	pageArgs := append(append([]any{}, args...), pageSize, page*pageSize)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE %s
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, transactionColumns, where, len(args)+1, len(args)+2),
		pageArgs...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	data := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		data = append(data, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int32(total / int64(pageSize))
	if total%int64(pageSize) > 0 {
		totalPages++
	}

	return &domain.PaginatedTransactions{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// Update updates a transaction's mutable fields
func (r *TransactionRepository) Update(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(t.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET budget_item_id = $3, expense_type_id = $4, amount = $5, description = $6,
		    transaction_date = $7, updated_at = NOW()
		WHERE owner_email = $1 AND id = $2
		RETURNING `+transactionColumns,
		t.OwnerEmail, t.ID, t.BudgetItemID, t.ExpenseTypeID, amount, t.Description, timeToPgDate(t.TransactionDate),
	)
	updated, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(ctx context.Context, ownerEmail string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE owner_email = $1 AND id = $2`, ownerEmail, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// ExistsByBudgetItemID reports whether any transaction references the budget item
func (r *TransactionRepository) ExistsByBudgetItemID(ctx context.Context, budgetItemID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE budget_item_id = $1)`,
		budgetItemID,
	).Scan(&exists)
	return exists, err
}

// SumInRange totals the owner's transactions dated within [start, end]
func (r *TransactionRepository) SumInRange(ctx context.Context, ownerEmail string, start, end time.Time) (decimal.Decimal, int64, error) {
	var sum pgtype.Numeric
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions
		WHERE owner_email = $1 AND transaction_date BETWEEN $2 AND $3`,
		ownerEmail, timeToPgDate(start), timeToPgDate(end),
	).Scan(&sum, &count)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return pgNumericToDecimal(sum), count, nil
}

// SumByExpenseType totals the owner's transactions within [start, end] per expense type
func (r *TransactionRepository) SumByExpenseType(ctx context.Context, ownerEmail string, start, end time.Time) ([]*domain.ExpenseTypeTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT expense_type_id, SUM(amount)
		FROM transactions
		WHERE owner_email = $1 AND transaction_date BETWEEN $2 AND $3
		GROUP BY expense_type_id
		ORDER BY SUM(amount) DESC`,
		ownerEmail, timeToPgDate(start), timeToPgDate(end),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]*domain.ExpenseTypeTotal, 0)
	for rows.Next() {
		var total domain.ExpenseTypeTotal
		var sum pgtype.Numeric
		if err := rows.Scan(&total.ExpenseTypeID, &sum); err != nil {
			return nil, err
		}
		total.TotalAmount = pgNumericToDecimal(sum)
		totals = append(totals, &total)
	}
	return totals, rows.Err()
}

// SumByMonth totals the owner's transactions per calendar month of year
func (r *TransactionRepository) SumByMonth(ctx context.Context, ownerEmail string, year int) (map[int]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(MONTH FROM transaction_date)::int, SUM(amount)
		FROM transactions
		WHERE owner_email = $1 AND EXTRACT(YEAR FROM transaction_date)::int = $2
		GROUP BY 1`,
		ownerEmail, year,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[int]decimal.Decimal)
	for rows.Next() {
		var month int
		var sum pgtype.Numeric
		if err := rows.Scan(&month, &sum); err != nil {
			return nil, err
		}
		totals[month] = pgNumericToDecimal(sum)
	}
	return totals, rows.Err()
}

// SumForExpenseType totals the owner's spending on one expense type within [start, end]
func (r *TransactionRepository) SumForExpenseType(ctx context.Context, ownerEmail string, expenseTypeID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE owner_email = $1 AND expense_type_id = $2 AND transaction_date BETWEEN $3 AND $4`,
		ownerEmail, expenseTypeID, timeToPgDate(start), timeToPgDate(end),
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(sum), nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var amount pgtype.Numeric
	var date pgtype.Date
	if err := row.Scan(
		&t.ID,
		&t.OwnerEmail,
		&t.BudgetItemID,
		&t.ExpenseTypeID,
		&amount,
		&t.Description,
		&date,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Amount = pgNumericToDecimal(amount)
	t.TransactionDate = pgDateToTime(date)
	return &t, nil
}
