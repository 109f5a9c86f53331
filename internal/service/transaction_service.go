package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/util"
	"github.com/dafibh/tally/tally-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var minTransactionAmount = decimal.RequireFromString("0.01")

// TransactionService handles ledger transaction business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	eventPublisher  websocket.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository) *TransactionService {
	return &TransactionService{transactionRepo: transactionRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TransactionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *TransactionService) publishEvent(ownerEmail string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerEmail, event)
	}
}

// TransactionInput holds the fields of a transaction supplied by a client
type TransactionInput struct {
	BudgetItemID    *uuid.UUID
	ExpenseTypeID   uuid.UUID
	Amount          decimal.Decimal
	Description     *string
	TransactionDate time.Time
}

func (in TransactionInput) normalize() (TransactionInput, error) {
	if in.Amount.LessThan(minTransactionAmount) {
		return in, fmt.Errorf("%w: amount must be at least 0.01", domain.ErrInvalidAmount)
	}
	if in.ExpenseTypeID == uuid.Nil {
		return in, fmt.Errorf("%w: expense type is required", domain.ErrInvalidInput)
	}
	if in.TransactionDate.IsZero() {
		return in, fmt.Errorf("%w: transaction date is required", domain.ErrInvalidInput)
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if len(desc) > domain.MaxDescriptionLength {
			return in, domain.ErrDescriptionTooLong
		}
		if desc == "" {
			in.Description = nil
		} else {
			in.Description = &desc
		}
	}
	in.Amount = in.Amount.Round(2)
	return in, nil
}

// CreateTransaction records a transaction for the owner
func (s *TransactionService) CreateTransaction(ctx context.Context, ownerEmail string, input TransactionInput) (*domain.Transaction, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	created, err := s.transactionRepo.Create(ctx, &domain.Transaction{
		OwnerEmail:      ownerEmail,
		BudgetItemID:    input.BudgetItemID,
		ExpenseTypeID:   input.ExpenseTypeID,
		Amount:          input.Amount,
		Description:     input.Description,
		TransactionDate: input.TransactionDate,
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ownerEmail, websocket.TransactionCreated(created))
	return created, nil
}

// GetTransaction retrieves one of the owner's transactions
func (s *TransactionService) GetTransaction(ctx context.Context, ownerEmail string, id uuid.UUID) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(ctx, ownerEmail, id)
}

// GetTransactions lists the owner's transactions with optional filters, newest first
func (s *TransactionService) GetTransactions(ctx context.Context, ownerEmail string, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if filters != nil {
		if filters.Page < 0 || filters.PageSize < 0 {
			return nil, fmt.Errorf("%w: page and page size must not be negative", domain.ErrInvalidInput)
		}
		if filters.StartDate != nil && filters.EndDate != nil && filters.StartDate.After(*filters.EndDate) {
			return nil, fmt.Errorf("%w: start date must not be after end date", domain.ErrInvalidInput)
		}
	}
	return s.transactionRepo.List(ctx, ownerEmail, filters)
}

// UpdateTransaction replaces the editable fields of a transaction
func (s *TransactionService) UpdateTransaction(ctx context.Context, ownerEmail string, id uuid.UUID, input TransactionInput) (*domain.Transaction, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	existing, err := s.transactionRepo.GetByID(ctx, ownerEmail, id)
	if err != nil {
		return nil, err
	}
	existing.BudgetItemID = input.BudgetItemID
	existing.ExpenseTypeID = input.ExpenseTypeID
	existing.Amount = input.Amount
	existing.Description = input.Description
	existing.TransactionDate = input.TransactionDate

	updated, err := s.transactionRepo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ownerEmail, websocket.TransactionUpdated(updated))
	return updated, nil
}

// DeleteTransaction removes one of the owner's transactions
func (s *TransactionService) DeleteTransaction(ctx context.Context, ownerEmail string, id uuid.UUID) error {
	existing, err := s.transactionRepo.GetByID(ctx, ownerEmail, id)
	if err != nil {
		return err
	}
	if err := s.transactionRepo.Delete(ctx, ownerEmail, id); err != nil {
		return err
	}
	s.publishEvent(ownerEmail, websocket.TransactionDeleted(existing))
	return nil
}

// HasBudgetItemTransactions reports whether any transaction references the budget item.
// It answers for every owner; callers are internal services.
func (s *TransactionService) HasBudgetItemTransactions(ctx context.Context, budgetItemID uuid.UUID) (bool, error) {
	return s.transactionRepo.ExistsByBudgetItemID(ctx, budgetItemID)
}

// GetMonthlySummary totals the owner's spending in a calendar month
func (s *TransactionService) GetMonthlySummary(ctx context.Context, ownerEmail string, year, month int) (*domain.MonthlySummary, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	start, end := util.MonthRange(year, month)
	total, count, err := s.transactionRepo.SumInRange(ctx, ownerEmail, start, end)
	if err != nil {
		return nil, err
	}
	return &domain.MonthlySummary{
		Year:             year,
		Month:            month,
		TotalExpenses:    total,
		TransactionCount: count,
	}, nil
}

// GetExpenseTypeSummary totals the owner's spending per expense type in a calendar month
func (s *TransactionService) GetExpenseTypeSummary(ctx context.Context, ownerEmail string, year, month int) ([]*domain.ExpenseTypeTotal, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	start, end := util.MonthRange(year, month)
	return s.transactionRepo.SumByExpenseType(ctx, ownerEmail, start, end)
}

// GetYearlySummary totals the owner's spending per month of a year. Months without spending report zero.
func (s *TransactionService) GetYearlySummary(ctx context.Context, ownerEmail string, year int) (*domain.YearlySummary, error) {
	if err := validateYearMonth(year, 1); err != nil {
		return nil, err
	}
	byMonth, err := s.transactionRepo.SumByMonth(ctx, ownerEmail, year)
	if err != nil {
		return nil, err
	}

	summary := &domain.YearlySummary{
		Year:          year,
		MonthlyTotals: make(map[int]decimal.Decimal, 12),
		YearlyTotal:   decimal.Zero,
	}
	for m := 1; m <= 12; m++ {
		total := byMonth[m]
		summary.MonthlyTotals[m] = total
		summary.YearlyTotal = summary.YearlyTotal.Add(total)
	}
	return summary, nil
}

// GetSpentByExpenseType totals the owner's spending on one expense type in a calendar month
func (s *TransactionService) GetSpentByExpenseType(ctx context.Context, ownerEmail string, expenseTypeID uuid.UUID, year, month int) (decimal.Decimal, error) {
	if err := validateYearMonth(year, month); err != nil {
		return decimal.Zero, err
	}
	start, end := util.MonthRange(year, month)
	return s.transactionRepo.SumForExpenseType(ctx, ownerEmail, expenseTypeID, start, end)
}

func validateYearMonth(year, month int) error {
	if year < domain.MinBudgetYear || year > domain.MaxBudgetYear {
		return fmt.Errorf("%w: year must be between %d and %d", domain.ErrInvalidInput, domain.MinBudgetYear, domain.MaxBudgetYear)
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", domain.ErrInvalidInput)
	}
	return nil
}
