package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateTransaction_Success(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	svc := NewTransactionService(repo)
	itemID := uuid.New()
	desc := "  weekly shop  "

	created, err := svc.CreateTransaction(context.Background(), owner, TransactionInput{
		BudgetItemID:    &itemID,
		ExpenseTypeID:   uuid.New(),
		Amount:          decimal.RequireFromString("42.499"),
		Description:     &desc,
		TransactionDate: date(2024, time.March, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, owner, created.OwnerEmail)
	assert.Equal(t, "42.50", created.Amount.StringFixed(2))
	assert.Equal(t, "weekly shop", *created.Description)
	assert.Len(t, repo.Transactions, 1)
}

func TestCreateTransaction_Validation(t *testing.T) {
	longDesc := strings.Repeat("x", domain.MaxDescriptionLength+1)
	valid := TransactionInput{
		ExpenseTypeID:   uuid.New(),
		Amount:          decimal.NewFromInt(10),
		TransactionDate: date(2024, time.March, 3),
	}

	tests := []struct {
		name    string
		mutate  func(in *TransactionInput)
		wantErr error
	}{
		{"zero amount", func(in *TransactionInput) { in.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"below minimum", func(in *TransactionInput) { in.Amount = decimal.RequireFromString("0.001") }, domain.ErrInvalidAmount},
		{"negative", func(in *TransactionInput) { in.Amount = decimal.NewFromInt(-5) }, domain.ErrInvalidAmount},
		{"missing expense type", func(in *TransactionInput) { in.ExpenseTypeID = uuid.Nil }, domain.ErrInvalidInput},
		{"missing date", func(in *TransactionInput) { in.TransactionDate = time.Time{} }, domain.ErrInvalidInput},
		{"description too long", func(in *TransactionInput) { in.Description = &longDesc }, domain.ErrDescriptionTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewTransactionService(testutil.NewMockTransactionRepository())
			in := valid
			tt.mutate(&in)
			_, err := svc.CreateTransaction(context.Background(), owner, in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetTransactions_FiltersAndPaging(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	svc := NewTransactionService(repo)
	food := uuid.New()
	rent := uuid.New()

	for day := 1; day <= 12; day++ {
		repo.AddTransaction(&domain.Transaction{OwnerEmail: owner, ExpenseTypeID: food, Amount: decimal.NewFromInt(int64(day)), TransactionDate: date(2024, time.May, day)})
	}
	repo.AddTransaction(&domain.Transaction{OwnerEmail: owner, ExpenseTypeID: rent, Amount: decimal.NewFromInt(900), TransactionDate: date(2024, time.May, 1)})
	repo.AddTransaction(&domain.Transaction{OwnerEmail: "bob@example.com", ExpenseTypeID: food, Amount: decimal.NewFromInt(1), TransactionDate: date(2024, time.May, 2)})

	page0, err := svc.GetTransactions(context.Background(), owner, &domain.TransactionFilters{ExpenseTypeID: &food})
	require.NoError(t, err)
	assert.Equal(t, int64(12), page0.TotalItems)
	assert.Equal(t, int32(2), page0.TotalPages)
	assert.Len(t, page0.Data, domain.DefaultPageSize)
	assert.Equal(t, 12, page0.Data[0].TransactionDate.Day(), "newest first")

	page1, err := svc.GetTransactions(context.Background(), owner, &domain.TransactionFilters{ExpenseTypeID: &food, Page: 1})
	require.NoError(t, err)
	assert.Len(t, page1.Data, 2)

	start := date(2024, time.May, 10)
	ranged, err := svc.GetTransactions(context.Background(), owner, &domain.TransactionFilters{StartDate: &start})
	require.NoError(t, err)
	assert.Equal(t, int64(3), ranged.TotalItems)
}

func TestGetTransactions_InvalidRange(t *testing.T) {
	svc := NewTransactionService(testutil.NewMockTransactionRepository())
	start := date(2024, time.May, 10)
	end := date(2024, time.May, 1)

	_, err := svc.GetTransactions(context.Background(), owner, &domain.TransactionFilters{StartDate: &start, EndDate: &end})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateAndDeleteTransaction_OwnerScoped(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	svc := NewTransactionService(repo)
	tx := repo.AddTransaction(&domain.Transaction{OwnerEmail: "bob@example.com", ExpenseTypeID: uuid.New(), Amount: decimal.NewFromInt(5), TransactionDate: date(2024, time.May, 1)})

	_, err := svc.UpdateTransaction(context.Background(), owner, tx.ID, TransactionInput{
		ExpenseTypeID:   uuid.New(),
		Amount:          decimal.NewFromInt(10),
		TransactionDate: date(2024, time.May, 2),
	})
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	err = svc.DeleteTransaction(context.Background(), owner, tx.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	assert.Len(t, repo.Transactions, 1)

	require.NoError(t, svc.DeleteTransaction(context.Background(), "bob@example.com", tx.ID))
	assert.Empty(t, repo.Transactions)
}

func TestHasBudgetItemTransactions(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	svc := NewTransactionService(repo)
	used := uuid.New()
	repo.AddTransaction(&domain.Transaction{OwnerEmail: owner, BudgetItemID: &used, ExpenseTypeID: uuid.New(), Amount: decimal.NewFromInt(5), TransactionDate: date(2024, time.May, 1)})

	has, err := svc.HasBudgetItemTransactions(context.Background(), used)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = svc.HasBudgetItemTransactions(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSummaries(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	svc := NewTransactionService(repo)
	ctx := context.Background()
	food := uuid.New()
	rent := uuid.New()

	repo.AddTransaction(&domain.Transaction{OwnerEmail: owner, ExpenseTypeID: food, Amount: decimal.RequireFromString("10.25"), TransactionDate: date(2024, time.February, 1)})
	repo.AddTransaction(&domain.Transaction{OwnerEmail: owner, ExpenseTypeID: food, Amount: decimal.RequireFromString("4.75"), TransactionDate: date(2024, time.February, 29)})
	repo.AddTransaction(&domain.Transaction{OwnerEmail: owner, ExpenseTypeID: rent, Amount: decimal.NewFromInt(800), TransactionDate: date(2024, time.February, 15)})
	repo.AddTransaction(&domain.Transaction{OwnerEmail: owner, ExpenseTypeID: rent, Amount: decimal.NewFromInt(800), TransactionDate: date(2024, time.March, 1)})

	monthly, err := svc.GetMonthlySummary(ctx, owner, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, "815.00", monthly.TotalExpenses.StringFixed(2))
	assert.Equal(t, int64(3), monthly.TransactionCount)

	byType, err := svc.GetExpenseTypeSummary(ctx, owner, 2024, 2)
	require.NoError(t, err)
	require.Len(t, byType, 2)
	assert.Equal(t, rent, byType[0].ExpenseTypeID)
	assert.Equal(t, "15.00", byType[1].TotalAmount.StringFixed(2))

	yearly, err := svc.GetYearlySummary(ctx, owner, 2024)
	require.NoError(t, err)
	assert.Len(t, yearly.MonthlyTotals, 12)
	assert.Equal(t, "1615.00", yearly.YearlyTotal.StringFixed(2))
	assert.True(t, yearly.MonthlyTotals[1].IsZero())
	assert.Equal(t, "800.00", yearly.MonthlyTotals[3].StringFixed(2))

	spent, err := svc.GetSpentByExpenseType(ctx, owner, food, 2024, 2)
	require.NoError(t, err)
	assert.Equal(t, "15.00", spent.StringFixed(2))
}

func TestSummaries_InvalidMonth(t *testing.T) {
	svc := NewTransactionService(testutil.NewMockTransactionRepository())

	_, err := svc.GetMonthlySummary(context.Background(), owner, 2024, 13)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
