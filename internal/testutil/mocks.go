package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockBudgetRepository is a mock implementation of domain.BudgetRepository
type MockBudgetRepository struct {
	Budgets        map[uuid.UUID]*domain.Budget
	Items          map[uuid.UUID][]*domain.BudgetItem
	CreateFn       func(budget *domain.Budget, items []*domain.BudgetItem) (*domain.Budget, error)
	ReplaceItemsFn func(budgetID uuid.UUID, items []*domain.BudgetItem) error
	DeleteFn       func(budgetID uuid.UUID) error
	ExistsFn       func(ownerEmail string, period domain.BudgetPeriod) (bool, error)
}

// NewMockBudgetRepository creates a new MockBudgetRepository
func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		Budgets: make(map[uuid.UUID]*domain.Budget),
		Items:   make(map[uuid.UUID][]*domain.BudgetItem),
	}
}

// Create stores a budget and its items, rejecting a second budget for the same owner and period
func (m *MockBudgetRepository) Create(ctx context.Context, budget *domain.Budget, items []*domain.BudgetItem) (*domain.Budget, error) {
	if m.CreateFn != nil {
		return m.CreateFn(budget, items)
	}
	if m.find(budget.OwnerEmail, budget.Period) != nil {
		return nil, domain.ErrDuplicateBudget
	}
	if budget.ID == uuid.Nil {
		budget.ID = uuid.New()
	}
	now := time.Now()
	budget.CreatedAt = now
	budget.UpdatedAt = now
	m.Budgets[budget.ID] = budget
	m.Items[budget.ID] = stampItems(budget.ID, items, now)
	return budget, nil
}

// GetByPeriod retrieves a budget by owner and period
func (m *MockBudgetRepository) GetByPeriod(ctx context.Context, ownerEmail string, period domain.BudgetPeriod) (*domain.Budget, error) {
	if b := m.find(ownerEmail, period); b != nil {
		return b, nil
	}
	return nil, domain.ErrBudgetNotFound
}

// ListByOwner retrieves an owner's budgets newest first
func (m *MockBudgetRepository) ListByOwner(ctx context.Context, ownerEmail string, year *int) ([]*domain.Budget, error) {
	result := make([]*domain.Budget, 0)
	for _, b := range m.Budgets {
		if b.OwnerEmail != ownerEmail {
			continue
		}
		if year != nil && b.Period.Year != *year {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Period.Compare(result[j].Period) > 0
	})
	return result, nil
}

// ExistsByPeriod reports whether a budget exists for the owner and period
func (m *MockBudgetRepository) ExistsByPeriod(ctx context.Context, ownerEmail string, period domain.BudgetPeriod) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(ownerEmail, period)
	}
	return m.find(ownerEmail, period) != nil, nil
}

// GetItems retrieves a budget's items
func (m *MockBudgetRepository) GetItems(ctx context.Context, budgetID uuid.UUID) ([]*domain.BudgetItem, error) {
	items := m.Items[budgetID]
	result := make([]*domain.BudgetItem, len(items))
	copy(result, items)
	return result, nil
}

// ReplaceItems swaps a budget's item set
func (m *MockBudgetRepository) ReplaceItems(ctx context.Context, budgetID uuid.UUID, items []*domain.BudgetItem) error {
	if m.ReplaceItemsFn != nil {
		return m.ReplaceItemsFn(budgetID, items)
	}
	budget, ok := m.Budgets[budgetID]
	if !ok {
		return domain.ErrBudgetNotFound
	}
	now := time.Now()
	budget.UpdatedAt = now
	m.Items[budgetID] = stampItems(budgetID, items, now)
	return nil
}

// Delete removes a budget and its items
func (m *MockBudgetRepository) Delete(ctx context.Context, budgetID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(budgetID)
	}
	if _, ok := m.Budgets[budgetID]; !ok {
		return domain.ErrBudgetNotFound
	}
	delete(m.Budgets, budgetID)
	delete(m.Items, budgetID)
	return nil
}

// CountItemsByExpenseType counts the owner's items per expense type
func (m *MockBudgetRepository) CountItemsByExpenseType(ctx context.Context, ownerEmail string) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64)
	for id, b := range m.Budgets {
		if b.OwnerEmail != ownerEmail {
			continue
		}
		for _, item := range m.Items[id] {
			counts[item.ExpenseTypeID]++
		}
	}
	return counts, nil
}

// AddBudget adds a budget with items to the mock repository (helper for tests)
func (m *MockBudgetRepository) AddBudget(budget *domain.Budget, items ...*domain.BudgetItem) {
	if budget.ID == uuid.Nil {
		budget.ID = uuid.New()
	}
	m.Budgets[budget.ID] = budget
	m.Items[budget.ID] = stampItems(budget.ID, items, time.Now())
}

func (m *MockBudgetRepository) find(ownerEmail string, period domain.BudgetPeriod) *domain.Budget {
	for _, b := range m.Budgets {
		if b.OwnerEmail == ownerEmail && b.Period == period {
			return b
		}
	}
	return nil
}

func stampItems(budgetID uuid.UUID, items []*domain.BudgetItem, now time.Time) []*domain.BudgetItem {
	stored := make([]*domain.BudgetItem, len(items))
	for i, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.BudgetID = budgetID
		item.CreatedAt = now
		item.UpdatedAt = now
		stored[i] = item
	}
	return stored
}

// MockExpenseTypeRepository is a mock implementation of domain.ExpenseTypeRepository
type MockExpenseTypeRepository struct {
	ExpenseTypes map[uuid.UUID]*domain.ExpenseType
	GetByIDsFn   func(ownerEmail string, ids []uuid.UUID) ([]*domain.ExpenseType, error)
	GetByIDsCall int
}

// NewMockExpenseTypeRepository creates a new MockExpenseTypeRepository
func NewMockExpenseTypeRepository() *MockExpenseTypeRepository {
	return &MockExpenseTypeRepository{
		ExpenseTypes: make(map[uuid.UUID]*domain.ExpenseType),
	}
}

// Create creates a new expense type, enforcing per-owner name uniqueness
func (m *MockExpenseTypeRepository) Create(ctx context.Context, et *domain.ExpenseType) (*domain.ExpenseType, error) {
	for _, existing := range m.ExpenseTypes {
		if existing.OwnerEmail == et.OwnerEmail && existing.Name == et.Name {
			return nil, domain.ErrDuplicateName
		}
	}
	if et.ID == uuid.Nil {
		et.ID = uuid.New()
	}
	now := time.Now()
	et.CreatedAt = now
	et.UpdatedAt = now
	m.ExpenseTypes[et.ID] = et
	return et, nil
}

// GetByID retrieves an owner's expense type by ID
func (m *MockExpenseTypeRepository) GetByID(ctx context.Context, ownerEmail string, id uuid.UUID) (*domain.ExpenseType, error) {
	if et, ok := m.ExpenseTypes[id]; ok && et.OwnerEmail == ownerEmail {
		return et, nil
	}
	return nil, domain.ErrExpenseTypeNotFound
}

// GetByIDs retrieves the owner's expense types among ids
func (m *MockExpenseTypeRepository) GetByIDs(ctx context.Context, ownerEmail string, ids []uuid.UUID) ([]*domain.ExpenseType, error) {
	m.GetByIDsCall++
	if m.GetByIDsFn != nil {
		return m.GetByIDsFn(ownerEmail, ids)
	}
	result := make([]*domain.ExpenseType, 0, len(ids))
	for _, id := range ids {
		if et, ok := m.ExpenseTypes[id]; ok && et.OwnerEmail == ownerEmail {
			result = append(result, et)
		}
	}
	return result, nil
}

// GetByName retrieves an owner's expense type by name
func (m *MockExpenseTypeRepository) GetByName(ctx context.Context, ownerEmail string, name string) (*domain.ExpenseType, error) {
	for _, et := range m.ExpenseTypes {
		if et.OwnerEmail == ownerEmail && et.Name == name {
			return et, nil
		}
	}
	return nil, domain.ErrExpenseTypeNotFound
}

// ListByOwner retrieves an owner's expense types ordered by name
func (m *MockExpenseTypeRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*domain.ExpenseType, error) {
	result := make([]*domain.ExpenseType, 0)
	for _, et := range m.ExpenseTypes {
		if et.OwnerEmail == ownerEmail {
			result = append(result, et)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Update updates an expense type
func (m *MockExpenseTypeRepository) Update(ctx context.Context, et *domain.ExpenseType) (*domain.ExpenseType, error) {
	existing, ok := m.ExpenseTypes[et.ID]
	if !ok || existing.OwnerEmail != et.OwnerEmail {
		return nil, domain.ErrExpenseTypeNotFound
	}
	et.CreatedAt = existing.CreatedAt
	et.UpdatedAt = time.Now()
	m.ExpenseTypes[et.ID] = et
	return et, nil
}

// Delete removes an expense type
func (m *MockExpenseTypeRepository) Delete(ctx context.Context, ownerEmail string, id uuid.UUID) error {
	et, ok := m.ExpenseTypes[id]
	if !ok || et.OwnerEmail != ownerEmail {
		return domain.ErrExpenseTypeNotFound
	}
	delete(m.ExpenseTypes, id)
	return nil
}

// AddExpenseType adds an expense type to the mock repository (helper for tests)
func (m *MockExpenseTypeRepository) AddExpenseType(et *domain.ExpenseType) *domain.ExpenseType {
	if et.ID == uuid.Nil {
		et.ID = uuid.New()
	}
	if et.Icon == "" {
		et.Icon = domain.DefaultExpenseTypeIcon
	}
	m.ExpenseTypes[et.ID] = et
	return et
}

// MockLedgerChecker is a mock implementation of domain.LedgerChecker.
// It is safe for concurrent use.
type MockLedgerChecker struct {
	mu      sync.Mutex
	InUse   map[uuid.UUID]bool
	Err     error
	Checked []uuid.UUID
	CheckFn func(ctx context.Context, budgetItemID uuid.UUID) (bool, error)
}

// NewMockLedgerChecker creates a new MockLedgerChecker
func NewMockLedgerChecker() *MockLedgerChecker {
	return &MockLedgerChecker{
		InUse: make(map[uuid.UUID]bool),
	}
}

// HasBudgetItemTransactions reports the configured answer for an item
func (m *MockLedgerChecker) HasBudgetItemTransactions(ctx context.Context, budgetItemID uuid.UUID) (bool, error) {
	m.mu.Lock()
	m.Checked = append(m.Checked, budgetItemID)
	inUse := m.InUse[budgetItemID]
	err := m.Err
	fn := m.CheckFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, budgetItemID)
	}
	if err != nil {
		return false, err
	}
	return inUse, nil
}

// MarkInUse records that a transaction references the item (helper for tests)
func (m *MockLedgerChecker) MarkInUse(budgetItemID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InUse[budgetItemID] = true
}

// CheckCount returns how many checks were made
func (m *MockLedgerChecker) CheckCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Checked)
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[uuid.UUID]*domain.Transaction
	CreateFn     func(t *domain.Transaction) (*domain.Transaction, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(t)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.Transactions[t.ID] = t
	return t, nil
}

// GetByID retrieves an owner's transaction by ID
func (m *MockTransactionRepository) GetByID(ctx context.Context, ownerEmail string, id uuid.UUID) (*domain.Transaction, error) {
	if t, ok := m.Transactions[id]; ok && t.OwnerEmail == ownerEmail {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// List retrieves an owner's transactions with filters, newest first, zero-based pages
func (m *MockTransactionRepository) List(ctx context.Context, ownerEmail string, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	page := int32(0)
	pageSize := int32(domain.DefaultPageSize)
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
	}

	matched := make([]*domain.Transaction, 0)
	for _, t := range m.Transactions {
		if t.OwnerEmail != ownerEmail {
			continue
		}
		if filters != nil {
			if filters.StartDate != nil && t.TransactionDate.Before(*filters.StartDate) {
				continue
			}
			if filters.EndDate != nil && t.TransactionDate.After(*filters.EndDate) {
				continue
			}
			if filters.ExpenseTypeID != nil && t.ExpenseTypeID != *filters.ExpenseTypeID {
				continue
			}
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].TransactionDate.After(matched[j].TransactionDate)
	})

	total := int64(len(matched))
	start := int(page * pageSize)
	end := start + int(pageSize)
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	totalPages := int32(total / int64(pageSize))
	if total%int64(pageSize) > 0 {
		totalPages++
	}

	return &domain.PaginatedTransactions{
		Data:       matched[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// Update updates a transaction
func (m *MockTransactionRepository) Update(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	existing, ok := m.Transactions[t.ID]
	if !ok || existing.OwnerEmail != t.OwnerEmail {
		return nil, domain.ErrTransactionNotFound
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now()
	m.Transactions[t.ID] = t
	return t, nil
}

// Delete removes a transaction
func (m *MockTransactionRepository) Delete(ctx context.Context, ownerEmail string, id uuid.UUID) error {
	t, ok := m.Transactions[id]
	if !ok || t.OwnerEmail != ownerEmail {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// ExistsByBudgetItemID reports whether any transaction references the budget item
func (m *MockTransactionRepository) ExistsByBudgetItemID(ctx context.Context, budgetItemID uuid.UUID) (bool, error) {
	for _, t := range m.Transactions {
		if t.BudgetItemID != nil && *t.BudgetItemID == budgetItemID {
			return true, nil
		}
	}
	return false, nil
}

// SumInRange totals the owner's transactions within [start, end]
func (m *MockTransactionRepository) SumInRange(ctx context.Context, ownerEmail string, start, end time.Time) (decimal.Decimal, int64, error) {
	sum := decimal.Zero
	var count int64
	for _, t := range m.inRange(ownerEmail, start, end) {
		sum = sum.Add(t.Amount)
		count++
	}
	return sum, count, nil
}

// SumByExpenseType totals the owner's transactions within [start, end] per expense type
func (m *MockTransactionRepository) SumByExpenseType(ctx context.Context, ownerEmail string, start, end time.Time) ([]*domain.ExpenseTypeTotal, error) {
	byType := make(map[uuid.UUID]decimal.Decimal)
	for _, t := range m.inRange(ownerEmail, start, end) {
		byType[t.ExpenseTypeID] = byType[t.ExpenseTypeID].Add(t.Amount)
	}
	result := make([]*domain.ExpenseTypeTotal, 0, len(byType))
	for id, total := range byType {
		result = append(result, &domain.ExpenseTypeTotal{ExpenseTypeID: id, TotalAmount: total})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TotalAmount.GreaterThan(result[j].TotalAmount)
	})
	return result, nil
}

// SumByMonth totals the owner's transactions per month of year
func (m *MockTransactionRepository) SumByMonth(ctx context.Context, ownerEmail string, year int) (map[int]decimal.Decimal, error) {
	totals := make(map[int]decimal.Decimal)
	for _, t := range m.Transactions {
		if t.OwnerEmail != ownerEmail || t.TransactionDate.Year() != year {
			continue
		}
		month := int(t.TransactionDate.Month())
		totals[month] = totals[month].Add(t.Amount)
	}
	return totals, nil
}

// SumForExpenseType totals the owner's spending on one expense type within [start, end]
func (m *MockTransactionRepository) SumForExpenseType(ctx context.Context, ownerEmail string, expenseTypeID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range m.inRange(ownerEmail, start, end) {
		if t.ExpenseTypeID == expenseTypeID {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(t *domain.Transaction) *domain.Transaction {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.Transactions[t.ID] = t
	return t
}

func (m *MockTransactionRepository) inRange(ownerEmail string, start, end time.Time) []*domain.Transaction {
	result := make([]*domain.Transaction, 0)
	for _, t := range m.Transactions {
		if t.OwnerEmail != ownerEmail {
			continue
		}
		if t.TransactionDate.Before(start) || t.TransactionDate.After(end) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// MockPreferencesRepository is a mock implementation of domain.PreferencesRepository
type MockPreferencesRepository struct {
	Preferences map[string]*domain.UserPreferences
}

// NewMockPreferencesRepository creates a new MockPreferencesRepository
func NewMockPreferencesRepository() *MockPreferencesRepository {
	return &MockPreferencesRepository{
		Preferences: make(map[string]*domain.UserPreferences),
	}
}

// GetByEmail retrieves stored preferences
func (m *MockPreferencesRepository) GetByEmail(ctx context.Context, email string) (*domain.UserPreferences, error) {
	if up, ok := m.Preferences[email]; ok {
		return up, nil
	}
	return nil, domain.ErrNotFound
}

// Upsert creates or replaces preferences
func (m *MockPreferencesRepository) Upsert(ctx context.Context, email string, prefs domain.Preferences) (*domain.UserPreferences, error) {
	now := time.Now()
	up, ok := m.Preferences[email]
	if !ok {
		up = &domain.UserPreferences{ID: uuid.New(), Email: email, CreatedAt: now}
		m.Preferences[email] = up
	}
	up.Preferences = prefs
	up.UpdatedAt = now
	return up, nil
}
