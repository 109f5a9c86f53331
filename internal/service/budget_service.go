package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultLedgerConcurrency = 4

// BudgetServiceConfig holds deployment settings for the budget lifecycle
type BudgetServiceConfig struct {
	Granularity domain.PeriodGranularity
	ItemPolicy  domain.ItemMonthPolicy
	// LedgerConcurrency bounds parallel ledger checks during delete
	LedgerConcurrency int
}

// BudgetService owns the budget lifecycle: creation window, per-period uniqueness,
// item validation, full-replacement updates, copies and the ledger-guarded delete.
type BudgetService struct {
	budgetRepo      domain.BudgetRepository
	expenseTypeRepo domain.ExpenseTypeRepository
	ledger          domain.LedgerChecker
	cfg             BudgetServiceConfig
	now             func() time.Time
	eventPublisher  websocket.EventPublisher
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(
	budgetRepo domain.BudgetRepository,
	expenseTypeRepo domain.ExpenseTypeRepository,
	ledger domain.LedgerChecker,
	cfg BudgetServiceConfig,
) *BudgetService {
	if cfg.Granularity == "" {
		cfg.Granularity = domain.PeriodMonthly
	}
	if cfg.ItemPolicy == "" {
		cfg.ItemPolicy = domain.ItemMonthStrict
	}
	if cfg.LedgerConcurrency <= 0 {
		cfg.LedgerConcurrency = defaultLedgerConcurrency
	}
	return &BudgetService{
		budgetRepo:      budgetRepo,
		expenseTypeRepo: expenseTypeRepo,
		ledger:          ledger,
		cfg:             cfg,
		now:             time.Now,
	}
}

// SetClock replaces the clock used for the creation window
func (s *BudgetService) SetClock(now func() time.Time) {
	s.now = now
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *BudgetService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *BudgetService) publishEvent(ownerEmail string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerEmail, event)
	}
}

// Granularity returns the period granularity this service was configured with
func (s *BudgetService) Granularity() domain.PeriodGranularity {
	return s.cfg.Granularity
}

// CreateBudget creates a budget for an open period with the given items
func (s *BudgetService) CreateBudget(ctx context.Context, ownerEmail string, period domain.BudgetPeriod, items []domain.BudgetItemInput) (*domain.BudgetView, error) {
	if err := s.validateNewPeriod(ctx, ownerEmail, period); err != nil {
		return nil, err
	}
	if err := s.validateItems(ctx, ownerEmail, items); err != nil {
		return nil, err
	}

	budget := &domain.Budget{
		ID:         uuid.New(),
		OwnerEmail: ownerEmail,
		Period:     period,
	}
	created, err := s.budgetRepo.Create(ctx, budget, buildItems(budget.ID, items))
	if err != nil {
		return nil, err
	}

	view, err := s.assembleOne(ctx, created)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ownerEmail, websocket.BudgetCreated(view))
	return view, nil
}

// GetBudget retrieves the owner's budget for a period
func (s *BudgetService) GetBudget(ctx context.Context, ownerEmail string, period domain.BudgetPeriod) (*domain.BudgetView, error) {
	if err := period.Validate(s.cfg.Granularity); err != nil {
		return nil, err
	}
	budget, err := s.budgetRepo.GetByPeriod(ctx, ownerEmail, period)
	if err != nil {
		return nil, err
	}
	return s.assembleOne(ctx, budget)
}

// GetBudgets lists the owner's budgets newest first, optionally for a single year
func (s *BudgetService) GetBudgets(ctx context.Context, ownerEmail string, year *int) ([]*domain.BudgetView, error) {
	budgets, err := s.budgetRepo.ListByOwner(ctx, ownerEmail, year)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, ownerEmail, budgets)
}

// UpdateBudget replaces all items of an existing budget. The header is immutable.
func (s *BudgetService) UpdateBudget(ctx context.Context, ownerEmail string, period domain.BudgetPeriod, items []domain.BudgetItemInput) (*domain.BudgetView, error) {
	if err := period.Validate(s.cfg.Granularity); err != nil {
		return nil, err
	}
	budget, err := s.budgetRepo.GetByPeriod(ctx, ownerEmail, period)
	if err != nil {
		return nil, err
	}

	// Validate the whole replacement set before touching storage
	if err := s.validateItems(ctx, ownerEmail, items); err != nil {
		return nil, err
	}
	if err := s.budgetRepo.ReplaceItems(ctx, budget.ID, buildItems(budget.ID, items)); err != nil {
		return nil, err
	}

	view, err := s.assembleOne(ctx, budget)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ownerEmail, websocket.BudgetUpdated(view))
	return view, nil
}

// DeleteBudget deletes a budget unless the ledger has transactions against any of its items.
// If the ledger cannot answer for every item, nothing is deleted.
func (s *BudgetService) DeleteBudget(ctx context.Context, ownerEmail string, period domain.BudgetPeriod) error {
	if err := period.Validate(s.cfg.Granularity); err != nil {
		return err
	}
	budget, err := s.budgetRepo.GetByPeriod(ctx, ownerEmail, period)
	if err != nil {
		return err
	}
	items, err := s.budgetRepo.GetItems(ctx, budget.ID)
	if err != nil {
		return err
	}

	if err := s.ensureNoTransactions(ctx, items); err != nil {
		log.Warn().
			Err(err).
			Str("owner", ownerEmail).
			Str("period", period.String()).
			Int("items", len(items)).
			Msg("Budget delete refused")
		return err
	}

	// A transaction recorded after the checks above is not detected here.
	if err := s.budgetRepo.Delete(ctx, budget.ID); err != nil {
		return err
	}

	s.publishEvent(ownerEmail, websocket.BudgetDeleted(budget))
	return nil
}

// CopyBudget duplicates the source budget's items into a new budget for the target period
func (s *BudgetService) CopyBudget(ctx context.Context, ownerEmail string, from, to domain.BudgetPeriod) (*domain.BudgetView, error) {
	if err := from.Validate(s.cfg.Granularity); err != nil {
		return nil, err
	}
	source, err := s.budgetRepo.GetByPeriod(ctx, ownerEmail, from)
	if err != nil {
		return nil, err
	}
	if err := s.validateNewPeriod(ctx, ownerEmail, to); err != nil {
		return nil, err
	}

	sourceItems, err := s.budgetRepo.GetItems(ctx, source.ID)
	if err != nil {
		return nil, err
	}

	target := &domain.Budget{
		ID:         uuid.New(),
		OwnerEmail: ownerEmail,
		Period:     to,
	}
	clones := make([]*domain.BudgetItem, len(sourceItems))
	for i, item := range sourceItems {
		clones[i] = domain.BudgetItemInput{
			ExpenseTypeID:   item.ExpenseTypeID,
			Amount:          item.Amount,
			IsOneTime:       item.IsOneTime,
			ApplicableMonth: copyIntPtr(item.ApplicableMonth),
		}.ToItem(target.ID)
	}

	created, err := s.budgetRepo.Create(ctx, target, clones)
	if err != nil {
		return nil, err
	}

	view, err := s.assembleOne(ctx, created)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ownerEmail, websocket.BudgetCopied(view))
	return view, nil
}

// validateNewPeriod applies the shape, creation window and uniqueness rules for a period about to receive a budget
func (s *BudgetService) validateNewPeriod(ctx context.Context, ownerEmail string, period domain.BudgetPeriod) error {
	if err := period.Validate(s.cfg.Granularity); err != nil {
		return err
	}
	if err := domain.CheckCreationWindow(period, s.now()); err != nil {
		return err
	}
	exists, err := s.budgetRepo.ExistsByPeriod(ctx, ownerEmail, period)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateBudget
	}
	return nil
}

// validateItems resolves every referenced expense type in one batch, then checks each item
func (s *BudgetService) validateItems(ctx context.Context, ownerEmail string, items []domain.BudgetItemInput) error {
	requested := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if item.ExpenseTypeID == uuid.Nil || seen[item.ExpenseTypeID] {
			continue
		}
		seen[item.ExpenseTypeID] = true
		requested = append(requested, item.ExpenseTypeID)
	}

	if len(requested) > 0 {
		found, err := s.expenseTypeRepo.GetByIDs(ctx, ownerEmail, requested)
		if err != nil {
			return err
		}
		owned := make(map[uuid.UUID]bool, len(found))
		for _, et := range found {
			if et.OwnerEmail == ownerEmail {
				owned[et.ID] = true
			}
		}
		var missing []string
		for _, id := range requested {
			if !owned[id] {
				missing = append(missing, id.String())
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", domain.ErrUnknownOrForeignCategory, strings.Join(missing, ", "))
		}
	}

	for i, item := range items {
		if err := item.Validate(s.cfg.ItemPolicy); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// ensureNoTransactions asks the ledger about every item with bounded parallelism.
// A positive answer wins over a ledger failure.
func (s *BudgetService) ensureNoTransactions(ctx context.Context, items []*domain.BudgetItem) error {
	if len(items) == 0 {
		return nil
	}

	var inUse atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.LedgerConcurrency)

	for _, item := range items {
		g.Go(func() error {
			has, err := s.ledger.HasBudgetItemTransactions(gctx, item.ID)
			if err != nil {
				return err
			}
			if has {
				inUse.Store(true)
				return domain.ErrBudgetInUse
			}
			return nil
		})
	}

	err := g.Wait()
	if inUse.Load() {
		return domain.ErrBudgetInUse
	}
	if err != nil {
		if errors.Is(err, domain.ErrDependencyUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}
	return nil
}

func (s *BudgetService) assembleOne(ctx context.Context, budget *domain.Budget) (*domain.BudgetView, error) {
	views, err := s.assemble(ctx, budget.OwnerEmail, []*domain.Budget{budget})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// assemble joins budgets with their items and expense types using one expense type lookup
func (s *BudgetService) assemble(ctx context.Context, ownerEmail string, budgets []*domain.Budget) ([]*domain.BudgetView, error) {
	itemsByBudget := make(map[uuid.UUID][]*domain.BudgetItem, len(budgets))
	typeIDs := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)

	for _, b := range budgets {
		items, err := s.budgetRepo.GetItems(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		itemsByBudget[b.ID] = items
		for _, item := range items {
			if !seen[item.ExpenseTypeID] {
				seen[item.ExpenseTypeID] = true
				typeIDs = append(typeIDs, item.ExpenseTypeID)
			}
		}
	}

	typeByID := make(map[uuid.UUID]*domain.ExpenseType, len(typeIDs))
	if len(typeIDs) > 0 {
		types, err := s.expenseTypeRepo.GetByIDs(ctx, ownerEmail, typeIDs)
		if err != nil {
			return nil, err
		}
		for _, et := range types {
			typeByID[et.ID] = et
		}
	}

	views := make([]*domain.BudgetView, 0, len(budgets))
	for _, b := range budgets {
		view := &domain.BudgetView{
			Budget:      *b,
			Items:       make([]*domain.BudgetItemView, 0, len(itemsByBudget[b.ID])),
			TotalAmount: decimal.Zero,
		}
		for _, item := range itemsByBudget[b.ID] {
			et, ok := typeByID[item.ExpenseTypeID]
			if !ok {
				log.Error().
					Str("budget_id", b.ID.String()).
					Str("item_id", item.ID.String()).
					Str("expense_type_id", item.ExpenseTypeID.String()).
					Msg("Budget item references a missing expense type")
				return nil, fmt.Errorf("%w: item %s references missing expense type %s", domain.ErrIntegrity, item.ID, item.ExpenseTypeID)
			}
			view.Items = append(view.Items, &domain.BudgetItemView{
				BudgetItem:      *item,
				ExpenseTypeName: et.Name,
				ExpenseTypeIcon: et.Icon,
				IsMandatory:     et.IsMandatory,
			})
			view.TotalAmount = view.TotalAmount.Add(item.Amount)
		}
		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Period.Compare(views[j].Period) > 0
	})
	return views, nil
}

func buildItems(budgetID uuid.UUID, inputs []domain.BudgetItemInput) []*domain.BudgetItem {
	items := make([]*domain.BudgetItem, len(inputs))
	for i, in := range inputs {
		items[i] = in.ToItem(budgetID)
	}
	return items
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
