package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/websocket"
	"github.com/google/uuid"
)

// ExpenseTypeService handles expense type business logic
type ExpenseTypeService struct {
	expenseTypeRepo domain.ExpenseTypeRepository
	budgetRepo      domain.BudgetRepository
	eventPublisher  websocket.EventPublisher
}

// NewExpenseTypeService creates a new ExpenseTypeService
func NewExpenseTypeService(expenseTypeRepo domain.ExpenseTypeRepository, budgetRepo domain.BudgetRepository) *ExpenseTypeService {
	return &ExpenseTypeService{
		expenseTypeRepo: expenseTypeRepo,
		budgetRepo:      budgetRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ExpenseTypeService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ExpenseTypeService) publishEvent(ownerEmail string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerEmail, event)
	}
}

// ExpenseTypeInput holds the user-editable fields of an expense type
type ExpenseTypeInput struct {
	Name        string
	Icon        string
	IsMandatory *bool
	Accumulate  *bool
}

func (in ExpenseTypeInput) normalize() (ExpenseTypeInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, domain.ErrNameRequired
	}
	if len(in.Name) > domain.MaxExpenseTypeNameLength {
		return in, domain.ErrNameTooLong
	}
	in.Icon = strings.TrimSpace(in.Icon)
	if in.Icon == "" {
		in.Icon = domain.DefaultExpenseTypeIcon
	}
	if len(in.Icon) > domain.MaxExpenseTypeIconLength {
		return in, domain.ErrIconTooLong
	}
	return in, nil
}

// GetExpenseTypes lists the owner's expense types with their deletability
func (s *ExpenseTypeService) GetExpenseTypes(ctx context.Context, ownerEmail string) ([]*domain.ExpenseTypeWithUsage, error) {
	types, err := s.expenseTypeRepo.ListByOwner(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}
	usage, err := s.budgetRepo.CountItemsByExpenseType(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.ExpenseTypeWithUsage, len(types))
	for i, et := range types {
		result[i] = withUsage(et, usage)
	}
	return result, nil
}

// GetExpenseType retrieves one of the owner's expense types
func (s *ExpenseTypeService) GetExpenseType(ctx context.Context, ownerEmail string, id uuid.UUID) (*domain.ExpenseTypeWithUsage, error) {
	et, err := s.expenseTypeRepo.GetByID(ctx, ownerEmail, id)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, et)
}

// CreateExpenseType creates an expense type with a name unique for the owner
func (s *ExpenseTypeService) CreateExpenseType(ctx context.Context, ownerEmail string, input ExpenseTypeInput) (*domain.ExpenseTypeWithUsage, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	if _, err := s.expenseTypeRepo.GetByName(ctx, ownerEmail, input.Name); err == nil {
		return nil, domain.ErrDuplicateName
	} else if !errors.Is(err, domain.ErrExpenseTypeNotFound) {
		return nil, err
	}

	et := &domain.ExpenseType{
		OwnerEmail:  ownerEmail,
		Name:        input.Name,
		Icon:        input.Icon,
		IsMandatory: boolOr(input.IsMandatory, true),
		Accumulate:  boolOr(input.Accumulate, false),
	}
	created, err := s.expenseTypeRepo.Create(ctx, et)
	if err != nil {
		return nil, err
	}

	result := &domain.ExpenseTypeWithUsage{ExpenseType: *created, CanDelete: true}
	s.publishEvent(ownerEmail, websocket.ExpenseTypeCreated(result))
	return result, nil
}

// UpdateExpenseType updates an expense type. The new name must not collide with another of the owner's types.
func (s *ExpenseTypeService) UpdateExpenseType(ctx context.Context, ownerEmail string, id uuid.UUID, input ExpenseTypeInput) (*domain.ExpenseTypeWithUsage, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	existing, err := s.expenseTypeRepo.GetByID(ctx, ownerEmail, id)
	if err != nil {
		return nil, err
	}

	if other, err := s.expenseTypeRepo.GetByName(ctx, ownerEmail, input.Name); err == nil {
		if other.ID != id {
			return nil, domain.ErrDuplicateName
		}
	} else if !errors.Is(err, domain.ErrExpenseTypeNotFound) {
		return nil, err
	}

	existing.Name = input.Name
	existing.Icon = input.Icon
	existing.IsMandatory = boolOr(input.IsMandatory, existing.IsMandatory)
	existing.Accumulate = boolOr(input.Accumulate, existing.Accumulate)

	updated, err := s.expenseTypeRepo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	result, err := s.decorate(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ownerEmail, websocket.ExpenseTypeUpdated(result))
	return result, nil
}

// DeleteExpenseType deletes an expense type that no budget item references
func (s *ExpenseTypeService) DeleteExpenseType(ctx context.Context, ownerEmail string, id uuid.UUID) error {
	et, err := s.expenseTypeRepo.GetByID(ctx, ownerEmail, id)
	if err != nil {
		return err
	}

	usage, err := s.budgetRepo.CountItemsByExpenseType(ctx, ownerEmail)
	if err != nil {
		return err
	}
	if usage[id] > 0 {
		return domain.ErrExpenseTypeInUse
	}

	if err := s.expenseTypeRepo.Delete(ctx, ownerEmail, id); err != nil {
		return err
	}
	s.publishEvent(ownerEmail, websocket.ExpenseTypeDeleted(et))
	return nil
}

func (s *ExpenseTypeService) decorate(ctx context.Context, et *domain.ExpenseType) (*domain.ExpenseTypeWithUsage, error) {
	usage, err := s.budgetRepo.CountItemsByExpenseType(ctx, et.OwnerEmail)
	if err != nil {
		return nil, err
	}
	return withUsage(et, usage), nil
}

func withUsage(et *domain.ExpenseType, usage map[uuid.UUID]int64) *domain.ExpenseTypeWithUsage {
	return &domain.ExpenseTypeWithUsage{
		ExpenseType: *et,
		CanDelete:   usage[et.ID] == 0,
	}
}

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}
