package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/validator"
	"github.com/dafibh/tally/tally-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// PreferencesService reads and saves per-user settings
type PreferencesService struct {
	prefsRepo      domain.PreferencesRepository
	eventPublisher websocket.EventPublisher
}

// NewPreferencesService creates a new PreferencesService
func NewPreferencesService(prefsRepo domain.PreferencesRepository) *PreferencesService {
	return &PreferencesService{prefsRepo: prefsRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PreferencesService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// PreferencesInput carries the fields a user may save. Nil fields keep their current value.
type PreferencesInput struct {
	Currency            *string
	EmergencyFundMonths *int
	MonthlySalary       *decimal.Decimal
	EmergencyFundSaved  *decimal.Decimal
}

// GetPreferences returns stored preferences, or defaults flagged as first-time when none are stored
func (s *PreferencesService) GetPreferences(ctx context.Context, email string) (*domain.UserPreferences, error) {
	stored, err := s.prefsRepo.GetByEmail(ctx, email)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return &domain.UserPreferences{
		Email:       email,
		Preferences: domain.DefaultPreferences(),
		IsFirstTime: true,
	}, nil
}

// SavePreferences merges input over the current preferences and stores the result
func (s *PreferencesService) SavePreferences(ctx context.Context, email string, input PreferencesInput) (*domain.UserPreferences, error) {
	current, err := s.GetPreferences(ctx, email)
	if err != nil {
		return nil, err
	}
	prefs := current.Preferences

	if input.Currency != nil {
		prefs.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}
	if input.EmergencyFundMonths != nil {
		prefs.EmergencyFundMonths = *input.EmergencyFundMonths
	}
	if input.MonthlySalary != nil {
		prefs.MonthlySalary = *input.MonthlySalary
	}
	if input.EmergencyFundSaved != nil {
		prefs.EmergencyFundSaved = *input.EmergencyFundSaved
	}

	if err := validatePreferences(prefs); err != nil {
		return nil, err
	}

	saved, err := s.prefsRepo.Upsert(ctx, email, prefs)
	if err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(email, websocket.PreferencesUpdated(saved))
	}
	return saved, nil
}

func validatePreferences(p domain.Preferences) error {
	if !validator.IsISO4217(p.Currency) {
		return fmt.Errorf("%w: currency must be an ISO 4217 code", domain.ErrInvalidPreferences)
	}
	if p.EmergencyFundMonths < domain.MinEmergencyFundMonths || p.EmergencyFundMonths > domain.MaxEmergencyFundMonths {
		return fmt.Errorf("%w: emergency fund months must be between %d and %d",
			domain.ErrInvalidPreferences, domain.MinEmergencyFundMonths, domain.MaxEmergencyFundMonths)
	}
	if p.MonthlySalary.IsNegative() {
		return fmt.Errorf("%w: monthly salary cannot be negative", domain.ErrInvalidPreferences)
	}
	if p.EmergencyFundSaved.IsNegative() {
		return fmt.Errorf("%w: emergency fund saved cannot be negative", domain.ErrInvalidPreferences)
	}
	return nil
}
