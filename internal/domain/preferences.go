package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency            = "USD"
	DefaultEmergencyFundMonths = 3
	MinEmergencyFundMonths     = 1
	MaxEmergencyFundMonths     = 24
)

// Preferences holds the user-tunable settings stored as a JSON document.
type Preferences struct {
	Currency            string          `json:"currency"`
	EmergencyFundMonths int             `json:"emergencyFundMonths"`
	MonthlySalary       decimal.Decimal `json:"monthlySalary"`
	EmergencyFundSaved  decimal.Decimal `json:"emergencyFundSaved"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Currency:            DefaultCurrency,
		EmergencyFundMonths: DefaultEmergencyFundMonths,
		MonthlySalary:       decimal.Zero,
		EmergencyFundSaved:  decimal.Zero,
	}
}

type UserPreferences struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	Preferences Preferences `json:"preferences"`
	IsFirstTime bool        `json:"isFirstTime"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type PreferencesRepository interface {
	GetByEmail(ctx context.Context, email string) (*UserPreferences, error)
	Upsert(ctx context.Context, email string, prefs Preferences) (*UserPreferences, error)
}
