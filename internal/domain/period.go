package domain

import (
	"fmt"
	"time"
)

// PeriodGranularity selects whether a deployment keys budgets by year or by (year, month).
type PeriodGranularity string

const (
	PeriodYearly  PeriodGranularity = "yearly"
	PeriodMonthly PeriodGranularity = "monthly"
)

const (
	MinBudgetYear = 2000
	MaxBudgetYear = 2100
)

// BudgetPeriod identifies the time span a budget covers. Month is 0 for yearly budgets.
type BudgetPeriod struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
}

func YearlyPeriod(year int) BudgetPeriod {
	return BudgetPeriod{Year: year}
}

func MonthlyPeriod(year, month int) BudgetPeriod {
	return BudgetPeriod{Year: year, Month: month}
}

// Validate checks that the period has the shape required by the granularity.
func (p BudgetPeriod) Validate(g PeriodGranularity) error {
	if p.Year < MinBudgetYear || p.Year > MaxBudgetYear {
		return fmt.Errorf("%w: year must be between %d and %d", ErrInvalidPeriod, MinBudgetYear, MaxBudgetYear)
	}
	switch g {
	case PeriodYearly:
		if p.Month != 0 {
			return fmt.Errorf("%w: yearly budgets do not take a month", ErrInvalidPeriod)
		}
	case PeriodMonthly:
		if p.Month < 1 || p.Month > 12 {
			return fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidPeriod)
		}
	default:
		return fmt.Errorf("%w: unknown granularity %q", ErrInvalidPeriod, g)
	}
	return nil
}

// Compare orders periods by year then month. It returns -1, 0 or 1.
func (p BudgetPeriod) Compare(other BudgetPeriod) int {
	switch {
	case p.Year < other.Year:
		return -1
	case p.Year > other.Year:
		return 1
	case p.Month < other.Month:
		return -1
	case p.Month > other.Month:
		return 1
	}
	return 0
}

func (p BudgetPeriod) IsYearly() bool {
	return p.Month == 0
}

func (p BudgetPeriod) String() string {
	if p.IsYearly() {
		return fmt.Sprintf("%04d", p.Year)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// CheckCreationWindow enforces which periods may receive a new budget at instant now.
// Past years are closed. Next year opens in December only. Anything later is closed.
// Months inside an open year are not gated.
func CheckCreationWindow(p BudgetPeriod, now time.Time) error {
	currentYear := now.Year()
	switch {
	case p.Year < currentYear:
		return fmt.Errorf("%w: cannot create budgets for past years", ErrInvalidPeriod)
	case p.Year == currentYear:
		return nil
	case p.Year == currentYear+1:
		if now.Month() != time.December {
			return fmt.Errorf("%w: budgets for next year can only be created in December", ErrInvalidPeriod)
		}
		return nil
	default:
		return fmt.Errorf("%w: cannot create budgets more than one year ahead", ErrInvalidPeriod)
	}
}

// ItemMonthPolicy controls how the one-time flag and applicable month must pair on budget items.
type ItemMonthPolicy string

const (
	// ItemMonthStrict requires one-time items to name a month and recurring items to omit it.
	ItemMonthStrict ItemMonthPolicy = "strict"
	// ItemMonthOff applies no pairing rule.
	ItemMonthOff ItemMonthPolicy = "off"
)
