package domain

import (
	"errors"
	"testing"
	"time"
)

func TestBudgetPeriodValidate(t *testing.T) {
	tests := []struct {
		name        string
		period      BudgetPeriod
		granularity PeriodGranularity
		wantErr     bool
	}{
		{"yearly ok", YearlyPeriod(2024), PeriodYearly, false},
		{"yearly with month", MonthlyPeriod(2024, 3), PeriodYearly, true},
		{"monthly ok", MonthlyPeriod(2024, 12), PeriodMonthly, false},
		{"monthly without month", YearlyPeriod(2024), PeriodMonthly, true},
		{"monthly month 13", MonthlyPeriod(2024, 13), PeriodMonthly, true},
		{"year too small", YearlyPeriod(1999), PeriodYearly, true},
		{"year too large", YearlyPeriod(2101), PeriodYearly, true},
		{"unknown granularity", YearlyPeriod(2024), PeriodGranularity("weekly"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.period.Validate(tt.granularity)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPeriod) {
					t.Errorf("Validate() error = %v, want ErrInvalidPeriod", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestBudgetPeriodCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b BudgetPeriod
		want int
	}{
		{"earlier year", YearlyPeriod(2023), YearlyPeriod(2024), -1},
		{"same year", YearlyPeriod(2024), YearlyPeriod(2024), 0},
		{"later month", MonthlyPeriod(2024, 5), MonthlyPeriod(2024, 4), 1},
		{"year beats month", MonthlyPeriod(2023, 12), MonthlyPeriod(2024, 1), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBudgetPeriodString(t *testing.T) {
	if got := YearlyPeriod(2024).String(); got != "2024" {
		t.Errorf("String() = %q, want %q", got, "2024")
	}
	if got := MonthlyPeriod(2024, 6).String(); got != "2024-06" {
		t.Errorf("String() = %q, want %q", got, "2024-06")
	}
}

func TestCheckCreationWindow(t *testing.T) {
	june := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	december := time.Date(2024, time.December, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		period  BudgetPeriod
		now     time.Time
		wantErr bool
	}{
		{"past year in june", YearlyPeriod(2023), june, true},
		{"current year in june", YearlyPeriod(2024), june, false},
		{"next year in june", YearlyPeriod(2025), june, true},
		{"next year in december", YearlyPeriod(2025), december, false},
		{"two years ahead in december", YearlyPeriod(2026), december, true},
		{"earlier month of current year", MonthlyPeriod(2024, 1), june, false},
		{"next january in december", MonthlyPeriod(2025, 1), december, false},
		{"next january in june", MonthlyPeriod(2025, 1), june, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCreationWindow(tt.period, tt.now)
			if tt.wantErr && !errors.Is(err, ErrInvalidPeriod) {
				t.Errorf("CheckCreationWindow() error = %v, want ErrInvalidPeriod", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("CheckCreationWindow() unexpected error: %v", err)
			}
		})
	}
}
