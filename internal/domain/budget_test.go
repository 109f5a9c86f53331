package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func intPtr(i int) *int {
	return &i
}

func TestBudgetItemInputValidate(t *testing.T) {
	typeID := uuid.New()

	tests := []struct {
		name    string
		input   BudgetItemInput
		policy  ItemMonthPolicy
		wantErr error
	}{
		{"recurring without month strict", BudgetItemInput{ExpenseTypeID: typeID, Amount: decimal.NewFromInt(100)}, ItemMonthStrict, nil},
		{"one-time with month strict", BudgetItemInput{ExpenseTypeID: typeID, Amount: decimal.NewFromInt(100), IsOneTime: true, ApplicableMonth: intPtr(3)}, ItemMonthStrict, nil},
		{"one-time without month strict", BudgetItemInput{ExpenseTypeID: typeID, Amount: decimal.NewFromInt(100), IsOneTime: true}, ItemMonthStrict, ErrInvalidItemState},
		{"recurring with month strict", BudgetItemInput{ExpenseTypeID: typeID, Amount: decimal.NewFromInt(100), ApplicableMonth: intPtr(3)}, ItemMonthStrict, ErrInvalidItemState},
		{"one-time without month off", BudgetItemInput{ExpenseTypeID: typeID, Amount: decimal.NewFromInt(100), IsOneTime: true}, ItemMonthOff, nil},
		{"recurring with month off", BudgetItemInput{ExpenseTypeID: typeID, Amount: decimal.NewFromInt(100), ApplicableMonth: intPtr(3)}, ItemMonthOff, nil},
		{"month out of range off", BudgetItemInput{ExpenseTypeID: typeID, Amount: decimal.NewFromInt(100), ApplicableMonth: intPtr(13)}, ItemMonthOff, ErrInvalidItemState},
		{"negative amount", BudgetItemInput{ExpenseTypeID: typeID, Amount: decimal.NewFromInt(-1)}, ItemMonthStrict, ErrInvalidAmount},
		{"zero amount", BudgetItemInput{ExpenseTypeID: typeID, Amount: decimal.Zero}, ItemMonthStrict, nil},
		{"missing expense type", BudgetItemInput{Amount: decimal.NewFromInt(1)}, ItemMonthStrict, ErrInvalidItemState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate(tt.policy)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetItemInputToItem(t *testing.T) {
	budgetID := uuid.New()
	input := BudgetItemInput{
		ExpenseTypeID:   uuid.New(),
		Amount:          decimal.RequireFromString("42.50"),
		IsOneTime:       true,
		ApplicableMonth: intPtr(7),
	}

	a := input.ToItem(budgetID)
	b := input.ToItem(budgetID)

	if a.ID == uuid.Nil || a.ID == b.ID {
		t.Errorf("ToItem() should assign a fresh id each call")
	}
	if a.BudgetID != budgetID {
		t.Errorf("BudgetID = %s, want %s", a.BudgetID, budgetID)
	}
	if !a.Amount.Equal(input.Amount) || a.ExpenseTypeID != input.ExpenseTypeID || *a.ApplicableMonth != 7 {
		t.Errorf("ToItem() did not copy fields: %+v", a)
	}
}
