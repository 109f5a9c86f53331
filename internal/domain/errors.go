package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternalError = errors.New("internal error")
	ErrNameRequired  = errors.New("name is required")
	ErrNameTooLong   = errors.New("name exceeds maximum length")
	ErrIconTooLong   = errors.New("icon exceeds maximum length")

	ErrBudgetNotFound           = errors.New("budget not found")
	ErrDuplicateBudget          = errors.New("budget already exists for this period")
	ErrInvalidPeriod            = errors.New("invalid budget period")
	ErrInvalidItemState         = errors.New("invalid budget item")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrUnknownOrForeignCategory = errors.New("one or more expense types not found")
	ErrBudgetInUse              = errors.New("budget has items with recorded transactions")
	ErrDependencyUnavailable    = errors.New("dependency unavailable")
	ErrIntegrity                = errors.New("data integrity violation")

	ErrExpenseTypeNotFound = errors.New("expense type not found")
	ErrDuplicateName       = errors.New("expense type with this name already exists")
	ErrExpenseTypeInUse    = errors.New("expense type is used by budget items")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDescriptionTooLong  = errors.New("description exceeds maximum length")

	ErrInvalidPreferences = errors.New("invalid preferences")
)

// Validation constants
const (
	MaxExpenseTypeNameLength = 100
	MaxExpenseTypeIconLength = 50
	MaxDescriptionLength     = 500
)
