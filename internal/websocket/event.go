package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypeCopied  EventType = "copied"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeBudget      EntityType = "budget"
	EntityTypeExpenseType EntityType = "expense_type"
	EntityTypeTransaction EntityType = "transaction"
	EntityTypePreferences EntityType = "preferences"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "budget.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "budget"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BudgetCreated creates a budget.created event
func BudgetCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeBudget, payload)
}

// BudgetUpdated creates a budget.updated event
func BudgetUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeBudget, payload)
}

// BudgetDeleted creates a budget.deleted event
func BudgetDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeBudget, payload)
}

// BudgetCopied creates a budget.copied event
func BudgetCopied(payload interface{}) Event {
	return NewEvent(EventTypeCopied, EntityTypeBudget, payload)
}

// ExpenseTypeCreated creates an expense_type.created event
func ExpenseTypeCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeExpenseType, payload)
}

// ExpenseTypeUpdated creates an expense_type.updated event
func ExpenseTypeUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeExpenseType, payload)
}

// ExpenseTypeDeleted creates an expense_type.deleted event
func ExpenseTypeDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeExpenseType, payload)
}

// TransactionCreated creates a transaction.created event
func TransactionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
}

// TransactionUpdated creates a transaction.updated event
func TransactionUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeTransaction, payload)
}

// TransactionDeleted creates a transaction.deleted event
func TransactionDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTransaction, payload)
}

// PreferencesUpdated creates a preferences.updated event
func PreferencesUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypePreferences, payload)
}
