package domain

import "time"

// Event types
const (
	EventTypeMovementRecorded = "movement.recorded"
	EventTypeMovementReversed = "movement.reversed"
	EventTypeAccountCreated   = "account.created"
	EventTypeAccountStatus    = "account.status_changed"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published. Movement events use the
// account as aggregate so that consumers can keep per-account order.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// MovementRecordedEvent builds the payload of a movement.recorded or
// movement.reversed event.
func MovementRecordedEvent(m *Movement) map[string]any {
	payload := map[string]any{
		"movement_id":       m.ID,
		"account_id":        m.AccountID,
		"sequence":          m.Sequence,
		"kind":              string(m.Kind),
		"amount":            m.Amount.StringFixed(AmountScale),
		"resulting_balance": m.ResultingBalance.StringFixed(AmountScale),
		"timestamp":         m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if m.ReversesID != nil {
		payload["reverses_id"] = *m.ReversesID
	}
	return payload
}

// AccountCreatedEvent builds the payload of an account.created event.
func AccountCreatedEvent(a *Account) map[string]any {
	return map[string]any{
		"account_id":      a.ID,
		"number":          a.Number,
		"type":            string(a.Type),
		"customer_id":     a.CustomerID,
		"initial_balance": a.InitialBalance.StringFixed(AmountScale),
	}
}

// AccountStatusEvent builds the payload of an account.status_changed event.
func AccountStatusEvent(a *Account) map[string]any {
	return map[string]any{
		"account_id": a.ID,
		"active":     a.Active,
	}
}
