package event

import (
	"encoding/json"
	"time"
)

// Event kinds published on the ledger stream.
const (
	KindTransactionCreated = "transaction.created"
	KindTransactionRemoved = "transaction.removed"
	KindBillPaid           = "bill.paid"
	KindBillUnpaid         = "bill.unpaid"
)

// LedgerEvent is a lightweight notification that a ledger mutation happened.
// Consumers fetch current state from the store; the event carries only enough
// to identify and log the change.
type LedgerEvent struct {
	Kind        string    `json:"kind"`
	EntityID    string    `json:"entity_id"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(kind, entityID string, amountCents int64, description string) *LedgerEvent {
	return &LedgerEvent{
		Kind:        kind,
		EntityID:    entityID,
		AmountCents: amountCents,
		Description: description,
		OccurredAt:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
