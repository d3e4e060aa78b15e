package event

import (
	"testing"
	"time"
)

func TestNewLedgerEvent(t *testing.T) {
	ev := NewLedgerEvent(KindBillPaid, "bill-1", 50000, "Bill Payment: Rent")

	if ev.Kind != KindBillPaid {
		t.Errorf("Kind = %v, want %v", ev.Kind, KindBillPaid)
	}
	if ev.EntityID != "bill-1" {
		t.Errorf("EntityID = %v, want bill-1", ev.EntityID)
	}
	if ev.OccurredAt.IsZero() {
		t.Error("OccurredAt should not be zero")
	}
	if time.Since(ev.OccurredAt) > time.Second {
		t.Error("OccurredAt should be recent")
	}
}

func TestLedgerEventFromInvalidJSON(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte(`{"amount_cents": "nope"}`)); err == nil {
		t.Error("LedgerEventFromJSON() should fail with invalid JSON")
	}
}
