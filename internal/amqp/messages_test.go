package amqp

import (
	"strings"
	"testing"
	"time"
)

func TestLedgerEventJSON(t *testing.T) {
	event := LedgerEvent{
		Kind:      EventCarryOverPosted,
		OwnerID:   "owner-1",
		AccountID: "acc-1",
		EntryID:   "entry-1",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}
	// Empty group id stays off the wire.
	if strings.Contains(string(data), "group_id") {
		t.Errorf("ToJSON() = %s, want group_id omitted", data)
	}

	got, err := LedgerEventFromJSON(data)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error: %v", err)
	}
	if got.Kind != event.Kind || got.OwnerID != event.OwnerID ||
		got.AccountID != event.AccountID || got.EntryID != event.EntryID ||
		!got.Timestamp.Equal(event.Timestamp) {
		t.Errorf("round trip = %+v, want %+v", got, event)
	}
}

func TestLedgerEventFromJSONInvalid(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte("not json")); err == nil {
		t.Error("LedgerEventFromJSON() = nil error for malformed payload")
	}
}
