package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published after ledger writes commit.
const (
	EventEntryCreated          = "entry.created"
	EventEntryUpdated          = "entry.updated"
	EventEntryDeleted          = "entry.deleted"
	EventInstallmentCreated    = "installment.created"
	EventInstallmentDeleted    = "installment.deleted"
	EventCarryOverPosted       = "carry_over.posted"
	EventPartialPaymentApplied = "partial_payment.applied"
)

// LedgerEvent is a lightweight notification; consumers fetch full rows from
// the API when they need more than the ids.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	OwnerID   string    `json:"owner_id"`
	AccountID string    `json:"account_id,omitempty"`
	EntryID   string    `json:"entry_id,omitempty"`
	GroupID   string    `json:"group_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON converts the event to JSON bytes.
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON parses an event from JSON bytes.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	return e, nil
}
