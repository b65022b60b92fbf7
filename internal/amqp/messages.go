package amqp

import (
	"encoding/json"
	"time"
)

// EventKind names a ledger mutation.
type EventKind string

const (
	EventAppended EventKind = "transaction.appended"
	EventDeleted  EventKind = "transaction.deleted"
	EventReset    EventKind = "ledger.reset"
)

// LedgerEvent announces a change to one session's ledger. Receipts and
// notes are never included.
type LedgerEvent struct {
	Kind          EventKind `json:"kind"`
	SessionID     string    `json:"session_id"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	AmountCents   int64     `json:"amount_cents,omitempty"`
	Type          string    `json:"type,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, sessionID string) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
