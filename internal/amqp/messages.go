package amqp

import (
	"encoding/json"
	"time"

	"ledgercat/internal/core"
)

const (
	ActionAppend = "append"
	ActionDelete = "delete"
)

// LedgerEventMessage carries one ledger mutation to the mirror worker.
// It is self-contained: the worker never reads the primary store back,
// so the full entry travels with the event.
type LedgerEventMessage struct {
	Action    string    `json:"action"`
	Date      string    `json:"date"`
	Kind      string    `json:"kind"`
	Item      string    `json:"item"`
	Amount    int64     `json:"amount"`
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates an event message for one mutation
func NewLedgerEventMessage(action string, e core.LedgerEntry) *LedgerEventMessage {
	return &LedgerEventMessage{
		Action:    action,
		Date:      e.Date,
		Kind:      string(e.Kind),
		Item:      e.Item,
		Amount:    e.Amount,
		Owner:     e.Owner,
		Timestamp: time.Now(),
	}
}

// Entry reconstructs the ledger entry the message describes.
func (m *LedgerEventMessage) Entry() core.LedgerEntry {
	return core.LedgerEntry{
		Date:   m.Date,
		Kind:   core.Kind(m.Kind),
		Item:   m.Item,
		Amount: m.Amount,
		Owner:  m.Owner,
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
