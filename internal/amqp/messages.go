package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Ledger change operations.
const (
	OpAdd      = "add"
	OpUpdate   = "update"
	OpRemove   = "remove"
	OpCurrency = "currency"
	// OpResync asks consumers for a full copy without a specific change.
	OpResync = "resync"
)

// LedgerChangeMessage announces a committed ledger mutation. It carries no
// entry data: consumers read the snapshot from the primary store.
type LedgerChangeMessage struct {
	Op        string    `json:"op"`
	EntryID   string    `json:"entry_id,omitempty"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangeMessage creates a change message stamped with the current time.
func NewLedgerChangeMessage(op, entryID string, revision uint64) *LedgerChangeMessage {
	return &LedgerChangeMessage{
		Op:        op,
		EntryID:   entryID,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes a message and rejects one without an op.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op == "" {
		return nil, errors.New("ledger change message without op")
	}
	return &msg, nil
}
