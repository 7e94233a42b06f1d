package amqp

import (
	"encoding/json"
	"time"
)

// ChangeKind tells the sync worker what happened to the expense. Created and
// updated both resolve to "fetch the row and upsert it"; deleted removes it.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ExpenseChangedMessage is a lightweight change notification. It carries only
// the expense ID and what happened; the worker fetches current state from the
// database, so stale messages self-heal on replay.
type ExpenseChangedMessage struct {
	ID        string     `json:"id"`
	Change    ChangeKind `json:"change"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewExpenseChangedMessage creates a change message stamped with the current time.
func NewExpenseChangedMessage(id string, change ChangeKind) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		ID:        id,
		Change:    change,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangedMessageFromJSON parses a message from JSON bytes.
func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
