package amqp

import (
	"encoding/json"
	"time"
)

const (
	// ActionIndex asks the indexer to (re)embed a transaction.
	ActionIndex = "index"
	// ActionDelete asks the indexer to drop a transaction's vector point.
	ActionDelete = "delete"
)

// TransactionEvent is the lightweight message published on every ingestion
// or deletion. It carries only the ID; the worker fetches the full
// transaction from the database when indexing.
type TransactionEvent struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewIndexEvent(id string) *TransactionEvent {
	return &TransactionEvent{ID: id, Action: ActionIndex, Timestamp: time.Now()}
}

func NewDeleteEvent(id string) *TransactionEvent {
	return &TransactionEvent{ID: id, Action: ActionDelete, Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes.
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON parses an event from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
