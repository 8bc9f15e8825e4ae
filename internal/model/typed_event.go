package model

// Event is a ledger event emitted by an operation, with its typed payload.
type Event struct {
	Kind      EventKind   `json:"kind"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an Event.
func NewEvent(kind EventKind, ts int64, data interface{}) Event {
	return Event{Kind: kind, Timestamp: ts, Data: data}
}
