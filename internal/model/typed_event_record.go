package model

import (
	"encoding/json"
	"fmt"
)

// EventRecord is the persisted JSON representation of an Event.
type EventRecord struct {
	Seq       uint64          `json:"seq"`
	Kind      EventKind       `json:"kind"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEventRecord encodes an event's payload for storage.
func NewEventRecord(seq uint64, ev Event) (EventRecord, error) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return EventRecord{}, fmt.Errorf("marshal %s event: %w", ev.Kind, err)
	}
	return EventRecord{Seq: seq, Kind: ev.Kind, Timestamp: ev.Timestamp, Data: data}, nil
}
