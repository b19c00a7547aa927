package domain

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle intent carried by an event envelope.
type Status string

const (
	StatusCreate Status = "Create"
	StatusUpdate Status = "Update"
	StatusDelete Status = "Delete"
)

// UnmarshalJSON decodes a status strictly: anything other than the three
// known values fails deserialization rather than being silently ignored.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := Status(raw); v {
	case StatusCreate, StatusUpdate, StatusDelete:
		*s = v
		return nil
	}
	return fmt.Errorf("unknown event status %q", raw)
}

// Envelope is the wire format wrapping one domain payload with one
// lifecycle intent. Produced by the manager service, consumed read-only
// by the monitor's projector. Immutable once constructed.
type Envelope[T any] struct {
	Event  T      `json:"Event"`
	Status Status `json:"Status"`
}

// Marshal serializes the envelope to UTF-8 JSON for the broker.
func (e Envelope[T]) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
