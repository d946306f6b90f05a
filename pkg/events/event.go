package events

import (
	"encoding/json"
	"time"
)

// Event is a domain occurrence the hub raises for delivery to consumers
// outside the realtime process: the NATS audit consumer, and eventually
// push notification fan-out or analytics.
type Event interface {
	// EventType returns the dotted event name (e.g. "message.created").
	EventType() string

	// Payload returns the event's data fields.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// Marshal renders the event as its NATS wire format. Type and
	// timestamp travel inside the body so a subscriber can reconstruct
	// the event without inferring anything from the subject string.
	Marshal() ([]byte, error)
}

// BaseEvent is the concrete Event every chathub domain event embeds.
type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func (e BaseEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent is Marshal's counterpart, used by the NATS subscriber to
// rebuild an Event from a stored JetStream message.
func UnmarshalEvent(data []byte) (BaseEvent, error) {
	var e BaseEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
