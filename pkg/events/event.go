package events

import (
	"strings"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "chat.feedback").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
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

const chatPrefix = "chat."

// ChatLogType is the event type carrying one log row of the given stream.
func ChatLogType(stream string) string {
	return chatPrefix + stream
}

// ChatLogStream extracts the stream name from a chat log event type or subject.
func ChatLogStream(eventType string) (string, bool) {
	idx := strings.Index(eventType, chatPrefix)
	if idx < 0 {
		return "", false
	}
	return eventType[idx+len(chatPrefix):], true
}

// ChatLogEvent wraps a recorded row for the event bus.
type ChatLogEvent struct {
	ID         string
	Stream     string
	Values     []string
	OccurredAt time.Time
}

func (e ChatLogEvent) EventType() string {
	return ChatLogType(e.Stream)
}

func (e ChatLogEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"id":          e.ID,
		"stream":      e.Stream,
		"values":      e.Values,
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e ChatLogEvent) Timestamp() time.Time {
	return e.OccurredAt
}
