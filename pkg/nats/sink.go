package nats

import (
	"context"

	"faq-chatbot-be/pkg/events"
	"faq-chatbot-be/pkg/logsink"
)

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Sink publishes every log row as a chat event.
type Sink struct {
	pub eventPublisher
}

func NewSink(pub eventPublisher) *Sink {
	return &Sink{pub: pub}
}

func (s *Sink) Append(ctx context.Context, row logsink.Row) error {
	return s.pub.Publish(ctx, events.ChatLogEvent{
		ID:         row.ID,
		Stream:     string(row.Stream),
		Values:     row.Values(),
		OccurredAt: row.Timestamp,
	})
}
