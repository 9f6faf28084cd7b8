package service

import (
	"context"
	"encoding/json"
	"errors"

	"faq-chatbot-be/internal/metrics"
	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/pkg/logsink"
	"faq-chatbot-be/pkg/rag"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	sink       logsink.Sink
	logger     logger.ILogger
	metrics    *metrics.Collector
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	sink logsink.Sink,
	log logger.ILogger,
	collector *metrics.Collector,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		sink:       sink,
		logger:     log,
		metrics:    collector,
	}
}

// Consume subscribes and processes rows in the background until ctx is done.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// Rows are written at most once: a failed append is logged and dropped.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var row logsink.Row
	if err := json.Unmarshal(msg.Payload, &row); err != nil {
		cs.logger.Error("LogRecorder", "Discarding malformed log row", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	if err := cs.sink.Append(ctx, row); err != nil {
		var sinkErr *rag.LogSinkError
		if !errors.As(err, &sinkErr) {
			sinkErr = &rag.LogSinkError{Stream: string(row.Stream), Err: err}
		}
		cs.metrics.ObserveSinkFailure(sinkErr.Stream)
		cs.logger.Error("LogRecorder", "Failed to append log row", map[string]interface{}{
			"stream": sinkErr.Stream,
			"row_id": row.ID,
			"error":  sinkErr.Error(),
		})
	}
}
