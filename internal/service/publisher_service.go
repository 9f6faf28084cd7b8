package service

import (
	"context"
	"encoding/json"

	"faq-chatbot-be/pkg/logsink"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService hands log rows to the background recorder.
type IPublisherService interface {
	Publish(ctx context.Context, row logsink.Row) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (p *publisherService) Publish(ctx context.Context, row logsink.Row) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(context.WithoutCancel(ctx))
	msg.Metadata.Set("stream", string(row.Stream))

	return p.publisher.Publish(p.topicName, msg)
}
