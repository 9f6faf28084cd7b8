package contract

import (
	"context"

	"faq-chatbot-be/internal/model"
)

type ChatLogRepository interface {
	Create(ctx context.Context, log *model.ChatLog) error
	CountByStream(ctx context.Context, stream string) (int64, error)
}
