package implementation

import (
	"context"

	"faq-chatbot-be/internal/model"
	"faq-chatbot-be/internal/repository/contract"
	"faq-chatbot-be/pkg/logsink"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatLogRepositoryImpl struct {
	db *gorm.DB
}

func NewChatLogRepository(db *gorm.DB) contract.ChatLogRepository {
	return &ChatLogRepositoryImpl{db: db}
}

func (r *ChatLogRepositoryImpl) Create(ctx context.Context, log *model.ChatLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *ChatLogRepositoryImpl) CountByStream(ctx context.Context, stream string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChatLog{}).Where("stream = ?", stream).Count(&count).Error
	return count, err
}

// ChatLogSink stores log rows in postgres.
type ChatLogSink struct {
	repo contract.ChatLogRepository
}

func NewChatLogSink(repo contract.ChatLogRepository) *ChatLogSink {
	return &ChatLogSink{repo: repo}
}

func (s *ChatLogSink) Append(ctx context.Context, row logsink.Row) error {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		id = uuid.New()
	}
	return s.repo.Create(ctx, &model.ChatLog{
		Id:       id,
		Stream:   string(row.Stream),
		LoggedAt: row.Timestamp,
		Values:   row.Values(),
	})
}
