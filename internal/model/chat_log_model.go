package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatLog struct {
	Id        uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Stream    string                      `gorm:"type:varchar(32);not null;index"`
	LoggedAt  time.Time                   `gorm:"not null;index"`
	Values    datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
}

func (ChatLog) TableName() string {
	return "chat_logs"
}
