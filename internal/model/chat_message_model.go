package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Id            uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID         `gorm:"type:uuid;not null;index"`
	Role          string            `gorm:"type:varchar(50);not null"` // "user" | "assistant" | "system"
	Content       string            `gorm:"type:text;not null"`
	DocumentsUsed int               `gorm:"default:0"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt     time.Time         `gorm:"autoCreateTime"`
	DeletedAt     gorm.DeletedAt    `gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
