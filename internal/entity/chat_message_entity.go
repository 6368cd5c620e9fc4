package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"
)

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	DocumentsUsed int
	Metadata      map[string]interface{}
	CreatedAt     time.Time
}
