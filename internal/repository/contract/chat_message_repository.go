package contract

import (
	"context"

	"ai-knowledge-hub/internal/entity"
	"ai-knowledge-hub/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
