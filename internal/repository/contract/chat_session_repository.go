package contract

import (
	"context"

	"ai-knowledge-hub/internal/entity"
	"ai-knowledge-hub/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	Update(ctx context.Context, session *entity.ChatSession) error
	Touch(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	// FindSummaries returns the user's sessions with message_count and
	// last_message_at aggregates, newest updated first.
	FindSummaries(ctx context.Context, userId uuid.UUID) ([]*entity.ChatSessionSummary, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
