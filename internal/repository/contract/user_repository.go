package contract

import (
	"context"

	"ai-knowledge-hub/internal/entity"
	"ai-knowledge-hub/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	UpdatePassword(ctx context.Context, userId uuid.UUID, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userId uuid.UUID) error

	CreatePasswordResetToken(ctx context.Context, token *entity.PasswordResetToken) error
	FindPasswordResetToken(ctx context.Context, specs ...specification.Specification) (*entity.PasswordResetToken, error)
	MarkTokenUsed(ctx context.Context, tokenId uuid.UUID) error

	CreateProvider(ctx context.Context, provider *entity.UserProvider) error
	FindProvider(ctx context.Context, specs ...specification.Specification) (*entity.UserProvider, error)
}
