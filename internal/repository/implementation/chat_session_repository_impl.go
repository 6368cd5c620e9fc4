package implementation

import (
	"context"
	"errors"
	"time"

	"ai-knowledge-hub/internal/entity"
	"ai-knowledge-hub/internal/mapper"
	"ai-knowledge-hub/internal/model"
	"ai-knowledge-hub/internal/repository/contract"
	"ai-knowledge-hub/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(db *gorm.DB) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) Update(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

func (r *ChatSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ChatSession{}, id).Error
}

func (r *ChatSessionRepositoryImpl) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("user_id = ?", userId).Delete(&model.ChatSession{}).Error
}

func (r *ChatSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var m model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatSessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var models []*model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatSessionToEntity(m)
	}
	return entities, nil
}

// sessionSummaryRow is the scan target for the aggregate listing query.
type sessionSummaryRow struct {
	Id            uuid.UUID
	Title         string
	IsActive      bool
	MessageCount  int64
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *ChatSessionRepositoryImpl) FindSummaries(ctx context.Context, userId uuid.UUID) ([]*entity.ChatSessionSummary, error) {
	var rows []sessionSummaryRow
	err := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Select(`chat_sessions.id, chat_sessions.title, chat_sessions.is_active,
			chat_sessions.created_at, chat_sessions.updated_at,
			COUNT(chat_messages.id) AS message_count,
			MAX(chat_messages.created_at) AS last_message_at`).
		Joins(`LEFT JOIN chat_messages ON chat_messages.chat_session_id = chat_sessions.id
			AND chat_messages.deleted_at IS NULL`).
		Where("chat_sessions.user_id = ?", userId).
		Group("chat_sessions.id, chat_sessions.title, chat_sessions.is_active, chat_sessions.created_at, chat_sessions.updated_at").
		Order("chat_sessions.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]*entity.ChatSessionSummary, len(rows))
	for i, row := range rows {
		var updatedAt *time.Time
		if !row.UpdatedAt.IsZero() {
			t := row.UpdatedAt
			updatedAt = &t
		}
		summaries[i] = &entity.ChatSessionSummary{
			Id:            row.Id,
			Title:         row.Title,
			IsActive:      row.IsActive,
			MessageCount:  row.MessageCount,
			LastMessageAt: row.LastMessageAt,
			CreatedAt:     row.CreatedAt,
			UpdatedAt:     updatedAt,
		}
	}
	return summaries, nil
}

func (r *ChatSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
