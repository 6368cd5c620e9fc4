package mapper

import (
	"time"

	"ai-knowledge-hub/internal/entity"
	"ai-knowledge-hub/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:        d.Id,
		UserId:    d.UserId,
		Title:     d.Title,
		Content:   d.Content,
		FilePath:  d.FilePath,
		FileType:  d.FileType,
		FileSize:  d.FileSize,
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:        d.Id,
		UserId:    d.UserId,
		Title:     d.Title,
		Content:   d.Content,
		FilePath:  d.FilePath,
		FileType:  d.FileType,
		FileSize:  d.FileSize,
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *DocumentMapper) ToEntities(models []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(models))
	for i, d := range models {
		entities[i] = m.ToEntity(d)
	}
	return entities
}
