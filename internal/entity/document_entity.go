package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	Content   string
	FilePath  string
	FileType  string
	FileSize  int64
	CreatedAt time.Time
	UpdatedAt *time.Time
}
