package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title     string    `gorm:"type:varchar(255);not null"`
	Content   string    `gorm:"type:text"` // extracted text, empty until extraction finishes
	FilePath  string    `gorm:"type:text;not null"`
	FileType  string    `gorm:"type:varchar(100);not null"`
	FileSize  int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
