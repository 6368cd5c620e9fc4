package specification

import "gorm.io/gorm"

// WithContent keeps only documents whose extracted text is usable as chat
// context (non-NULL and non-empty).
type WithContent struct{}

func (s WithContent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content IS NOT NULL AND content != ''")
}

type ByFileType struct {
	FileType string
}

func (s ByFileType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("file_type = ?", s.FileType)
}

// TitleOrContentLike is the dashboard search filter (case-insensitive).
type TitleOrContentLike struct {
	Term string
}

func (s TitleOrContentLike) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Term + "%"
	return db.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
}
