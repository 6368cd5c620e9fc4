package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentResponse struct {
	Id         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	FileType   string    `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	HasContent bool      `json:"has_content"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListDocumentsRequest struct {
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
	FileType string `query:"file_type"`
	Search   string `query:"search"`
}

type ListDocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	Pages     int                `json:"pages"`
}

type UploadDocumentResponse struct {
	Success  bool             `json:"success"`
	Document DocumentResponse `json:"document"`
}

// DocumentUploadedMessage is the payload published to the in-process
// extraction queue after a successful upload.
type DocumentUploadedMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}

type ExtractionStatusResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
}
