package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ExtractionStatePending   = "pending"
	ExtractionStateCompleted = "completed"
	ExtractionStateFailed    = "failed"
)

// ExtractionStatus tracks the progress of background content extraction
// for an uploaded document. It lives in memory only.
type ExtractionStatus struct {
	DocumentId uuid.UUID
	State      string
	Error      string
	UpdatedAt  time.Time
}
