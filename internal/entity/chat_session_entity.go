package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// ChatSessionSummary is a session row with message aggregates for listing.
type ChatSessionSummary struct {
	Id            uuid.UUID
	Title         string
	IsActive      bool
	MessageCount  int64
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
