package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Message   string     `json:"message" validate:"required"`
	SessionId *uuid.UUID `json:"sessionId"`
}

// SendMessageResponse mirrors the wire shape the frontend expects from
// POST /chat.
type SendMessageResponse struct {
	Success       bool          `json:"success"`
	Response      string        `json:"response"`
	Usage         UsageResponse `json:"usage"`
	DocumentsUsed int           `json:"documentsUsed"`
	SessionId     uuid.UUID     `json:"sessionId"`
}

type UsageResponse struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type UpdateSessionRequest struct {
	Title    string `json:"title" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

type SessionResponse struct {
	Id            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	IsActive      bool       `json:"is_active"`
	MessageCount  int64      `json:"message_count"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

type AppendMessageRequest struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type MessageResponse struct {
	Id            uuid.UUID              `json:"id"`
	Role          string                 `json:"role"`
	Content       string                 `json:"content"`
	DocumentsUsed int                    `json:"documents_used"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}
