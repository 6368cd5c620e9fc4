package service

import (
	"context"
	"time"

	"ai-knowledge-hub/internal/dto"
	"ai-knowledge-hub/internal/entity"
	"ai-knowledge-hub/internal/pkg/apperr"
	"ai-knowledge-hub/internal/pkg/logger"
	"ai-knowledge-hub/internal/repository/specification"
	"ai-knowledge-hub/internal/repository/unitofwork"
	"ai-knowledge-hub/pkg/completion"
	"ai-knowledge-hub/pkg/events"
	pktNats "ai-knowledge-hub/pkg/nats"
	"ai-knowledge-hub/pkg/prompt"

	"github.com/google/uuid"
)

// contextDocumentLimit caps how many documents feed a single prompt.
const contextDocumentLimit = 10

const defaultSessionTitle = "New Chat"

// CompletionClient is what the orchestrator needs from the upstream API.
type CompletionClient interface {
	Configured() bool
	Complete(ctx context.Context, systemPrompt, userMessage, contextBlock string) (*completion.Result, error)
}

type IChatService interface {
	SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	UpdateSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
	ListMessages(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.MessageResponse, error)
	AppendMessage(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.AppendMessageRequest) (*dto.MessageResponse, error)
}

type chatService struct {
	uowFactory       unitofwork.RepositoryFactory
	completionClient CompletionClient
	model            string
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	completionClient CompletionClient,
	model string,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:       uowFactory,
		completionClient: completionClient,
		model:            model,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// SendMessage drives one chat turn: resolve the session, persist the user
// message before anything can fail upstream, build document context, call
// the completion API, then persist the reply. A user message without an
// assistant reply is an accepted outcome of upstream failure, not rolled
// back.
func (s *chatService) SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	// Fail fast on a missing credential so nothing gets persisted for a
	// request that can never reach the provider.
	if !s.completionClient.Configured() {
		return nil, apperr.Internal("OpenRouter API key not configured")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 1. Resolve session: verify ownership, or create lazily.
	var session *entity.ChatSession
	if req.SessionId != nil {
		found, err := uow.ChatSessionRepository().FindOne(ctx,
			specification.ByID{ID: *req.SessionId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, apperr.NotFound("chat session not found")
		}
		session = found
	} else {
		session = &entity.ChatSession{
			Id:        uuid.New(),
			UserId:    userId,
			Title:     defaultSessionTitle,
			IsActive:  true,
			CreatedAt: time.Now(),
		}
		if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
			return nil, err
		}
	}

	// 2. Persist the user message before the upstream call so the input
	// survives any completion failure.
	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          entity.ChatRoleUser,
		Content:       req.Message,
		DocumentsUsed: 0,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}

	// 3. Build context from the newest documents with extracted content.
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.WithContent{},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{N: contextDocumentLimit},
	)
	if err != nil {
		return nil, err
	}

	contextDocs := make([]prompt.ContextDocument, len(documents))
	for i, doc := range documents {
		contextDocs[i] = prompt.ContextDocument{
			Title:   doc.Title,
			Content: doc.Content,
		}
	}
	systemPrompt, contextBlock := prompt.Assemble(contextDocs)

	// 4. Upstream call. Rate-limit and upstream errors abort here with no
	// assistant row saved; the error handler maps them onto the wire.
	result, err := s.completionClient.Complete(ctx, systemPrompt, req.Message, contextBlock)
	if err != nil {
		return nil, err
	}

	// 5. Persist the assistant reply and bump the session.
	assistantMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          entity.ChatRoleAssistant,
		Content:       result.Content,
		DocumentsUsed: len(documents),
		Metadata: map[string]interface{}{
			"model":   s.model,
			"retries": result.Retries,
		},
		CreatedAt: time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistantMessage); err != nil {
		return nil, err
	}

	if err := uow.ChatSessionRepository().Touch(ctx, session.Id); err != nil {
		s.logger.Warn("chat", "Failed to touch session", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
	}

	if s.eventPublisher != nil {
		event := events.New(events.TypeChatCompleted, map[string]interface{}{
			"user_id":        userId,
			"session_id":     session.Id,
			"documents_used": len(documents),
			"total_tokens":   result.Usage.TotalTokens,
			"retries":        result.Retries,
		})
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("chat", "Failed to publish chat event", map[string]interface{}{
				"session_id": session.Id,
				"error":      err.Error(),
			})
		}
	}

	return &dto.SendMessageResponse{
		Success:  true,
		Response: result.Content,
		Usage: dto.UsageResponse{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
		DocumentsUsed: len(documents),
		SessionId:     session.Id,
	}, nil
}

func (s *chatService) ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	summaries, err := uow.ChatSessionRepository().FindSummaries(ctx, userId)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.SessionResponse, len(summaries))
	for i, summary := range summaries {
		responses[i] = &dto.SessionResponse{
			Id:            summary.Id,
			Title:         summary.Title,
			IsActive:      summary.IsActive,
			MessageCount:  summary.MessageCount,
			LastMessageAt: summary.LastMessageAt,
			CreatedAt:     summary.CreatedAt,
			UpdatedAt:     summary.UpdatedAt,
		}
	}
	return responses, nil
}

func (s *chatService) CreateSession(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	title := req.Title
	if title == "" {
		title = defaultSessionTitle
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		IsActive:  session.IsActive,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}, nil
}

func (s *chatService) getOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.NotFound("chat session not found")
	}
	return session, nil
}

func (s *chatService) UpdateSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.getOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	session.Title = req.Title
	if req.IsActive != nil {
		session.IsActive = *req.IsActive
	}

	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		IsActive:  session.IsActive,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.getOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, session.Id); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, session.Id); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *chatService) ListMessages(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.getOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.MessageResponse, len(messages))
	for i, msg := range messages {
		responses[i] = &dto.MessageResponse{
			Id:            msg.Id,
			Role:          msg.Role,
			Content:       msg.Content,
			DocumentsUsed: msg.DocumentsUsed,
			Metadata:      msg.Metadata,
			CreatedAt:     msg.CreatedAt,
		}
	}
	return responses, nil
}

func (s *chatService) AppendMessage(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, req *dto.AppendMessageRequest) (*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := s.getOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	message := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          req.Role,
		Content:       req.Content,
		DocumentsUsed: 0,
		CreatedAt:     time.Now(),
	}

	if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
		return nil, err
	}

	if err := uow.ChatSessionRepository().Touch(ctx, session.Id); err != nil {
		s.logger.Warn("chat", "Failed to touch session", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
	}

	return &dto.MessageResponse{
		Id:            message.Id,
		Role:          message.Role,
		Content:       message.Content,
		DocumentsUsed: message.DocumentsUsed,
		CreatedAt:     message.CreatedAt,
	}, nil
}
