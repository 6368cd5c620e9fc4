package service

import (
	"context"
	"strings"
	"testing"

	"ai-knowledge-hub/internal/dto"
	"ai-knowledge-hub/internal/entity"
	"ai-knowledge-hub/internal/pkg/apperr"
	"ai-knowledge-hub/internal/repository/contract"
	"ai-knowledge-hub/internal/repository/specification"
	"ai-knowledge-hub/internal/repository/unitofwork"
	"ai-knowledge-hub/pkg/completion"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repository fakes. They interpret the same specifications the
// real GORM implementations do, enough for the orchestrator paths.

type fakeStore struct {
	sessions  []*entity.ChatSession
	messages  []*entity.ChatMessage
	documents []*entity.Document
	touched   []uuid.UUID
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository { return nil }

func (u *fakeUow) DocumentRepository() contract.DocumentRepository {
	return &fakeDocumentRepo{store: u.store}
}

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeSessionRepo{store: u.store}
}

func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeMessageRepo{store: u.store}
}

type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

// specFilter extracts the constraints the service actually uses.
type specFilter struct {
	id          *uuid.UUID
	userId      *uuid.UUID
	sessionId   *uuid.UUID
	withContent bool
	limit       int
}

func parseSpecs(specs []specification.Specification) specFilter {
	f := specFilter{limit: -1}
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			id := v.ID
			f.id = &id
		case specification.UserOwnedBy:
			userId := v.UserID
			f.userId = &userId
		case specification.ByChatSessionID:
			sessionId := v.ChatSessionID
			f.sessionId = &sessionId
		case specification.WithContent:
			f.withContent = true
		case specification.Limit:
			f.limit = v.N
		}
	}
	return f
}

type fakeSessionRepo struct {
	store *fakeStore
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	r.store.sessions = append(r.store.sessions, session)
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	return nil
}

func (r *fakeSessionRepo) Touch(ctx context.Context, id uuid.UUID) error {
	r.store.touched = append(r.store.touched, id)
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	kept := r.store.sessions[:0]
	for _, s := range r.store.sessions {
		if s.Id != id {
			kept = append(kept, s)
		}
	}
	r.store.sessions = kept
	return nil
}

func (r *fakeSessionRepo) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	f := parseSpecs(specs)
	for _, s := range r.store.sessions {
		if f.id != nil && s.Id != *f.id {
			continue
		}
		if f.userId != nil && s.UserId != *f.userId {
			continue
		}
		return s, nil
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	return r.store.sessions, nil
}

func (r *fakeSessionRepo) FindSummaries(ctx context.Context, userId uuid.UUID) ([]*entity.ChatSessionSummary, error) {
	var summaries []*entity.ChatSessionSummary
	for _, s := range r.store.sessions {
		if s.UserId != userId {
			continue
		}
		summaries = append(summaries, &entity.ChatSessionSummary{
			Id:       s.Id,
			Title:    s.Title,
			IsActive: s.IsActive,
		})
	}
	return summaries, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.store.sessions)), nil
}

type fakeMessageRepo struct {
	store *fakeStore
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.store.messages = append(r.store.messages, message)
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	f := parseSpecs(specs)
	var out []*entity.ChatMessage
	for _, m := range r.store.messages {
		if f.sessionId != nil && m.ChatSessionId != *f.sessionId {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	kept := r.store.messages[:0]
	for _, m := range r.store.messages {
		if m.ChatSessionId != sessionId {
			kept = append(kept, m)
		}
	}
	r.store.messages = kept
	return nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.store.messages)), nil
}

type fakeDocumentRepo struct {
	store *fakeStore
}

func (r *fakeDocumentRepo) Create(ctx context.Context, document *entity.Document) error {
	r.store.documents = append(r.store.documents, document)
	return nil
}

func (r *fakeDocumentRepo) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *fakeDocumentRepo) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	return nil, nil
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	f := parseSpecs(specs)
	var out []*entity.Document
	for _, d := range r.store.documents {
		if f.userId != nil && d.UserId != *f.userId {
			continue
		}
		if f.withContent && d.Content == "" {
			continue
		}
		out = append(out, d)
		if f.limit >= 0 && len(out) == f.limit {
			break
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.store.documents)), nil
}

// fakeCompletion records the prompt it received and returns a canned result.
type fakeCompletion struct {
	result      *completion.Result
	err         error
	missingKey  bool
	gotSystem   string
	gotMessage  string
	gotContext  string
	invocations int
}

func (f *fakeCompletion) Configured() bool {
	return !f.missingKey
}

func (f *fakeCompletion) Complete(ctx context.Context, systemPrompt, userMessage, contextBlock string) (*completion.Result, error) {
	f.invocations++
	f.gotSystem = systemPrompt
	f.gotMessage = userMessage
	f.gotContext = contextBlock
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error {
	return nil
}

func newChatServiceForTest(store *fakeStore, client CompletionClient) IChatService {
	return NewChatService(&fakeFactory{store: store}, client, "test-model", nil, noopLogger{})
}

func TestSendMessageLazySessionCreation(t *testing.T) {
	store := &fakeStore{}
	client := &fakeCompletion{result: &completion.Result{Content: "hello back"}}
	svc := newChatServiceForTest(store, client)

	userId := uuid.New()
	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Message: "hi"})
	require.NoError(t, err)

	require.Len(t, store.sessions, 1)
	assert.Equal(t, "New Chat", store.sessions[0].Title)
	assert.Equal(t, userId, store.sessions[0].UserId)
	assert.Equal(t, store.sessions[0].Id, res.SessionId)

	require.Len(t, store.messages, 2)
	assert.Equal(t, entity.ChatRoleUser, store.messages[0].Role)
	assert.Equal(t, "hi", store.messages[0].Content)
	assert.Equal(t, 0, store.messages[0].DocumentsUsed)
	assert.Equal(t, entity.ChatRoleAssistant, store.messages[1].Role)
	assert.Equal(t, "hello back", store.messages[1].Content)

	assert.Contains(t, store.touched, store.sessions[0].Id)
	assert.True(t, res.Success)
}

func TestSendMessageExistingSessionReused(t *testing.T) {
	userId := uuid.New()
	session := &entity.ChatSession{Id: uuid.New(), UserId: userId, Title: "Research"}
	store := &fakeStore{sessions: []*entity.ChatSession{session}}
	client := &fakeCompletion{result: &completion.Result{Content: "ok"}}
	svc := newChatServiceForTest(store, client)

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{
		Message:   "follow up",
		SessionId: &session.Id,
	})
	require.NoError(t, err)

	assert.Equal(t, session.Id, res.SessionId)
	assert.Len(t, store.sessions, 1)
}

func TestSendMessageSessionNotOwned(t *testing.T) {
	owner := uuid.New()
	session := &entity.ChatSession{Id: uuid.New(), UserId: owner}
	store := &fakeStore{sessions: []*entity.ChatSession{session}}
	client := &fakeCompletion{result: &completion.Result{Content: "x"}}
	svc := newChatServiceForTest(store, client)

	attacker := uuid.New()
	_, err := svc.SendMessage(context.Background(), attacker, &dto.SendMessageRequest{
		Message:   "steal",
		SessionId: &session.Id,
	})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, appErr.Kind, apperr.ErrNotFound)

	// Ownership check fails before any persistence.
	assert.Empty(t, store.messages)
	assert.Equal(t, 0, client.invocations)
}

func TestSendMessageUserMessageSurvivesRateLimit(t *testing.T) {
	store := &fakeStore{}
	client := &fakeCompletion{err: &completion.RateLimitedError{RetryAfterMs: 3000}}
	svc := newChatServiceForTest(store, client)

	userId := uuid.New()
	_, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Message: "hi"})

	var rl *completion.RateLimitedError
	require.ErrorAs(t, err, &rl)

	// The user's input is kept, but no assistant row exists.
	require.Len(t, store.messages, 1)
	assert.Equal(t, entity.ChatRoleUser, store.messages[0].Role)
	assert.Empty(t, store.touched)
}

func TestSendMessageMissingAPIKeyFailsBeforePersisting(t *testing.T) {
	store := &fakeStore{}
	client := &fakeCompletion{missingKey: true}
	svc := newChatServiceForTest(store, client)

	_, err := svc.SendMessage(context.Background(), uuid.New(), &dto.SendMessageRequest{Message: "hi"})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, appErr.Kind, apperr.ErrInternal)
	assert.Equal(t, "OpenRouter API key not configured", appErr.Message)

	// Nothing reaches the provider and nothing is persisted, not even
	// a lazily created session.
	assert.Zero(t, client.invocations)
	assert.Empty(t, store.sessions)
	assert.Empty(t, store.messages)
}

func TestSendMessageDocumentCap(t *testing.T) {
	userId := uuid.New()
	store := &fakeStore{}
	for i := 0; i < 15; i++ {
		store.documents = append(store.documents, &entity.Document{
			Id:      uuid.New(),
			UserId:  userId,
			Title:   "doc",
			Content: "content",
		})
	}
	// Empty-content documents never reach the prompt.
	store.documents = append(store.documents, &entity.Document{
		Id:     uuid.New(),
		UserId: userId,
		Title:  "pending extraction",
	})

	client := &fakeCompletion{result: &completion.Result{Content: "answer"}}
	svc := newChatServiceForTest(store, client)

	res, err := svc.SendMessage(context.Background(), userId, &dto.SendMessageRequest{Message: "q"})
	require.NoError(t, err)

	assert.Equal(t, 10, res.DocumentsUsed)
	assert.Equal(t, 10, strings.Count(client.gotContext, "Document "))

	// The saved assistant row carries the same count.
	assistant := store.messages[len(store.messages)-1]
	assert.Equal(t, 10, assistant.DocumentsUsed)
	assert.Equal(t, "test-model", assistant.Metadata["model"])
}

func TestSendMessageNoDocumentsEmptyContext(t *testing.T) {
	store := &fakeStore{}
	client := &fakeCompletion{result: &completion.Result{Content: "plain"}}
	svc := newChatServiceForTest(store, client)

	res, err := svc.SendMessage(context.Background(), uuid.New(), &dto.SendMessageRequest{Message: "q"})
	require.NoError(t, err)

	assert.Equal(t, 0, res.DocumentsUsed)
	assert.Empty(t, client.gotContext)
	assert.NotEmpty(t, client.gotSystem)
}

func TestDeleteSessionCascades(t *testing.T) {
	userId := uuid.New()
	session := &entity.ChatSession{Id: uuid.New(), UserId: userId}
	other := &entity.ChatSession{Id: uuid.New(), UserId: userId}
	store := &fakeStore{
		sessions: []*entity.ChatSession{session, other},
		messages: []*entity.ChatMessage{
			{Id: uuid.New(), ChatSessionId: session.Id, Role: entity.ChatRoleUser},
			{Id: uuid.New(), ChatSessionId: session.Id, Role: entity.ChatRoleAssistant},
			{Id: uuid.New(), ChatSessionId: other.Id, Role: entity.ChatRoleUser},
		},
	}
	svc := newChatServiceForTest(store, &fakeCompletion{})

	require.NoError(t, svc.DeleteSession(context.Background(), userId, session.Id))

	assert.Len(t, store.sessions, 1)
	require.Len(t, store.messages, 1)
	assert.Equal(t, other.Id, store.messages[0].ChatSessionId)
}

func TestDeleteSessionNotOwned(t *testing.T) {
	session := &entity.ChatSession{Id: uuid.New(), UserId: uuid.New()}
	store := &fakeStore{sessions: []*entity.ChatSession{session}}
	svc := newChatServiceForTest(store, &fakeCompletion{})

	err := svc.DeleteSession(context.Background(), uuid.New(), session.Id)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, appErr.Kind, apperr.ErrNotFound)
	assert.Len(t, store.sessions, 1)
}

func TestAppendMessageTouchesSession(t *testing.T) {
	userId := uuid.New()
	session := &entity.ChatSession{Id: uuid.New(), UserId: userId}
	store := &fakeStore{sessions: []*entity.ChatSession{session}}
	svc := newChatServiceForTest(store, &fakeCompletion{})

	msg, err := svc.AppendMessage(context.Background(), userId, session.Id, &dto.AppendMessageRequest{
		Role:    entity.ChatRoleUser,
		Content: "manual note",
	})
	require.NoError(t, err)

	assert.Equal(t, "manual note", msg.Content)
	assert.Contains(t, store.touched, session.Id)
}
