package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"ai-knowledge-hub/internal/dto"
	"ai-knowledge-hub/internal/entity"
	"ai-knowledge-hub/internal/pkg/apperr"
	"ai-knowledge-hub/internal/pkg/logger"
	"ai-knowledge-hub/internal/repository/memory"
	"ai-knowledge-hub/internal/repository/specification"
	"ai-knowledge-hub/internal/repository/unitofwork"
	"ai-knowledge-hub/pkg/events"
	pktNats "ai-knowledge-hub/pkg/nats"
	"ai-knowledge-hub/pkg/storage"

	"github.com/google/uuid"
)

const maxUploadBytes = 10 * 1024 * 1024

// allowedMediaTypes maps accepted upload content types to their canonical
// form used for extraction dispatch.
var allowedMediaTypes = map[string]bool{
	"text/plain":         true,
	"text/markdown":      true,
	"text/csv":           true,
	"application/json":   true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

type IDocumentService interface {
	Upload(ctx context.Context, userId uuid.UUID, filename, contentType string, data []byte) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID, req *dto.ListDocumentsRequest) (*dto.ListDocumentsResponse, error)
	Download(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (*entity.Document, io.ReadCloser, error)
	Delete(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) error
	ExtractionStatus(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (*dto.ExtractionStatusResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	blobStore        storage.Store
	publisherService IPublisherService
	extractionStatus *memory.ExtractionStatusRepository
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	blobStore storage.Store,
	publisherService IPublisherService,
	extractionStatus *memory.ExtractionStatusRepository,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		blobStore:        blobStore,
		publisherService: publisherService,
		extractionStatus: extractionStatus,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// storageKey builds a unique blob key preserving the file extension.
func storageKey(filename string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%d-%s.%s", time.Now().UnixMilli(), hex.EncodeToString(buf), ext), nil
}

func normalizeMediaType(contentType string) string {
	base := contentType
	if idx := strings.Index(base, ";"); idx != -1 {
		base = base[:idx]
	}
	return strings.TrimSpace(strings.ToLower(base))
}

func (s *documentService) Upload(ctx context.Context, userId uuid.UUID, filename, contentType string, data []byte) (*dto.UploadDocumentResponse, error) {
	if len(data) == 0 {
		return nil, apperr.Validation("file is empty")
	}
	if len(data) > maxUploadBytes {
		return nil, apperr.Validation("file exceeds the 10MB limit")
	}

	mediaType := normalizeMediaType(contentType)
	if !allowedMediaTypes[mediaType] {
		return nil, apperr.Validation("unsupported file type: %s", mediaType)
	}

	key, err := storageKey(filename)
	if err != nil {
		return nil, err
	}

	if err := s.blobStore.Put(ctx, key, data, mediaType); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if title == "" {
		title = filename
	}

	document := &entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		Content:   "",
		FilePath:  key,
		FileType:  mediaType,
		FileSize:  int64(len(data)),
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, document); err != nil {
		// Orphaned blob cleanup is best effort.
		if delErr := s.blobStore.Delete(ctx, key); delErr != nil {
			s.logger.Warn("document", "Failed to clean up blob after create failure", map[string]interface{}{
				"file_path": key,
				"error":     delErr.Error(),
			})
		}
		return nil, err
	}

	s.extractionStatus.Save(&entity.ExtractionStatus{
		DocumentId: document.Id,
		State:      entity.ExtractionStatePending,
		UpdatedAt:  time.Now(),
	})

	// Extraction happens off the request path; upload never waits on it.
	payload, err := json.Marshal(dto.DocumentUploadedMessage{DocumentId: document.Id})
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Error("document", "Failed to queue extraction", map[string]interface{}{
			"document_id": document.Id,
			"error":       err.Error(),
		})
	}

	if s.eventPublisher != nil {
		event := events.New(events.TypeDocumentUploaded, map[string]interface{}{
			"document_id": document.Id,
			"user_id":     userId,
			"file_type":   mediaType,
			"file_size":   document.FileSize,
		})
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("document", "Failed to publish upload event", map[string]interface{}{
				"document_id": document.Id,
				"error":       err.Error(),
			})
		}
	}

	return &dto.UploadDocumentResponse{
		Success: true,
		Document: dto.DocumentResponse{
			Id:         document.Id,
			Title:      document.Title,
			FileType:   document.FileType,
			FileSize:   document.FileSize,
			HasContent: false,
			CreatedAt:  document.CreatedAt,
		},
	}, nil
}

func (s *documentService) List(ctx context.Context, userId uuid.UUID, req *dto.ListDocumentsRequest) (*dto.ListDocumentsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filterSpecs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
	}
	if req.FileType != "" {
		filterSpecs = append(filterSpecs, specification.ByFileType{FileType: normalizeMediaType(req.FileType)})
	}
	if req.Search != "" {
		filterSpecs = append(filterSpecs, specification.TitleOrContentLike{Term: req.Search})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	total, err := uow.DocumentRepository().Count(ctx, filterSpecs...)
	if err != nil {
		return nil, err
	}

	querySpecs := append(filterSpecs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)

	documents, err := uow.DocumentRepository().FindAll(ctx, querySpecs...)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DocumentResponse, len(documents))
	for i, doc := range documents {
		responses[i] = dto.DocumentResponse{
			Id:         doc.Id,
			Title:      doc.Title,
			FileType:   doc.FileType,
			FileSize:   doc.FileSize,
			HasContent: doc.Content != "",
			CreatedAt:  doc.CreatedAt,
		}
	}

	pages := int((total + int64(limit) - 1) / int64(limit))

	return &dto.ListDocumentsResponse{
		Documents: responses,
		Total:     total,
		Page:      page,
		Pages:     pages,
	}, nil
}

func (s *documentService) getOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, documentId uuid.UUID) (*entity.Document, error) {
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: documentId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, apperr.NotFound("document not found")
	}
	return document, nil
}

func (s *documentService) Download(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (*entity.Document, io.ReadCloser, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := s.getOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.blobStore.GetReader(ctx, document.FilePath)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, nil, apperr.NotFound("document file not found")
		}
		return nil, nil, err
	}

	return document, reader, nil
}

func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := s.getOwned(ctx, uow, userId, documentId)
	if err != nil {
		return err
	}

	if err := uow.DocumentRepository().Delete(ctx, document.Id); err != nil {
		return err
	}

	s.extractionStatus.Delete(document.Id.String())

	if err := s.blobStore.Delete(ctx, document.FilePath); err != nil && err != storage.ErrNotFound {
		s.logger.Warn("document", "Failed to delete document blob", map[string]interface{}{
			"document_id": document.Id,
			"file_path":   document.FilePath,
			"error":       err.Error(),
		})
	}

	return nil
}

func (s *documentService) ExtractionStatus(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (*dto.ExtractionStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := s.getOwned(ctx, uow, userId, documentId)
	if err != nil {
		return nil, err
	}

	// Cache entries expire; a document with content is completed regardless.
	if status, found := s.extractionStatus.Get(document.Id.String()); found {
		return &dto.ExtractionStatusResponse{
			DocumentId: document.Id,
			State:      status.State,
			Error:      status.Error,
		}, nil
	}

	state := entity.ExtractionStatePending
	if document.Content != "" {
		state = entity.ExtractionStateCompleted
	}
	return &dto.ExtractionStatusResponse{
		DocumentId: document.Id,
		State:      state,
	}, nil
}
