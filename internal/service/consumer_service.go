package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-knowledge-hub/internal/dto"
	"ai-knowledge-hub/internal/entity"
	"ai-knowledge-hub/internal/pkg/logger"
	"ai-knowledge-hub/internal/repository/memory"
	"ai-knowledge-hub/internal/repository/specification"
	"ai-knowledge-hub/internal/repository/unitofwork"
	"ai-knowledge-hub/pkg/extract"
	"ai-knowledge-hub/pkg/storage"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the document-uploaded queue and runs content
// extraction off the request path.
type consumerService struct {
	pubSub           *gochannel.GoChannel
	topicName        string
	uowFactory       unitofwork.RepositoryFactory
	blobStore        storage.Store
	extractionStatus *memory.ExtractionStatusRepository
	logger           logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	blobStore storage.Store,
	extractionStatus *memory.ExtractionStatusRepository,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:           pubSub,
		topicName:        topicName,
		uowFactory:       uowFactory,
		blobStore:        blobStore,
		extractionStatus: extractionStatus,
		logger:           log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.DocumentUploadedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("extraction", "Failed to unmarshal message", map[string]interface{}{
			"error": err.Error(),
		})
		// Ack invalid messages to prevent infinite retry
		msg.Ack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		cs.logger.Error("extraction", "Failed to load document", map[string]interface{}{
			"document_id": payload.DocumentId,
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}
	if document == nil {
		// Deleted before extraction ran. Ack.
		msg.Ack()
		return
	}

	data, err := cs.blobStore.Get(ctx, document.FilePath)
	if err != nil {
		cs.logger.Error("extraction", "Failed to read blob", map[string]interface{}{
			"document_id": document.Id,
			"file_path":   document.FilePath,
			"error":       err.Error(),
		})
		cs.markFailed(document, err.Error())
		msg.Ack()
		return
	}

	// Extraction failures land in the content as marker text, so the
	// document row always ends up with something stored.
	content := extract.Extract(document.Title+"."+fileExt(document.FileType), document.FileType, data)

	if err := uow.DocumentRepository().UpdateContent(ctx, document.Id, content); err != nil {
		cs.logger.Error("extraction", "Failed to store extracted content", map[string]interface{}{
			"document_id": document.Id,
			"error":       err.Error(),
		})
		msg.Nack()
		return
	}

	cs.extractionStatus.Save(&entity.ExtractionStatus{
		DocumentId: document.Id,
		State:      entity.ExtractionStateCompleted,
		UpdatedAt:  time.Now(),
	})

	cs.logger.Info("extraction", "Document content extracted", map[string]interface{}{
		"document_id": document.Id,
		"bytes":       len(data),
		"chars":       len(content),
	})

	msg.Ack()
}

func (cs *consumerService) markFailed(document *entity.Document, reason string) {
	cs.extractionStatus.Save(&entity.ExtractionStatus{
		DocumentId: document.Id,
		State:      entity.ExtractionStateFailed,
		Error:      reason,
		UpdatedAt:  time.Now(),
	})
}

func fileExt(mediaType string) string {
	switch mediaType {
	case "text/plain":
		return "txt"
	case "text/markdown":
		return "md"
	case "text/csv":
		return "csv"
	case "application/json":
		return "json"
	case "application/msword":
		return "doc"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	default:
		return "bin"
	}
}
