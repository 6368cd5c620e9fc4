package service

import (
	"context"
	"fmt"
	"time"

	"ai-knowledge-hub/internal/dto"
	"ai-knowledge-hub/internal/pkg/apperr"
	"ai-knowledge-hub/internal/pkg/logger"
	"ai-knowledge-hub/internal/repository/specification"
	"ai-knowledge-hub/internal/repository/unitofwork"
	"ai-knowledge-hub/pkg/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) error
	ChangePassword(ctx context.Context, userId uuid.UUID, req *dto.ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, userId uuid.UUID, req *dto.DeleteAccountRequest) error
	DownloadData(ctx context.Context, userId uuid.UUID) (*dto.UserDataExport, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	blobStore  storage.Store
	logger     logger.ILogger
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, blobStore storage.Store, log logger.ILogger) IUserService {
	return &userService{
		uowFactory: uowFactory,
		blobStore:  blobStore,
		logger:     log,
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	return &dto.UserProfileResponse{
		Id:          user.Id,
		Email:       user.Email,
		Name:        user.Name,
		HasPassword: user.PasswordHash != nil,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}

	if req.Email != "" && req.Email != user.Email {
		existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Validation("email already in use")
		}
		user.Email = req.Email
	}

	user.Name = req.Name
	user.UpdatedAt = time.Now()

	return uow.UserRepository().Update(ctx, user)
}

func (s *userService) ChangePassword(ctx context.Context, userId uuid.UUID, req *dto.ChangePasswordRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}
	if user.PasswordHash == nil {
		return apperr.Validation("account has no password, set one via reset flow")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return apperr.Unauthorized("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return uow.UserRepository().UpdatePassword(ctx, userId, string(hash))
}

func (s *userService) DeleteAccount(ctx context.Context, userId uuid.UUID, req *dto.DeleteAccountRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}
	if user.PasswordHash != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
			return apperr.Unauthorized("password is incorrect")
		}
	}

	// Collect blob keys before the rows go away.
	documents, err := uow.DocumentRepository().FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return err
	}

	sessions, err := uow.ChatSessionRepository().FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	for _, session := range sessions {
		if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, session.Id); err != nil {
			return err
		}
	}
	if err := uow.ChatSessionRepository().DeleteAllByUserId(ctx, userId); err != nil {
		return err
	}
	if err := uow.DocumentRepository().DeleteAllByUserId(ctx, userId); err != nil {
		return err
	}
	if err := uow.UserRepository().Delete(ctx, userId); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	// Blob cleanup is best effort after commit.
	for _, doc := range documents {
		if err := s.blobStore.Delete(ctx, doc.FilePath); err != nil {
			s.logger.Warn("user", "Failed to delete document blob", map[string]interface{}{
				"document_id": doc.Id,
				"file_path":   doc.FilePath,
				"error":       err.Error(),
			})
		}
	}

	s.logger.Info("user", "Account deleted", map[string]interface{}{
		"user_id":   userId,
		"documents": len(documents),
		"sessions":  len(sessions),
	})

	return nil
}

func (s *userService) DownloadData(ctx context.Context, userId uuid.UUID) (*dto.UserDataExport, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	profile, err := s.GetProfile(ctx, userId)
	if err != nil {
		return nil, err
	}

	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	docResponses := make([]dto.DocumentResponse, len(documents))
	for i, doc := range documents {
		docResponses[i] = dto.DocumentResponse{
			Id:         doc.Id,
			Title:      doc.Title,
			FileType:   doc.FileType,
			FileSize:   doc.FileSize,
			HasContent: doc.Content != "",
			CreatedAt:  doc.CreatedAt,
		}
	}

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	sessionExports := make([]dto.SessionDataExport, len(sessions))
	for i, session := range sessions {
		messages, err := uow.ChatMessageRepository().FindAll(ctx,
			specification.ByChatSessionID{ChatSessionID: session.Id},
			specification.OrderBy{Field: "created_at", Desc: false},
		)
		if err != nil {
			return nil, fmt.Errorf("export session %s: %w", session.Id, err)
		}

		messageResponses := make([]dto.MessageResponse, len(messages))
		for j, msg := range messages {
			messageResponses[j] = dto.MessageResponse{
				Id:            msg.Id,
				Role:          msg.Role,
				Content:       msg.Content,
				DocumentsUsed: msg.DocumentsUsed,
				Metadata:      msg.Metadata,
				CreatedAt:     msg.CreatedAt,
			}
		}

		sessionExports[i] = dto.SessionDataExport{
			Id:       session.Id,
			Title:    session.Title,
			Messages: messageResponses,
		}
	}

	return &dto.UserDataExport{
		Profile:    *profile,
		Documents:  docResponses,
		Sessions:   sessionExports,
		ExportedAt: time.Now(),
	}, nil
}
