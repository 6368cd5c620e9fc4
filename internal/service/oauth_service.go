package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ai-knowledge-hub/internal/dto"
	"ai-knowledge-hub/internal/entity"
	"ai-knowledge-hub/internal/repository/specification"
	"ai-knowledge-hub/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error)
}

type oauthService struct {
	uowFactory unitofwork.RepositoryFactory
	googleConf *oauth2.Config
}

func NewOAuthService(uowFactory unitofwork.RepositoryFactory) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		uowFactory: uowFactory,
		googleConf: conf,
	}
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != "google" {
		return "", errors.New("unsupported provider")
	}

	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	return s.googleConf.AuthCodeURL(state), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error) {
	if provider != "google" {
		return nil, errors.New("unsupported provider")
	}

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %v", err)
	}

	userInfoURL := "https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken
	resp, err := http.Get(userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %v", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %v", err)
	}

	var googleUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}

	if err := json.Unmarshal(content, &googleUser); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: googleUser.Email})
	if err != nil {
		return nil, err
	}

	// Upsert: OAuth accounts are created with no password credential.
	if user == nil {
		newUser := &entity.User{
			Id:           uuid.New(),
			Email:        googleUser.Email,
			Name:         googleUser.Name,
			PasswordHash: nil,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		if err := uow.UserRepository().Create(ctx, newUser); err != nil {
			return nil, err
		}
		user = newUser
	}

	existingProvider, err := uow.UserRepository().FindProvider(ctx,
		specification.ByProvider{ProviderName: "google", ProviderUserId: googleUser.ID},
	)
	if err != nil {
		return nil, err
	}
	if existingProvider == nil {
		userProvider := &entity.UserProvider{
			Id:             uuid.New(),
			UserId:         user.Id,
			ProviderName:   "google",
			ProviderUserId: googleUser.ID,
			AvatarURL:      googleUser.Picture,
			CreatedAt:      time.Now(),
		}
		if err := uow.UserRepository().CreateProvider(ctx, userProvider); err != nil {
			return nil, fmt.Errorf("failed to save provider info: %v", err)
		}
	}

	if err := uow.UserRepository().UpdateLastLogin(ctx, user.Id); err != nil {
		fmt.Printf("Warn: failed to update last login for %s: %v\n", user.Email, err)
	}

	signed, expiresAt, err := signUserToken(user.Id, 24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User: dto.UserInfo{
			Id:    user.Id,
			Name:  user.Name,
			Email: user.Email,
		},
	}, nil
}
