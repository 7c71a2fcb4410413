package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/auth"
	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
	"github.com/servicedesk/ticket-service/pkg/util"
)

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates login.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(store repository.Store, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{users: store.Repos().Users(), tokenMgr: tokens, logger: logger}
}

// Login authenticates by username or email and issues an access token.
func (s *AuthService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" || password == "" {
		return nil, util.NewValidationError("login and password are required", nil)
	}
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.NewUnauthorized("invalid credentials")
		}
		return nil, storeError(err, "user")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, util.NewUnauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, util.NewForbidden("user is inactive")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}
