package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/auth"
	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
	"github.com/servicedesk/ticket-service/pkg/util"
)

// UserService administers operator accounts.
type UserService struct {
	store      repository.Store
	bcryptCost int
	logger     *zap.Logger
	clock      clock
}

// NewUserService constructs the service.
func NewUserService(store repository.Store, bcryptCost int, logger *zap.Logger, now func() time.Time) *UserService {
	return &UserService{store: store, bcryptCost: bcryptCost, logger: logger, clock: now}
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Username    string
	Email       *string
	DisplayName string
	Password    string
	Role        string
}

// UpdateUserInput replaces profile fields. A non-empty Password resets it.
type UpdateUserInput struct {
	Email       *string
	DisplayName string
	Role        string
	IsActive    bool
	Password    string
}

func normalizeEmail(raw *string, bad problems) *string {
	email := util.CleanOptional(raw)
	if email == nil {
		return nil
	}
	lower := strings.ToLower(*email)
	if _, err := mail.ParseAddress(lower); err != nil {
		bad.add("email", "email is invalid")
	}
	return &lower
}

func parseRole(raw string, bad problems) domain.UserRole {
	if strings.TrimSpace(raw) == "" {
		return domain.UserRoleAgent
	}
	role, ok := domain.ParseUserRole(strings.TrimSpace(raw))
	if !ok {
		bad.add("role", "role must be Admin or Agent")
	}
	return role
}

// List returns every account ordered by username.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.Repos().Users().List(ctx)
	if err != nil {
		return nil, storeError(err, "user")
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, notFound("user", id)
	}
	u, err := s.store.Repos().Users().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return u, nil
}

// Create adds an account. Usernames are stored lowercased.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	bad := problems{}
	username := strings.ToLower(util.CleanText(in.Username))
	if username == "" {
		bad.add("username", "username is required")
	}
	bad.check("username", username, domain.MaxActorLength)
	displayName := util.CleanText(in.DisplayName)
	if displayName == "" {
		bad.add("display_name", "display_name is required")
	}
	bad.check("display_name", displayName, domain.MaxActorLength)
	email := normalizeEmail(in.Email, bad)
	role := parseRole(in.Role, bad)
	if len(in.Password) < auth.MinPasswordLength {
		bad.add("password", auth.ErrWeakPassword.Error())
	}
	if err := bad.err("invalid user"); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	now := s.clock.now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Repos().Users().Create(ctx, user); err != nil {
		return nil, storeError(err, "user")
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Update replaces profile fields and optionally resets the password.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error) {
	bad := problems{}
	displayName := util.CleanText(in.DisplayName)
	if displayName == "" {
		bad.add("display_name", "display_name is required")
	}
	bad.check("display_name", displayName, domain.MaxActorLength)
	email := normalizeEmail(in.Email, bad)
	role := parseRole(in.Role, bad)
	if in.Password != "" && len(in.Password) < auth.MinPasswordLength {
		bad.add("password", auth.ErrWeakPassword.Error())
	}
	if err := bad.err("invalid user"); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.DisplayName = displayName
	user.Email = email
	user.Role = role
	user.IsActive = in.IsActive
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			return nil, util.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = s.clock.now()
	if err := s.store.Repos().Users().Update(ctx, user); err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound("user", id)
	}
	if err := s.store.Repos().Users().Delete(ctx, id); err != nil {
		return storeError(err, "user")
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// EnsureBootstrapAdmin creates an Admin when the users table is empty and
// credentials are configured. It reports whether a user was created.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}
	count, err := s.store.Repos().Users().Count(ctx)
	if err != nil {
		return false, storeError(err, "user")
	}
	if count > 0 {
		return false, nil
	}
	_, err = s.Create(ctx, CreateUserInput{
		Username:    username,
		DisplayName: "Administrator",
		Password:    password,
		Role:        string(domain.UserRoleAdmin),
	})
	if errors.Is(err, repository.ErrDuplicate) || util.IsCode(err, "CONFLICT") {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logger.Info("bootstrap admin created", zap.String("username", username))
	return true, nil
}
