package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/larderapp/larder-server/internal/auth"
	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
	"github.com/larderapp/larder-server/internal/id"
	"github.com/larderapp/larder-server/internal/normalize"
	"github.com/larderapp/larder-server/internal/store"
)

// AuthService handles registration, login and access token verification.
type AuthService struct {
	store        store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
	now          func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, tokenService *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		logger:       loggerOrDefault(logger),
		now:          time.Now,
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse contains the authenticated user and an access token.
type AuthResponse struct {
	User        *domain.User
	AccessToken string
	ExpiresAt   time.Time
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate user id")
	}

	now := s.now()
	user := &domain.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		ID:           userID,
		Email:        domain.NormalizeEmail(req.Email),
		DisplayName:  normalize.DisplayName(req.DisplayName),
		PasswordHash: passwordHash,
	}

	err = s.store.Update(ctx, func(tx store.Tx) error {
		return tx.CreateUser(ctx, user)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil, domainerrors.AlreadyExists("email is already registered")
	}
	if err != nil {
		return nil, translate(err, "user")
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login verifies credentials and returns a fresh access token. Unknown emails and wrong
// passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, req.Email)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}
	if err != nil {
		return nil, translate(err, "user")
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.logger.Info("login failed", "user_id", user.ID)
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	return s.issue(user)
}

// VerifyAccessToken resolves a bearer token to its user. Any failure is Unauthorized.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired access token")
	}

	var user *domain.User
	err = s.store.View(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, claims.UserID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthorized("account no longer exists")
	}
	if err != nil {
		return nil, translate(err, "user")
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResponse, error) {
	token, expires, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "issue access token")
	}
	return &AuthResponse{User: user, AccessToken: token, ExpiresAt: expires}, nil
}
