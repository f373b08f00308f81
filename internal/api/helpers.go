package api

import (
	"context"
	"strings"

	"github.com/larderapp/larder-server/internal/domain"
	domainerrors "github.com/larderapp/larder-server/internal/errors"
)

// authenticateRequest validates the Authorization header and returns the user ID.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (string, error) {
	user, err := s.authenticateUser(ctx, authHeader)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// authenticateUser validates the Authorization header and returns the account.
func (s *Server) authenticateUser(ctx context.Context, authHeader string) (*domain.User, error) {
	if authHeader == "" {
		return nil, domainerrors.Unauthorized("Missing authorization header")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, domainerrors.Unauthorized("Invalid authorization header format")
	}

	return s.services.Auth.VerifyAccessToken(ctx, token)
}

// nonNil returns an empty slice for nil so lists encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
