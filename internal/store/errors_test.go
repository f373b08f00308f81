package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	custom := ErrNotFound.WithMessage("recipe not found")
	assert.ErrorIs(t, custom, ErrNotFound)
	assert.NotErrorIs(t, custom, ErrAlreadyExists)

	wrapped := fmt.Errorf("get recipe: %w", custom)
	assert.True(t, IsNotFound(wrapped))
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: users.email_lower")
	err := ErrAlreadyExists.WithCause(cause)

	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusConflict, err.HTTPCode())
	assert.Contains(t, err.Error(), "resource already exists")
}
