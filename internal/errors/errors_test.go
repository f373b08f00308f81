package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeValidation, http.StatusBadRequest},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
			assert.Equal(t, tt.want, (&Error{Code: tt.code}).GetStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := Forbidden("recipe belongs to another user")

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("cook: %w", err)
	assert.ErrorIs(t, wrapped, ErrForbidden)

	var domainErr *Error
	require.ErrorAs(t, wrapped, &domainErr)
	assert.Equal(t, "recipe belongs to another user", domainErr.Message)
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrapf(cause, CodeInternal, "%s: storage failure", "pantry")

	assert.Equal(t, "pantry: storage failure: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestWithDetails_Copies(t *testing.T) {
	base := Validation("validation failed")
	withDetails := base.WithDetails(map[string]string{"servings": "must be positive"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"servings": "must be positive"}, withDetails.Details)
	assert.Equal(t, CodeValidation, withDetails.Code)
}
