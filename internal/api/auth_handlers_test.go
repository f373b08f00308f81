package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterAndLogin(t *testing.T) {
	ts := setupTestServer(t)

	authHeader, userID := ts.register(t, "cook@example.com")
	assert.NotEmpty(t, userID)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "cook@example.com",
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[AuthResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, userID, env.Data.User.ID)
	assert.NotEmpty(t, env.Data.AccessToken)
	assert.NotContains(t, resp.Body.String(), "password")

	resp = ts.api.Get("/api/v1/users/me", authHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	me := decode[UserResponse](t, resp.Body.Bytes())
	assert.Equal(t, "cook@example.com", me.Data.Email)
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "cook@example.com",
		"password":     "another-password",
		"display_name": "Other",
	})
	require.Equal(t, http.StatusConflict, resp.Code)

	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "ALREADY_EXISTS", env.Code)
}

func TestAuth_RegisterValidation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        "cook@example.com",
		"password":     "short",
		"display_name": "Cook",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env := decode[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION", env.Code)
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	ts.register(t, "cook@example.com")

	tests := []struct {
		name  string
		email string
	}{
		{name: "wrong password", email: "cook@example.com"},
		{name: "unknown email", email: "nobody@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/login", map[string]any{
				"email":    tt.email,
				"password": "not-the-password",
			})
			require.Equal(t, http.StatusUnauthorized, resp.Code)

			env := decode[any](t, resp.Body.Bytes())
			assert.Equal(t, "INVALID_CREDENTIALS", env.Code)
		})
	}
}

func TestAuth_ProtectedRoutesRequireToken(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name    string
		headers []any
	}{
		{name: "missing header"},
		{name: "wrong scheme", headers: []any{"Authorization: Basic abc"}},
		{name: "garbage token", headers: []any{"Authorization: Bearer v4.local.garbage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/pantry", tt.headers...)
			require.Equal(t, http.StatusUnauthorized, resp.Code)

			env := decode[any](t, resp.Body.Bytes())
			assert.Equal(t, "UNAUTHORIZED", env.Code)
		})
	}
}

func TestAuth_RateLimited(t *testing.T) {
	ts := setupTestServerWith(t, testServerOptions{authBurst: 2})

	login := map[string]any{"email": "cook@example.com", "password": "whatever-password"}

	for range 2 {
		resp := ts.api.Post("/api/v1/auth/login", login)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	}

	resp := ts.api.Post("/api/v1/auth/login", login)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)

	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, "RATE_LIMITED", env.Code)

	// Other routes are not limited.
	resp = ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
}
