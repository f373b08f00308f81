package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larderapp/larder-server/internal/domain"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))

	assert.True(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.False(t, VerifyPassword(hash, "Correct horse battery staple"))
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("pw")
	require.NoError(t, err)
	b, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPassword_Limits(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = HashPassword(strings.Repeat("a", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$aa$bb", "$argon2id$v=19$garbage$aa$bb"} {
		assert.False(t, VerifyPassword(h, "pw"), "hash %q", h)
	}
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	info, err := os.Stat(filepath.Join(dir, KeyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again, "key is stable across restarts")
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyFileName), []byte("not-hex"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}

func newTestTokenService(t *testing.T, d time.Duration) *TokenService {
	t.Helper()
	key, err := LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	ts, err := NewTokenService(key, d)
	require.NoError(t, err)
	return ts
}

func TestTokenService_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t, time.Hour)
	user := &domain.User{ID: "usr-1", Email: "cook@example.com"}

	token, expires, err := ts.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := ts.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, "cook@example.com", claims.Email)
	assert.Equal(t, "usr-1", claims.Subject)
	assert.True(t, strings.HasPrefix(claims.TokenID, "tok-"))
}

func TestTokenService_Expired(t *testing.T) {
	ts := newTestTokenService(t, time.Minute)
	ts.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := ts.GenerateAccessToken(&domain.User{ID: "usr-1"})
	require.NoError(t, err)

	ts.now = time.Now
	_, err = ts.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongKey(t *testing.T) {
	a := newTestTokenService(t, time.Hour)
	b := newTestTokenService(t, time.Hour)

	token, _, err := a.GenerateAccessToken(&domain.User{ID: "usr-1"})
	require.NoError(t, err)

	_, err = b.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.VerifyAccessToken("v4.local.garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenService_Validation(t *testing.T) {
	_, err := NewTokenService(make([]byte, 16), time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(make([]byte, 32), 0)
	assert.Error(t, err)
}
