package api

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larderapp/larder-server/internal/auth"
	"github.com/larderapp/larder-server/internal/config"
	"github.com/larderapp/larder-server/internal/logger"
	"github.com/larderapp/larder-server/internal/metrics"
	"github.com/larderapp/larder-server/internal/ratelimit"
	"github.com/larderapp/larder-server/internal/search"
	"github.com/larderapp/larder-server/internal/service"
	"github.com/larderapp/larder-server/internal/store/kv"
)

// testEnvelope decodes the response envelope around a typed payload.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

type testServer struct {
	*Server
	api humatest.TestAPI
}

type testServerOptions struct {
	authBurst int
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWith(t, testServerOptions{authBurst: 100})
}

func setupTestServerWith(t *testing.T, opts testServerOptions) *testServer {
	t.Helper()

	log := logger.Discard()
	dir := t.TempDir()

	st, err := kv.Open(filepath.Join(dir, "db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.Open(search.Options{DataPath: dir, Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg, reg)

	services := &Services{
		Auth:         service.NewAuthService(st, tokens, log),
		Ingredient:   service.NewIngredientService(st, log),
		Pantry:       service.NewPantryService(st, m, log),
		Recipe:       service.NewRecipeService(st, index, m, log),
		MealPlan:     service.NewMealPlanService(st, log),
		ShoppingList: service.NewShoppingListService(st, m, log),
	}

	// One token per minute refill keeps the limiter deterministic within a test.
	limiter := ratelimit.New(1.0/60, opts.authBurst, 0)
	t.Cleanup(limiter.Stop)

	cfg := &config.Config{
		Server:  config.ServerConfig{CORSOrigins: []string{"*"}},
		Metrics: config.MetricsConfig{Enabled: true},
	}

	s := NewServer(cfg, st, index, services, m, limiter, log)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
	}
}

// decode unmarshals an enveloped response body.
func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}

// register creates an account and returns its bearer header and user ID.
func (ts *testServer) register(t *testing.T, email string) (authHeader, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "correct-horse-battery",
		"display_name": "Cook",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "register failed: %s", resp.Body.String())

	env := decode[AuthResponse](t, resp.Body.Bytes())
	return "Authorization: Bearer " + env.Data.AccessToken, env.Data.User.ID
}

func (ts *testServer) createIngredient(t *testing.T, authHeader, name string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/ingredients", authHeader, map[string]any{
		"name":         name,
		"default_unit": "grams",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[map[string]any](t, resp.Body.Bytes())
	return env.Data["id"].(string)
}

func (ts *testServer) createRecipe(t *testing.T, authHeader string, body map[string]any) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/recipes", authHeader, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[map[string]any](t, resp.Body.Bytes())
	return env.Data["id"].(string)
}

func TestServer_RequestIDHeader(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotEmpty(t, resp.Header().Get(requestIDHeader))

	resp = ts.api.Get("/health", requestIDHeader+": trace-123")
	assert.Equal(t, "trace-123", resp.Header().Get(requestIDHeader))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.api.Get("/health")

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "larder_http_request_duration_seconds")
}

func TestServer_MissingRecordIsEnvelopedNotFound(t *testing.T) {
	ts := setupTestServer(t)
	authHeader, _ := ts.register(t, "cook@example.com")

	resp := ts.api.Get("/api/v1/ingredients/ing-missing", authHeader)
	require.Equal(t, http.StatusNotFound, resp.Code)

	env := decode[any](t, resp.Body.Bytes())
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}
