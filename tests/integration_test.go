package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dugtrio-labs/dugtrio/internal/ai"
	"github.com/dugtrio-labs/dugtrio/internal/cache"
	"github.com/dugtrio-labs/dugtrio/internal/config"
	"github.com/dugtrio-labs/dugtrio/internal/models"
	"github.com/dugtrio-labs/dugtrio/internal/projects"
	"github.com/dugtrio-labs/dugtrio/internal/server"
)

const (
	testAPIAddr = ":8091"
	testAPIKey  = "test-api-key-integration"
)

func setupIntegrationTest(t *testing.T) (*server.Server, *redis.Client, func()) {
	// Check if Redis is available
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   2, // Use different DB for integration tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for integration tests: %v", err)
	}

	// Clear test DB
	_ = redisClient.FlushDB(ctx).Err()

	// Create test configuration
	cfg := &config.Config{
		APIAddr: testAPIAddr,
		APIKey:  testAPIKey,
		DevMode: true,
	}

	// Initialize cache and project registry
	logger := logrus.New()
	postCache := cache.NewRedisCacheFromClient(redisClient, logger)
	projectStore, err := projects.NewStore(redisClient)
	require.NoError(t, err)

	// Create server dependencies. The ClickHouse-backed stores, tracker
	// and AI agent stay nil here; the tests only touch the Redis paths.
	handlers := &server.Handlers{
		Cache:        postCache,
		Projects:     projectStore,
		AI:           nil,
		AIBaseConfig: ai.AgentConfig{},
		DevMode:      true,
		Logger:       logger,
	}

	serverConfig := server.ServerConfig{
		Addr:    cfg.APIAddr,
		DevMode: cfg.DevMode,
		APIKey:  cfg.APIKey,
	}

	deps := server.ServerDeps{
		Handlers: handlers,
		Config:   serverConfig,
	}

	srv, err := server.NewServer(deps)
	require.NoError(t, err)

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			t.Logf("Server error: %v", err)
		}
	}()

	// Wait for server to be ready
	time.Sleep(100 * time.Millisecond)

	// Cleanup function
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(ctx)
		_ = redisClient.FlushDB(ctx).Err()
		_ = redisClient.Close()
	}

	return srv, redisClient, cleanup
}

func makeRequest(t *testing.T, method, url string, body interface{}, expectedStatus int) *http.Response {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequest(method, url, reqBody)
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)

	assert.Equal(t, expectedStatus, resp.StatusCode, "Expected status %d, got %d", expectedStatus, resp.StatusCode)

	return resp
}

func TestIntegration_Health(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/health", nil, http.StatusOK)
	defer resp.Body.Close()

	var response server.HealthResponse
	err := json.NewDecoder(resp.Body).Decode(&response)
	require.NoError(t, err)

	assert.True(t, response.OK)
}

func TestIntegration_ProjectsCRUD(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Track a project without an explicit query
	upsertPayload := map[string]interface{}{"name": "bonk"}
	resp := makeRequest(t, http.MethodPost, "http://localhost:8091/v1/projects", upsertPayload, http.StatusOK)
	defer resp.Body.Close()

	var upsertResponse projects.Project
	err := json.NewDecoder(resp.Body).Decode(&upsertResponse)
	require.NoError(t, err)
	assert.Equal(t, "bonk", upsertResponse.Name)
	assert.True(t, upsertResponse.Enabled)
	assert.Contains(t, upsertResponse.Query, "bonk")
	assert.NotZero(t, upsertResponse.RequestedAt)

	// Get project
	resp = makeRequest(t, http.MethodGet, "http://localhost:8091/v1/projects/bonk", nil, http.StatusOK)
	defer resp.Body.Close()

	var getResponse projects.Project
	err = json.NewDecoder(resp.Body).Decode(&getResponse)
	require.NoError(t, err)
	assert.Equal(t, "bonk", getResponse.Name)

	// Upsert with a custom search query replaces the derived one
	updatePayload := map[string]interface{}{"name": "bonk", "query": "bonk OR $bonk lang:en"}
	resp = makeRequest(t, http.MethodPost, "http://localhost:8091/v1/projects", updatePayload, http.StatusOK)
	defer resp.Body.Close()

	var updateResponse projects.Project
	err = json.NewDecoder(resp.Body).Decode(&updateResponse)
	require.NoError(t, err)
	assert.Equal(t, "bonk OR $bonk lang:en", updateResponse.Query)

	// List projects
	resp = makeRequest(t, http.MethodGet, "http://localhost:8091/v1/projects", nil, http.StatusOK)
	defer resp.Body.Close()

	var listResponse struct {
		Items []*projects.Project `json:"items"`
	}
	err = json.NewDecoder(resp.Body).Decode(&listResponse)
	require.NoError(t, err)
	assert.Len(t, listResponse.Items, 1)
	assert.Equal(t, "bonk", listResponse.Items[0].Name)

	// Delete project
	resp = makeRequest(t, http.MethodDelete, "http://localhost:8091/v1/projects/bonk", nil, http.StatusNoContent)
	defer resp.Body.Close()

	// Verify deletion
	resp = makeRequest(t, http.MethodGet, "http://localhost:8091/v1/projects/bonk", nil, http.StatusNotFound)
	defer resp.Body.Close()
}

func TestIntegration_ProjectsValidation(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Empty name fails validation
	invalidPayload := map[string]interface{}{"name": ""}
	resp := makeRequest(t, http.MethodPost, "http://localhost:8091/v1/projects", invalidPayload, http.StatusBadRequest)
	defer resp.Body.Close()

	var errorResponse server.ErrorResponse
	err := json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Contains(t, errorResponse.Error, "invalid name")

	// Name with invalid characters
	invalidPayload2 := map[string]interface{}{"name": "not a name!"}
	resp = makeRequest(t, http.MethodPost, "http://localhost:8091/v1/projects", invalidPayload2, http.StatusBadRequest)
	defer resp.Body.Close()

	err = json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Contains(t, errorResponse.Error, "invalid name")
}

func TestIntegration_PostsAndTrending(t *testing.T) {
	_, redisClient, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	logger := logrus.New()
	postCache := cache.NewRedisCacheFromClient(redisClient, logger)

	// Seed the cache the way the collection and trend jobs do
	post := &models.Post{
		PostID:     "1906000000000000001",
		Text:       "bonk is heating up again",
		Author:     "degens_daily",
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
		ProjectTag: "bonk",
		FetchedAt:  time.Now().UTC(),
	}
	require.NoError(t, postCache.AddRecentPost(ctx, post))

	entries := []*models.TrendEntry{
		{ProjectTag: "bonk", Mentions: 42, Score: 2.5, ComputedAt: time.Now().UTC()},
		{ProjectTag: "wif", Mentions: 10, Score: 0.8, ComputedAt: time.Now().UTC()},
	}
	require.NoError(t, postCache.SetTrending(ctx, entries))

	// Recent posts come straight from the cache
	resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/posts/recent?limit=5", nil, http.StatusOK)
	defer resp.Body.Close()

	var postsResponse struct {
		Items []*models.Post `json:"items"`
	}
	err := json.NewDecoder(resp.Body).Decode(&postsResponse)
	require.NoError(t, err)
	assert.Len(t, postsResponse.Items, 1)
	assert.Equal(t, "1906000000000000001", postsResponse.Items[0].PostID)
	assert.Equal(t, "bonk", postsResponse.Items[0].ProjectTag)

	// Trending prefers the cached leaderboard
	resp = makeRequest(t, http.MethodGet, "http://localhost:8091/v1/trending", nil, http.StatusOK)
	defer resp.Body.Close()

	var trendingResponse struct {
		Items []*models.TrendEntry `json:"items"`
	}
	err = json.NewDecoder(resp.Body).Decode(&trendingResponse)
	require.NoError(t, err)
	require.Len(t, trendingResponse.Items, 2)
	assert.Equal(t, "bonk", trendingResponse.Items[0].ProjectTag)
	assert.Equal(t, uint64(42), trendingResponse.Items[0].Mentions)
}

func TestIntegration_PostsValidation(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Test invalid limit
	resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/posts/recent?limit=500", nil, http.StatusBadRequest)
	defer resp.Body.Close()

	var errorResponse server.ErrorResponse
	err := json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Contains(t, errorResponse.Error, "invalid limit")
}

func TestIntegration_UnconfiguredServices(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// On-demand collection without a configured tracker
	resp := makeRequest(t, http.MethodPost, "http://localhost:8091/v1/update/bonk", nil, http.StatusBadRequest)
	defer resp.Body.Close()

	var errorResponse server.ErrorResponse
	err := json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Contains(t, errorResponse.Error, "not configured")

	// AI questions without a configured agent
	askPayload := map[string]interface{}{"question": "which project had the most posts today?"}
	resp = makeRequest(t, http.MethodPost, "http://localhost:8091/v1/ai/ask", askPayload, http.StatusBadRequest)
	defer resp.Body.Close()

	err = json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Contains(t, errorResponse.Error, "not configured")
}

func TestIntegration_Authentication(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Test without API key
	req, err := http.NewRequest(http.MethodGet, "http://localhost:8091/v1/health", nil)
	require.NoError(t, err)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Test with invalid API key
	req, err = http.NewRequest(http.MethodGet, "http://localhost:8091/v1/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "invalid-key")

	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_ErrorHandling(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	// Test 404 for non-existent endpoint
	req, err := http.NewRequest(http.MethodGet, "http://localhost:8091/v1/nonexistent", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testAPIKey)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errorResponse server.ErrorResponse
	err = json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Equal(t, "not found", errorResponse.Error)
	assert.Equal(t, http.StatusNotFound, errorResponse.Code)

	// Test invalid JSON
	req, err = http.NewRequest(http.MethodPost, "http://localhost:8091/v1/projects", bytes.NewReader([]byte("invalid json")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	err = json.NewDecoder(resp.Body).Decode(&errorResponse)
	require.NoError(t, err)
	assert.Contains(t, errorResponse.Error, "invalid json")
}

func TestIntegration_ConcurrentRequests(t *testing.T) {
	_, _, cleanup := setupIntegrationTest(t)
	defer cleanup()

	const numRequests = 50
	const numGoroutines = 10

	results := make(chan error, numRequests)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := 0; j < numRequests/numGoroutines; j++ {
				resp := makeRequest(t, http.MethodGet, "http://localhost:8091/v1/health", nil, http.StatusOK)
				resp.Body.Close()
				results <- nil
			}
		}()
	}

	// Collect all results
	for i := 0; i < numRequests; i++ {
		err := <-results
		assert.NoError(t, err)
	}
}
