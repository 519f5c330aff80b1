package xapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchFixture = `{
	"data": [
		{
			"id": "1801",
			"text": "Solana is ripping today",
			"author_id": "42",
			"created_at": "2025-11-02T10:15:00Z",
			"attachments": {"media_keys": ["3_900"]}
		},
		{
			"id": "1802",
			"text": "$SOL looking heavy",
			"author_id": "43",
			"created_at": "2025-11-02T10:16:00Z"
		}
	],
	"includes": {
		"users": [
			{"id": "42", "username": "alpha_hunter"},
			{"id": "43", "username": "perma_bear"}
		],
		"media": [
			{"media_key": "3_900", "type": "photo", "url": "https://pbs.example/900.png"}
		]
	},
	"meta": {"result_count": 2, "newest_id": "1802"}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{
		BaseURL:      srv.URL,
		BearerToken:  "test-token",
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	return c, srv
}

func TestSearchRecent(t *testing.T) {
	var gotAuth, gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		assert.Equal(t, "/tweets/search/recent", r.URL.Path)
		assert.Equal(t, "created_at,attachments", r.URL.Query().Get("tweet.fields"))
		assert.NotEmpty(t, r.URL.Query().Get("start_time"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchFixture))
	})

	resp, err := c.SearchRecent(context.Background(), `"Solana" OR "$SOL"`, time.Now().Add(-24*time.Hour), 50)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, `"Solana" OR "$SOL"`, gotQuery)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "1801", resp.Data[0].ID)
	assert.Equal(t, 2, resp.Meta.ResultCount)

	users := resp.UsersByID()
	assert.Equal(t, "alpha_hunter", users["42"].Username)

	media := resp.MediaByKey()
	assert.Equal(t, "https://pbs.example/900.png", resp.Data[0].FirstMediaURL(media))
	assert.Empty(t, resp.Data[1].FirstMediaURL(media))
}

func TestSearchRecent_EmptyQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.SearchRecent(context.Background(), "  ", time.Time{}, 50)
	assert.Error(t, err)
}

func TestSearchRecent_RetriesServerErrors(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(searchFixture))
	})

	resp, err := c.SearchRecent(context.Background(), "bonk", time.Time{}, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, resp.Data, 2)
}

func TestSearchRecent_NoRetryOnAuthError(t *testing.T) {
	attempts := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"title":"Unauthorized"}`))
	})

	_, err := c.SearchRecent(context.Background(), "bonk", time.Time{}, 50)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)
}
