package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dugtrio-labs/dugtrio/internal/models"
	"github.com/dugtrio-labs/dugtrio/internal/projects"
)

// APIClient talks to the DugTrio HTTP API on behalf of the bot.
type APIClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewAPIClient(baseURL, apiKey string) *APIClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}
	return &APIClient{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		HTTP: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("api http %d", e.StatusCode)
	}
	return fmt.Sprintf("api http %d: %s", e.StatusCode, b)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("accept", "application/json")
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	data, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &HTTPError{StatusCode: res.StatusCode, Body: data}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode api response: %w", err)
	}
	return nil
}

// Sentiment fetches the aggregate for one project.
func (c *APIClient) Sentiment(ctx context.Context, project string) (*models.SentimentSummary, error) {
	var out models.SentimentSummary
	if err := c.do(ctx, http.MethodGet, "/v1/sentiment/"+url.PathEscape(project), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SentimentAll fetches the aggregates for every tracked project.
func (c *APIClient) SentimentAll(ctx context.Context) ([]*models.SentimentSummary, error) {
	var out struct {
		Items []*models.SentimentSummary `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/sentiment", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ProjectPosts fetches recent posts for one project.
func (c *APIClient) ProjectPosts(ctx context.Context, project string, limit int) ([]*models.Post, error) {
	var out struct {
		Items []*models.Post `json:"items"`
	}
	path := fmt.Sprintf("/v1/posts/%s?limit=%d", url.PathEscape(project), limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Trending fetches the trending leaderboard.
func (c *APIClient) Trending(ctx context.Context) ([]*models.TrendEntry, error) {
	var out struct {
		Items []*models.TrendEntry `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/trending", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Projects fetches the tracked-project list.
func (c *APIClient) Projects(ctx context.Context) ([]*projects.Project, error) {
	var out struct {
		Items []*projects.Project `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// TrackProject starts tracking a project with the default query.
func (c *APIClient) TrackProject(ctx context.Context, name string) (*projects.Project, error) {
	var out projects.Project
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/v1/projects", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update triggers an immediate collection run for a project.
func (c *APIClient) Update(ctx context.Context, project string) (int, error) {
	var out struct {
		Added int `json:"added"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/update/"+url.PathEscape(project), nil, &out); err != nil {
		return 0, err
	}
	return out.Added, nil
}

// PNLCards fetches recent PNL cards for one project.
func (c *APIClient) PNLCards(ctx context.Context, project string, limit int) ([]*models.PNLCard, error) {
	var out struct {
		Items []*models.PNLCard `json:"items"`
	}
	path := fmt.Sprintf("/v1/pnl/%s?limit=%d", url.PathEscape(project), limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
