package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/ai"
	"github.com/dugtrio-labs/dugtrio/internal/chain"
	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/projects"
	"github.com/dugtrio-labs/dugtrio/internal/storage"
)

// OnDemandTracker refreshes a single project's posts outside the normal
// collection schedule.
type OnDemandTracker interface {
	TrackOne(ctx context.Context, name string) (int, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Cache        storage.PostCache // Redis-backed post cache
	Store        storage.PostStore // ClickHouse post store
	PNL          storage.PNLStore  // ClickHouse PNL-card store
	Trends       storage.TrendStore
	Projects     *projects.Store  // Redis-backed tracked-project registry
	Tracker      OnDemandTracker  // On-demand collection (optional)
	Registrar    *chain.Registrar // On-chain report registrar (optional)
	AI           *ai.Agent        // AI agent for natural language queries
	AIBaseConfig ai.AgentConfig   // Base configuration for AI agents
	DevMode      bool             // Enable detailed error responses in development
	Logger       *logrus.Logger   // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// limitParam parses the limit query parameter with bounds checking
func limitParam(c echo.Context, def, max int) (int, error) {
	limitStr := c.QueryParam("limit")
	if limitStr == "" {
		return def, nil
	}
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 || n > max {
		return 0, errors.New("invalid limit")
	}
	return n, nil
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// RecentPosts returns the most recently collected posts across projects
// Accepts limit query parameter (default: 100, range: 1-200)
func (h *Handlers) RecentPosts(c echo.Context) error {
	limit, err := limitParam(c, 100, 200)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentPosts(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get posts", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// ProjectPosts returns recent posts collected for one project
func (h *Handlers) ProjectPosts(c echo.Context) error {
	name := strings.ToLower(strings.TrimSpace(c.Param("project")))
	if err := projects.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid project name", nil)
	}
	limit, err := limitParam(c, 50, 100)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Store.ListByProject(ctx, name, limit)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get posts", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"project": name, "items": items})
}

// History returns the daily positive-share history for a project
// Accepts days query parameter (default: 7, range: 1-90)
func (h *Handlers) History(c echo.Context) error {
	name := strings.ToLower(strings.TrimSpace(c.Param("project")))
	if err := projects.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid project name", nil)
	}

	days := 7
	if s := c.QueryParam("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 90 {
			return h.err(c, http.StatusBadRequest, "invalid days", map[string]any{"days": "min 1 max 90"})
		}
		days = n
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	since := time.Now().UTC().AddDate(0, 0, -days)
	points, err := h.Store.PositiveShareHistory(ctx, name, since)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get history", nil)
	}
	if len(points) == 0 {
		return h.err(c, http.StatusNotFound, "no history for project", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"project": name, "days": days, "items": points})
}

// PNLCards returns recent PNL cards, optionally filtered by project via
// the route parameter
func (h *Handlers) PNLCards(c echo.Context) error {
	name := strings.ToLower(strings.TrimSpace(c.Param("project")))
	if name != "" {
		if err := projects.ValidateName(name); err != nil {
			return h.err(c, http.StatusBadRequest, "invalid project name", nil)
		}
	}
	limit, err := limitParam(c, 20, 100)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.PNL.ListCards(ctx, name, limit)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get pnl cards", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Trending returns the current trending leaderboard, preferring the cache
func (h *Handlers) Trending(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetTrending(ctx)
	if err != nil || len(items) == 0 {
		items, err = h.Trends.ListTrending(ctx, constants.TopTrending)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to get trending", nil)
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// ProjectsList returns every tracked project
func (h *Handlers) ProjectsList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Projects.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list projects", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// ProjectsUpsert starts tracking a project. When no query is supplied a
// default search query is derived from the name
func (h *Handlers) ProjectsUpsert(c echo.Context) error {
	var req ProjectUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Name = strings.ToLower(strings.TrimSpace(req.Name))
	if err := projects.ValidateName(req.Name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid name", map[string]any{"name": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Projects.Upsert(ctx, req.Name, req.Query, true)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert project", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// ProjectsUpdate replaces a tracked project's query (and re-enables it)
// with the name taken from the route
func (h *Handlers) ProjectsUpdate(c echo.Context) error {
	name := strings.ToLower(strings.TrimSpace(c.Param("name")))
	if err := projects.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid name", map[string]any{"name": "invalid format"})
	}

	var req ProjectUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Projects.Upsert(ctx, name, req.Query, true)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update project", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// ProjectsGet retrieves a tracked project by name
// Returns 404 if the project is not tracked
func (h *Handlers) ProjectsGet(c echo.Context) error {
	name := strings.ToLower(strings.TrimSpace(c.Param("name")))
	if err := projects.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid name", map[string]any{"name": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Projects.Get(ctx, name)
	if err != nil {
		if errors.Is(err, projects.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "project not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get project", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// ProjectsDelete stops tracking a project
// Returns 204 No Content on successful deletion
func (h *Handlers) ProjectsDelete(c echo.Context) error {
	name := strings.ToLower(strings.TrimSpace(c.Param("name")))
	if err := projects.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid name", map[string]any{"name": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Projects.Delete(ctx, name); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete project", nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// Update triggers an immediate collection run for one project
func (h *Handlers) Update(c echo.Context) error {
	if h.Tracker == nil {
		return h.err(c, http.StatusBadRequest, "collection is not configured", nil)
	}

	name := strings.ToLower(strings.TrimSpace(c.Param("project")))
	if err := projects.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid project name", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	added, err := h.Tracker.TrackOne(ctx, name)
	if err != nil {
		if errors.Is(err, projects.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "project not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "collection failed", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, UpdateResponse{Project: name, Added: added})
}

// AIAsk processes natural language questions about post data using AI
// Supports optional model override for one-off requests
// Returns SQL query and answer with execution time
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	// Use default AI agent or create temporary one with custom model
	agent := h.AI
	var tmp *ai.Agent
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		a, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		tmp = a
		agent = a
		defer func() {
			_ = tmp.Close() // Clean up temporary agent
		}()
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
