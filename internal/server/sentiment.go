package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dugtrio-labs/dugtrio/internal/chain"
	"github.com/dugtrio-labs/dugtrio/internal/models"
	"github.com/dugtrio-labs/dugtrio/internal/projects"
)

// errNoLabeledPosts signals that a project has no labeled posts yet.
var errNoLabeledPosts = errors.New("no labeled posts")

// aggregateLabel maps an average confidence score onto the published
// market read.
func aggregateLabel(avg float64) string {
	switch {
	case avg > 0.6:
		return "Bullish"
	case avg < 0.4:
		return "Bearish"
	default:
		return "Neutral"
	}
}

// buildSummary computes the current aggregate for one project and
// refreshes the cached snapshot.
func (h *Handlers) buildSummary(ctx context.Context, name string) (*models.SentimentSummary, error) {
	avg, samples, err := h.Store.AvgSentimentScore(ctx, name)
	if err != nil {
		return nil, err
	}
	if samples == 0 {
		return nil, errNoLabeledPosts
	}

	summary := &models.SentimentSummary{
		ProjectTag:  name,
		Label:       aggregateLabel(avg),
		Score:       avg,
		SampleCount: samples,
		GeneratedAt: time.Now().UTC(),
	}

	recent, err := h.Store.ListLabeledByProject(ctx, name, 3)
	if err != nil {
		h.Logger.WithError(err).WithField("project", name).Warn("failed to load sample posts")
	} else {
		for _, p := range recent {
			summary.RecentPosts = append(summary.RecentPosts, p.Text)
		}
	}

	if err := h.Cache.SetSentimentSnapshot(ctx, summary); err != nil {
		h.Logger.WithError(err).WithField("project", name).Warn("failed to cache snapshot")
	}

	return summary, nil
}

// SentimentAll returns the current aggregate for every tracked project
// Projects without labeled posts are omitted
func (h *Handlers) SentimentAll(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	tracked, err := h.Projects.ListEnabled(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list projects", nil)
	}

	items := make([]*models.SentimentSummary, 0, len(tracked))
	for _, p := range tracked {
		summary, err := h.buildSummary(ctx, p.Name)
		if err != nil {
			if !errors.Is(err, errNoLabeledPosts) {
				h.Logger.WithError(err).WithField("project", p.Name).Error("aggregate failed")
			}
			continue
		}
		items = append(items, summary)
	}

	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// SentimentProject returns the current aggregate for one project
// Returns 404 when the project has no labeled posts yet
func (h *Handlers) SentimentProject(c echo.Context) error {
	name := strings.ToLower(strings.TrimSpace(c.Param("project")))
	if err := projects.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid project name", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	summary, err := h.buildSummary(ctx, name)
	if err != nil {
		if errors.Is(err, errNoLabeledPosts) {
			return h.err(c, http.StatusNotFound, "no labeled posts for project", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to aggregate sentiment", nil)
	}
	return c.JSON(http.StatusOK, summary)
}

// IPRegister anchors the current aggregate for a project on-chain and
// returns the transaction hash. The hash is returned even when
// confirmation times out; confirmed reports the observed state
func (h *Handlers) IPRegister(c echo.Context) error {
	if h.Registrar == nil {
		return h.err(c, http.StatusBadRequest, "on-chain registration is not configured", nil)
	}

	name := strings.ToLower(strings.TrimSpace(c.Param("project")))
	if err := projects.ValidateName(name); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid project name", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 90*time.Second)
	defer cancel()

	summary, err := h.buildSummary(ctx, name)
	if err != nil {
		if errors.Is(err, errNoLabeledPosts) {
			return h.err(c, http.StatusNotFound, "no labeled posts for project", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to aggregate sentiment", nil)
	}

	registration, err := h.Registrar.RegisterReport(ctx, chain.ReportFromSummary(summary))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "registration failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"registration": registration,
		"summary":      summary,
	})
}
