package trends

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/models"
	"github.com/dugtrio-labs/dugtrio/internal/storage"
)

// Score computes momentum from mention counts in two adjacent windows.
// The +1 in the denominator keeps projects that had zero previous
// mentions from dividing by zero while still rewarding fresh spikes.
func Score(current, previous uint64) float64 {
	return (float64(current) - float64(previous)) / (float64(previous) + 1)
}

// Analyzer recomputes the trending leaderboard from mention counts.
type Analyzer struct {
	store storage.PostStore
	trend storage.TrendStore
	cache storage.PostCache

	interval time.Duration
	window   time.Duration
	top      int
	logger   *logrus.Logger

	mu      sync.Mutex
	running bool
}

// AnalyzerConfig holds configuration for the trend job.
type AnalyzerConfig struct {
	Store storage.PostStore
	Trend storage.TrendStore
	Cache storage.PostCache
	// Interval between recomputes. Defaults to the window length.
	Interval time.Duration
	// Window is the length of each comparison window. Defaults to
	// constants.TrendWindow.
	Window time.Duration
	// Top is the leaderboard size. Defaults to constants.TopTrending.
	Top    int
	Logger *logrus.Logger
}

func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Window == 0 {
		cfg.Window = constants.TrendWindow
	}
	if cfg.Interval == 0 {
		cfg.Interval = cfg.Window
	}
	if cfg.Top == 0 {
		cfg.Top = constants.TopTrending
	}

	return &Analyzer{
		store:    cfg.Store,
		trend:    cfg.Trend,
		cache:    cfg.Cache,
		interval: cfg.Interval,
		window:   cfg.Window,
		top:      cfg.Top,
		logger:   cfg.Logger,
	}
}

// Start recomputes the leaderboard until the context is canceled.
func (a *Analyzer) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("analyzer already running")
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.WithField("interval", a.interval).Info("starting trend analysis")

	if err := a.RunOnce(ctx); err != nil {
		a.logger.WithError(err).Error("trend analysis error")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.RunOnce(ctx); err != nil {
				a.logger.WithError(err).Error("trend analysis error")
			}
		}
	}
}

// RunOnce compares mention counts in the current window against the one
// before it and replaces the leaderboard. Projects with no mentions in
// the current window never trend.
func (a *Analyzer) RunOnce(ctx context.Context) error {
	tags, err := a.store.ListProjectTags(ctx)
	if err != nil {
		return fmt.Errorf("failed to list project tags: %w", err)
	}

	now := time.Now().UTC()
	currentStart := now.Add(-a.window)
	previousStart := now.Add(-2 * a.window)

	entries := make([]*models.TrendEntry, 0, len(tags))
	for _, tag := range tags {
		if err := ctx.Err(); err != nil {
			return err
		}

		current, err := a.store.CountMentions(ctx, tag, currentStart, now)
		if err != nil {
			a.logger.WithError(err).WithField("project", tag).Error("mention count failed")
			continue
		}
		if current == 0 {
			continue
		}

		previous, err := a.store.CountMentions(ctx, tag, previousStart, currentStart)
		if err != nil {
			a.logger.WithError(err).WithField("project", tag).Error("mention count failed")
			continue
		}

		entries = append(entries, &models.TrendEntry{
			ProjectTag: tag,
			Mentions:   current,
			Score:      Score(current, previous),
			ComputedAt: now,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	if len(entries) > a.top {
		entries = entries[:a.top]
	}

	if err := a.trend.ReplaceTrending(ctx, entries); err != nil {
		return fmt.Errorf("failed to store trending rows: %w", err)
	}

	if a.cache != nil {
		if err := a.cache.SetTrending(ctx, entries); err != nil {
			a.logger.WithError(err).Warn("cache error")
		}
	}

	a.logger.WithField("entries", len(entries)).Info("trend analysis finished")
	return nil
}
