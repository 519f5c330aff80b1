package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/models"
	"github.com/dugtrio-labs/dugtrio/internal/projects"
	"github.com/dugtrio-labs/dugtrio/internal/storage"
	"github.com/dugtrio-labs/dugtrio/internal/xapi"
)

// SearchClient is the slice of the X API client the tracker needs.
type SearchClient interface {
	SearchRecent(ctx context.Context, query string, startTime time.Time, maxResults int) (*xapi.SearchResponse, error)
}

// ProjectSource lists the projects the tracker should poll.
type ProjectSource interface {
	ListEnabled(ctx context.Context) ([]*projects.Project, error)
	Get(ctx context.Context, name string) (*projects.Project, error)
}

// Tracker periodically collects posts for every enabled project,
// deduplicates them by post ID and persists the new ones.
type Tracker struct {
	search    SearchClient
	store     storage.PostStore
	cache     storage.PostCache
	publisher storage.Publisher
	projects  ProjectSource

	pollInterval time.Duration
	logger       *logrus.Logger

	mu      sync.Mutex
	running bool
}

// Config holds configuration for the tracker.
type Config struct {
	Search       SearchClient
	Store        storage.PostStore
	Cache        storage.PostCache
	Publisher    storage.Publisher
	Projects     ProjectSource
	PollInterval time.Duration
	Logger       *logrus.Logger
}

func New(cfg Config) *Tracker {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 15 * time.Minute
	}

	return &Tracker{
		search:       cfg.Search,
		store:        cfg.Store,
		cache:        cfg.Cache,
		publisher:    cfg.Publisher,
		projects:     cfg.Projects,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}
}

// Start polls until the context is canceled.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return fmt.Errorf("tracker already running")
	}
	t.running = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
	}()

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	t.logger.WithField("interval", t.pollInterval).Info("starting post collection")

	// Collect immediately on startup instead of waiting a full interval.
	if err := t.RunOnce(ctx); err != nil {
		t.logger.WithError(err).Error("collection error")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := t.RunOnce(ctx); err != nil {
				t.logger.WithError(err).Error("collection error")
			}
		}
	}
}

// RunOnce collects posts for every enabled project. A failure for one
// project does not stop the others.
func (t *Tracker) RunOnce(ctx context.Context) error {
	list, err := t.projects.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	if len(list) == 0 {
		t.logger.Warn("no projects are being tracked, skipping collection")
		return nil
	}

	for _, p := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.TrackProject(ctx, p); err != nil {
			t.logger.WithError(err).WithField("project", p.Name).Error("failed to collect posts")
		}
	}

	return nil
}

// TrackOne collects posts for a single project by name. Used by the
// on-demand update endpoint.
func (t *Tracker) TrackOne(ctx context.Context, name string) (int, error) {
	p, err := t.projects.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	return t.TrackProject(ctx, p)
}

// TrackProject fetches recent posts for a project, filters out already
// stored IDs and persists the rest. Returns the number of new posts.
func (t *Tracker) TrackProject(ctx context.Context, project *projects.Project) (int, error) {
	log := t.logger.WithField("project", project.Name)
	log.Info("fetching posts")

	startTime := time.Now().Add(-constants.SearchWindow)
	resp, err := t.search.SearchRecent(ctx, project.Query, startTime, constants.SearchBatchSize)
	if err != nil {
		return 0, fmt.Errorf("recent search failed: %w", err)
	}

	if len(resp.Data) == 0 {
		log.Info("no new posts found")
		return 0, nil
	}

	ids := make([]string, 0, len(resp.Data))
	for _, tw := range resp.Data {
		ids = append(ids, tw.ID)
	}
	known, err := t.store.FilterKnownIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("dedupe lookup failed: %w", err)
	}

	users := resp.UsersByID()
	media := resp.MediaByKey()
	now := time.Now().UTC()

	added := 0
	for _, tw := range resp.Data {
		if known[tw.ID] {
			continue
		}

		post := &models.Post{
			PostID:     tw.ID,
			Text:       tw.Text,
			Author:     users[tw.AuthorID].Username,
			CreatedAt:  tw.CreatedAt,
			ProjectTag: project.Name,
			MediaURL:   tw.FirstMediaURL(media),
			FetchedAt:  now,
		}

		if err := t.store.InsertPost(ctx, post); err != nil {
			log.WithError(err).WithField("post_id", post.PostID).Error("failed to store post")
			continue
		}
		added++

		// Cache and pub/sub are best effort; the store is the source of truth.
		if t.cache != nil {
			if err := t.cache.AddRecentPost(ctx, post); err != nil {
				log.WithError(err).Warn("cache error")
			}
		}
		if t.publisher != nil {
			if err := t.publisher.PublishPost(ctx, post); err != nil {
				log.WithError(err).Warn("pub/sub error")
			}
		}
	}

	log.WithFields(logrus.Fields{
		"fetched": len(resp.Data),
		"added":   added,
	}).Info("collection finished")

	return added, nil
}
