package storage

import (
	"context"
	"io"
	"time"

	"github.com/dugtrio-labs/dugtrio/internal/models"
)

// PostCache defines the interface for caching post data in Redis.
type PostCache interface {
	// AddRecentPost pushes a post onto the bounded recent-posts list
	AddRecentPost(ctx context.Context, post *models.Post) error

	// GetRecentPosts retrieves the most recent posts
	GetRecentPosts(ctx context.Context, limit int64) ([]*models.Post, error)

	// SetSentimentSnapshot stores the latest aggregate for a project
	SetSentimentSnapshot(ctx context.Context, summary *models.SentimentSummary) error

	// GetSentimentSnapshot retrieves the latest aggregate for a project
	GetSentimentSnapshot(ctx context.Context, projectTag string) (*models.SentimentSummary, error)

	// SetTrending stores the latest trend-job output
	SetTrending(ctx context.Context, entries []*models.TrendEntry) error

	// GetTrending retrieves the latest trend-job output
	GetTrending(ctx context.Context) ([]*models.TrendEntry, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	// Close closes the cache connection
	io.Closer
}

// PostStore defines the interface for persistent post storage.
type PostStore interface {
	// InsertPost inserts a collected post
	InsertPost(ctx context.Context, post *models.Post) error

	// FilterKnownIDs returns the subset of ids already stored
	FilterKnownIDs(ctx context.Context, ids []string) (map[string]bool, error)

	// ListUnlabeled returns posts that have no sentiment label yet
	ListUnlabeled(ctx context.Context, limit int) ([]*models.Post, error)

	// UpdateSentiment writes back label and confidence for a post
	UpdateSentiment(ctx context.Context, postID, label string, score float64) error

	// ListByProject returns recent posts for one project
	ListByProject(ctx context.Context, projectTag string, limit int) ([]*models.Post, error)

	// ListLabeledByProject returns recent labeled posts for one project
	ListLabeledByProject(ctx context.Context, projectTag string, limit int) ([]*models.Post, error)

	// AvgSentimentScore returns the average confidence over labeled posts
	// and how many posts contributed. samples == 0 means no labeled posts.
	AvgSentimentScore(ctx context.Context, projectTag string) (avg float64, samples int, err error)

	// PositiveShareHistory returns the daily percentage of positive posts
	PositiveShareHistory(ctx context.Context, projectTag string, since time.Time) ([]*models.HistoryPoint, error)

	// CountMentions counts posts for a project created inside [from, to)
	CountMentions(ctx context.Context, projectTag string, from, to time.Time) (uint64, error)

	// ListProjectTags returns the distinct project tags present in the store
	ListProjectTags(ctx context.Context) ([]string, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// PNLStore defines the interface for derived PNL-card storage.
type PNLStore interface {
	// ListUnanalyzed returns posts with media that have no card yet
	ListUnanalyzed(ctx context.Context, limit int) ([]*models.Post, error)

	// InsertCard inserts a derived PNL card
	InsertCard(ctx context.Context, card *models.PNLCard) error

	// ListCards returns recent successful cards, optionally for one project
	ListCards(ctx context.Context, projectTag string, limit int) ([]*models.PNLCard, error)
}

// TrendStore defines the interface for trend-job output storage.
type TrendStore interface {
	// ReplaceTrending swaps the trending table for a fresh run
	ReplaceTrending(ctx context.Context, entries []*models.TrendEntry) error

	// ListTrending returns the current trending rows, highest score first
	ListTrending(ctx context.Context, limit int) ([]*models.TrendEntry, error)
}

// PostHandler is a function that processes newly collected posts.
type PostHandler func(*models.Post)

// Publisher fans newly collected posts out to subscribers.
type Publisher interface {
	PublishPost(ctx context.Context, post *models.Post) error
}
