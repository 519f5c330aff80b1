package sentiment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/storage"
)

// PostClassifier labels a single piece of post text.
type PostClassifier interface {
	Classify(ctx context.Context, text string) (*Result, error)
}

// Analyzer periodically labels the stored posts that have no sentiment yet.
type Analyzer struct {
	classifier PostClassifier
	store      storage.PostStore

	interval  time.Duration
	batchSize int
	delay     time.Duration
	logger    *logrus.Logger

	mu      sync.Mutex
	running bool
}

// AnalyzerConfig holds configuration for the analyzer job.
type AnalyzerConfig struct {
	Classifier PostClassifier
	Store      storage.PostStore
	// Interval between batches. Defaults to 5 minutes.
	Interval time.Duration
	// BatchSize is the number of unlabeled posts pulled per run.
	BatchSize int
	// Delay between model calls inside a batch. Defaults to
	// constants.DelayBetweenClassifyCalls.
	Delay  time.Duration
	Logger *logrus.Logger
}

func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = constants.SearchBatchSize
	}
	if cfg.Delay == 0 {
		cfg.Delay = constants.DelayBetweenClassifyCalls
	}

	return &Analyzer{
		classifier: cfg.Classifier,
		store:      cfg.Store,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		delay:      cfg.Delay,
		logger:     cfg.Logger,
	}
}

// Start labels batches until the context is canceled.
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

	a.logger.WithField("interval", a.interval).Info("starting sentiment analysis")

	if _, err := a.RunOnce(ctx); err != nil {
		a.logger.WithError(err).Error("analysis error")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := a.RunOnce(ctx); err != nil {
				a.logger.WithError(err).Error("analysis error")
			}
		}
	}
}

// RunOnce labels one batch of unlabeled posts. Posts whose classification
// fails are marked with the error label so they are not retried forever.
// Returns the number of posts labeled successfully.
func (a *Analyzer) RunOnce(ctx context.Context) (int, error) {
	posts, err := a.store.ListUnlabeled(ctx, a.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unlabeled posts: %w", err)
	}
	if len(posts) == 0 {
		return 0, nil
	}

	a.logger.WithField("count", len(posts)).Info("labeling posts")

	labeled := 0
	for i, post := range posts {
		if err := ctx.Err(); err != nil {
			return labeled, err
		}

		result, err := a.classifier.Classify(ctx, post.Text)
		if err != nil {
			a.logger.WithError(err).WithField("post_id", post.PostID).Warn("classification failed")
			if err := a.store.UpdateSentiment(ctx, post.PostID, constants.SentimentError, 0); err != nil {
				a.logger.WithError(err).WithField("post_id", post.PostID).Error("failed to mark post")
			}
		} else {
			if err := a.store.UpdateSentiment(ctx, post.PostID, result.Label, result.Score); err != nil {
				a.logger.WithError(err).WithField("post_id", post.PostID).Error("failed to store label")
			} else {
				labeled++
			}
		}

		// Stay under the model provider's rate limits.
		if a.delay > 0 && i < len(posts)-1 {
			select {
			case <-ctx.Done():
				return labeled, ctx.Err()
			case <-time.After(a.delay):
			}
		}
	}

	a.logger.WithFields(logrus.Fields{
		"labeled": labeled,
		"total":   len(posts),
	}).Info("analysis finished")

	return labeled, nil
}
