package pnl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/models"
	"github.com/dugtrio-labs/dugtrio/internal/storage"
)

// Fetcher downloads image bytes from a media URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Analyzer turns posts that carry screenshot media into structured
// PNL cards.
type Analyzer struct {
	fetcher   Fetcher
	extractor TextExtractor
	store     storage.PNLStore

	interval  time.Duration
	batchSize int
	logger    *logrus.Logger

	mu      sync.Mutex
	running bool
}

// AnalyzerConfig holds configuration for the PNL job.
type AnalyzerConfig struct {
	Fetcher   Fetcher
	Extractor TextExtractor
	Store     storage.PNLStore
	// Interval between batches. Defaults to 10 minutes.
	Interval time.Duration
	// BatchSize is the number of pending posts pulled per run.
	BatchSize int
	Logger    *logrus.Logger
}

func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = constants.SearchBatchSize
	}
	if cfg.Extractor == nil {
		cfg.Extractor = TesseractExtractor{}
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = NewDownloader(0)
	}

	return &Analyzer{
		fetcher:   cfg.Fetcher,
		extractor: cfg.Extractor,
		store:     cfg.Store,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
	}
}

// Start processes batches until the context is canceled.
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

	a.logger.WithField("interval", a.interval).Info("starting PNL analysis")

	if _, err := a.RunOnce(ctx); err != nil {
		a.logger.WithError(err).Error("PNL analysis error")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := a.RunOnce(ctx); err != nil {
				a.logger.WithError(err).Error("PNL analysis error")
			}
		}
	}
}

// RunOnce analyzes one batch of posts with screenshot media. Every post
// gets a card, even on failure, so it is not retried forever. Returns
// the number of successful cards.
func (a *Analyzer) RunOnce(ctx context.Context) (int, error) {
	posts, err := a.store.ListUnanalyzed(ctx, a.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending posts: %w", err)
	}
	if len(posts) == 0 {
		return 0, nil
	}

	a.logger.WithField("count", len(posts)).Info("analyzing screenshots")

	succeeded := 0
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return succeeded, err
		}

		card := a.analyzePost(ctx, post)
		if err := a.store.InsertCard(ctx, card); err != nil {
			a.logger.WithError(err).WithField("post_id", post.PostID).Error("failed to store card")
			continue
		}
		if card.Status == constants.PNLStatusSuccess {
			succeeded++
		}
	}

	a.logger.WithFields(logrus.Fields{
		"succeeded": succeeded,
		"total":     len(posts),
	}).Info("PNL analysis finished")

	return succeeded, nil
}

// analyzePost downloads, OCRs and parses a single screenshot.
func (a *Analyzer) analyzePost(ctx context.Context, post *models.Post) *models.PNLCard {
	card := &models.PNLCard{
		PostID:     post.PostID,
		ProjectTag: post.ProjectTag,
		AnalyzedAt: time.Now().UTC(),
	}
	log := a.logger.WithField("post_id", post.PostID)

	image, err := a.fetcher.Fetch(ctx, post.MediaURL)
	if err != nil {
		log.WithError(err).Warn("media download failed")
		card.Status = constants.PNLStatusDownloadFailed
		return card
	}

	text, err := a.extractor.ExtractText(image)
	if err != nil {
		log.WithError(err).Warn("OCR failed")
		card.Status = constants.PNLStatusOCRFailed
		return card
	}
	// Tesseract returns empty text without an error on non-text images.
	if strings.TrimSpace(text) == "" {
		log.Warn("OCR returned no text")
		card.Status = constants.PNLStatusOCRFailed
		return card
	}

	card.Status = constants.PNLStatusSuccess
	card.ExtractedText = text

	extracted := Parse(text)
	card.TokenSymbol = extracted.TokenSymbol
	card.EntryPrice = extracted.EntryPrice
	card.ExitPrice = extracted.ExitPrice
	card.PNLPercent = extracted.PNLPercent

	return card
}
