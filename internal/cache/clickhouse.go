package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/models"
)

// ClickHouseConfig holds connection settings for the analytics store.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

// ClickHouseStore persists posts, PNL cards and trending rows.
type ClickHouseStore struct {
	conn     driver.Conn
	database string
	logger   *logrus.Logger
}

func NewClickHouseStore(cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &ClickHouseStore{
		conn:     conn,
		database: cfg.Database,
		logger:   cfg.Logger,
	}, nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}

// --- posts ---

func (c *ClickHouseStore) InsertPost(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (
			post_id, text, author, created_at, project_tag,
			media_url, sentiment_label, sentiment_score, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		post.PostID,
		post.Text,
		post.Author,
		post.CreatedAt,
		post.ProjectTag,
		post.MediaURL,
		post.SentimentLabel,
		post.SentimentScore,
		post.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) FilterKnownIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	known := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return known, nil
	}

	rows, err := c.conn.Query(ctx,
		`SELECT DISTINCT post_id FROM posts WHERE post_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to filter known ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan post id: %w", err)
		}
		known[id] = true
	}

	return known, rows.Err()
}

func (c *ClickHouseStore) ListUnlabeled(ctx context.Context, limit int) ([]*models.Post, error) {
	query := `
		SELECT post_id, text, author, created_at, project_tag, media_url
		FROM posts
		WHERE sentiment_label = ''
		ORDER BY created_at
		LIMIT ?
	`

	rows, err := c.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlabeled posts: %w", err)
	}
	defer rows.Close()

	var out []*models.Post
	for rows.Next() {
		p := &models.Post{}
		if err := rows.Scan(&p.PostID, &p.Text, &p.Author, &p.CreatedAt, &p.ProjectTag, &p.MediaURL); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (c *ClickHouseStore) UpdateSentiment(ctx context.Context, postID, label string, score float64) error {
	// ClickHouse mutations are asynchronous; the sentiment job runs in
	// batches so eventual visibility is acceptable here.
	query := `ALTER TABLE posts UPDATE sentiment_label = ?, sentiment_score = ? WHERE post_id = ?`

	if err := c.conn.Exec(ctx, query, label, score, postID); err != nil {
		return fmt.Errorf("failed to update sentiment for %s: %w", postID, err)
	}
	return nil
}

func (c *ClickHouseStore) ListByProject(ctx context.Context, projectTag string, limit int) ([]*models.Post, error) {
	query := `
		SELECT post_id, text, author, created_at, project_tag, media_url,
		       sentiment_label, sentiment_score
		FROM posts
		WHERE project_tag = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	return c.queryPosts(ctx, query, projectTag, limit)
}

func (c *ClickHouseStore) ListLabeledByProject(ctx context.Context, projectTag string, limit int) ([]*models.Post, error) {
	query := `
		SELECT post_id, text, author, created_at, project_tag, media_url,
		       sentiment_label, sentiment_score
		FROM posts
		WHERE project_tag = ? AND sentiment_label NOT IN ('', 'error')
		ORDER BY created_at DESC
		LIMIT ?
	`
	return c.queryPosts(ctx, query, projectTag, limit)
}

func (c *ClickHouseStore) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var out []*models.Post
	for rows.Next() {
		p := &models.Post{}
		if err := rows.Scan(&p.PostID, &p.Text, &p.Author, &p.CreatedAt, &p.ProjectTag,
			&p.MediaURL, &p.SentimentLabel, &p.SentimentScore); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (c *ClickHouseStore) AvgSentimentScore(ctx context.Context, projectTag string) (float64, int, error) {
	query := `
		SELECT avg(sentiment_score), count()
		FROM posts
		WHERE project_tag = ? AND sentiment_label NOT IN ('', 'error')
	`

	var avg float64
	var count uint64
	if err := c.conn.QueryRow(ctx, query, projectTag).Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to query avg sentiment: %w", err)
	}
	if count == 0 {
		return 0, 0, nil
	}
	return avg, int(count), nil
}

func (c *ClickHouseStore) PositiveShareHistory(ctx context.Context, projectTag string, since time.Time) ([]*models.HistoryPoint, error) {
	query := `
		SELECT toDate(created_at) AS day,
		       countIf(sentiment_label = 'positive') * 100.0 / count() AS score
		FROM posts
		WHERE project_tag = ? AND created_at >= ?
		  AND sentiment_label NOT IN ('', 'error')
		GROUP BY day
		ORDER BY day
	`

	rows, err := c.conn.Query(ctx, query, projectTag, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []*models.HistoryPoint
	for rows.Next() {
		var day time.Time
		var score float64
		if err := rows.Scan(&day, &score); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, &models.HistoryPoint{Date: day.Format("2006-01-02"), Score: score})
	}

	return out, rows.Err()
}

func (c *ClickHouseStore) CountMentions(ctx context.Context, projectTag string, from, to time.Time) (uint64, error) {
	query := `
		SELECT count()
		FROM posts
		WHERE project_tag = ? AND created_at >= ? AND created_at < ?
	`

	var count uint64
	if err := c.conn.QueryRow(ctx, query, projectTag, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count mentions: %w", err)
	}
	return count, nil
}

func (c *ClickHouseStore) ListProjectTags(ctx context.Context) ([]string, error) {
	rows, err := c.conn.Query(ctx, `SELECT DISTINCT project_tag FROM posts WHERE project_tag != ''`)
	if err != nil {
		return nil, fmt.Errorf("failed to list project tags: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan project tag: %w", err)
		}
		out = append(out, tag)
	}

	return out, rows.Err()
}

// --- PNL cards ---

func (c *ClickHouseStore) ListUnanalyzed(ctx context.Context, limit int) ([]*models.Post, error) {
	query := `
		SELECT post_id, text, author, created_at, project_tag, media_url,
		       sentiment_label, sentiment_score
		FROM posts
		WHERE media_url != ''
		  AND post_id NOT IN (SELECT post_id FROM pnl_cards)
		ORDER BY created_at
		LIMIT ?
	`
	return c.queryPosts(ctx, query, limit)
}

func (c *ClickHouseStore) InsertCard(ctx context.Context, card *models.PNLCard) error {
	query := `
		INSERT INTO pnl_cards (
			post_id, project_tag, status, extracted_text,
			token_symbol, entry_price, exit_price, pnl_percent, analyzed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		card.PostID,
		card.ProjectTag,
		card.Status,
		card.ExtractedText,
		card.TokenSymbol,
		card.EntryPrice,
		card.ExitPrice,
		card.PNLPercent,
		card.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pnl card: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) ListCards(ctx context.Context, projectTag string, limit int) ([]*models.PNLCard, error) {
	query := `
		SELECT post_id, project_tag, status, extracted_text,
		       token_symbol, entry_price, exit_price, pnl_percent, analyzed_at
		FROM pnl_cards
		WHERE status = 'success'
	`
	args := []any{}
	if projectTag != "" {
		query += ` AND project_tag = ?`
		args = append(args, projectTag)
	}
	query += ` ORDER BY analyzed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pnl cards: %w", err)
	}
	defer rows.Close()

	var out []*models.PNLCard
	for rows.Next() {
		card := &models.PNLCard{}
		if err := rows.Scan(&card.PostID, &card.ProjectTag, &card.Status, &card.ExtractedText,
			&card.TokenSymbol, &card.EntryPrice, &card.ExitPrice, &card.PNLPercent, &card.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pnl card: %w", err)
		}
		out = append(out, card)
	}

	return out, rows.Err()
}

// --- trending ---

func (c *ClickHouseStore) ReplaceTrending(ctx context.Context, entries []*models.TrendEntry) error {
	if err := c.conn.Exec(ctx, `TRUNCATE TABLE trending`); err != nil {
		return fmt.Errorf("failed to truncate trending: %w", err)
	}

	batch, err := c.conn.PrepareBatch(ctx,
		`INSERT INTO trending (project_tag, mentions, score, computed_at)`)
	if err != nil {
		return fmt.Errorf("failed to prepare trending batch: %w", err)
	}

	for _, e := range entries {
		if err := batch.Append(e.ProjectTag, e.Mentions, e.Score, e.ComputedAt); err != nil {
			return fmt.Errorf("failed to append trending row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send trending batch: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) ListTrending(ctx context.Context, limit int) ([]*models.TrendEntry, error) {
	query := `
		SELECT project_tag, mentions, score, computed_at
		FROM trending
		ORDER BY score DESC
		LIMIT ?
	`

	rows, err := c.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trending: %w", err)
	}
	defer rows.Close()

	var out []*models.TrendEntry
	for rows.Next() {
		e := &models.TrendEntry{}
		if err := rows.Scan(&e.ProjectTag, &e.Mentions, &e.Score, &e.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trending row: %w", err)
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
