package models

import "time"

// Post is a single collected social post for a tracked project.
type Post struct {
	PostID         string    `json:"post_id"`
	Text           string    `json:"text"`
	Author         string    `json:"author"`
	CreatedAt      time.Time `json:"created_at"`
	ProjectTag     string    `json:"project_tag"`
	MediaURL       string    `json:"media_url,omitempty"`
	SentimentLabel string    `json:"sentiment_label,omitempty"`
	SentimentScore float64   `json:"sentiment_score,omitempty"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// PNLCard is the structured record derived from a profit/loss screenshot.
type PNLCard struct {
	PostID        string    `json:"post_id"`
	ProjectTag    string    `json:"project_tag"`
	Status        string    `json:"status"` // success, download_failed, ocr_failed
	ExtractedText string    `json:"extracted_text,omitempty"`
	TokenSymbol   string    `json:"token_symbol,omitempty"`
	EntryPrice    float64   `json:"entry_price,omitempty"`
	ExitPrice     float64   `json:"exit_price,omitempty"`
	PNLPercent    float64   `json:"pnl_percent,omitempty"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
}

// TrendEntry is one row of the trend-job output.
type TrendEntry struct {
	ProjectTag string    `json:"project_tag"`
	Mentions   uint64    `json:"mentions"`
	Score      float64   `json:"score"`
	ComputedAt time.Time `json:"computed_at"`
}

// SentimentSummary is the per-project aggregate served by the API and
// embedded in on-chain registrations.
type SentimentSummary struct {
	ProjectTag  string    `json:"project_tag"`
	Label       string    `json:"label"` // Bullish, Bearish, Neutral
	Score       float64   `json:"score"`
	SampleCount int       `json:"sample_count"`
	RecentPosts []string  `json:"recent_posts,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// HistoryPoint is one day of positive-share history for a project.
type HistoryPoint struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
}
