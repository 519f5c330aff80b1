package constants

import "time"

// Redis keys
const (
	RedisKeyRecentPosts     = "posts:recent"
	RedisKeySentimentPrefix = "sentiment:"
	RedisKeyTrending        = "trending:latest"
)

// Redis Pub/Sub channels
const (
	PubSubChannelPosts         = "posts:all"
	PubSubChannelProjectPrefix = "posts:project:"
)

// Sentiment labels. The hosted model answers with LABEL_0/1/2; the
// classifier normalizes to these before anything is persisted.
const (
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"
	SentimentError    = "error"
)

// Limits
const (
	MaxRecentPosts  = 100
	SearchBatchSize = 50
	SearchWindow    = 24 * time.Hour
)

// Rate limiting
const (
	DelayBetweenClassifyCalls = 500 * time.Millisecond
)

// Trend analysis
const (
	TrendWindow = 4 * time.Hour
	TopTrending = 10
)

// PNL card analysis statuses
const (
	PNLStatusSuccess        = "success"
	PNLStatusDownloadFailed = "download_failed"
	PNLStatusOCRFailed      = "ocr_failed"
)

// DefaultProjects seeds the registry on first run. Queries follow the
// X API v2 recent-search syntax.
var DefaultProjects = map[string]string{
	"solana":  `"Solana" OR "$SOL" -is:retweet lang:en`,
	"jupiter": `"Jupiter Exchange" OR "$JUP" -is:retweet lang:en`,
	"pyth":    `"Pyth Network" OR "$PYTH" -is:retweet lang:en`,
	"bonk":    `"Bonk" OR "$BONK" -is:retweet lang:en`,
}
