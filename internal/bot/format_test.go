package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dugtrio-labs/dugtrio/internal/models"
)

func TestMood(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{75, "🚀 Very Bullish"},
		{60, "🚀 Very Bullish"},
		{50, "📈 Bullish"},
		{45, "📈 Bullish"},
		{40, "😐 Neutral"},
		{35, "😐 Neutral"},
		{30, "📉 Cautious"},
		{25, "📉 Cautious"},
		{10, "🐻 Bearish"},
		{0, "🐻 Bearish"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Mood(tt.pct), "pct %.0f", tt.pct)
	}
}

func TestCountLabels(t *testing.T) {
	posts := []*models.Post{
		{SentimentLabel: "positive"},
		{SentimentLabel: "positive"},
		{SentimentLabel: "negative"},
		{SentimentLabel: "neutral"},
		{SentimentLabel: "error"}, // skipped
		{SentimentLabel: ""},      // unlabeled, skipped
	}

	stats := CountLabels(posts)
	assert.Equal(t, 2, stats.Positive)
	assert.Equal(t, 1, stats.Neutral)
	assert.Equal(t, 1, stats.Negative)
	assert.Equal(t, 4, stats.Total)
	assert.InDelta(t, 50, stats.PositivePct(), 1e-9)
}

func TestCountLabelsEmpty(t *testing.T) {
	stats := CountLabels(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.PositivePct())
}

func TestFormatSummaryEscapesHTML(t *testing.T) {
	out := FormatSummary(&models.SentimentSummary{
		ProjectTag:  "solana",
		Label:       "Bullish",
		Score:       0.82,
		SampleCount: 12,
		RecentPosts: []string{"<script>alert(1)</script> to the moon"},
		GeneratedAt: time.Now(),
	})

	assert.Contains(t, out, "$SOLANA")
	assert.Contains(t, out, "Bullish")
	assert.Contains(t, out, "82%")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestFormatStatsNoData(t *testing.T) {
	out := FormatStats("bonk", SentimentStats{})
	assert.Contains(t, out, "$BONK")
	assert.Contains(t, out, "No labeled posts yet")
}

func TestFormatTrending(t *testing.T) {
	out := FormatTrending([]*models.TrendEntry{
		{ProjectTag: "solana", Mentions: 30, Score: 1.82},
		{ProjectTag: "bonk", Mentions: 8, Score: 0.5},
	})
	assert.Contains(t, out, "🥇 <b>$SOLANA</b>")
	assert.Contains(t, out, "🥈 <b>$BONK</b>")
	assert.Contains(t, out, "30 mentions")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "lo…", truncate("long text", 2))
}
