package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dugtrio-labs/dugtrio/internal/models"
)

func TestReportFromSummary(t *testing.T) {
	generated := time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC)
	report := ReportFromSummary(&models.SentimentSummary{
		ProjectTag:  "solana",
		Label:       "Bullish",
		Score:       0.81,
		SampleCount: 42,
		GeneratedAt: generated,
	})

	assert.Equal(t, "solana", report.Project)
	assert.Equal(t, "Bullish", report.Sentiment)
	assert.Equal(t, 0.81, report.Score)
	assert.Equal(t, generated.Unix(), report.Timestamp)
	assert.Equal(t, "DugTrio", report.Generator)
	assert.Equal(t, "Aggregated from 42 posts", report.Note)
}

func TestReportName(t *testing.T) {
	report := &Report{
		Project:   "bonk",
		Timestamp: time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC).Unix(),
	}
	// Tags are stored lowercase; the registration name carries the
	// uppercase cashtag.
	assert.Equal(t, "DugTrio Sentiment: $BONK - 2025-07-04T18:30:00Z", ReportName(report))
}
