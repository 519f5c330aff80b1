package trends

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dugtrio-labs/dugtrio/internal/models"
	"github.com/dugtrio-labs/dugtrio/internal/storage"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name              string
		current, previous uint64
		want              float64
	}{
		{"spike from nothing", 10, 0, 10},
		{"doubled", 20, 10, 10.0 / 11.0},
		{"flat", 5, 5, 0},
		{"cooling off", 3, 9, -0.6},
		{"both zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.current, tt.previous), 1e-9)
		})
	}
}

type fakeTrendPostStore struct {
	storage.PostStore

	tags []string
	// counts[tag] = [current, previous]
	counts map[string][2]uint64
}

func (f *fakeTrendPostStore) ListProjectTags(ctx context.Context) ([]string, error) {
	return f.tags, nil
}

func (f *fakeTrendPostStore) CountMentions(ctx context.Context, tag string, from, to time.Time) (uint64, error) {
	c := f.counts[tag]
	// The current window ends at roughly time.Now, the previous one a
	// full window earlier.
	if time.Since(to) < time.Minute {
		return c[0], nil
	}
	return c[1], nil
}

type fakeTrendStore struct {
	replaced []*models.TrendEntry
}

func (f *fakeTrendStore) ReplaceTrending(ctx context.Context, entries []*models.TrendEntry) error {
	f.replaced = entries
	return nil
}

func (f *fakeTrendStore) ListTrending(ctx context.Context, limit int) ([]*models.TrendEntry, error) {
	return f.replaced, nil
}

func TestRunOnceRanksAndFilters(t *testing.T) {
	store := &fakeTrendPostStore{
		tags: []string{"solana", "jupiter", "bonk", "ghost"},
		counts: map[string][2]uint64{
			"solana":  {30, 10}, // (30-10)/11
			"jupiter": {8, 0},   // 8
			"bonk":    {4, 20},  // negative
			"ghost":   {0, 50},  // no current mentions, excluded
		},
	}
	trend := &fakeTrendStore{}

	a := NewAnalyzer(AnalyzerConfig{
		Store:  store,
		Trend:  trend,
		Logger: logrus.New(),
	})

	require.NoError(t, a.RunOnce(context.Background()))

	require.Len(t, trend.replaced, 3)
	assert.Equal(t, "jupiter", trend.replaced[0].ProjectTag)
	assert.Equal(t, "solana", trend.replaced[1].ProjectTag)
	assert.Equal(t, "bonk", trend.replaced[2].ProjectTag)
	assert.InDelta(t, 8, trend.replaced[0].Score, 1e-9)
	assert.Equal(t, uint64(30), trend.replaced[1].Mentions)
}

func TestRunOnceTruncatesLeaderboard(t *testing.T) {
	store := &fakeTrendPostStore{
		tags:   []string{"a", "b", "c"},
		counts: map[string][2]uint64{"a": {1, 0}, "b": {2, 0}, "c": {3, 0}},
	}
	trend := &fakeTrendStore{}

	a := NewAnalyzer(AnalyzerConfig{
		Store:  store,
		Trend:  trend,
		Top:    2,
		Logger: logrus.New(),
	})

	require.NoError(t, a.RunOnce(context.Background()))
	require.Len(t, trend.replaced, 2)
	assert.Equal(t, "c", trend.replaced[0].ProjectTag)
	assert.Equal(t, "b", trend.replaced[1].ProjectTag)
}
