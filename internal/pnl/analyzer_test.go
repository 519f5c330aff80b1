package pnl

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/models"
)

type fakePNLStore struct {
	pending []*models.Post
	cards   []*models.PNLCard
}

func (f *fakePNLStore) ListUnanalyzed(ctx context.Context, limit int) ([]*models.Post, error) {
	return f.pending, nil
}

func (f *fakePNLStore) InsertCard(ctx context.Context, card *models.PNLCard) error {
	f.cards = append(f.cards, card)
	return nil
}

func (f *fakePNLStore) ListCards(ctx context.Context, projectTag string, limit int) ([]*models.PNLCard, error) {
	return f.cards, nil
}

type fakeFetcher struct {
	images map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	img, ok := f.images[url]
	if !ok {
		return nil, fmt.Errorf("download failed with status 404")
	}
	return img, nil
}

type fakeExtractor struct {
	texts map[string]string
}

func (f *fakeExtractor) ExtractText(image []byte) (string, error) {
	text, ok := f.texts[string(image)]
	if !ok {
		return "", fmt.Errorf("unreadable image")
	}
	return text, nil
}

func TestAnalyzerRunOnce(t *testing.T) {
	store := &fakePNLStore{
		pending: []*models.Post{
			{PostID: "1", ProjectTag: "solana", MediaURL: "https://img/ok"},
			{PostID: "2", ProjectTag: "solana", MediaURL: "https://img/missing"},
			{PostID: "3", ProjectTag: "bonk", MediaURL: "https://img/garbled"},
		},
	}
	a := NewAnalyzer(AnalyzerConfig{
		Fetcher: &fakeFetcher{images: map[string][]byte{
			"https://img/ok":      []byte("img-ok"),
			"https://img/garbled": []byte("img-garbled"),
		}},
		Extractor: &fakeExtractor{texts: map[string]string{
			"img-ok": "$sol entry: $20 exit: $30 pnl: +50%",
		}},
		Store:  store,
		Logger: logrus.New(),
	})

	succeeded, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, succeeded)
	require.Len(t, store.cards, 3)

	ok := store.cards[0]
	assert.Equal(t, constants.PNLStatusSuccess, ok.Status)
	assert.Equal(t, "sol", ok.TokenSymbol)
	assert.Equal(t, 20.0, ok.EntryPrice)
	assert.Equal(t, 30.0, ok.ExitPrice)
	assert.Equal(t, 50.0, ok.PNLPercent)
	assert.NotEmpty(t, ok.ExtractedText)
	assert.False(t, ok.AnalyzedAt.IsZero())

	assert.Equal(t, constants.PNLStatusDownloadFailed, store.cards[1].Status)
	assert.Empty(t, store.cards[1].ExtractedText)

	assert.Equal(t, constants.PNLStatusOCRFailed, store.cards[2].Status)
	assert.Equal(t, "bonk", store.cards[2].ProjectTag)
}

func TestAnalyzerEmptyOCRTextIsFailure(t *testing.T) {
	store := &fakePNLStore{
		pending: []*models.Post{
			{PostID: "1", ProjectTag: "wif", MediaURL: "https://img/blank"},
			{PostID: "2", ProjectTag: "wif", MediaURL: "https://img/spaces"},
		},
	}
	a := NewAnalyzer(AnalyzerConfig{
		Fetcher: &fakeFetcher{images: map[string][]byte{
			"https://img/blank":  []byte("img-blank"),
			"https://img/spaces": []byte("img-spaces"),
		}},
		// The engine reports no error on images without text, just
		// empty output.
		Extractor: &fakeExtractor{texts: map[string]string{
			"img-blank":  "",
			"img-spaces": " \n\t ",
		}},
		Store:  store,
		Logger: logrus.New(),
	})

	succeeded, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, succeeded)
	require.Len(t, store.cards, 2)

	for _, card := range store.cards {
		assert.Equal(t, constants.PNLStatusOCRFailed, card.Status)
		assert.Empty(t, card.ExtractedText)
		assert.Zero(t, card.PNLPercent)
	}
}

func TestAnalyzerEmptyQueue(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{
		Fetcher:   &fakeFetcher{},
		Extractor: &fakeExtractor{},
		Store:     &fakePNLStore{},
		Logger:    logrus.New(),
	})

	succeeded, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, succeeded)
}
