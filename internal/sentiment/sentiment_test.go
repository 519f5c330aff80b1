package sentiment

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/models"
	"github.com/dugtrio-labs/dugtrio/internal/storage"
)

// fakeLLM returns canned responses in order, then errors.
type fakeLLM struct {
	responses []string
	calls     int
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.calls >= len(f.responses) {
		return nil, fmt.Errorf("model unavailable")
	}
	resp := f.responses[f.calls]
	f.calls++
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: resp}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, nil, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func TestClassify(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"label": "positive", "score": 0.92}`}}
	c := NewClassifierWithModel(llm, logrus.New())

	result, err := c.Classify(context.Background(), "solana to the moon")
	require.NoError(t, err)
	assert.Equal(t, constants.SentimentPositive, result.Label)
	assert.InDelta(t, 0.92, result.Score, 0.001)
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantLabel string
		wantScore float64
		wantErr   bool
	}{
		{
			name:      "plain object",
			raw:       `{"label": "negative", "score": 0.8}`,
			wantLabel: constants.SentimentNegative,
			wantScore: 0.8,
		},
		{
			name:      "code fenced",
			raw:       "```json\n{\"label\": \"neutral\", \"score\": 0.55}\n```",
			wantLabel: constants.SentimentNeutral,
			wantScore: 0.55,
		},
		{
			name:      "hosted model label scheme",
			raw:       `{"label": "LABEL_2", "score": 0.97}`,
			wantLabel: constants.SentimentPositive,
			wantScore: 0.97,
		},
		{
			name:      "prose around object",
			raw:       `Sure! Here it is: {"label": "positive", "score": 0.7} Hope that helps.`,
			wantLabel: constants.SentimentPositive,
			wantScore: 0.7,
		},
		{
			name:      "score clamped to one",
			raw:       `{"label": "positive", "score": 1.4}`,
			wantLabel: constants.SentimentPositive,
			wantScore: 1,
		},
		{
			name:    "no object",
			raw:     "the sentiment is positive",
			wantErr: true,
		},
		{
			name:    "unknown label",
			raw:     `{"label": "confused", "score": 0.5}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseResult(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, result.Label)
			assert.InDelta(t, tt.wantScore, result.Score, 0.001)
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, constants.SentimentNegative, NormalizeLabel("LABEL_0"))
	assert.Equal(t, constants.SentimentNeutral, NormalizeLabel("label_1"))
	assert.Equal(t, constants.SentimentPositive, NormalizeLabel("LABEL_2"))
	assert.Equal(t, constants.SentimentPositive, NormalizeLabel(" Positive "))
	assert.Equal(t, "", NormalizeLabel("garbage"))
}

type fakeSentimentStore struct {
	storage.PostStore

	unlabeled []*models.Post
	updates   map[string]string
}

func (f *fakeSentimentStore) ListUnlabeled(ctx context.Context, limit int) ([]*models.Post, error) {
	return f.unlabeled, nil
}

func (f *fakeSentimentStore) UpdateSentiment(ctx context.Context, postID, label string, score float64) error {
	if f.updates == nil {
		f.updates = make(map[string]string)
	}
	f.updates[postID] = label
	return nil
}

func TestAnalyzerMarksFailuresAsError(t *testing.T) {
	store := &fakeSentimentStore{
		unlabeled: []*models.Post{
			{PostID: "1", Text: "good stuff"},
			{PostID: "2", Text: "model will fail on this one"},
		},
	}
	// One canned response, second call fails.
	llm := &fakeLLM{responses: []string{`{"label": "positive", "score": 0.9}`}}

	a := NewAnalyzer(AnalyzerConfig{
		Classifier: NewClassifierWithModel(llm, logrus.New()),
		Store:      store,
		Delay:      1, // effectively no delay in tests
		Logger:     logrus.New(),
	})

	labeled, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, labeled)
	assert.Equal(t, constants.SentimentPositive, store.updates["1"])
	assert.Equal(t, constants.SentimentError, store.updates["2"])
}

func TestAnalyzerEmptyBatch(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{
		Classifier: NewClassifierWithModel(&fakeLLM{}, logrus.New()),
		Store:      &fakeSentimentStore{},
		Logger:     logrus.New(),
	})

	labeled, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, labeled)
}
