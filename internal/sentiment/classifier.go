package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/dugtrio-labs/dugtrio/internal/constants"
)

// ClassifierConfig holds configuration for the sentiment classifier.
type ClassifierConfig struct {
	// OpenRouter / LLM settings.
	OpenRouterAPIKey string
	// Model name as understood by OpenRouter, e.g. "openai/gpt-4.1-mini".
	Model string

	Logger *logrus.Logger
}

// Classifier labels post text as positive, neutral or negative using an LLM.
type Classifier struct {
	llm    llms.Model
	logger *logrus.Logger
}

// NewClassifier creates a Classifier backed by OpenRouter.
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}

	if cfg.Model == "" {
		cfg.Model = "openai/gpt-4.1-mini"
	}

	llm, err := openai.New(
		openai.WithToken(cfg.OpenRouterAPIKey),
		openai.WithBaseURL("https://openrouter.ai/api/v1"),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter LLM: %w", err)
	}

	cfg.Logger.WithField("model", cfg.Model).Info("initialized sentiment classifier")

	return &Classifier{llm: llm, logger: cfg.Logger}, nil
}

// NewClassifierWithModel wraps an existing LLM. Used in tests.
func NewClassifierWithModel(llm llms.Model, logger *logrus.Logger) *Classifier {
	if logger == nil {
		logger = logrus.New()
	}
	return &Classifier{llm: llm, logger: logger}
}

// Result is one classification outcome.
type Result struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify labels a single piece of post text. The returned label is one
// of "positive", "neutral" or "negative" and the score is the model's
// confidence in [0, 1].
func (c *Classifier) Classify(ctx context.Context, text string) (*Result, error) {
	prompt := fmt.Sprintf(`
You are a crypto social-media sentiment classifier.

Classify the sentiment of the following post about a cryptocurrency project.

Rules:
- Respond with ONLY a JSON object, no explanation, no code fences.
- The object has exactly two fields: "label" and "score".
- "label" is one of "positive", "neutral" or "negative".
- "score" is your confidence in the label as a number between 0 and 1.
- Sarcasm about losses counts as negative. Shilling and excitement count as positive.

Post:
%s
`, text)

	resp, err := llms.GenerateFromSinglePrompt(
		ctx,
		c.llm,
		prompt,
		llms.WithMaxTokens(64),
	)
	if err != nil {
		return nil, fmt.Errorf("LLM classification failed: %w", err)
	}

	result, err := parseResult(resp)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"label": result.Label,
		"score": result.Score,
	}).Debug("classified post")

	return result, nil
}

// parseResult extracts the JSON object from the model output and
// normalizes the label.
func parseResult(raw string) (*Result, error) {
	s := strings.TrimSpace(raw)

	// Strip code fences the model sometimes adds despite instructions.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
		if strings.HasPrefix(strings.ToLower(s), "json") {
			s = s[4:]
		}
		if idx := strings.Index(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Tolerate prose around the object.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in model output: %q", raw)
	}

	var result Result
	if err := json.Unmarshal([]byte(s[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}

	result.Label = NormalizeLabel(result.Label)
	if result.Label == "" {
		return nil, fmt.Errorf("unrecognized sentiment label in model output: %q", raw)
	}
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 1 {
		result.Score = 1
	}

	return &result, nil
}

// NormalizeLabel maps raw model labels, including the LABEL_0/1/2 scheme
// used by hosted classification models, onto the canonical names.
// Returns "" for labels it does not recognize.
func NormalizeLabel(label string) string {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "LABEL_0", "NEGATIVE", "BEARISH":
		return constants.SentimentNegative
	case "LABEL_1", "NEUTRAL":
		return constants.SentimentNeutral
	case "LABEL_2", "POSITIVE", "BULLISH":
		return constants.SentimentPositive
	default:
		return ""
	}
}
