// Package summarizer sends anonymized prompts to Gemini and returns the
// summary text.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// ErrNoKeys is returned when no API key is configured.
var ErrNoKeys = errors.New("no Gemini API keys configured")

// Config configures the Gemini client.
type Config struct {
	APIKeys []string      `yaml:"api_keys" mapstructure:"api_keys"`
	Model   string        `yaml:"model" mapstructure:"model"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// generator performs one generation call with one key.
type generator interface {
	Generate(ctx context.Context, apiKey, model, prompt string) (string, error)
}

// Summarizer rotates through API keys when one hits its quota.
type Summarizer struct {
	config Config
	gen    generator
	logger *zap.Logger

	mu         sync.Mutex
	currentKey int
}

// New creates a Gemini-backed summarizer.
func New(config Config, logger *zap.Logger) (*Summarizer, error) {
	return newSummarizer(config, geminiGenerator{}, logger)
}

func newSummarizer(config Config, gen generator, logger *zap.Logger) (*Summarizer, error) {
	keys := make([]string, 0, len(config.APIKeys))
	for _, k := range config.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	config.APIKeys = keys
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	return &Summarizer{config: config, gen: gen, logger: logger}, nil
}

// Summarize returns the model's answer to prompt. The prompt must already be
// anonymized.
func (s *Summarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	var lastErr error
	for range s.config.APIKeys {
		idx, key := s.key()

		text, err := s.gen.Generate(ctx, key, s.config.Model, prompt)
		if err == nil {
			s.logger.Info("Summary generated",
				zap.String("model", s.config.Model),
				zap.Int("prompt_chars", len(prompt)),
				zap.Int("summary_chars", len(text)),
			)
			return text, nil
		}
		if !isQuotaError(err) {
			return "", fmt.Errorf("generate content: %w", err)
		}

		s.logger.Warn("API key rate limited, rotating", zap.Int("key", idx+1))
		s.rotateKey()
		lastErr = err
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (s *Summarizer) key() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentKey, s.config.APIKeys[s.currentKey]
}

func (s *Summarizer) rotateKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentKey = (s.currentKey + 1) % len(s.config.APIKeys)
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

type geminiGenerator struct{}

func (geminiGenerator) Generate(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var b strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		return b.String(), nil
	}
	return "", errors.New("empty response from Gemini")
}
