package ner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ModelStats tracks inference counters for a ModelProvider.
type ModelStats struct {
	TotalInferences  int64         `json:"total_inferences"`
	TotalTokens      int64         `json:"total_tokens"`
	FailedRuns       int64         `json:"failed_runs"`
	AvgInferenceTime time.Duration `json:"avg_inference_time"`
}

// ModelProvider runs a token classifier over WordPiece windows and decodes
// the BIO tags into entities.
type ModelProvider struct {
	tokenizer  *WordPieceTokenizer
	classifier TokenClassifier
	labels     []string
	config     ModelConfig
	logger     *zap.Logger

	mu    sync.Mutex
	stats ModelStats
}

// NewModelProvider wires a tokenizer and a classifier together.
func NewModelProvider(tokenizer *WordPieceTokenizer, classifier TokenClassifier, config ModelConfig, logger *zap.Logger) (*ModelProvider, error) {
	if tokenizer == nil {
		return nil, &ProviderError{Type: ErrTypeConfig, Message: "tokenizer is required", Code: 400}
	}
	if classifier == nil || !classifier.IsReady() {
		return nil, &ProviderError{Type: ErrTypeUnavailable, Message: "token classifier is not available", Code: 503}
	}
	if config.MaxLength <= 2 {
		config.MaxLength = 512
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 8
	}
	labels := config.Labels
	if len(labels) == 0 {
		labels = DefaultLabels
	}

	return &ModelProvider{
		tokenizer:  tokenizer,
		classifier: classifier,
		labels:     labels,
		config:     config,
		logger:     logger,
	}, nil
}

// Name identifies the provider in logs and cache keys.
func (p *ModelProvider) Name() string {
	return string(OnnxProviderType)
}

// ExtractEntities tokenizes text, classifies it in batches and decodes spans.
func (p *ModelProvider) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	start := time.Now()

	tokens := p.tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	windows := p.tokenizer.Windows(tokens, p.config.MaxLength)

	predictions := make([][]int, 0, len(windows))
	for i := 0; i < len(windows); i += p.config.BatchSize {
		end := i + p.config.BatchSize
		if end > len(windows) {
			end = len(windows)
		}
		batch := p.tokenizer.Pad(windows[i:end])
		preds, err := p.classifier.Classify(ctx, batch)
		if err != nil {
			p.recordFailure()
			return nil, &ProviderError{Type: ErrTypeInference, Message: fmt.Sprintf("token classification failed: %v", err), Code: 500}
		}
		if len(preds) != len(batch) {
			p.recordFailure()
			return nil, &ProviderError{Type: ErrTypeInference, Message: fmt.Sprintf("classifier returned %d rows for %d windows", len(preds), len(batch)), Code: 500}
		}
		predictions = append(predictions, preds...)
	}

	entities := decodeBIO(text, windows, predictions, p.labels)
	p.recordSuccess(len(tokens), time.Since(start))

	p.logger.Debug("Model entity extraction complete",
		zap.Int("tokens", len(tokens)),
		zap.Int("windows", len(windows)),
		zap.Int("entities", len(entities)),
		zap.Duration("duration", time.Since(start)),
	)
	return entities, nil
}

// Stats returns a snapshot of the inference counters.
func (p *ModelProvider) Stats() ModelStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Close releases the classifier.
func (p *ModelProvider) Close() error {
	return p.classifier.Close()
}

func (p *ModelProvider) recordSuccess(tokens int, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.TotalInferences++
	p.stats.TotalTokens += int64(tokens)
	n := time.Duration(p.stats.TotalInferences)
	p.stats.AvgInferenceTime = (p.stats.AvgInferenceTime*(n-1) + d) / n
}

func (p *ModelProvider) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.FailedRuns++
}
