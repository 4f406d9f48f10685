package ner

import (
	"fmt"

	"go.uber.org/zap"
)

// Factory creates entity providers based on configuration
type Factory struct {
	logger *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(logger *zap.Logger) *Factory {
	return &Factory{logger: logger}
}

// CreateProvider builds the configured provider, wrapped in the Redis cache
// when enabled. A cache that can't connect is skipped with a warning.
func (f *Factory) CreateProvider(config Config) (Provider, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	var provider Provider
	switch config.Provider {
	case "", HeuristicProviderType:
		provider = NewHeuristicProvider(f.logger)
		f.logger.Debug("Created heuristic entity provider")
	case OnnxProviderType:
		tokenizer, err := LoadVocab(config.Model.VocabPath, config.Model.Lowercase)
		if err != nil {
			return nil, &ProviderError{Type: ErrTypeConfig, Message: err.Error(), Code: 400}
		}
		classifier := NewTokenClassifier(f.logger, config.Model.ModelPath)
		if classifier == nil {
			return nil, &ProviderError{
				Type:    ErrTypeUnavailable,
				Message: "onnx provider unavailable: build with -tags onnx and set ONNXRUNTIME_SHARED_LIB",
				Code:    503,
			}
		}
		mp, err := NewModelProvider(tokenizer, classifier, config.Model, f.logger)
		if err != nil {
			classifier.Close()
			return nil, err
		}
		provider = mp
		f.logger.Info("Created ONNX entity provider", zap.String("model", config.Model.ModelPath))
	}

	if config.Cache.Enabled {
		cached, err := NewCachedProvider(provider, config.Cache, f.logger)
		if err != nil {
			f.logger.Warn("Redis connection failed, entity cache disabled", zap.Error(err))
			return provider, nil
		}
		return cached, nil
	}
	return provider, nil
}

// ValidateConfig validates the provider configuration
func ValidateConfig(config Config) error {
	switch config.Provider {
	case "", HeuristicProviderType:
	case OnnxProviderType:
		if config.Model.ModelPath == "" {
			return &ProviderError{Type: ErrTypeConfig, Message: "model_path is required for the onnx provider", Code: 400}
		}
		if config.Model.VocabPath == "" {
			return &ProviderError{Type: ErrTypeConfig, Message: "vocab_path is required for the onnx provider", Code: 400}
		}
	default:
		return &ProviderError{
			Type:    ErrTypeConfig,
			Message: fmt.Sprintf("invalid provider: %s (must be one of: heuristic, onnx)", config.Provider),
			Code:    400,
		}
	}

	if config.Cache.Enabled && config.Cache.RedisURL == "" {
		return &ProviderError{Type: ErrTypeConfig, Message: "redis_url is required when the entity cache is enabled", Code: 400}
	}
	return nil
}

// Options derives suggestion bounds from config, falling back to defaults.
func (c Config) Options() SuggestOptions {
	opts := DefaultSuggestOptions()
	if c.MaxPersonTokens > 0 {
		opts.MaxPersonTokens = c.MaxPersonTokens
	}
	if c.MaxCompanyTokens > 0 {
		opts.MaxCompanyTokens = c.MaxCompanyTokens
	}
	return opts
}
