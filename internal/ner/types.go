package ner

import (
	"context"
	"time"
)

// Entity labels understood by Suggest. Providers may emit others; they are
// ignored.
const (
	LabelPerson = "PERSON"
	LabelOrg    = "ORG"
	LabelGPE    = "GPE"
	LabelMisc   = "MISC"
)

// Entity is a named span found in a text. Start and End are byte offsets.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Provider extracts named entities from free text.
type Provider interface {
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)
	Name() string
	Close() error
}

// ProviderType selects a Provider implementation.
type ProviderType string

const (
	// HeuristicProviderType finds capitalized runs and classifies them with
	// suffix and gazetteer rules. Pure Go, no model files.
	HeuristicProviderType ProviderType = "heuristic"
	// OnnxProviderType runs a BERT token-classification model. Needs the onnx
	// build tag.
	OnnxProviderType ProviderType = "onnx"
)

// ModelConfig contains token classification model configuration
type ModelConfig struct {
	ModelPath string   `yaml:"model_path" mapstructure:"model_path"` // "./models/bert-base-ner.onnx"
	VocabPath string   `yaml:"vocab_path" mapstructure:"vocab_path"` // "./models/vocab.txt"
	Labels    []string `yaml:"labels" mapstructure:"labels"`         // id2label, in model order
	Lowercase bool     `yaml:"lowercase" mapstructure:"lowercase"`
	MaxLength int      `yaml:"max_length" mapstructure:"max_length"` // 512
	BatchSize int      `yaml:"batch_size" mapstructure:"batch_size"` // 8
}

// CacheConfig contains Redis result cache configuration
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// Config selects and configures the entity provider.
type Config struct {
	Provider         ProviderType `yaml:"provider" mapstructure:"provider"`
	Model            ModelConfig  `yaml:"model" mapstructure:"model"`
	Cache            CacheConfig  `yaml:"cache" mapstructure:"cache"`
	MaxPersonTokens  int          `yaml:"max_person_tokens" mapstructure:"max_person_tokens"`
	MaxCompanyTokens int          `yaml:"max_company_tokens" mapstructure:"max_company_tokens"`
}

// DefaultLabels is the id2label table of the common CoNLL-03 BERT NER models.
var DefaultLabels = []string{"O", "B-MISC", "I-MISC", "B-PER", "I-PER", "B-ORG", "I-ORG", "B-LOC", "I-LOC"}

// ProviderError carries a machine-readable failure type.
type ProviderError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *ProviderError) Error() string {
	return e.Message
}

const (
	ErrTypeUnavailable = "backend_unavailable"
	ErrTypeConfig      = "invalid_config"
	ErrTypeInference   = "inference_failed"
)
