package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/raaihank/meeting-sentinel/internal/ner"
	"github.com/raaihank/meeting-sentinel/internal/privacy"
	"github.com/raaihank/meeting-sentinel/internal/roster"
	"github.com/raaihank/meeting-sentinel/internal/store"
	"github.com/raaihank/meeting-sentinel/internal/summarizer"
	"github.com/raaihank/meeting-sentinel/internal/watcher"
)

// Config represents the main configuration structure
type Config struct {
	Storage    store.Config      `yaml:"storage" mapstructure:"storage"`
	Anonymizer privacy.Options   `yaml:"anonymizer" mapstructure:"anonymizer"`
	NER        ner.Config        `yaml:"ner" mapstructure:"ner"`
	Summarizer summarizer.Config `yaml:"summarizer" mapstructure:"summarizer"`
	Server     ServerConfig      `yaml:"server" mapstructure:"server"`
	WebSocket  WebSocketConfig   `yaml:"websocket" mapstructure:"websocket"`
	Watch      watcher.Config    `yaml:"watch" mapstructure:"watch"`
	Roster     roster.Config     `yaml:"roster" mapstructure:"roster"`
	Logging    LoggingConfig     `yaml:"logging" mapstructure:"logging"`

	v *viper.Viper
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string          `yaml:"host" mapstructure:"host"`
	Port         int             `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration   `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration   `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MaxBodyBytes int64           `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RateLimit    RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	Path            string        `yaml:"path" mapstructure:"path"`
	Username        string        `yaml:"username" mapstructure:"username"`
	Password        string        `yaml:"password" mapstructure:"password"`
	MaxConnections  int           `yaml:"max_connections" mapstructure:"max_connections"`
	ReadBufferSize  int           `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
	PingInterval    time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	PongTimeout     time.Duration `yaml:"pong_timeout" mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxMessageSize  int64         `yaml:"max_message_size" mapstructure:"max_message_size"`
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Events          EventsConfig  `yaml:"events" mapstructure:"events"`
}

// EventsConfig switches event families on the dashboard feed.
type EventsConfig struct {
	BroadcastSession     bool `yaml:"broadcast_session" mapstructure:"broadcast_session"`
	BroadcastRequests    bool `yaml:"broadcast_requests" mapstructure:"broadcast_requests"`
	BroadcastSystem      bool `yaml:"broadcast_system" mapstructure:"broadcast_system"`
	BroadcastConnections bool `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	Output string `yaml:"output" mapstructure:"output"` // stderr or stdout
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Storage: store.Config{
			Backend: store.BackendFile,
			File: store.FileConfig{
				Dir:          ".",
				NamesFile:    "names.json",
				NameMapFile:  "name_map.json",
				DefaultsFile: "defaults.json",
			},
			Postgres: store.PostgresConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 30 * time.Minute,
				ConnMaxIdleTime: 5 * time.Minute,
			},
		},
		Anonymizer: privacy.Options{
			Matching:           privacy.MatchLiteral,
			StablePlaceholders: false,
		},
		NER: ner.Config{
			Provider: ner.HeuristicProviderType,
			Model: ner.ModelConfig{
				ModelPath: "./models/bert-base-ner.onnx",
				VocabPath: "./models/vocab.txt",
				Labels:    ner.DefaultLabels,
				MaxLength: 512,
				BatchSize: 8,
			},
			Cache: ner.CacheConfig{
				Enabled:        false,
				RedisURL:       "redis://localhost:6379/0",
				MaxConnections: 10,
				MinIdleConns:   2,
				DefaultTTL:     24 * time.Hour,
				KeyPrefix:      "sentinel",
			},
			MaxPersonTokens:  2,
			MaxCompanyTokens: 3,
		},
		Summarizer: summarizer.Config{
			Model:   summarizer.DefaultModel,
			Timeout: 2 * time.Minute,
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			MaxBodyBytes: 10 << 20,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 10,
				Burst:             20,
				CleanupInterval:   5 * time.Minute,
			},
		},
		WebSocket: WebSocketConfig{
			Enabled:         true,
			Path:            "/ws",
			MaxConnections:  100,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingInterval:    54 * time.Second,
			PongTimeout:     60 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxMessageSize:  512,
			AllowedOrigins:  []string{"*"},
			Events: EventsConfig{
				BroadcastSession:     true,
				BroadcastRequests:    true,
				BroadcastSystem:      true,
				BroadcastConnections: true,
			},
		},
		Watch: watcher.Config{
			Inbox:    "./inbox",
			Outbox:   "./outbox",
			Patterns: []string{"**/*.txt", "**/*.vtt"},
			Debounce: 500 * time.Millisecond,
		},
		Roster: roster.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
	cfg.Logging.File.Path = "logs/sentinel.log"
	return cfg
}
