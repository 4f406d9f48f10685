package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/raaihank/meeting-sentinel/internal/ner"
	"github.com/raaihank/meeting-sentinel/internal/privacy"
	"github.com/raaihank/meeting-sentinel/internal/store"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Seed viper with every default so SENTINEL_* overrides apply to keys
	// the config file doesn't mention.
	base, err := yaml.Marshal(GetDefaults())
	if err != nil {
		return nil, fmt.Errorf("failed to encode defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("$HOME/.meeting-sentinel/")

	// Environment variable overrides
	v.SetEnvPrefix("SENTINEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Use specific config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.MergeInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config, err := decode(v)
	if err != nil {
		return nil, err
	}
	config.v = v
	return config, nil
}

func decode(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(config.Summarizer.APIKeys) == 0 {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			config.Summarizer.APIKeys = []string{key}
		}
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// ConfigFile returns the file the configuration was read from, if any.
func (c *Config) ConfigFile() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if rl := config.Server.RateLimit; rl.Enabled && (rl.RequestsPerSecond <= 0 || rl.Burst < 1) {
		return fmt.Errorf("invalid rate limit: %.2f req/s, burst %d", rl.RequestsPerSecond, rl.Burst)
	}

	switch config.Storage.Backend {
	case store.BackendFile:
	case store.BackendPostgres:
		if config.Storage.Postgres.DatabaseURL == "" {
			return fmt.Errorf("storage.postgres.database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be file or postgres)", config.Storage.Backend)
	}

	if m := config.Anonymizer.Matching; m != privacy.MatchLiteral && m != privacy.MatchWordBoundary {
		return fmt.Errorf("invalid matching mode: %s (must be literal or word_boundary)", m)
	}

	if err := ner.ValidateConfig(config.NER); err != nil {
		return err
	}

	for _, p := range config.Watch.Patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid watch pattern: %q", p)
		}
	}

	if config.Logging.Level != "debug" && config.Logging.Level != "info" && config.Logging.Level != "warn" && config.Logging.Level != "error" {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	if config.Logging.Output != "stderr" && config.Logging.Output != "stdout" {
		return fmt.Errorf("invalid log output: %s (must be stderr or stdout)", config.Logging.Output)
	}

	return nil
}

// Watch reloads the configuration file on change and hands every valid
// version to callback. Invalid edits are logged and ignored.
func Watch(config *Config, logger *zap.Logger, callback func(*Config)) error {
	if config.v == nil || config.v.ConfigFileUsed() == "" {
		return errors.New("configuration was not loaded from a file")
	}
	v := config.v

	v.OnConfigChange(func(e fsnotify.Event) {
		newConfig, err := decode(v)
		if err != nil {
			logger.Warn("Ignoring invalid configuration change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		newConfig.v = v

		logger.Info("Configuration reloaded", zap.String("file", e.Name))
		callback(newConfig)
	})
	v.WatchConfig()

	return nil
}
