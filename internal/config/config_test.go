package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raaihank/meeting-sentinel/internal/ner"
	"github.com/raaihank/meeting-sentinel/internal/privacy"
	"github.com/raaihank/meeting-sentinel/internal/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, validateConfig(GetDefaults()))
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  file:
    dir: /tmp/sentinel
anonymizer:
  matching: word_boundary
  stable_placeholders: true
ner:
  max_company_tokens: 4
server:
  port: 9090
  read_timeout: 5s
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile())
	assert.Equal(t, "/tmp/sentinel", cfg.Storage.File.Dir)
	assert.Equal(t, "names.json", cfg.Storage.File.NamesFile)
	assert.Equal(t, store.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, privacy.Options{Matching: privacy.MatchWordBoundary, StablePlaceholders: true}, cfg.Anonymizer)
	assert.Equal(t, 4, cfg.NER.MaxCompanyTokens)
	assert.Equal(t, 2, cfg.NER.MaxPersonTokens)
	assert.Equal(t, ner.HeuristicProviderType, cfg.NER.Provider)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"**/*.txt", "**/*.vtt"}, cfg.Watch.Patterns)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("SENTINEL_SERVER_PORT", "7070")
	t.Setenv("SENTINEL_LOGGING_FORMAT", "console")
	t.Setenv("SENTINEL_NER_CACHE_DEFAULT_TTL", "1h")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, time.Hour, cfg.NER.Cache.DefaultTTL)
}

func TestLoadGeminiKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "abc")
	cfg, err := Load(writeConfig(t, "logging:\n  level: info\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, cfg.Summarizer.APIKeys)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"rate limit", func(c *Config) { c.Server.RateLimit.Burst = 0 }},
		{"backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"postgres url", func(c *Config) { c.Storage.Backend = store.BackendPostgres }},
		{"matching", func(c *Config) { c.Anonymizer.Matching = "fuzzy" }},
		{"ner provider", func(c *Config) { c.NER.Provider = "spacy" }},
		{"watch pattern", func(c *Config) { c.Watch.Patterns = []string{"[unclosed"} }},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"log output", func(c *Config) { c.Logging.Output = "syslog" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	_, err := Load(writeConfig(t, "anonymizer:\n  matching: fuzzy\n"))
	assert.ErrorContains(t, err, "invalid matching mode")
}

func TestWatchRequiresFile(t *testing.T) {
	assert.Error(t, Watch(GetDefaults(), nil, func(*Config) {}))
}
