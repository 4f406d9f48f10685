package store

import (
	"fmt"

	"go.uber.org/zap"
)

// Config selects and configures a backend.
type Config struct {
	Backend  Backend        `yaml:"backend" mapstructure:"backend"`
	File     FileConfig     `yaml:"file" mapstructure:"file"`
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// Open builds the configured Store.
func Open(config Config, logger *zap.Logger) (Store, error) {
	switch config.Backend {
	case "", BackendFile:
		return NewFileStore(config.File, logger)
	case BackendPostgres:
		if config.Postgres.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires database_url")
		}
		return NewPostgresStore(&config.Postgres, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", config.Backend)
	}
}
