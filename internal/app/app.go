// Package app wires the configured store, engine, entity provider and
// session together for the command-line tools.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/config"
	"github.com/raaihank/meeting-sentinel/internal/logger"
	"github.com/raaihank/meeting-sentinel/internal/ner"
	"github.com/raaihank/meeting-sentinel/internal/privacy"
	"github.com/raaihank/meeting-sentinel/internal/session"
	"github.com/raaihank/meeting-sentinel/internal/store"
)

// App holds the services one command needs.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Session  *session.Session
	Provider string

	observers *fanout
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg *config.Config) (*logger.Logger, error) {
	lc := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if cfg.Logging.File.Enabled {
		lc.File = &logger.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		}
	}
	return logger.New(lc)
}

// Open initializes the store, the substitution engine, the entity provider
// and the session. A provider that fails to start is logged and left out,
// so everything except suggestions keeps working.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	log.Debug("Initializing storage", zap.String("backend", string(cfg.Storage.Backend)))
	st, err := store.Open(cfg.Storage, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engine, err := privacy.New(cfg.Anonymizer, log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize anonymizer: %w", err)
	}

	var providerName string
	provider, err := ner.NewFactory(log.Logger).CreateProvider(cfg.NER)
	if err != nil {
		log.Warn("Entity provider unavailable, suggestions disabled", zap.Error(err))
		provider = nil
	} else {
		providerName = provider.Name()
	}

	observers := &fanout{}
	deps := session.Deps{
		Store:          st,
		Engine:         engine,
		SuggestOptions: cfg.NER.Options(),
		Observer:       observers,
		Logger:         log,
	}
	if provider != nil {
		deps.Provider = provider
	}

	sess, err := session.New(ctx, deps)
	if err != nil {
		if provider != nil {
			provider.Close()
		}
		st.Close()
		return nil, err
	}

	return &App{
		Config:    cfg,
		Logger:    log,
		Session:   sess,
		Provider:  providerName,
		observers: observers,
	}, nil
}

// Observe adds o to the receivers of session events.
func (a *App) Observe(o session.Observer) {
	a.observers.add(o)
}

// Close releases the session and everything it owns.
func (a *App) Close() error {
	return a.Session.Close()
}
