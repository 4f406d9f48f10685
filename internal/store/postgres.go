package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/defaults"
	"github.com/raaihank/meeting-sentinel/internal/names"
	"github.com/raaihank/meeting-sentinel/internal/privacy"
)

// PostgresConfig contains database configuration
type PostgresConfig struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

const schema = `
CREATE TABLE IF NOT EXISTS sentinel_names (
	kind     TEXT    NOT NULL,
	position INTEGER NOT NULL,
	name     TEXT    NOT NULL,
	PRIMARY KEY (kind, position)
);
CREATE TABLE IF NOT EXISTS sentinel_name_map (
	placeholder TEXT PRIMARY KEY,
	original    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sentinel_defaults (
	id              INTEGER PRIMARY KEY,
	prompt_prefix   TEXT,
	email_intro     TEXT,
	email_signature TEXT
);`

const (
	kindPeople    = "people"
	kindCompanies = "companies"
)

type nameRow struct {
	Kind     string `db:"kind"`
	Position int    `db:"position"`
	Name     string `db:"name"`
}

type mapRow struct {
	Placeholder string `db:"placeholder"`
	Original    string `db:"original"`
}

// PostgresStore keeps the records in three small tables so several machines
// can share one roster.
type PostgresStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresStore connects and creates the tables if they are missing.
func NewPostgresStore(config *PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	store := &PostgresStore{
		db:     db,
		logger: logger,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	logger.Info("Postgres store initialized",
		zap.String("database_url", maskDatabaseURL(config.DatabaseURL)),
		zap.Int("max_open_conns", config.MaxOpenConns),
		zap.Int("max_idle_conns", config.MaxIdleConns))

	return store, nil
}

func (s *PostgresStore) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// LoadNames returns both lists ordered by position. An empty table reads as
// ErrNotFound.
func (s *PostgresStore) LoadNames(ctx context.Context) (names.List, error) {
	var rows []nameRow
	query := `SELECT kind, position, name FROM sentinel_names ORDER BY kind, position`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return names.List{}, fmt.Errorf("failed to load names: %w", err)
	}
	if len(rows) == 0 {
		return names.List{}, fmt.Errorf("sentinel_names: %w", ErrNotFound)
	}

	list := names.List{People: []string{}, Companies: []string{}}
	for _, r := range rows {
		switch r.Kind {
		case kindPeople:
			list.People = append(list.People, r.Name)
		case kindCompanies:
			list.Companies = append(list.Companies, r.Name)
		default:
			s.logger.Warn("Skipping name row with unknown kind", zap.String("kind", r.Kind))
		}
	}
	return list, nil
}

// SaveNames replaces both lists in one transaction.
func (s *PostgresStore) SaveNames(ctx context.Context, list names.List) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sentinel_names`); err != nil {
			return err
		}
		insert := `INSERT INTO sentinel_names (kind, position, name) VALUES ($1, $2, $3)`
		for i, p := range list.People {
			if _, err := tx.ExecContext(ctx, insert, kindPeople, i, p); err != nil {
				return err
			}
		}
		for i, c := range list.Companies {
			if _, err := tx.ExecContext(ctx, insert, kindCompanies, i, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadNameMap returns the last persisted map. An empty table reads as
// ErrNotFound.
func (s *PostgresStore) LoadNameMap(ctx context.Context) (privacy.NameMap, error) {
	var rows []mapRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT placeholder, original FROM sentinel_name_map`); err != nil {
		return nil, fmt.Errorf("failed to load name map: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sentinel_name_map: %w", ErrNotFound)
	}

	m := make(privacy.NameMap, len(rows))
	for _, r := range rows {
		m[r.Placeholder] = r.Original
	}
	return m, nil
}

// SaveNameMap replaces the stored map.
func (s *PostgresStore) SaveNameMap(ctx context.Context, m privacy.NameMap) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sentinel_name_map`); err != nil {
			return err
		}
		for p, original := range m {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sentinel_name_map (placeholder, original) VALUES ($1, $2)`, p, original); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadDefaults reads the single defaults row.
func (s *PostgresStore) LoadDefaults(ctx context.Context) (defaults.Text, error) {
	var stored storedDefaults
	err := s.db.GetContext(ctx, &stored,
		`SELECT prompt_prefix, email_intro, email_signature FROM sentinel_defaults WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return defaults.Builtin(), fmt.Errorf("sentinel_defaults: %w", ErrNotFound)
	}
	if err != nil {
		return defaults.Builtin(), fmt.Errorf("failed to load defaults: %w", err)
	}
	return stored.resolve(), nil
}

// SaveDefaults upserts the defaults row.
func (s *PostgresStore) SaveDefaults(ctx context.Context, text defaults.Text) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sentinel_defaults (id, prompt_prefix, email_intro, email_signature)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			prompt_prefix = EXCLUDED.prompt_prefix,
			email_intro = EXCLUDED.email_intro,
			email_signature = EXCLUDED.email_signature`,
		text.PromptPrefix, text.EmailIntro, text.EmailSignature)
	if err != nil {
		return fmt.Errorf("failed to save defaults: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("transaction failed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// maskDatabaseURL hides the password part of a DSN for logging.
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
