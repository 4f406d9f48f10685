package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/raaihank/meeting-sentinel/internal/defaults"
	"github.com/raaihank/meeting-sentinel/internal/names"
	"github.com/raaihank/meeting-sentinel/internal/privacy"
)

var (
	// ErrNotFound means nothing has been persisted under that record yet.
	ErrNotFound = errors.New("record not found")
	// ErrCorrupt means a persisted record exists but can't be decoded.
	ErrCorrupt = errors.New("record is corrupt")
)

// Store persists the name lists, the most recent name map and the default
// texts. Every Save overwrites the previous record.
type Store interface {
	LoadNames(ctx context.Context) (names.List, error)
	SaveNames(ctx context.Context, list names.List) error

	LoadNameMap(ctx context.Context) (privacy.NameMap, error)
	SaveNameMap(ctx context.Context, m privacy.NameMap) error

	// LoadDefaults fills keys missing from the stored record with the
	// built-in values.
	LoadDefaults(ctx context.Context) (defaults.Text, error)
	SaveDefaults(ctx context.Context, text defaults.Text) error

	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFile     Backend = "file"
	BackendPostgres Backend = "postgres"
)

// storedDefaults distinguishes a missing key from an empty one.
type storedDefaults struct {
	PromptPrefix   *string `json:"prompt_prefix" yaml:"prompt_prefix" db:"prompt_prefix"`
	EmailIntro     *string `json:"email_intro" yaml:"email_intro" db:"email_intro"`
	EmailSignature *string `json:"email_signature" yaml:"email_signature" db:"email_signature"`
}

func (s storedDefaults) resolve() defaults.Text {
	text := defaults.Builtin()
	if s.PromptPrefix != nil {
		text.PromptPrefix = *s.PromptPrefix
	}
	if s.EmailIntro != nil {
		text.EmailIntro = *s.EmailIntro
	}
	if s.EmailSignature != nil {
		text.EmailSignature = *s.EmailSignature
	}
	return text
}

func toStored(t defaults.Text) storedDefaults {
	return storedDefaults{
		PromptPrefix:   &t.PromptPrefix,
		EmailIntro:     &t.EmailIntro,
		EmailSignature: &t.EmailSignature,
	}
}

func corrupt(record string, err error) error {
	return fmt.Errorf("%s: %w: %v", record, ErrCorrupt, err)
}
