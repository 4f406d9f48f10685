// Package session owns the working state of one anonymization session: the
// known names, the default texts, the current transcript and the most
// recent name map. Every exported method is one user action and either
// completes or leaves the state unchanged.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/defaults"
	"github.com/raaihank/meeting-sentinel/internal/email"
	"github.com/raaihank/meeting-sentinel/internal/logger"
	"github.com/raaihank/meeting-sentinel/internal/names"
	"github.com/raaihank/meeting-sentinel/internal/ner"
	"github.com/raaihank/meeting-sentinel/internal/privacy"
	"github.com/raaihank/meeting-sentinel/internal/store"
)

// Deps are the collaborators a Session needs. Store, Engine and Logger are
// required; Provider and Observer are optional.
type Deps struct {
	Store          store.Store
	Engine         *privacy.Engine
	Provider       ner.Provider
	SuggestOptions ner.SuggestOptions
	Observer       Observer
	Logger         *logger.Logger
}

// Session serializes actions with a mutex so there is one writer at a time.
type Session struct {
	deps   Deps
	logger *logger.Logger

	mu         sync.Mutex
	names      names.List
	text       defaults.Text
	transcript string
	// lastMap is the map issued by the latest anonymization in this session.
	lastMap privacy.NameMap
}

// New loads the stored names and defaults. Missing or unreadable records are
// logged and replaced with empty lists and the built-in texts.
func New(ctx context.Context, deps Deps) (*Session, error) {
	if deps.Store == nil {
		return nil, errors.New("session requires a store")
	}
	if deps.Engine == nil {
		return nil, errors.New("session requires a substitution engine")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}

	s := &Session{
		deps:   deps,
		logger: deps.Logger.WithComponent("session"),
		text:   defaults.Builtin(),
	}

	list, err := deps.Store.LoadNames(ctx)
	switch {
	case err == nil:
		s.names = list
	case errors.Is(err, store.ErrNotFound):
		s.logger.Debug("No saved names, starting empty")
	default:
		s.logger.Warn("Could not load saved names, starting empty", zap.Error(err))
	}

	text, err := deps.Store.LoadDefaults(ctx)
	switch {
	case err == nil:
		s.text = text
	case errors.Is(err, store.ErrNotFound):
		s.logger.Debug("No saved defaults, using built-ins")
	default:
		s.logger.Warn("Could not load saved defaults, using built-ins", zap.Error(err))
	}

	s.logger.Info("Session ready",
		zap.Int("people", len(s.names.People)),
		zap.Int("companies", len(s.names.Companies)),
	)
	return s, nil
}

// Close releases the store and the entity provider.
func (s *Session) Close() error {
	var errs []error
	if s.deps.Provider != nil {
		if err := s.deps.Provider.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.deps.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SetTranscript replaces the working transcript.
func (s *Session) SetTranscript(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = text
}

// LoadTranscript reads a UTF-8 transcript file into the session.
func (s *Session) LoadTranscript(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ioError("load transcript", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = string(data)
	s.logger.Info("Transcript loaded", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// Transcript returns the working transcript.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Names returns a copy of the known names.
func (s *Session) Names() names.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names.Clone()
}

// SetNames persists list and makes it current.
func (s *Session) SetNames(ctx context.Context, list names.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setNames(ctx, "save names", list)
}

// EditNames parses the comma-separated edit form and saves the result.
func (s *Session) EditNames(ctx context.Context, peopleText, companiesText string) error {
	list := names.List{
		People:    names.ParseCommaList(peopleText),
		Companies: names.ParseCommaList(companiesText),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setNames(ctx, "edit names", list)
}

// ImportCSV replaces both lists with the two-line CSV in data.
func (s *Session) ImportCSV(ctx context.Context, data []byte) error {
	list, err := names.ParseCSV(data)
	if err != nil {
		return inputError("import names", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setNames(ctx, "import names", list)
}

// ExportCSV writes the lists in the two-line CSV format.
func (s *Session) ExportCSV(w io.Writer) error {
	s.mu.Lock()
	list := s.names.Clone()
	s.mu.Unlock()

	if err := names.WriteCSV(w, list); err != nil {
		return ioError("export names", err)
	}
	return nil
}

// AcceptSuggestions appends the chosen suggestions to the lists, dropping
// names that are already known, and saves them.
func (s *Session) AcceptSuggestions(ctx context.Context, people, companies []string) (names.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.names.Merge(people, companies)
	if err := s.setNames(ctx, "accept suggestions", merged); err != nil {
		return names.List{}, err
	}
	return merged.Clone(), nil
}

func (s *Session) setNames(ctx context.Context, action string, list names.List) error {
	list = list.Clone()
	if list.People == nil {
		list.People = []string{}
	}
	if list.Companies == nil {
		list.Companies = []string{}
	}

	if err := s.deps.Store.SaveNames(ctx, list); err != nil {
		return ioError(action, err)
	}
	s.names = list

	s.logger.Info("Names saved",
		zap.String("action", action),
		zap.Int("people", len(list.People)),
		zap.Int("companies", len(list.Companies)),
	)
	s.emit(EventNamesUpdated, map[string]interface{}{
		"people":    len(list.People),
		"companies": len(list.Companies),
	})
	return nil
}

// Defaults returns the current prompt and email texts.
func (s *Session) Defaults() defaults.Text {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// UpdateDefaults trims and saves text.
func (s *Session) UpdateDefaults(ctx context.Context, text defaults.Text) (defaults.Text, error) {
	text = text.Trimmed()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deps.Store.SaveDefaults(ctx, text); err != nil {
		return defaults.Text{}, ioError("save defaults", err)
	}
	s.text = text

	s.logger.Info("Defaults saved")
	s.emit(EventDefaultsUpdated, nil)
	return text, nil
}

// Anonymize replaces known names in the current transcript and persists the
// name map needed to reverse it.
func (s *Session) Anonymize(ctx context.Context) (privacy.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anonymize(ctx, s.transcript)
}

// AnonymizeText anonymizes text and, on success, makes it the current
// transcript.
func (s *Session) AnonymizeText(ctx context.Context, text string) (privacy.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.anonymize(ctx, text)
	if err != nil {
		return privacy.Result{}, err
	}
	s.transcript = text
	return result, nil
}

func (s *Session) anonymize(ctx context.Context, transcript string) (privacy.Result, error) {
	const action = "anonymize"

	if strings.TrimSpace(transcript) == "" {
		return privacy.Result{}, inputError(action, ErrEmptyTranscript)
	}
	if len(s.names.People) == 0 || len(s.names.Companies) == 0 {
		return privacy.Result{}, inputError(action, ErrEmptyNames)
	}

	var prior privacy.NameMap
	if s.deps.Engine.Options().StablePlaceholders {
		m, err := s.deps.Store.LoadNameMap(ctx)
		switch {
		case err == nil:
			prior = m
		case errors.Is(err, store.ErrNotFound):
		case s.lastMap != nil:
			s.logger.Warn("Unreadable name map, reusing the last one issued", zap.Error(err))
			prior = s.lastMap
		default:
			s.logger.Warn("Ignoring unreadable name map, placeholders restart at 0", zap.Error(err))
		}
	}

	result := s.deps.Engine.Anonymize(transcript, s.names, prior)

	if err := s.deps.Store.SaveNameMap(ctx, result.NameMap); err != nil {
		return privacy.Result{}, ioError(action, err)
	}
	s.lastMap = result.NameMap

	placeholders := make([]string, 0, len(result.Findings))
	for _, f := range result.Findings {
		placeholders = append(placeholders, f.Placeholder)
	}
	s.logger.Info("Transcript anonymized",
		zap.Int("placeholders", len(result.NameMap)),
		zap.Strings("matched", placeholders),
	)
	s.emit(EventAnonymized, map[string]interface{}{
		"placeholders": len(result.NameMap),
		"matched":      placeholders,
		"chars":        len(result.Text),
	})
	return result, nil
}

// BuildPrompt prepends the prompt prefix to an anonymized transcript.
func (s *Session) BuildPrompt(anonymized string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.PromptPrefix + "\n\n" + anonymized
}

// Deanonymize restores real names in a summary using the most recently
// persisted name map.
func (s *Session) Deanonymize(ctx context.Context, text string) (privacy.RestoreResult, error) {
	const action = "deanonymize"

	if strings.TrimSpace(text) == "" {
		return privacy.RestoreResult{}, inputError(action, ErrEmptyText)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.deps.Store.LoadNameMap(ctx)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrCorrupt):
		return privacy.RestoreResult{}, dataError(action, fmt.Errorf("no usable name map, anonymize a transcript first: %w", err))
	default:
		return privacy.RestoreResult{}, ioError(action, err)
	}

	if !s.deps.Engine.Options().StablePlaceholders {
		if stale := privacy.StalePlaceholders(m, s.names); len(stale) > 0 {
			s.logger.Warn("Name map no longer matches the name lists", zap.Strings("placeholders", stale))
		}
	}

	result := s.deps.Engine.Restore(text, m)
	s.emit(EventDeanonymized, map[string]interface{}{
		"resolved":   result.Resolved,
		"unresolved": result.Unresolved,
	})
	return result, nil
}

// ComposeDraft wraps a restored summary in the email intro and signature.
// The current transcript rides along for attachment.
func (s *Session) ComposeDraft(summary string) (email.Draft, error) {
	if strings.TrimSpace(summary) == "" {
		return email.Draft{}, inputError("compose draft", ErrEmptyText)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := email.NewDraft(summary, s.text)
	d.Transcript = s.transcript
	return d, nil
}

// ExportDraft writes the composed draft as EML.
func (s *Session) ExportDraft(w io.Writer, summary string, attach bool) error {
	d, err := s.ComposeDraft(summary)
	if err != nil {
		return err
	}
	if err := email.WriteEML(w, d, attach); err != nil {
		return ioError("export draft", err)
	}
	return nil
}

// Suggest proposes names from the current transcript that are not yet in
// either list.
func (s *Session) Suggest(ctx context.Context) (ner.Suggestions, error) {
	const action = "suggest names"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deps.Provider == nil {
		return ner.Suggestions{}, ioError(action, ErrNoProvider)
	}
	if strings.TrimSpace(s.transcript) == "" {
		return ner.Suggestions{}, inputError(action, ErrEmptyTranscript)
	}

	sugg, err := ner.Suggest(ctx, s.deps.Provider, s.transcript, s.names, s.deps.SuggestOptions)
	if err != nil {
		return ner.Suggestions{}, ioError(action, err)
	}

	s.logger.Info("Name suggestions ready",
		zap.String("provider", s.deps.Provider.Name()),
		zap.Int("people", len(sugg.People)),
		zap.Int("companies", len(sugg.Companies)),
	)
	s.emit(EventSuggestions, map[string]interface{}{
		"people":    len(sugg.People),
		"companies": len(sugg.Companies),
	})
	return sugg, nil
}

func (s *Session) emit(t EventType, data map[string]interface{}) {
	if s.deps.Observer == nil {
		return
	}
	s.deps.Observer.OnEvent(Event{Type: t, Timestamp: time.Now(), Data: data})
}
