// Package watcher anonymizes transcripts dropped into an inbox directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// PromptSuffix marks files written by the watcher. They are never picked
// up as input.
const PromptSuffix = ".prompt.txt"

// Config configures the inbox watcher.
type Config struct {
	Inbox    string        `yaml:"inbox" mapstructure:"inbox"`
	Outbox   string        `yaml:"outbox" mapstructure:"outbox"`
	Patterns []string      `yaml:"patterns" mapstructure:"patterns"`
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// EventHandler handles one settled inbox file.
type EventHandler func(ctx context.Context, path string) error

// Watcher monitors an inbox tree and hands matching files to a handler, one
// at a time.
type Watcher struct {
	config  Config
	handler EventHandler
	logger  *zap.Logger
	fsw     *fsnotify.Watcher
}

// New watches config.Inbox and every directory below it.
func New(config Config, handler EventHandler, logger *zap.Logger) (*Watcher, error) {
	if config.Inbox == "" {
		return nil, errors.New("watcher requires an inbox directory")
	}
	if len(config.Patterns) == 0 {
		config.Patterns = []string{"**/*.txt"}
	}
	for _, p := range config.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid watch pattern: %q", p)
		}
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{config: config, handler: handler, logger: logger, fsw: fsw}
	if err := w.addTree(config.Inbox); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Match reports whether path, inside the inbox, is a transcript to process.
func (w *Watcher) Match(path string) bool {
	if strings.HasSuffix(path, PromptSuffix) {
		return false
	}
	rel, err := filepath.Rel(w.config.Inbox, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range w.config.Patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Scan handles the files already in the inbox and returns how many it
// processed successfully.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	var matches []string
	err := filepath.WalkDir(w.config.Inbox, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && w.Match(path) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan inbox: %w", err)
	}

	done := 0
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := w.handler(ctx, path); err != nil {
			w.logger.Error("Failed to process transcript", zap.String("file", path), zap.Error(err))
			continue
		}
		done++
	}
	return done, nil
}

// Start processes inbox events until ctx is cancelled. Writes to the same
// file are debounced so a transcript is handled once it settles.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("Inbox watcher started",
		zap.String("inbox", w.config.Inbox),
		zap.Strings("patterns", w.config.Patterns),
		zap.Duration("debounce", w.config.Debounce))

	pending := make(map[string]*time.Timer)
	ready := make(chan string, 16)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Inbox watcher stopped")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
					}
					continue
				}
			}

			if !w.Match(event.Name) {
				w.logger.Debug("Ignoring file", zap.String("file", event.Name))
				continue
			}

			if t, ok := pending[event.Name]; ok {
				t.Reset(w.config.Debounce)
				continue
			}
			name := event.Name
			pending[name] = time.AfterFunc(w.config.Debounce, func() {
				select {
				case ready <- name:
				case <-ctx.Done():
				}
			})

		case path := <-ready:
			delete(pending, path)
			w.logger.Info("New transcript detected", zap.String("file", path))
			if err := w.handler(ctx, path); err != nil {
				w.logger.Error("Failed to process transcript", zap.String("file", path), zap.Error(err))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// Stop closes the file watcher
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("add watch path: %w", err)
			}
		}
		return nil
	})
}
