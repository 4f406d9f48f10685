package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/privacy"
)

// Anonymizer is the part of a session the prompt handler needs.
type Anonymizer interface {
	AnonymizeText(ctx context.Context, text string) (privacy.Result, error)
	BuildPrompt(anonymized string) string
}

// PromptHandler anonymizes each transcript and writes the prompt to
// <outbox>/<relative path without extension>.prompt.txt.
func PromptHandler(sess Anonymizer, config Config, logger *zap.Logger) EventHandler {
	return func(ctx context.Context, path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read transcript: %w", err)
		}

		result, err := sess.AnonymizeText(ctx, string(data))
		if err != nil {
			return err
		}

		out, err := OutputPath(config, path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("create outbox: %w", err)
		}
		if err := os.WriteFile(out, []byte(sess.BuildPrompt(result.Text)), 0o600); err != nil {
			return fmt.Errorf("write prompt: %w", err)
		}

		logger.Info("Prompt written",
			zap.String("transcript", path),
			zap.String("prompt", out),
			zap.Int("placeholders", len(result.NameMap)))
		return nil
	}
}

// OutputPath maps an inbox file onto its prompt file in the outbox.
func OutputPath(config Config, path string) (string, error) {
	rel, err := filepath.Rel(config.Inbox, path)
	if err != nil {
		return "", fmt.Errorf("transcript outside inbox: %w", err)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	outbox := config.Outbox
	if outbox == "" {
		outbox = config.Inbox
	}
	return filepath.Join(outbox, rel+PromptSuffix), nil
}
