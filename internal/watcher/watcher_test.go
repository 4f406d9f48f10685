package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/privacy"
)

type fakeSession struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeSession) AnonymizeText(_ context.Context, text string) (privacy.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return privacy.Result{}, f.err
	}
	f.texts = append(f.texts, text)
	return privacy.Result{Text: "anon:" + text, NameMap: privacy.NameMap{"Person_0": "x"}}, nil
}

func (f *fakeSession) BuildPrompt(anonymized string) string {
	return "Summarize:\n\n" + anonymized
}

func (f *fakeSession) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	root := t.TempDir()
	inbox := filepath.Join(root, "inbox")
	require.NoError(t, os.MkdirAll(filepath.Join(inbox, "team"), 0o755))
	return Config{
		Inbox:    inbox,
		Outbox:   filepath.Join(root, "outbox"),
		Patterns: []string{"**/*.txt", "**/*.vtt"},
		Debounce: 50 * time.Millisecond,
	}
}

func noop(context.Context, string) error { return nil }

func TestMatch(t *testing.T) {
	cfg := testConfig(t)
	w, err := New(cfg, noop, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(cfg.Inbox, "standup.txt"), true},
		{filepath.Join(cfg.Inbox, "team", "retro.vtt"), true},
		{filepath.Join(cfg.Inbox, "notes.md"), false},
		{filepath.Join(cfg.Inbox, "standup.prompt.txt"), false},
		{filepath.Join(cfg.Outbox, "other.txt"), false},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			assert.Equal(t, tt.want, w.Match(tt.path))
		})
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	cfg := testConfig(t)
	cfg.Patterns = []string{"[oops"}
	_, err := New(cfg, noop, zap.NewNop())
	assert.Error(t, err)

	_, err = New(Config{}, noop, zap.NewNop())
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	cfg := Config{Inbox: "/in", Outbox: "/out"}
	got, err := OutputPath(cfg, "/in/team/retro.vtt")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/out/team/retro.prompt.txt"), got)

	got, err = OutputPath(Config{Inbox: "/in"}, "/in/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/in/a.prompt.txt"), got)
}

func TestScanWritesPrompts(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Inbox, "standup.txt"), []byte("Alice spoke"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Inbox, "team", "retro.vtt"), []byte("Bob spoke"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Inbox, "readme.md"), []byte("ignored"), 0o644))

	sess := &fakeSession{}
	w, err := New(cfg, PromptHandler(sess, cfg, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	n, err := w.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := os.ReadFile(filepath.Join(cfg.Outbox, "standup.prompt.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Summarize:\n\nanon:Alice spoke", string(got))

	_, err = os.Stat(filepath.Join(cfg.Outbox, "team", "retro.prompt.txt"))
	assert.NoError(t, err)
}

func TestScanContinuesPastFailures(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Inbox, "a.txt"), []byte("x"), 0o644))

	sess := &fakeSession{err: errors.New("no names")}
	w, err := New(cfg, PromptHandler(sess, cfg, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	n, err := w.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStartProcessesNewFiles(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{}
	w, err := New(cfg, PromptHandler(sess, cfg, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	path := filepath.Join(cfg.Inbox, "team", "planning.txt")
	require.NoError(t, os.WriteFile(path, []byte("Carol spoke"), 0o644))

	out := filepath.Join(cfg.Outbox, "team", "planning.prompt.txt")
	require.Eventually(t, func() bool {
		_, err := os.Stat(out)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	// the prompt lands outside the inbox, so nothing loops
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Inbox, "ignored.md"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, sess.calls())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestStartWatchesNewDirectories(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{}
	w, err := New(cfg, PromptHandler(sess, cfg, zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	dir := filepath.Join(cfg.Inbox, "2026")
	require.NoError(t, os.Mkdir(dir, 0o755))
	// give the loop a moment to add the new directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "q3.txt"), []byte("Dan spoke"), 0o644))

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(cfg.Outbox, "2026", "q3.prompt.txt"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}
