package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raaihank/meeting-sentinel/internal/clipboard"
)

type cli struct {
	dir  string
	conf string
	out  *bytes.Buffer
	clip *clipboard.Memory
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	conf := filepath.Join(dir, "config.yaml")
	body := "storage:\n  file:\n    dir: " + dir + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(conf, []byte(body), 0o644))

	c := &cli{dir: dir, conf: conf, out: &bytes.Buffer{}, clip: &clipboard.Memory{}}

	oldClip, oldOut, oldIn := clip, stdout, stdin
	clip, stdout = c.clip, c.out
	t.Cleanup(func() { clip, stdout, stdin = oldClip, oldOut, oldIn })
	return c
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	c.out.Reset()
	rootCmd.SetArgs(append([]string{"--config", c.conf}, args...))
	err := rootCmd.Execute()
	return c.out.String(), err
}

func (c *cli) file(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(c.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRoundTrip(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "names", "edit", "--people", "Alice Smith, Bob", "--companies", "Acme Corp")
	require.NoError(t, err)

	out, err := c.run(t, "anonymize", c.file(t, "t.txt", "Alice Smith and Bob met with Acme Corp today."))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Please summarize this meeting:"))
	assert.Contains(t, out, "Person_0 and Person_1 met with Company_0 today.")
	assert.NotContains(t, out, "Alice")

	stdin = strings.NewReader("👉 Person_0 owns the **Company_0** deal.\n\n\n\nPerson_1 follows up.")
	out, err = c.run(t, "restore", "-")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith owns the **Acme Corp** deal.\n\nBob follows up.\n", out)
}

func TestClipboardFlow(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "names", "add", "-p", "Alice", "-o", "Acme")
	require.NoError(t, err)

	require.NoError(t, c.clip.Write("Alice joined from Acme."))
	_, err = c.run(t, "anonymize", "--copy", "--bare")
	require.NoError(t, err)
	got, _ := c.clip.Read()
	assert.Equal(t, "Person_0 joined from Company_0.", got)

	require.NoError(t, c.clip.Write("Person_0 leads Company_0."))
	out, err := c.run(t, "restore", "--draft")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Subject: Meeting Summary\n\nHi Team,"))
	assert.Contains(t, out, "Alice leads Acme.")
}

func TestEmptyClipboard(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "restore")
	assert.ErrorIs(t, err, clipboard.ErrEmpty)
}

func TestRestoreWithoutMap(t *testing.T) {
	c := newCLI(t)
	stdin = strings.NewReader("Person_0")
	_, err := c.run(t, "restore", "-")
	assert.ErrorContains(t, err, "anonymize a transcript first")
}

func TestNamesImportExport(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "names", "import", c.file(t, "names.csv", "Alice,Bob\nAcme\n"))
	require.NoError(t, err)

	out, err := c.run(t, "names", "export")
	require.NoError(t, err)
	assert.Equal(t, "Alice,Bob\nAcme\n", out)

	out, err = c.run(t, "names", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "People (2):    Alice, Bob")

	_, err = c.run(t, "names", "edit", "--companies", "Globex")
	require.NoError(t, err)
	out, err = c.run(t, "names", "export")
	require.NoError(t, err)
	assert.Equal(t, "Alice,Bob\nGlobex\n", out)

	_, err = c.run(t, "names", "import")
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "defaults", "set", "--signature", "  Thanks!  ")
	require.NoError(t, err)

	out, err := c.run(t, "defaults", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"email_signature": "Thanks!"`)
	assert.Contains(t, out, `"prompt_prefix": "Please summarize this meeting:"`)
}

func TestDraftExports(t *testing.T) {
	c := newCLI(t)
	emlPath := filepath.Join(c.dir, "draft.eml")
	docxPath := filepath.Join(c.dir, "draft.docx")
	transcript := c.file(t, "t.txt", "the full transcript")

	_, err := c.run(t, "draft", c.file(t, "s.txt", "All done."), "--eml", emlPath, "--docx", docxPath, "--attach", transcript, "--to", "team@example.com")
	require.NoError(t, err)

	eml, err := os.ReadFile(emlPath)
	require.NoError(t, err)
	assert.Contains(t, string(eml), "To: team@example.com\r\n")
	assert.Contains(t, string(eml), "filename=transcript.txt")

	doc, err := os.ReadFile(docxPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("PK")))
}

func TestSuggestAccept(t *testing.T) {
	c := newCLI(t)
	transcript := c.file(t, "t.txt", "Yesterday Alice Smith called Acme Corp about the launch.")

	out, err := c.run(t, "suggest", transcript)
	require.NoError(t, err)
	assert.Contains(t, out, "Alice Smith")

	_, err = c.run(t, "suggest", transcript, "--accept")
	require.NoError(t, err)

	out, err = c.run(t, "suggest", transcript)
	require.NoError(t, err)
	assert.NotContains(t, out, "Alice Smith")
}

func TestVersion(t *testing.T) {
	c := newCLI(t)
	out, err := c.run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "meeting-sentinel "+version))
}
