package email

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raaihank/meeting-sentinel/internal/defaults"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name      string
		summary   string
		intro     string
		signature string
		want      string
	}{
		{
			name:      "builtin wording",
			summary:   "Alice presented the roadmap.",
			intro:     defaults.EmailIntro,
			signature: defaults.EmailSignature,
			want: "Subject: Meeting Summary\n\nHi Team,\n\nHere are the notes from the recent meeting:\n\n" +
				"Alice presented the roadmap.\n\nPlease let me know if you have any additional questions",
		},
		{
			name:    "verbatim concatenation",
			summary: "x",
			intro:   "a",
			want:    "Subject: Meeting Summary\n\nax",
		},
		{
			name: "all empty",
			want: "Subject: Meeting Summary\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compose(tt.summary, tt.intro, tt.signature))
		})
	}
}

func TestNewDraft(t *testing.T) {
	d := NewDraft("S", defaults.Text{EmailIntro: "I-", EmailSignature: "-G"})
	assert.Equal(t, "I-S-G", d.Body())
	assert.Equal(t, Compose("S", "I-", "-G"), d.String())
}

func TestWriteEMLPlain(t *testing.T) {
	var buf bytes.Buffer
	d := Draft{Intro: "Hi,\n", Summary: "Notes", Signature: "\nBye"}
	require.NoError(t, WriteEML(&buf, d, false))

	assert.Equal(t,
		"To: \r\nSubject: Meeting Summary\r\nMIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n\r\nHi,\r\nNotes\r\nBye",
		buf.String())
}

func TestWriteEMLAttachment(t *testing.T) {
	var buf bytes.Buffer
	d := Draft{
		Intro:      "Hi,\n",
		Summary:    "Alice will follow up with Acme Corp.",
		Signature:  "\nBye",
		Transcript: "Alice: hello\nBob: hi",
	}
	require.NoError(t, WriteEML(&buf, d, true))

	assert.Contains(t, buf.String(), "\r\n--sep--")

	msg, err := mail.ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Meeting Summary", msg.Header.Get("Subject"))
	assert.Equal(t, "1.0", msg.Header.Get("MIME-Version"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)
	assert.Equal(t, "sep", params["boundary"])

	mr := multipart.NewReader(msg.Body, params["boundary"])

	body, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=UTF-8", body.Header.Get("Content-Type"))
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "Hi,\r\nAlice will follow up with Acme Corp.\r\nBye", string(data))

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "transcript.txt", att.FileName())
	assert.Equal(t, "text/plain; name=transcript.txt", att.Header.Get("Content-Type"))
	assert.Equal(t, "base64", att.Header.Get("Content-Transfer-Encoding"))
	data, err = io.ReadAll(base64.NewDecoder(base64.StdEncoding, att))
	require.NoError(t, err)
	assert.Equal(t, d.Transcript, string(data))

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteEMLDelimiterInContent(t *testing.T) {
	tests := []struct {
		name       string
		summary    string
		transcript string
	}{
		{"crlf transcript", "Short summary.", "Alice: notes\r\n--sep\r\nBob: the rest of the meeting"},
		{"closing delimiter", "Short summary.", "--sep--\nmore"},
		{"long transcript", "Short summary.", strings.Repeat("Alice talked about the launch plan. ", 20) + "\n--sep\n"},
		{"summary with delimiter", "Point one\n--sep\nPoint two", "Alice: hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			d := Draft{Summary: tt.summary, Transcript: tt.transcript}
			require.NoError(t, WriteEML(&buf, d, true))

			msg, err := mail.ReadMessage(&buf)
			require.NoError(t, err)
			_, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
			require.NoError(t, err)
			mr := multipart.NewReader(msg.Body, params["boundary"])

			var parts []string
			for {
				p, err := mr.NextPart()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				var r io.Reader = p
				if p.Header.Get("Content-Transfer-Encoding") == "base64" {
					r = base64.NewDecoder(base64.StdEncoding, p)
				}
				data, err := io.ReadAll(r)
				require.NoError(t, err)
				parts = append(parts, string(data))
			}

			require.Len(t, parts, 2)
			assert.Equal(t, tt.summary, strings.ReplaceAll(parts[0], "\r\n", "\n"))
			assert.Equal(t, tt.transcript, parts[1])
		})
	}
}

func TestSaveEML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "draft.eml")
	require.NoError(t, SaveEML(path, Draft{Summary: "hello"}, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, []byte("\r\n\r\nhello")))
}

func TestWriteDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.docx")
	d := Draft{
		Intro:     "Hi Team,\n\nNotes below:\n\n",
		Summary:   "## Decisions\n- **Alice** owns the launch\n1. Ship it\n---\nPlain line",
		Signature: "\n\nThanks",
	}
	require.NoError(t, WriteDocx(path, d))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// docx is a zip container
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestCleanInline(t *testing.T) {
	assert.Equal(t, "bold under code", cleanInline("**bold** __under__ `code`"))
	assert.Equal(t, []string{"a", "b"}, paragraphs("\n a \n\n b\n"))
}
