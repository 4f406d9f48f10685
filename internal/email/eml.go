package email

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

const (
	boundary       = "sep"
	attachmentName = "transcript.txt"
	plainUTF8      = "text/plain; charset=UTF-8"
	base64LineLen  = 76
)

// WriteEML writes d as an RFC 5322 draft with CRLF line endings. With attach
// set the message is multipart/mixed and carries the transcript as a base64
// transcript.txt part.
func WriteEML(w io.Writer, d Draft, attach bool) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "To: %s\r\n", d.To)
	fmt.Fprintf(bw, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", Subject))
	bw.WriteString("MIME-Version: 1.0\r\n")

	if !attach {
		fmt.Fprintf(bw, "Content-Type: %s\r\n\r\n", plainUTF8)
		bw.WriteString(toCRLF(d.Body()))
		return bw.Flush()
	}

	mw := multipart.NewWriter(bw)
	if err := mw.SetBoundary(boundary); err != nil {
		return fmt.Errorf("failed to set boundary: %w", err)
	}
	fmt.Fprintf(bw, "Content-Type: %s\r\n\r\n",
		mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mw.Boundary()}))

	body := d.Body()
	bodyHeader := textproto.MIMEHeader{"Content-Type": {plainUTF8}}
	if hasDelimiterLine(body) {
		bodyHeader.Set("Content-Transfer-Encoding", "base64")
	}
	part, err := mw.CreatePart(bodyHeader)
	if err != nil {
		return fmt.Errorf("failed to create body part: %w", err)
	}
	if err := writePart(part, bodyHeader, body); err != nil {
		return err
	}

	attHeader := textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType("text/plain", map[string]string{"name": attachmentName})},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": attachmentName})},
		"Content-Transfer-Encoding": {"base64"},
	}
	att, err := mw.CreatePart(attHeader)
	if err != nil {
		return fmt.Errorf("failed to create attachment part: %w", err)
	}
	if err := writePart(att, attHeader, d.Transcript); err != nil {
		return err
	}

	if err := mw.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

func writePart(w io.Writer, h textproto.MIMEHeader, text string) error {
	if h.Get("Content-Transfer-Encoding") != "base64" {
		_, err := io.WriteString(w, toCRLF(text))
		return err
	}
	enc := base64.StdEncoding.EncodeToString([]byte(text))
	for len(enc) > base64LineLen {
		if _, err := io.WriteString(w, enc[:base64LineLen]+"\r\n"); err != nil {
			return err
		}
		enc = enc[base64LineLen:]
	}
	_, err := io.WriteString(w, enc)
	return err
}

// hasDelimiterLine reports whether text has a line that a MIME reader would
// take for a boundary delimiter.
func hasDelimiterLine(text string) bool {
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(line, "--"+boundary) {
			return true
		}
	}
	return false
}

func toCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// SaveEML writes the draft to path, creating parent directories.
func SaveEML(path string, d Draft, attach bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteEML(f, d, attach); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
