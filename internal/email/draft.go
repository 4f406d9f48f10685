// Package email composes the follow-up message for a meeting summary and
// exports it as an EML draft or a Word document.
package email

import (
	"strings"

	"github.com/raaihank/meeting-sentinel/internal/defaults"
)

// Subject is the fixed subject of every draft.
const Subject = "Meeting Summary"

// Draft is a composed follow-up email.
type Draft struct {
	To        string `json:"to"`
	Intro     string `json:"intro"`
	Summary   string `json:"summary"`
	Signature string `json:"signature"`
	// Transcript is attached to EML exports on request.
	Transcript string `json:"-"`
}

// NewDraft wraps a restored summary in the configured intro and signature.
func NewDraft(summary string, text defaults.Text) Draft {
	return Draft{
		Intro:     text.EmailIntro,
		Summary:   summary,
		Signature: text.EmailSignature,
	}
}

// Body is the message body without headers.
func (d Draft) Body() string {
	return d.Intro + d.Summary + d.Signature
}

// String renders the draft as the plain text shown for review.
func (d Draft) String() string {
	var b strings.Builder
	b.WriteString("Subject: ")
	b.WriteString(Subject)
	b.WriteString("\n\n")
	b.WriteString(d.Body())
	return b.String()
}

// Compose returns "Subject: Meeting Summary", a blank line, then
// intro + summary + signature verbatim.
func Compose(summary, intro, signature string) string {
	return Draft{Intro: intro, Summary: summary, Signature: signature}.String()
}
