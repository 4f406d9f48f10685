package defaults

import "strings"

const (
	PromptPrefix   = "Please summarize this meeting:\n\n"
	EmailIntro     = "Hi Team,\n\nHere are the notes from the recent meeting:\n\n"
	EmailSignature = "\n\nPlease let me know if you have any additional questions"
)

// Text holds the user-editable boilerplate around prompts and drafts.
type Text struct {
	PromptPrefix   string `json:"prompt_prefix" yaml:"prompt_prefix"`
	EmailIntro     string `json:"email_intro" yaml:"email_intro"`
	EmailSignature string `json:"email_signature" yaml:"email_signature"`
}

// Builtin returns the texts used when nothing has been saved.
func Builtin() Text {
	return Text{
		PromptPrefix:   PromptPrefix,
		EmailIntro:     EmailIntro,
		EmailSignature: EmailSignature,
	}
}

// Trimmed returns t with surrounding whitespace removed from every field.
// Saved edits are always trimmed; the built-ins are not.
func (t Text) Trimmed() Text {
	return Text{
		PromptPrefix:   strings.TrimSpace(t.PromptPrefix),
		EmailIntro:     strings.TrimSpace(t.EmailIntro),
		EmailSignature: strings.TrimSpace(t.EmailSignature),
	}
}
