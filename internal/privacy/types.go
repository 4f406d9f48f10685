package privacy

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the placeholder family a name belongs to.
type Kind string

const (
	KindPerson  Kind = "Person"
	KindCompany Kind = "Company"
)

// MatchMode controls how names are located in a transcript.
type MatchMode string

const (
	// MatchLiteral replaces every literal occurrence, list by list, in order.
	// Earlier replacements can feed later ones.
	MatchLiteral MatchMode = "literal"
	// MatchWordBoundary replaces whole-word matches in a single pass,
	// longest name first.
	MatchWordBoundary MatchMode = "word_boundary"
)

// Placeholder renders the token that stands in for the name at index.
func Placeholder(kind Kind, index int) string {
	return fmt.Sprintf("%s_%d", kind, index)
}

// ParsePlaceholder splits "Person_3" into its kind and index.
func ParsePlaceholder(token string) (Kind, int, bool) {
	prefix, num, ok := strings.Cut(token, "_")
	if !ok {
		return "", 0, false
	}
	kind := Kind(prefix)
	if kind != KindPerson && kind != KindCompany {
		return "", 0, false
	}
	idx, err := strconv.Atoi(num)
	if err != nil || idx < 0 {
		return "", 0, false
	}
	return kind, idx, true
}

// NameMap maps placeholders back to the names they replaced.
type NameMap map[string]string

// Clone copies m.
func (m NameMap) Clone() NameMap {
	out := make(NameMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Options configures an Engine.
type Options struct {
	Matching           MatchMode `json:"matching" yaml:"matching" mapstructure:"matching"`
	StablePlaceholders bool      `json:"stable_placeholders" yaml:"stable_placeholders" mapstructure:"stable_placeholders"`
}

// Finding records how often a name was replaced.
type Finding struct {
	Placeholder string `json:"placeholder"`
	Kind        Kind   `json:"kind"`
	Count       int    `json:"count"`
}

// Result is the outcome of anonymizing a transcript.
type Result struct {
	Text     string    `json:"text"`
	NameMap  NameMap   `json:"-"` // never serialize the real names
	Findings []Finding `json:"findings"`
}

// RestoreResult is the outcome of restoring names in a summary.
type RestoreResult struct {
	Text       string   `json:"text"`
	Resolved   int      `json:"resolved"`
	Unresolved []string `json:"unresolved,omitempty"`
}

type slot struct {
	name        string
	placeholder string
	kind        Kind
}
