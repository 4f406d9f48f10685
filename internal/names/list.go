package names

import (
	"errors"
	"strings"
)

// ErrMalformedCSV is returned when an imported names file has fewer than two lines.
var ErrMalformedCSV = errors.New("names csv must contain a people line and a companies line")

// List holds the ordered people and company names known to the anonymizer.
// Order matters: a name's index is its placeholder number.
type List struct {
	People    []string `json:"people" yaml:"people"`
	Companies []string `json:"companies" yaml:"companies"`
}

// Empty reports whether both lists are empty.
func (l List) Empty() bool {
	return len(l.People) == 0 && len(l.Companies) == 0
}

// Clone returns a deep copy so callers can't mutate shared slices.
func (l List) Clone() List {
	return List{
		People:    append([]string(nil), l.People...),
		Companies: append([]string(nil), l.Companies...),
	}
}

// Merge appends people and companies to the list, keeping the first
// occurrence of every name.
func (l List) Merge(people, companies []string) List {
	return List{
		People:    Dedupe(append(append([]string(nil), l.People...), people...)),
		Companies: Dedupe(append(append([]string(nil), l.Companies...), companies...)),
	}
}

// Contains reports whether name is a known person or company.
func (l List) Contains(name string) bool {
	for _, p := range l.People {
		if p == name {
			return true
		}
	}
	for _, c := range l.Companies {
		if c == name {
			return true
		}
	}
	return false
}

// Dedupe removes repeated entries while preserving first-seen order.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ParseCommaList splits "a, b, c" into trimmed, non-empty tokens.
func ParseCommaList(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
