package privacy

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/logger"
	"github.com/raaihank/meeting-sentinel/internal/names"
)

// Engine swaps known names for placeholders and back.
type Engine struct {
	opts   Options
	logger *logger.Logger
}

// New creates a substitution engine.
func New(opts Options, log *logger.Logger) (*Engine, error) {
	if opts.Matching == "" {
		opts.Matching = MatchLiteral
	}
	if opts.Matching != MatchLiteral && opts.Matching != MatchWordBoundary {
		return nil, fmt.Errorf("unknown matching mode: %s", opts.Matching)
	}

	log.Debug("Substitution engine initialized",
		zap.String("matching", string(opts.Matching)),
		zap.Bool("stable_placeholders", opts.StablePlaceholders),
	)

	return &Engine{opts: opts, logger: log}, nil
}

// Options returns the engine configuration.
func (e *Engine) Options() Options {
	return e.opts
}

// Anonymize replaces every known name in text with its placeholder and
// returns the map needed to reverse it. prior is only consulted when stable
// placeholders are enabled.
func (e *Engine) Anonymize(text string, list names.List, prior NameMap) Result {
	nameMap := make(NameMap)
	if e.opts.StablePlaceholders {
		nameMap = prior.Clone()
	}

	slots := e.assign(KindPerson, list.People, prior, nameMap)
	slots = append(slots, e.assign(KindCompany, list.Companies, prior, nameMap)...)

	var (
		out      string
		findings []Finding
	)
	switch e.opts.Matching {
	case MatchWordBoundary:
		out, findings = replaceWords(text, slots)
	default:
		out, findings = replaceLiteral(text, slots)
	}

	e.logger.Debug("Transcript anonymized",
		zap.Int("people", len(list.People)),
		zap.Int("companies", len(list.Companies)),
		zap.Int("placeholders", len(nameMap)),
		zap.Int("findings", len(findings)),
	)

	return Result{Text: out, NameMap: nameMap, Findings: findings}
}

// assign picks a placeholder for every non-empty name and records it in m.
func (e *Engine) assign(kind Kind, list []string, prior, m NameMap) []slot {
	slots := make([]slot, 0, len(list))

	if !e.opts.StablePlaceholders {
		for i, name := range list {
			if name == "" {
				continue
			}
			p := Placeholder(kind, i)
			m[p] = name
			slots = append(slots, slot{name: name, placeholder: p, kind: kind})
		}
		return slots
	}

	issued := make(map[string]string)
	next := 0
	for p, name := range prior {
		k, idx, ok := ParsePlaceholder(p)
		if !ok || k != kind {
			continue
		}
		if idx >= next {
			next = idx + 1
		}
		// lowest index wins when a name was issued twice
		if cur, ok := issued[name]; ok {
			if _, curIdx, _ := ParsePlaceholder(cur); curIdx < idx {
				continue
			}
		}
		issued[name] = p
	}

	for _, name := range list {
		if name == "" {
			continue
		}
		p, ok := issued[name]
		if !ok {
			p = Placeholder(kind, next)
			next++
			issued[name] = p
		}
		m[p] = name
		slots = append(slots, slot{name: name, placeholder: p, kind: kind})
	}
	return slots
}

func replaceLiteral(text string, slots []slot) (string, []Finding) {
	var findings []Finding
	for _, s := range slots {
		n := strings.Count(text, s.name)
		if n == 0 {
			continue
		}
		text = strings.ReplaceAll(text, s.name, s.placeholder)
		findings = append(findings, Finding{Placeholder: s.placeholder, Kind: s.kind, Count: n})
	}
	return text, findings
}

func replaceWords(text string, slots []slot) (string, []Finding) {
	if len(slots) == 0 {
		return text, nil
	}

	ordered := make([]slot, 0, len(slots))
	seen := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		if _, ok := seen[s.name]; ok {
			continue
		}
		seen[s.name] = struct{}{}
		ordered = append(ordered, s)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].name) > len(ordered[j].name)
	})

	counts := make(map[string]int)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		s, ok := matchAt(text, i, ordered)
		if ok {
			b.WriteString(s.placeholder)
			counts[s.placeholder]++
			i += len(s.name)
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		i += size
	}

	var findings []Finding
	for _, s := range slots {
		if n := counts[s.placeholder]; n > 0 {
			findings = append(findings, Finding{Placeholder: s.placeholder, Kind: s.kind, Count: n})
			delete(counts, s.placeholder)
		}
	}
	return b.String(), findings
}

// matchAt returns the longest name that starts at i and does not sit inside
// a longer word. A name edge that is a punctuation rune needs no boundary.
func matchAt(text string, i int, ordered []slot) (slot, bool) {
	var before rune = -1
	if i > 0 {
		before, _ = utf8.DecodeLastRuneInString(text[:i])
	}
	for _, s := range ordered {
		if !strings.HasPrefix(text[i:], s.name) {
			continue
		}
		first, _ := utf8.DecodeRuneInString(s.name)
		if isWordRune(first) && before >= 0 && isWordRune(before) {
			continue
		}
		end := i + len(s.name)
		last, _ := utf8.DecodeLastRuneInString(s.name)
		if end < len(text) && isWordRune(last) {
			if after, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(after) {
				continue
			}
		}
		return s, true
	}
	return slot{}, false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// StalePlaceholders lists map entries that no longer agree with list, i.e.
// Person_i is not People[i]. Only meaningful for index-based placeholders.
func StalePlaceholders(m NameMap, list names.List) []string {
	var stale []string
	for p, name := range m {
		kind, idx, ok := ParsePlaceholder(p)
		if !ok {
			stale = append(stale, p)
			continue
		}
		current := list.People
		if kind == KindCompany {
			current = list.Companies
		}
		if idx >= len(current) || current[idx] != name {
			stale = append(stale, p)
		}
	}
	sort.Strings(stale)
	return stale
}
