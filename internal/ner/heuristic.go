package ner

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{M}\p{N}'’&.\-]*`)

// Words that are capitalized for grammatical reasons, not because they name
// anything.
var stopWords = toSet([]string{
	"A", "An", "And", "Also", "As", "At", "But", "By", "For", "From", "Good", "Great",
	"He", "Hello", "Hey", "Hi", "How", "I", "If", "In", "It", "Its", "Let", "Maybe",
	"My", "No", "Not", "Now", "OK", "Of", "Okay", "On", "Or", "Our", "She", "So",
	"Sure", "Thank", "Thanks", "That", "The", "Then", "There", "These", "They",
	"This", "To", "Um", "Uh", "We", "Well", "What", "When", "Where", "Which", "Who",
	"Why", "With", "Yeah", "Yes", "You", "Your",
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
	"January", "February", "March", "April", "May", "June", "July", "August",
	"September", "October", "November", "December", "Today", "Tomorrow", "Yesterday",
})

var orgSuffixes = toSet([]string{
	"ag", "bank", "co", "company", "corp", "corporation", "foundation", "gmbh",
	"group", "holdings", "inc", "incorporated", "labs", "limited", "llc", "llp",
	"ltd", "partners", "plc", "sa", "solutions", "systems", "technologies",
	"university",
})

var places = toSet([]string{
	"Africa", "Amsterdam", "Asia", "Atlanta", "Australia", "Austin", "Beijing",
	"Berlin", "Boston", "Brazil", "California", "Canada", "Chicago", "China",
	"Dallas", "Denver", "Dubai", "Dublin", "Europe", "France", "Germany",
	"Hong Kong", "India", "Ireland", "Italy", "Japan", "London", "Los Angeles",
	"Madrid", "Mexico", "Munich", "New York", "Paris", "Seattle", "Singapore",
	"San Francisco", "Spain", "Sydney", "Texas", "Tokyo", "Toronto", "UK", "US",
	"USA", "United Kingdom", "United States",
})

type word struct {
	text       string
	start, end int
	capital    bool
}

// HeuristicProvider tags capitalized word runs without a model. It is
// deliberately simple: it over-suggests and lets the user pick.
type HeuristicProvider struct {
	logger *zap.Logger
}

// NewHeuristicProvider creates the rule-based provider.
func NewHeuristicProvider(logger *zap.Logger) *HeuristicProvider {
	return &HeuristicProvider{logger: logger}
}

// Name identifies the provider in logs and cache keys.
func (p *HeuristicProvider) Name() string {
	return string(HeuristicProviderType)
}

// Close is a no-op.
func (p *HeuristicProvider) Close() error {
	return nil
}

// ExtractEntities returns one entity per capitalized run, in text order.
func (p *HeuristicProvider) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := splitWords(text)
	var (
		entities []Entity
		run      []word
	)

	flush := func() {
		if ent, ok := classifyRun(text, trimStopWords(run)); ok {
			entities = append(entities, ent)
		}
		run = run[:0]
	}

	for i, w := range words {
		if !w.capital {
			flush()
			continue
		}
		if len(run) > 0 && !joinable(text[words[i-1].end:w.start]) {
			flush()
		}
		run = append(run, w)
		// a trimmed full stop ends the run
		if w.end < len(text) && text[w.end] == '.' {
			flush()
		}
	}
	flush()

	p.logger.Debug("Heuristic entity extraction complete", zap.Int("entities", len(entities)))
	return entities, nil
}

func splitWords(text string) []word {
	locs := wordPattern.FindAllStringIndex(text, -1)
	words := make([]word, 0, len(locs))
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		for end > start {
			r, size := utf8.DecodeLastRuneInString(text[start:end])
			if !strings.ContainsRune(".'’-&", r) {
				break
			}
			end -= size
		}
		first, _ := utf8.DecodeRuneInString(text[start:end])
		words = append(words, word{
			text:    text[start:end],
			start:   start,
			end:     end,
			capital: unicode.IsUpper(first),
		})
	}
	return words
}

// joinable reports whether gap may sit between two words of one name.
func joinable(gap string) bool {
	if gap == "" || strings.ContainsAny(gap, "\r\n") || strings.Count(gap, "&") > 1 {
		return false
	}
	return strings.Trim(gap, " \t&") == ""
}

func trimStopWords(run []word) []word {
	for len(run) > 0 {
		if _, ok := stopWords[run[0].text]; !ok {
			break
		}
		run = run[1:]
	}
	for len(run) > 0 {
		if _, ok := stopWords[run[len(run)-1].text]; !ok {
			break
		}
		run = run[:len(run)-1]
	}
	return run
}

func classifyRun(text string, run []word) (Entity, bool) {
	if len(run) == 0 {
		return Entity{}, false
	}

	start, end := run[0].start, run[len(run)-1].end
	ent := Entity{Text: text[start:end], Start: start, End: end}
	last := strings.ToLower(strings.TrimSuffix(run[len(run)-1].text, "."))

	switch {
	case len(run) > 1 && has(orgSuffixes, last):
		ent.Label = LabelOrg
	case has(places, ent.Text):
		ent.Label = LabelGPE
	case len(run) == 1 && isAcronym(ent.Text):
		ent.Label = LabelOrg
	case len(run) == 1 && has(orgSuffixes, last):
		return Entity{}, false
	default:
		ent.Label = LabelPerson
	}
	return ent, true
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func isAcronym(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 6 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) && r != '&' {
			return false
		}
	}
	return true
}
