package ner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/raaihank/meeting-sentinel/internal/names"
)

// SuggestOptions bounds how long a suggested name may be, in
// whitespace-separated tokens.
type SuggestOptions struct {
	MaxPersonTokens  int
	MaxCompanyTokens int
}

// DefaultSuggestOptions allows two-token people and three-token companies.
func DefaultSuggestOptions() SuggestOptions {
	return SuggestOptions{MaxPersonTokens: 2, MaxCompanyTokens: 3}
}

// Suggestions are candidate names not yet in the known lists.
type Suggestions struct {
	People    []string `json:"people"`
	Companies []string `json:"companies"`
}

// Empty reports whether nothing was suggested.
func (s Suggestions) Empty() bool {
	return len(s.People) == 0 && len(s.Companies) == 0
}

// Suggest runs the provider over transcript and keeps PERSON entities as
// people and ORG/GPE entities as companies, skipping names already known and
// names that are too long. Results are deduplicated and sorted.
func Suggest(ctx context.Context, provider Provider, transcript string, known names.List, opts SuggestOptions) (Suggestions, error) {
	if opts.MaxPersonTokens <= 0 || opts.MaxCompanyTokens <= 0 {
		def := DefaultSuggestOptions()
		if opts.MaxPersonTokens <= 0 {
			opts.MaxPersonTokens = def.MaxPersonTokens
		}
		if opts.MaxCompanyTokens <= 0 {
			opts.MaxCompanyTokens = def.MaxCompanyTokens
		}
	}

	entities, err := provider.ExtractEntities(ctx, transcript)
	if err != nil {
		return Suggestions{}, fmt.Errorf("entity extraction failed: %w", err)
	}

	knownPeople := toSet(known.People)
	knownCompanies := toSet(known.Companies)
	people := make(map[string]struct{})
	companies := make(map[string]struct{})

	for _, ent := range entities {
		text := strings.TrimSpace(ent.Text)
		if text == "" {
			continue
		}
		tokens := len(strings.Fields(text))

		switch ent.Label {
		case LabelPerson:
			if _, ok := knownPeople[text]; !ok && tokens <= opts.MaxPersonTokens {
				people[text] = struct{}{}
			}
		case LabelOrg, LabelGPE:
			if _, ok := knownCompanies[text]; !ok && tokens <= opts.MaxCompanyTokens {
				companies[text] = struct{}{}
			}
		}
	}

	return Suggestions{People: sortedKeys(people), Companies: sortedKeys(companies)}, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
