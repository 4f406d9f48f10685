package privacy

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

var (
	placeholderPattern = regexp.MustCompile(`\b(Person|Company)_\d+\b`)
	horizontalSpace    = regexp.MustCompile(`[ \t]+`)
	blankLineRun       = regexp.MustCompile(`\n{3,}`)

	// Decorative glyphs chat tools like to sprinkle into summaries. Plain
	// bullets are kept.
	decorativeSymbols = []string{"➤", "✔", "✅", "✏️", "📌", "🔸", "🔹", "➡️", "📝", "❗", "👉"}
	symbolStripper    = newSymbolStripper()
)

func newSymbolStripper() *strings.Replacer {
	pairs := make([]string, 0, len(decorativeSymbols)*2)
	for _, s := range decorativeSymbols {
		pairs = append(pairs, s, "")
	}
	return strings.NewReplacer(pairs...)
}

// Restore puts real names back into a summary using m, then cleans it up.
// Placeholders missing from m are left as they are.
func (e *Engine) Restore(text string, m NameMap) RestoreResult {
	// markdown exporters escape underscores
	text = strings.ReplaceAll(text, `\_`, "_")

	result := RestoreResult{}
	text = placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		if name, ok := m[token]; ok {
			result.Resolved++
			return name
		}
		result.Unresolved = append(result.Unresolved, token)
		return token
	})

	result.Text = Cleanup(text)

	if len(result.Unresolved) > 0 {
		e.logger.Warn("Summary contains unknown placeholders",
			zap.Strings("placeholders", result.Unresolved),
		)
	}
	e.logger.Debug("Summary restored", zap.Int("resolved", result.Resolved))

	return result
}

// Cleanup strips decorative symbols, applies NFKC, collapses runs of
// spaces/tabs and blank lines, and trims the result.
func Cleanup(text string) string {
	text = symbolStripper.Replace(text)
	text = norm.NFKC.String(text)
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
