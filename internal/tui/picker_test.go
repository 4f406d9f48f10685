package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raaihank/meeting-sentinel/internal/ner"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Model)
	}
	return m, cmd
}

func suggestions() ner.Suggestions {
	return ner.Suggestions{People: []string{"Alice", "Bob"}, Companies: []string{"Acme"}}
}

func TestPickerSelectsAllByDefault(t *testing.T) {
	m, cmd := press(t, NewPicker(suggestions()), tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	people, companies, ok := m.Selection()
	assert.True(t, ok)
	assert.Equal(t, []string{"Alice", "Bob"}, people)
	assert.Equal(t, []string{"Acme"}, companies)
}

func TestPickerToggle(t *testing.T) {
	m, _ := press(t, NewPicker(suggestions()),
		runes("j"),
		tea.KeyMsg{Type: tea.KeySpace},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown}, // clamps at the last item
		runes("x"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	people, companies, ok := m.Selection()
	assert.True(t, ok)
	assert.Equal(t, []string{"Alice"}, people)
	assert.Empty(t, companies)
}

func TestPickerAllAndNone(t *testing.T) {
	m, _ := press(t, NewPicker(suggestions()), runes("n"), tea.KeyMsg{Type: tea.KeyEnter})
	people, companies, ok := m.Selection()
	assert.True(t, ok)
	assert.Empty(t, people)
	assert.Empty(t, companies)

	m, _ = press(t, NewPicker(suggestions()), runes("n"), runes("a"), tea.KeyMsg{Type: tea.KeyEnter})
	people, _, _ = m.Selection()
	assert.Len(t, people, 2)
}

func TestPickerCancel(t *testing.T) {
	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		m, cmd := press(t, NewPicker(suggestions()), key)
		require.NotNil(t, cmd)
		_, _, ok := m.Selection()
		assert.False(t, ok, key.String())
	}
}

func TestPickerView(t *testing.T) {
	m, _ := press(t, NewPicker(suggestions()), runes("n"))
	view := m.View()
	assert.Contains(t, view, "People")
	assert.Contains(t, view, "Companies")
	assert.Contains(t, view, "[ ] Acme")

	empty := NewPicker(ner.Suggestions{}).View()
	assert.Contains(t, empty, "No new names found.")
}
