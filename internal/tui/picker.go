// Package tui is the terminal picker for accepting suggested names.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/raaihank/meeting-sentinel/internal/ner"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	headerStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	checkedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Faint(true).MarginTop(1)
)

type itemKind int

const (
	kindPerson itemKind = iota
	kindCompany
)

type item struct {
	name     string
	kind     itemKind
	selected bool
}

// Model lists suggested people and companies, all selected to start with.
type Model struct {
	items     []item
	cursor    int
	confirmed bool
	cancelled bool
}

// NewPicker builds a picker over s.
func NewPicker(s ner.Suggestions) Model {
	m := Model{}
	for _, p := range s.People {
		m.items = append(m.items, item{name: p, kind: kindPerson, selected: true})
	}
	for _, c := range s.Companies {
		m.items = append(m.items, item{name: c, kind: kindCompany, selected: true})
	}
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "enter":
		m.confirmed = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.items) > 0 {
			m.items[m.cursor].selected = !m.items[m.cursor].selected
		}
	case "a":
		m.setAll(true)
	case "n":
		m.setAll(false)
	}
	return m, nil
}

func (m *Model) setAll(v bool) {
	for i := range m.items {
		m.items[i].selected = v
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Add suggested names"))
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString("\nNo new names found.\n")
		b.WriteString(helpStyle.Render("enter/q: close"))
		return b.String()
	}

	section := itemKind(-1)
	for i, it := range m.items {
		if it.kind != section {
			section = it.kind
			label := "People"
			if section == kindCompany {
				label = "Companies"
			}
			b.WriteString(headerStyle.Render(label))
			b.WriteString("\n")
		}

		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if it.selected {
			box = checkedStyle.Render("[x]")
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, box, it.name)
	}

	b.WriteString(helpStyle.Render("space: toggle  a: all  n: none  enter: add  q/esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// Selection returns the chosen names. ok is false when the picker was
// cancelled.
func (m Model) Selection() (people, companies []string, ok bool) {
	if !m.confirmed {
		return nil, nil, false
	}
	for _, it := range m.items {
		if !it.selected {
			continue
		}
		if it.kind == kindPerson {
			people = append(people, it.name)
		} else {
			companies = append(companies, it.name)
		}
	}
	return people, companies, true
}

// Pick runs the picker on the given terminal streams.
func Pick(ctx context.Context, s ner.Suggestions, in io.Reader, out io.Writer) (people, companies []string, ok bool, err error) {
	p := tea.NewProgram(NewPicker(s), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return nil, nil, false, fmt.Errorf("run picker: %w", err)
	}
	people, companies, ok = final.(Model).Selection()
	return people, companies, ok, nil
}
