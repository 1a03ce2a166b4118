package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// presetListModel - Interactive preset selection
// =============================================================================

// presetListModel is the bubbletea model for interactive preset selection.
type presetListModel struct {
	names    []string
	cursor   int
	selected string
}

func newPresetListModel(names []string) presetListModel {
	return presetListModel{names: names}
}

func (m presetListModel) Init() tea.Cmd {
	return nil
}

func (m presetListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.names)-1 {
				m.cursor++
			}
		case "enter":
			m.selected = m.names[m.cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m presetListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Preset"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, name := range m.names {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := cursor + name
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.names))))

	return b.String()
}

// pickPreset runs the interactive picker and returns the chosen name.
// ok is false when the user quit without selecting.
func pickPreset(names []string) (string, bool, error) {
	final, err := tea.NewProgram(newPresetListModel(names)).Run()
	if err != nil {
		return "", false, err
	}
	m, ok := final.(presetListModel)
	if !ok || m.selected == "" {
		return "", false, nil
	}
	return m.selected, true, nil
}
