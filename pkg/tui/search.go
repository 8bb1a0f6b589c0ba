package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/telegrid/pkg/theme"
)

// newFilterInput builds the text input shown in place of the status line
// while filtering.
func newFilterInput(st theme.Styles) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter rows"
	ti.CharLimit = 128
	ti.PromptStyle = st.Filter
	ti.TextStyle = st.Row
	ti.PlaceholderStyle = st.Status
	return ti
}

// updateFilter handles a key while the filter input has focus. The table
// filter follows every edit; enter keeps it and esc drops it.
func (m Model) updateFilter(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.tbl.SetFilter("")
		return m, m.clock.Cmd(m.frameInterval)
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.tbl.SetFilter(m.filter.Value())
	return m, tea.Batch(cmd, m.clock.Cmd(m.frameInterval))
}
