package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/telegrid/pkg/collectors"
)

// UpdateMsg carries one collector update from the runner into the
// bubbletea update loop.
type UpdateMsg struct {
	collectors.Update
}

// updatesClosedMsg reports that the update channel was closed.
type updatesClosedMsg struct{}

// listenCmd returns a Cmd that blocks for the next update on ch. The model
// re-arms it after every UpdateMsg so exactly one read is outstanding.
func listenCmd(ch <-chan collectors.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return UpdateMsg{Update: u}
	}
}
