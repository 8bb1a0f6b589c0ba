package theme

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles the table view renders with.
type Styles struct {
	Header     lipgloss.Style
	SortMarker lipgloss.Style
	Rule       lipgloss.Style
	Row        lipgloss.Style
	RowAlt     lipgloss.Style
	Cursor     lipgloss.Style
	Unit       lipgloss.Style
	Status     lipgloss.Style
	OK         lipgloss.Style
	Warn       lipgloss.Style
	Error      lipgloss.Style
	Filter     lipgloss.Style
	HelpKey    lipgloss.Style
	HelpDesc   lipgloss.Style
}

// NewStyles derives the table styles from t.
func NewStyles(t Theme) Styles {
	fg := lipgloss.Color(t.Foreground)
	return Styles{
		Header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Header)),
		SortMarker: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		Rule:       lipgloss.NewStyle().Foreground(lipgloss.Color(t.Border)),
		Row:        lipgloss.NewStyle().Foreground(fg),
		RowAlt:     lipgloss.NewStyle().Foreground(fg).Background(lipgloss.Color(t.RowAlt)),
		Cursor:     lipgloss.NewStyle().Foreground(fg).Background(lipgloss.Color(t.Cursor)).Bold(true),
		Unit:       lipgloss.NewStyle().Foreground(lipgloss.Color(t.Dim)),
		Status:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.Dim)),
		OK:         lipgloss.NewStyle().Foreground(lipgloss.Color(t.StatusOK)),
		Warn:       lipgloss.NewStyle().Foreground(lipgloss.Color(t.StatusWarn)),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.StatusError)),
		Filter:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.SearchHighlight)),
		HelpKey:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.HelpKey)),
		HelpDesc:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.HelpDesc)),
	}
}
