package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	// TargetStyle styles target names in listings.
	TargetStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	// HintStyle styles secondary text such as paths and counts.
	HintStyle = lipgloss.NewStyle().Faint(true)

	statusStyles = map[string]lipgloss.Style{
		"selected":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		"installed": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"added":     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"removed":   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"pruned":    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"missing":   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"error":     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// Status renders status in its style.
func Status(status string) string {
	return StatusStyle(status).Render(status)
}
