package progress

import "github.com/charmbracelet/lipgloss"

var (
	green = lipgloss.Color("#22C55E")
	red   = lipgloss.Color("#EF4444")
	slate = lipgloss.Color("#94A3B8")
	ink   = lipgloss.Color("#E5E7EB")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ink)
	okStyle     = lipgloss.NewStyle().Foreground(green)
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(red)
	dimStyle    = lipgloss.NewStyle().Foreground(slate)
)
