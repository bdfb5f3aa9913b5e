package processor

import "github.com/charmbracelet/lipgloss"

// Status marks. Colors are dropped when stdout is not a terminal.
var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func okMark() string   { return okStyle.Render("✓") }
func failMark() string { return failStyle.Render("✗") }
