package lipgloss

import (
	lg "github.com/charmbracelet/lipgloss"
)

// Shared terminal styles for command output.
var (
	Red    = lg.NewStyle().Foreground(lg.Color("9"))
	Yellow = lg.NewStyle().Foreground(lg.Color("11"))
	Green  = lg.NewStyle().Foreground(lg.Color("10"))
	Info   = lg.NewStyle().Foreground(lg.Color("14")).Bold(true)

	BoxStyle = lg.NewStyle().
			Border(lg.RoundedBorder()).
			BorderForeground(lg.Color("8")).
			Padding(0, 1)
)
