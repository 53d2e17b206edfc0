package session

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#0969da")
	colorError   = lipgloss.Color("#cf222e")
	colorWarning = lipgloss.Color("#9a6700")
	colorMuted   = lipgloss.Color("#656d76")
)

var (
	userPrefixStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	assistantPrefixStyle = lipgloss.NewStyle().Bold(true)
	errorStyle           = lipgloss.NewStyle().Foreground(colorError)
	warningStyle         = lipgloss.NewStyle().Foreground(colorWarning)
	dimStyle             = lipgloss.NewStyle().Foreground(colorMuted)
)
