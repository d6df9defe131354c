package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9CA3AF"))
	tokenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	expiredStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	currentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	revokeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EAB308"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)
