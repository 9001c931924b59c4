// internal/ui/styles.go
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"magicai/internal/chat"
)

var (
	// Colors
	Cyan    = lipgloss.Color("#00FFFF")
	Green   = lipgloss.Color("#00FF00")
	Yellow  = lipgloss.Color("#FFD700")
	Orange  = lipgloss.Color("#FFA500")
	Red     = lipgloss.Color("#FF6B6B")
	Magenta = lipgloss.Color("#FF00FF")
	SkyBlue = lipgloss.Color("#87CEEB")
	Dim     = lipgloss.Color("#555555")
	White   = lipgloss.Color("#FFFFFF")

	UserColor = SkyBlue
	BotColor  = Magenta

	// Box styles
	ActiveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Cyan)

	InactiveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Dim)

	// Text styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan)

	UserStyle = lipgloss.NewStyle().
			Foreground(UserColor).
			Bold(true)

	BotStyle = lipgloss.NewStyle().
			Foreground(BotColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(Dim)

	// Status indicators
	StatusWarn = lipgloss.NewStyle().Foreground(Orange).Bold(true)
)

// RoleStyle returns the header style for a message author
func RoleStyle(role chat.Role) lipgloss.Style {
	switch role {
	case chat.RoleUser:
		return UserStyle
	case chat.RoleBot:
		return BotStyle
	default:
		return lipgloss.NewStyle().Foreground(White)
	}
}
