// internal/ui/help.go
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"magicai/internal/commands"
)

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Yellow).
				MarginTop(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	helpCmdStyle = lipgloss.NewStyle().
			Foreground(Magenta)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(White)

	helpDimStyle = lipgloss.NewStyle().
			Foreground(Dim)
)

// HelpContent returns the formatted help overlay content
func HelpContent(width, height int, enterSubmits bool) string {
	var content strings.Builder

	content.WriteString(helpTitleStyle.Render("MAGICAI HELP"))
	content.WriteString("\n\n")

	content.WriteString(helpSectionStyle.Render("KEYBINDINGS"))
	content.WriteString("\n\n")

	send := "Enter / Ctrl+S"
	if !enterSubmits {
		send = "Ctrl+S"
	}

	keybindings := []struct {
		key  string
		desc string
	}{
		{send, "Send the prompt"},
		{"Esc", "Cancel the pending request / close help"},
		{"PgUp / PgDn", "Scroll the conversation"},
		{"F1", "Toggle this help overlay"},
		{"Ctrl+C", "Quit"},
	}

	for _, kb := range keybindings {
		key := helpKeyStyle.Width(16).Render(kb.key)
		desc := helpDescStyle.Render(kb.desc)
		content.WriteString("  " + key + "  " + desc + "\n")
	}

	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("SLASH COMMANDS"))
	content.WriteString("\n\n")

	for _, u := range commands.Usages {
		cmdStr := helpCmdStyle.Width(16).Render(u.Syntax)
		desc := helpDescStyle.Render(u.Description)
		content.WriteString("  " + cmdStr + "  " + desc + "\n")
	}

	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("HOW IT WORKS"))
	content.WriteString("\n\n")

	notes := []string{
		"Each prompt is sent on its own; the bot does not see earlier turns.",
		"Only one request runs at a time. Sending is disabled until it resolves.",
		"Errors are shown in place of the reply and are never retried.",
	}
	for _, line := range notes {
		content.WriteString("  " + helpDimStyle.Render(line) + "\n")
	}

	content.WriteString("\n")
	footer := helpDimStyle.Render("Press F1 or Esc to close this help")
	content.WriteString(lipgloss.PlaceHorizontal(width-8, lipgloss.Center, footer))

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 3).
		MaxWidth(width - 10).
		MaxHeight(height - 4)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlayStyle.Render(content.String()),
	)
}

// renderHelp renders the help overlay (called from app.go)
func (m Model) renderHelp() string {
	return HelpContent(m.width, m.height, m.cfg.EnterSubmits())
}
