// internal/ui/conversation.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"magicai/internal/chat"
)

// Conversation is the UI's copy of the controller's message log, kept in
// sync through sink events.
type Conversation struct {
	Messages       []chat.Message
	AnimationFrame int // for the loading indicator
}

func NewConversation() *Conversation {
	return &Conversation{Messages: []chat.Message{}}
}

func (c *Conversation) Append(msg chat.Message) {
	c.Messages = append(c.Messages, msg)
}

// Update replaces the message with the same ID in place
func (c *Conversation) Update(msg chat.Message) bool {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].ID == msg.ID {
			c.Messages[i] = msg
			return true
		}
	}
	return false
}

// TickAnimation advances the loading indicator animation
func (c *Conversation) TickAnimation() {
	c.AnimationFrame = (c.AnimationFrame + 1) % 4
}

func (c *Conversation) loadingIndicator() string {
	frames := []string{"", ".", "..", "..."}
	return frames[c.AnimationFrame]
}

// RenderMessages renders the log. markdown, when non-nil, renders the text
// of resolved bot replies.
func (c *Conversation) RenderMessages(width int, markdown func(string) string) string {
	var sb strings.Builder

	for _, msg := range c.Messages {
		ts := msg.Timestamp.Format("15:04")

		var header string
		switch {
		case msg.Status == chat.StatusError:
			header = ErrorStyle.Render(fmt.Sprintf("[%s] %s Error:", ts, formatRole(msg.Role)))
		default:
			header = RoleStyle(msg.Role).Render(fmt.Sprintf("[%s] %s:", ts, formatRole(msg.Role)))
		}
		sb.WriteString(header)
		sb.WriteString("\n")

		switch {
		case msg.IsPending():
			sb.WriteString("  ")
			sb.WriteString(DimStyle.Render(msg.Text + c.loadingIndicator()))
			sb.WriteString("\n")

		case msg.Role == chat.RoleBot && msg.Status == chat.StatusNormal && markdown != nil:
			sb.WriteString(markdown(msg.Text))
			sb.WriteString("\n")

		default:
			for _, line := range strings.Split(msg.Text, "\n") {
				sb.WriteString("  ")
				if msg.Status == chat.StatusError {
					sb.WriteString(ErrorStyle.Render(line))
				} else {
					sb.WriteString(line)
				}
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatRole(role chat.Role) string {
	switch role {
	case chat.RoleUser:
		return "You"
	case chat.RoleBot:
		return "Bot"
	default:
		return string(role)
	}
}

// ConversationView wraps a conversation with a viewport for scrolling
type ConversationView struct {
	Conversation *Conversation
	Viewport     viewport.Model
}

func NewConversationView(conv *Conversation, width, height int) *ConversationView {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()
	vp.MouseWheelEnabled = true

	return &ConversationView{
		Conversation: conv,
		Viewport:     vp,
	}
}

// Refresh re-renders the log and scrolls to the newest message
func (v *ConversationView) Refresh(markdown func(string) string) {
	v.Viewport.SetContent(v.Conversation.RenderMessages(v.Viewport.Width, markdown))
	v.Viewport.GotoBottom()
}
