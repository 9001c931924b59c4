package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"magicai/internal/api"
	"magicai/internal/chat"
	"magicai/internal/commands"
	"magicai/internal/config"
	"magicai/internal/export"
)

const animationInterval = 300 * time.Millisecond

type (
	submitDoneMsg struct{ err error }
	tickMsg       struct{ gen int }
)

type Model struct {
	ctx  context.Context
	cfg  *config.Config
	ctrl *chat.Controller
	sink *ChannelSink

	sessionID string
	createdAt time.Time

	conv     *ConversationView
	input    textinput.Model
	renderer *glamour.TermRenderer

	info      api.ModelInfo
	busy      bool
	status    string
	statusErr bool
	showHelp  bool

	// tickGen identifies the current animation chain; ticks from older
	// chains are dropped
	tickGen int

	width, height int
	ready         bool
}

// New builds the TUI around a controller whose sink is the given ChannelSink
func New(ctx context.Context, cfg *config.Config, ctrl *chat.Controller, sink *ChannelSink) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask something... (/help for commands)"
	ti.Prompt = "> "
	ti.CharLimit = 4096
	ti.PromptStyle = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(Dim).Italic(true)
	ti.Focus()

	return Model{
		ctx:       ctx,
		cfg:       cfg,
		ctrl:      ctrl,
		sink:      sink,
		sessionID: uuid.NewString(),
		createdAt: time.Now(),
		conv:      NewConversationView(NewConversation(), 80, 20),
		input:     ti,
	}
}

func (m Model) Init() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return tea.Batch(
		textinput.Blink,
		m.sink.listen(),
		func() tea.Msg {
			// failures are logged by the controller and leave the header blank
			_ = ctrl.LoadModelInfo(ctx)
			return nil
		},
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.conv.Viewport, cmd = m.conv.Viewport.Update(msg)
		return m, cmd

	case messageAppendedMsg:
		m.conv.Conversation.Append(msg.msg)
		m.refresh()
		return m, m.sink.listen()

	case messageUpdatedMsg:
		m.conv.Conversation.Update(msg.msg)
		m.refresh()
		return m, m.sink.listen()

	case busyMsg:
		m.busy = msg.busy
		cmds := []tea.Cmd{m.sink.listen()}
		if m.busy {
			m.setStatus("", false)
			m.input.Blur()
			m.tickGen++
			cmds = append(cmds, tick(m.tickGen))
		} else {
			cmds = append(cmds, m.input.Focus())
		}
		return m, tea.Batch(cmds...)

	case clearInputMsg:
		m.input.Reset()
		return m, m.sink.listen()

	case alertMsg:
		m.setStatus(msg.text, true)
		return m, m.sink.listen()

	case modelInfoMsg:
		m.info = msg.info
		return m, m.sink.listen()

	case submitDoneMsg:
		if errors.Is(msg.err, chat.ErrBusy) {
			m.setStatus("Still waiting for the previous reply (esc cancels)", true)
		}
		return m, nil

	case tickMsg:
		if !m.busy || msg.gen != m.tickGen {
			return m, nil
		}
		m.conv.Conversation.TickAnimation()
		m.refresh()
		return m, tick(msg.gen)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.sink.Close()
		m.ctrl.Cancel()
		return m, tea.Quit

	case "f1":
		m.showHelp = !m.showHelp
		return m, nil

	case "esc":
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.ctrl.Cancel() {
			m.setStatus("Request cancelled", false)
		}
		return m, nil

	case "ctrl+s":
		return m.submit()

	case "enter":
		if m.cfg.EnterSubmits() {
			return m.submit()
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.conv.Viewport, cmd = m.conv.Viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the input to the controller, or runs it as a slash command
func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()

	if cmd := commands.Parse(value); cmd != nil {
		m.input.Reset()
		return m.runCommand(cmd)
	}

	if m.busy {
		m.setStatus("Still waiting for the previous reply (esc cancels)", true)
		return m, nil
	}

	ctrl, ctx := m.ctrl, m.ctx
	return m, func() tea.Msg {
		_, err := ctrl.SubmitQuery(ctx, value)
		return submitDoneMsg{err: err}
	}
}

func (m Model) runCommand(cmd commands.Command) (tea.Model, tea.Cmd) {
	switch c := cmd.(type) {
	case commands.Help:
		m.showHelp = !m.showHelp

	case commands.ShowInfo:
		if m.info == (api.ModelInfo{}) {
			m.setStatus("Model info unavailable", true)
		} else {
			m.setStatus(fmt.Sprintf("%s v%s: %s", m.info.Name, m.info.Version, m.info.Description), false)
		}

	case commands.Export:
		dir := c.Dir
		if dir == "" {
			dir = m.cfg.UI.ExportDir
		}
		path, err := export.WriteTranscript(m.transcript(), dir)
		if err != nil {
			m.setStatus("Export failed: "+err.Error(), true)
		} else {
			m.setStatus("Exported to "+path, false)
		}

	case commands.Cancel:
		if m.ctrl.Cancel() {
			m.setStatus("Request cancelled", false)
		} else {
			m.setStatus("Nothing to cancel", false)
		}

	case commands.Quit:
		m.sink.Close()
		m.ctrl.Cancel()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) transcript() *export.Transcript {
	return &export.Transcript{
		SessionID: m.sessionID,
		CreatedAt: m.createdAt,
		Model:     m.ctrl.ModelInfo(),
		Messages:  m.ctrl.Messages(),
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// resize lays out the viewport and rebuilds the markdown renderer for the
// new width
func (m *Model) resize() {
	// header, status line, input box and footer
	chrome := 8
	height := m.height - chrome
	if height < 3 {
		height = 3
	}
	width := m.width - 2
	if width < 10 {
		width = 10
	}
	m.conv.Viewport.Width = width
	m.conv.Viewport.Height = height
	m.input.Width = width - 6

	m.renderer = nil
	if m.cfg.Markdown() {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width-4),
		)
		if err == nil {
			m.renderer = r
		}
	}
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.conv.Refresh(m.markdown())
}

func (m *Model) markdown() func(string) string {
	if m.renderer == nil {
		return nil
	}
	r := m.renderer
	return func(text string) string {
		out, err := r.Render(text)
		if err != nil {
			return "  " + text
		}
		return strings.Trim(out, "\n")
	}
}

func tick(gen int) tea.Cmd {
	return tea.Tick(animationInterval, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(InactiveBox.Render(m.conv.Viewport.View()))
	sb.WriteString("\n")

	if m.status != "" {
		style := DimStyle
		if m.statusErr {
			style = ErrorStyle
		}
		sb.WriteString(style.Render(m.status))
	}
	sb.WriteString("\n")

	box := ActiveBox
	if m.busy {
		box = InactiveBox
	}
	sb.WriteString(box.Width(m.conv.Viewport.Width).Render(m.input.View()))
	sb.WriteString("\n")

	hint := "enter: send  esc: cancel  F1: help  ctrl+c: quit"
	if !m.cfg.EnterSubmits() {
		hint = "ctrl+s: send  esc: cancel  F1: help  ctrl+c: quit"
	}
	if m.busy {
		hint = StatusWarn.Render("●") + " waiting for reply  " + hint
	}
	sb.WriteString(DimStyle.Render(hint))

	return sb.String()
}

// renderHeader shows the three model info fields, blank until loaded
func (m Model) renderHeader() string {
	name := TitleStyle.Render(m.info.Name)
	version := DimStyle.Render(m.info.Version)
	description := DimStyle.Render(m.info.Description)
	return fmt.Sprintf("%s %s  %s", name, version, description)
}
