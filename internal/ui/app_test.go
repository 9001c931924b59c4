package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/goleak"

	"magicai/internal/api"
	"magicai/internal/chat"
	"magicai/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubBackend struct {
	reply string
	err   error
	info  api.ModelInfo
}

func (b stubBackend) Generate(ctx context.Context, prompt string) (string, error) {
	return b.reply, b.err
}

func (b stubBackend) ModelInfo(ctx context.Context) (api.ModelInfo, error) {
	return b.info, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	off := false
	cfg.UI.Markdown = &off
	cfg.UI.ExportDir = t.TempDir()
	return cfg
}

func newTestModel(t *testing.T, cfg *config.Config, backend chat.Backend) (Model, *chat.Controller, *ChannelSink) {
	t.Helper()
	sink := NewChannelSink(64)
	ctrl := chat.NewController(backend, sink)
	m := New(context.Background(), cfg, ctrl, sink)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), ctrl, sink
}

// drain feeds every pending sink event into the model
func drain(m Model, sink *ChannelSink) Model {
	for {
		select {
		case msg := <-sink.events:
			next, _ := m.Update(msg)
			m = next.(Model)
		default:
			return m
		}
	}
}

func press(m Model, key tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: key})
	return next.(Model), cmd
}

func TestViewBeforeReady(t *testing.T) {
	sink := NewChannelSink(1)
	m := New(context.Background(), testConfig(t), chat.NewController(stubBackend{}, sink), sink)
	if m.View() != "Loading..." {
		t.Errorf("expected loading view, got %q", m.View())
	}
}

func TestSubmitSuccess(t *testing.T) {
	m, ctrl, sink := newTestModel(t, testConfig(t), stubBackend{reply: "42"})

	m.input.SetValue("what is six times seven?")
	m, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("Enter should return a submit command")
	}

	done, ok := cmd().(submitDoneMsg)
	if !ok {
		t.Fatal("submit command should return submitDoneMsg")
	}
	if done.err != nil {
		t.Fatalf("unexpected error: %v", done.err)
	}

	m = drain(m, sink)

	if m.busy {
		t.Error("model should not be busy after resolution")
	}
	if m.input.Value() != "" {
		t.Errorf("input should be cleared, got %q", m.input.Value())
	}

	msgs := m.conv.Conversation.Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Text != "42" || msgs[1].Status != chat.StatusNormal {
		t.Errorf("unexpected bot message %+v", msgs[1])
	}
	if len(ctrl.Messages()) != 2 {
		t.Errorf("controller log out of sync: %d", len(ctrl.Messages()))
	}

	view := m.View()
	for _, want := range []string{"what is six times seven?", "42", "You:", "Bot:"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSubmitError(t *testing.T) {
	m, _, sink := newTestModel(t, testConfig(t), stubBackend{err: errors.New("connection refused")})

	m.input.SetValue("hello")
	m, cmd := press(m, tea.KeyEnter)
	cmd()
	m = drain(m, sink)

	msgs := m.conv.Conversation.Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[1].Status != chat.StatusError {
		t.Errorf("expected error status, got %s", msgs[1].Status)
	}
	if !strings.Contains(m.View(), "Error: connection refused") {
		t.Error("view should show the error text")
	}
	if m.busy {
		t.Error("submission should be re-enabled after failure")
	}
}

func TestSubmitEmptyPrompt(t *testing.T) {
	m, _, sink := newTestModel(t, testConfig(t), stubBackend{reply: "unused"})

	m.input.SetValue("   ")
	m, cmd := press(m, tea.KeyEnter)
	done := cmd().(submitDoneMsg)
	if !errors.Is(done.err, chat.ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", done.err)
	}
	m = drain(m, sink)

	if len(m.conv.Conversation.Messages) != 0 {
		t.Error("empty prompt must not add messages")
	}
	if m.status != chat.EmptyPromptAlert || !m.statusErr {
		t.Errorf("expected alert %q, got %q", chat.EmptyPromptAlert, m.status)
	}
}

func TestSubmitWhileBusy(t *testing.T) {
	m, _, sink := newTestModel(t, testConfig(t), stubBackend{reply: "x"})

	next, _ := m.Update(busyMsg{busy: true})
	m = next.(Model)

	m.input.SetValue("again")
	m, cmd := press(m, tea.KeyEnter)
	if cmd != nil {
		t.Error("no submission while busy")
	}
	if !strings.Contains(m.status, "Still waiting") {
		t.Errorf("expected busy status, got %q", m.status)
	}
	if m.input.Value() != "again" {
		t.Error("input should be kept while busy")
	}
	sink.Close()
}

func TestEnterDisabled(t *testing.T) {
	cfg := testConfig(t)
	off := false
	cfg.UI.EnterSubmits = &off
	m, _, _ := newTestModel(t, cfg, stubBackend{reply: "x"})

	m.input.SetValue("hi")
	m, cmd := press(m, tea.KeyEnter)
	if cmd != nil {
		t.Error("Enter should not submit when enter_submits is false")
	}

	_, cmd = press(m, tea.KeyCtrlS)
	if cmd == nil {
		t.Error("ctrl+s should always submit")
	}
	if !strings.Contains(m.View(), "ctrl+s: send") {
		t.Error("footer should advertise ctrl+s")
	}
}

func TestModelInfoHeader(t *testing.T) {
	info := api.ModelInfo{Name: "Magic", Version: "1.0", Description: "demo"}
	m, ctrl, sink := newTestModel(t, testConfig(t), stubBackend{info: info})

	if err := ctrl.LoadModelInfo(context.Background()); err != nil {
		t.Fatalf("LoadModelInfo failed: %v", err)
	}
	m = drain(m, sink)

	if m.info != info {
		t.Errorf("expected %+v, got %+v", info, m.info)
	}
	header := m.renderHeader()
	for _, want := range []string{"Magic", "1.0", "demo"} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q", want)
		}
	}
}

func TestSlashCommands(t *testing.T) {
	cfg := testConfig(t)
	m, _, _ := newTestModel(t, cfg, stubBackend{})

	m.input.SetValue("/info")
	m, _ = press(m, tea.KeyEnter)
	if m.status != "Model info unavailable" {
		t.Errorf("unexpected status %q", m.status)
	}
	if m.input.Value() != "" {
		t.Error("command input should be cleared")
	}

	m.input.SetValue("/cancel")
	m, _ = press(m, tea.KeyEnter)
	if m.status != "Nothing to cancel" {
		t.Errorf("unexpected status %q", m.status)
	}

	m.input.SetValue("/help")
	m, _ = press(m, tea.KeyEnter)
	if !m.showHelp || !strings.Contains(m.View(), "MAGICAI HELP") {
		t.Error("/help should open the help overlay")
	}
	m, _ = press(m, tea.KeyEsc)
	if m.showHelp {
		t.Error("esc should close help")
	}

	m.input.SetValue("/export")
	m, _ = press(m, tea.KeyEnter)
	if !strings.HasPrefix(m.status, "Exported to ") {
		t.Fatalf("unexpected status %q", m.status)
	}
	path := strings.TrimPrefix(m.status, "Exported to ")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
	if filepath.Dir(filepath.Dir(path)) != cfg.UI.ExportDir {
		t.Errorf("export should use the configured dir, got %s", path)
	}

	m.input.SetValue("/quit")
	_, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("/quit should return tea.Quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("/quit should quit")
	}
}

func TestEscCancelsPendingRequest(t *testing.T) {
	started := make(chan struct{})
	sink := NewChannelSink(64)
	backend := blockingBackend{started: started}
	ctrl := chat.NewController(backend, sink)
	m := New(context.Background(), testConfig(t), ctrl, sink)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)

	m.input.SetValue("slow")
	m, cmd := press(m, tea.KeyEnter)

	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()
	<-started

	m, _ = press(m, tea.KeyEsc)
	if m.status != "Request cancelled" {
		t.Errorf("unexpected status %q", m.status)
	}

	select {
	case <-result:
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not resolve the request")
	}
	m = drain(m, sink)

	msgs := m.conv.Conversation.Messages
	if len(msgs) != 2 || msgs[1].Text != "Error: context canceled" {
		t.Errorf("unexpected messages %+v", msgs)
	}
}

type blockingBackend struct {
	started chan struct{}
}

func (b blockingBackend) Generate(ctx context.Context, prompt string) (string, error) {
	close(b.started)
	<-ctx.Done()
	return "", ctx.Err()
}

func (b blockingBackend) ModelInfo(ctx context.Context) (api.ModelInfo, error) {
	return api.ModelInfo{}, nil
}

func TestTickAnimatesOnlyWhileBusy(t *testing.T) {
	m, _, _ := newTestModel(t, testConfig(t), stubBackend{})

	next, cmd := m.Update(tickMsg{})
	m = next.(Model)
	if cmd != nil {
		t.Error("tick should stop while idle")
	}

	m.busy = true
	next, cmd = m.Update(tickMsg{})
	m = next.(Model)
	if cmd == nil {
		t.Error("tick should re-arm while busy")
	}
	if m.conv.Conversation.AnimationFrame != 1 {
		t.Errorf("expected frame 1, got %d", m.conv.Conversation.AnimationFrame)
	}
}

func TestUnknownSlashInputIsSubmitted(t *testing.T) {
	var got string
	backend := recordingBackend{prompt: &got, reply: "it runs env"}
	m, ctrl, sink := newTestModel(t, testConfig(t), backend)

	m.input.SetValue("/usr/bin/env explain this path")
	m, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("unknown slash input should be submitted as a prompt")
	}
	if done := cmd().(submitDoneMsg); done.err != nil {
		t.Fatalf("unexpected error: %v", done.err)
	}
	m = drain(m, sink)

	if got != "/usr/bin/env explain this path" {
		t.Errorf("backend got %q", got)
	}
	msgs := ctrl.Messages()
	if len(msgs) != 2 || msgs[0].Role != chat.RoleUser || msgs[1].Text != "it runs env" {
		t.Errorf("unexpected log %+v", msgs)
	}
	if m.statusErr {
		t.Errorf("unexpected error status %q", m.status)
	}
}

type recordingBackend struct {
	prompt *string
	reply  string
}

func (b recordingBackend) Generate(ctx context.Context, prompt string) (string, error) {
	*b.prompt = prompt
	return b.reply, nil
}

func (b recordingBackend) ModelInfo(ctx context.Context) (api.ModelInfo, error) {
	return api.ModelInfo{}, nil
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func TestInputDisabledWhileBusy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := gatedBackend{started: started, release: release}
	m, _, sink := newTestModel(t, testConfig(t), backend)

	m.input.SetValue("first question")
	m, cmd := press(m, tea.KeyEnter)

	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()
	<-started
	m = drain(m, sink)

	if !m.busy || m.input.Focused() {
		t.Fatal("input should be blurred while a request is pending")
	}

	m = typeText(m, " and more")
	if m.input.Value() != "first question" {
		t.Errorf("typing while busy should be ignored, got %q", m.input.Value())
	}

	close(release)
	<-result
	m = drain(m, sink)

	if m.busy || !m.input.Focused() {
		t.Error("input should be focused again after resolution")
	}
	if m.input.Value() != "" {
		t.Errorf("submitted prompt should be cleared, got %q", m.input.Value())
	}

	m = typeText(m, "next question")
	if m.input.Value() != "next question" {
		t.Errorf("typing after resolution should work, got %q", m.input.Value())
	}
}

type gatedBackend struct {
	started chan struct{}
	release chan struct{}
}

func (b gatedBackend) Generate(ctx context.Context, prompt string) (string, error) {
	close(b.started)
	<-b.release
	return "done", nil
}

func (b gatedBackend) ModelInfo(ctx context.Context) (api.ModelInfo, error) {
	return api.ModelInfo{}, nil
}

func TestStaleTickIgnored(t *testing.T) {
	m, _, _ := newTestModel(t, testConfig(t), stubBackend{})

	next, _ := m.Update(busyMsg{busy: true})
	m = next.(Model)
	next, _ = m.Update(busyMsg{busy: false})
	m = next.(Model)
	next, _ = m.Update(busyMsg{busy: true})
	m = next.(Model)

	stale := tickMsg{gen: m.tickGen - 1}
	next, cmd := m.Update(stale)
	m = next.(Model)
	if cmd != nil {
		t.Error("a tick from an earlier request should not re-arm")
	}
	if m.conv.Conversation.AnimationFrame != 0 {
		t.Errorf("stale tick advanced the animation to %d", m.conv.Conversation.AnimationFrame)
	}

	next, cmd = m.Update(tickMsg{gen: m.tickGen})
	m = next.(Model)
	if cmd == nil || m.conv.Conversation.AnimationFrame != 1 {
		t.Error("the current tick chain should keep animating")
	}
}
