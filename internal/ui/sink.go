package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"magicai/internal/api"
	"magicai/internal/chat"
)

// Messages delivered from the controller to the bubbletea loop
type (
	messageAppendedMsg struct{ msg chat.Message }
	messageUpdatedMsg  struct{ msg chat.Message }
	busyMsg            struct{ busy bool }
	clearInputMsg      struct{}
	alertMsg           struct{ text string }
	modelInfoMsg       struct{ info api.ModelInfo }
)

// ChannelSink implements chat.Sink by turning each call into a tea.Msg on
// a channel that the Model listens to. Sends block until the UI reads them
// so no update is dropped; after Close they are discarded.
type ChannelSink struct {
	events    chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{
		events: make(chan tea.Msg, buffer),
		done:   make(chan struct{}),
	}
}

func (s *ChannelSink) send(msg tea.Msg) {
	select {
	case <-s.done:
	case s.events <- msg:
	}
}

func (s *ChannelSink) Append(msg chat.Message) { s.send(messageAppendedMsg{msg}) }
func (s *ChannelSink) Update(msg chat.Message) { s.send(messageUpdatedMsg{msg}) }
func (s *ChannelSink) SetBusy(busy bool) { s.send(busyMsg{busy}) }
func (s *ChannelSink) ClearInput() { s.send(clearInputMsg{}) }
func (s *ChannelSink) Alert(text string) { s.send(alertMsg{text}) }
func (s *ChannelSink) ShowModelInfo(info api.ModelInfo) { s.send(modelInfoMsg{info}) }

// Close stops delivery; pending and future sends are dropped
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// listen waits for the next sink event. The Model re-arms it after every
// event it handles.
func (s *ChannelSink) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.events:
			return msg
		case <-s.done:
			return nil
		}
	}
}
