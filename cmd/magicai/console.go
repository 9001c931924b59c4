package main

import (
	"fmt"
	"io"

	"magicai/internal/api"
	"magicai/internal/chat"
)

// consoleSink prints resolved replies for the non-interactive commands.
// Replies go to out, error replies and alerts to errOut.
type consoleSink struct {
	out    io.Writer
	errOut io.Writer
}

func newConsoleSink(out, errOut io.Writer) *consoleSink {
	return &consoleSink{out: out, errOut: errOut}
}

func (s *consoleSink) Append(chat.Message) {}
func (s *consoleSink) SetBusy(bool) {}
func (s *consoleSink) ClearInput() {}

func (s *consoleSink) Update(msg chat.Message) {
	if msg.Status == chat.StatusError {
		fmt.Fprintln(s.errOut, msg.Text)
		return
	}
	fmt.Fprintln(s.out, msg.Text)
}

func (s *consoleSink) Alert(text string) {
	fmt.Fprintln(s.errOut, text)
}

func (s *consoleSink) ShowModelInfo(info api.ModelInfo) {
	fmt.Fprintf(s.out, "name:        %s\n", info.Name)
	fmt.Fprintf(s.out, "version:     %s\n", info.Version)
	fmt.Fprintf(s.out, "description: %s\n", info.Description)
}
