// Package commands handles slash command parsing for the magicai TUI.
package commands

import (
	"strings"
)

// Command interface for all command types
type Command interface {
	Type() string
}

// Help toggles the help overlay
type Help struct{}

func (Help) Type() string { return "help" }

// ShowInfo shows the model info loaded at startup
type ShowInfo struct{}

func (ShowInfo) Type() string { return "info" }

// Export writes the transcript as markdown. Dir is empty for the configured default.
type Export struct {
	Dir string
}

func (Export) Type() string { return "export" }

// Cancel aborts the pending request
type Cancel struct{}

func (Cancel) Type() string { return "cancel" }

// Quit exits the program
type Quit struct{}

func (Quit) Type() string { return "quit" }

// Usage describes one command for the help overlay
type Usage struct {
	Syntax      string
	Description string
}

// Usages lists the commands in the order help shows them
var Usages = []Usage{
	{"/help", "Toggle this help overlay"},
	{"/info", "Show model name, version and description"},
	{"/export [dir]", "Export the conversation to markdown"},
	{"/cancel", "Cancel the pending request"},
	{"/quit", "Quit"},
}

// Parse parses user input and returns the appropriate Command.
// Returns nil if the input is not a known slash command, so prompts such as
// "/usr/bin/env explain this" go to the backend unchanged.
func Parse(input string) Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/?":
		return Help{}

	case "/info":
		return ShowInfo{}

	case "/export":
		return Export{Dir: strings.Join(args, " ")}

	case "/cancel":
		return Cancel{}

	case "/quit", "/exit":
		return Quit{}

	default:
		return nil
	}
}
