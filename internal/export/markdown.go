// internal/export/markdown.go
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"magicai/internal/api"
	"magicai/internal/chat"
)

// Transcript contains the data needed to export a chat session
type Transcript struct {
	SessionID string
	CreatedAt time.Time
	Model     api.ModelInfo
	Messages  []chat.Message
}

// ExportTranscript generates a formatted markdown string from a session
func ExportTranscript(t *Transcript) string {
	var sb strings.Builder

	sb.WriteString("# magicai transcript\n\n")

	// Metadata section
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("**Session:** `%s`\n\n", t.SessionID))
	sb.WriteString(fmt.Sprintf("**Created:** %s\n\n", t.CreatedAt.Format("2006-01-02 15:04:05")))
	if t.Model.Name != "" {
		sb.WriteString(fmt.Sprintf("**Model:** %s", t.Model.Name))
		if t.Model.Version != "" {
			sb.WriteString(fmt.Sprintf(" (v%s)", t.Model.Version))
		}
		sb.WriteString("\n\n")
		if t.Model.Description != "" {
			sb.WriteString(fmt.Sprintf("*%s*\n\n", t.Model.Description))
		}
	}
	sb.WriteString("---\n\n")

	sb.WriteString("## Conversation\n\n")

	if len(t.Messages) == 0 {
		sb.WriteString("_No messages._\n")
	}

	for i, msg := range t.Messages {
		ts := msg.Timestamp.Format("15:04:05")
		sb.WriteString(fmt.Sprintf("### [%s] %s%s\n\n", ts, formatRole(msg.Role), statusSuffix(msg.Status)))

		content := strings.TrimSpace(msg.Text)
		if containsCodeBlock(content) {
			sb.WriteString(content)
			sb.WriteString("\n")
		} else {
			for _, line := range strings.Split(content, "\n") {
				sb.WriteString("> ")
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from magicai on %s*\n", time.Now().Format("2006-01-02 15:04:05")))

	return sb.String()
}

// WriteTranscript exports a session to a markdown file under baseDir/transcripts
func WriteTranscript(t *Transcript, baseDir string) (string, error) {
	// YYYY-MM-DD-<session prefix>.md
	datePart := t.CreatedAt.Format("2006-01-02")
	filename := fmt.Sprintf("%s-%s.md", datePart, sanitizeFilename(shortID(t.SessionID)))

	dir := filepath.Join(baseDir, "transcripts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create transcripts directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(ExportTranscript(t)), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return path, nil
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

func statusSuffix(status chat.Status) string {
	switch status {
	case chat.StatusLoading:
		return " (pending)"
	case chat.StatusError:
		return " (error)"
	default:
		return ""
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// sanitizeFilename removes/replaces characters unsuitable for filenames
func sanitizeFilename(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' || r == '_':
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	result = strings.Trim(result, "-")

	if result == "" {
		result = "session"
	}
	if len(result) > 50 {
		result = result[:50]
	}
	return result
}

// containsCodeBlock checks if content already has markdown code blocks
func containsCodeBlock(content string) bool {
	return strings.Contains(content, "```")
}
