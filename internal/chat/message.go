package chat

import "time"

// Role identifies who authored a message
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Status is the lifecycle state of a message. Only the bot placeholder
// ever leaves StatusLoading, and it does so exactly once.
type Status string

const (
	StatusNormal  Status = "normal"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// PlaceholderText is shown in the bot message while a request is pending
const PlaceholderText = "Thinking..."

// Message is one entry of the append-only log
type Message struct {
	ID        string
	Role      Role
	Status    Status
	Text      string
	Timestamp time.Time
}

// IsPending reports whether the message is the unresolved placeholder
func (m Message) IsPending() bool {
	return m.Role == RoleBot && m.Status == StatusLoading
}
