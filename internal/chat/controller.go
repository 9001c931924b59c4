// Package chat owns the request/response cycle of the chat client: prompt
// validation, the append-only message log, single-flight submission and
// the one-shot model info fetch.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"magicai/internal/api"
)

var (
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrBusy        = errors.New("a request is already in flight")
)

// EmptyPromptAlert is shown when the user submits blank input
const EmptyPromptAlert = "Please enter a prompt first."

// Backend is the network side of the controller
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelInfo(ctx context.Context) (api.ModelInfo, error)
}

// Sink receives every change the user should see. Calls arrive in the
// order the changes happen and never while the controller holds its lock.
type Sink interface {
	Append(msg Message)
	Update(msg Message)
	SetBusy(busy bool)
	ClearInput()
	Alert(text string)
	ShowModelInfo(info api.ModelInfo)
}

type Option func(*Controller)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout bounds each backend call. Zero, the default, means none.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// Controller drives one chat session
type Controller struct {
	backend Backend
	sink    Sink
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
	newID   func() string

	mu       sync.Mutex
	messages []Message
	inFlight bool
	cancel   context.CancelFunc
	info     api.ModelInfo
}

func NewController(backend Backend, sink Sink, opts ...Option) *Controller {
	if sink == nil {
		sink = nopSink{}
	}
	c := &Controller{
		backend: backend,
		sink:    sink,
		logger:  zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitQuery sends one prompt and resolves its placeholder. Blank prompts
// return ErrEmptyPrompt and a submission while another is pending returns
// ErrBusy; neither touches the log. Backend failures are not returned: they
// end up in the resolved message with StatusError.
func (c *Controller) SubmitQuery(ctx context.Context, prompt string) (Message, error) {
	if strings.TrimSpace(prompt) == "" {
		c.sink.Alert(EmptyPromptAlert)
		return Message{}, ErrEmptyPrompt
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return Message{}, ErrBusy
	}
	c.inFlight = true
	reqCtx, cancel := c.requestContext(ctx)
	c.cancel = cancel

	user := c.newMessage(RoleUser, StatusNormal, prompt)
	placeholder := c.newMessage(RoleBot, StatusLoading, PlaceholderText)
	c.messages = append(c.messages, user, placeholder)
	index := len(c.messages) - 1
	c.mu.Unlock()

	c.sink.Append(user)
	c.sink.Append(placeholder)
	c.sink.SetBusy(true)

	c.logger.Debug("submitting prompt",
		zap.String("message_id", placeholder.ID),
		zap.Int("prompt_len", len(prompt)))

	start := c.now()
	text, err := c.backend.Generate(reqCtx, prompt)
	cancel()

	resolved := placeholder
	if err != nil {
		resolved.Status = StatusError
		resolved.Text = FormatError(err)
		c.logger.Warn("generate failed",
			zap.String("message_id", resolved.ID),
			zap.Error(err))
	} else {
		resolved.Status = StatusNormal
		resolved.Text = text
		c.logger.Info("generate succeeded",
			zap.String("message_id", resolved.ID),
			zap.Duration("elapsed", c.now().Sub(start)))
	}

	c.mu.Lock()
	c.messages[index] = resolved
	c.mu.Unlock()

	c.sink.Update(resolved)

	c.mu.Lock()
	c.inFlight = false
	c.cancel = nil
	c.mu.Unlock()

	c.sink.SetBusy(false)
	c.sink.ClearInput()

	return resolved, nil
}

// Cancel aborts the pending request, if any. The placeholder then resolves
// through the transport error path.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// LoadModelInfo fetches the model metadata once. Failures are logged and
// leave the display fields blank; the error is returned for callers that
// want to report it themselves.
func (c *Controller) LoadModelInfo(ctx context.Context) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	info, err := c.backend.ModelInfo(ctx)
	if err != nil {
		c.logger.Warn("fetching model info failed", zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.info = info
	c.mu.Unlock()

	c.sink.ShowModelInfo(info)
	return nil
}

// Messages returns a copy of the log in display order
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// ModelInfo returns the loaded metadata, zero if it never loaded
func (c *Controller) ModelInfo() api.ModelInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// Busy reports whether a request is in flight
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func (c *Controller) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Controller) newMessage(role Role, status Status, text string) Message {
	return Message{
		ID:        c.newID(),
		Role:      role,
		Status:    status,
		Text:      text,
		Timestamp: c.now(),
	}
}

// FormatError turns a backend failure into the text of the bot message.
// Errors reported by the server are shown verbatim, even when empty;
// anything else is a transport failure and gets an "Error: " prefix.
func FormatError(err error) string {
	var serverErr *api.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Message
	}
	return "Error: " + err.Error()
}

type nopSink struct{}

func (nopSink) Append(Message) {}
func (nopSink) Update(Message) {}
func (nopSink) SetBusy(bool) {}
func (nopSink) ClearInput() {}
func (nopSink) Alert(string) {}
func (nopSink) ShowModelInfo(api.ModelInfo) {}
