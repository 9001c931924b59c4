package api

import (
	"errors"
	"fmt"
	"net/http"
)

// GenerateRequest is the body of POST /generate
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateReply is the body returned by POST /generate. Exactly one of the
// fields is expected; pointers distinguish a missing key from an empty one.
type GenerateReply struct {
	Response *string `json:"response,omitempty"`
	Error    *string `json:"error,omitempty"`
}

// ModelInfo is the body returned by GET /model-info
type ModelInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

var (
	ErrInvalidReply    = errors.New("invalid JSON reply")
	ErrMissingResponse = errors.New("reply has neither response nor error")

	ErrRateLimit      = errors.New("rate limit exceeded (429)")
	ErrServerBusy     = errors.New("server busy (503)")
	ErrBadGateway     = errors.New("bad gateway (502)")
	ErrGatewayTimeout = errors.New("gateway timeout (504)")
)

// ServerError is an application-level failure reported by the backend in
// the reply's error field. Its message is shown to the user verbatim.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// statusError returns a descriptive error for an HTTP status
func statusError(code int) error {
	switch code {
	case http.StatusTooManyRequests:
		return ErrRateLimit
	case http.StatusBadGateway:
		return ErrBadGateway
	case http.StatusServiceUnavailable:
		return ErrServerBusy
	case http.StatusGatewayTimeout:
		return ErrGatewayTimeout
	default:
		return fmt.Errorf("HTTP %d", code)
	}
}
