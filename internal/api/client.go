// internal/api/client.go
// Client for the generation backend: POST /generate and GET /model-info
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is where the backend listens when run locally
	DefaultBaseURL = "http://localhost:5000"

	GeneratePath  = "/generate"
	ModelInfoPath = "/model-info"

	// maxReplyBytes caps how much of a reply body is read
	maxReplyBytes = 1 << 20
)

// Client talks to the generation backend. It performs exactly one HTTP
// request per call and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for DefaultBaseURL
func NewClient() *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 2,
			},
		},
	}
}

// NewClientWithBaseURL creates a client with a custom base URL
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Generate posts the prompt and returns the generated text. A reply that
// carries an error field is returned as a *ServerError whatever its status.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(GenerateRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	req, err := newRequestWithBody(ctx, http.MethodPost, c.baseURL+GeneratePath, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}

	var reply GenerateReply
	if err := json.Unmarshal(data, &reply); err != nil {
		if !isSuccess(resp.StatusCode) {
			return "", statusError(resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}

	if reply.Error != nil {
		return "", &ServerError{StatusCode: resp.StatusCode, Message: *reply.Error}
	}
	if !isSuccess(resp.StatusCode) {
		return "", statusError(resp.StatusCode)
	}
	if reply.Response == nil {
		return "", ErrMissingResponse
	}

	return *reply.Response, nil
}

// ModelInfo fetches the backend's model metadata
func (c *Client) ModelInfo(ctx context.Context) (ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ModelInfoPath, nil)
	if err != nil {
		return ModelInfo{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ModelInfo{}, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return ModelInfo{}, statusError(resp.StatusCode)
	}

	var info ModelInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReplyBytes)).Decode(&info); err != nil {
		return ModelInfo{}, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	return info, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// newRequestWithBody creates a request whose body can be re-read through GetBody
func newRequestWithBody(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.Body, _ = req.GetBody()
	req.ContentLength = int64(len(body))
	return req, nil
}
