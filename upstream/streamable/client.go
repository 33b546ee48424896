// Package streamable implements the streamable-HTTP variant of the
// upstream client: connect is trivial, and each Send opens a POST whose
// NDJSON response body is drained into the shared incoming-frames
// channel before the call returns.
package streamable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/viant/mcp-proxy/frame"
	"github.com/viant/mcp-proxy/upstream"
)

// Client is the streamable-HTTP variant of upstream.Client.
type Client struct {
	endpoint   string
	httpClient *http.Client

	sendMux sync.Mutex
	frames  chan []byte
	closed  chan struct{}
	once    sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// New creates a Client bound to endpoint, the upstream's streamable-HTTP
// URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		frames:     make(chan []byte, 64),
		closed:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect is a no-op beyond recording readiness: the streamable-HTTP
// upstream variant has no persistent connection to establish.
func (c *Client) Connect(ctx context.Context) error {
	return nil
}

// Send POSTs data and drains the NDJSON response body into Frames before
// returning. Calls are serialized so a slow upstream response does not
// interleave with a concurrent Send.
func (c *Client) Send(ctx context.Context, data []byte) error {
	c.sendMux.Lock()
	defer c.sendMux.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return upstream.NewUnavailableError(c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upstream post rejected: status %d: %s", resp.StatusCode, body)
	}

	decoder := frame.NewNDJSONDecoder(resp.Body, nil)
	for {
		line, err := decoder.Next()
		if err != nil {
			return nil
		}
		select {
		case c.frames <- line:
		case <-c.closed:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Frames returns the channel frames parsed from response bodies are
// published on. The channel is never closed, not even by Close.
func (c *Client) Frames() <-chan []byte {
	return c.frames
}

// Close idempotently marks the client closed; in-flight Sends observe it
// at their next publish attempt.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}
