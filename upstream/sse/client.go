// Package sse implements the SSE variant of the upstream client: it opens
// a GET stream against the upstream, learns the message-post path from
// the initial `endpoint` event, and POSTs outgoing frames to that path.
package sse

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/mcp-proxy"
	"github.com/viant/mcp-proxy/frame"
	"github.com/viant/mcp-proxy/upstream"
)

// defaultHandshakeTimeout bounds how long connect waits for the initial
// endpoint event before failing with HandshakeFailedError.
const defaultHandshakeTimeout = 10 * time.Second

// Client is the SSE variant of upstream.Client.
type Client struct {
	streamURL        string
	host             string
	handshakeTimeout time.Duration
	httpClient       *http.Client
	logger           jsonrpc.Logger

	mux      sync.Mutex
	endpoint string
	body     io.Closer
	sendMux  sync.Mutex

	frames chan []byte
	closed chan struct{}
	once   sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithHandshakeTimeout overrides how long connect waits for the endpoint
// event.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.handshakeTimeout = timeout }
}

// WithLogger overrides the logger used for unsolicited stream events.
func WithLogger(logger jsonrpc.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client bound to streamURL, the upstream's SSE endpoint.
func New(streamURL string, opts ...Option) *Client {
	c := &Client{
		streamURL:        streamURL,
		host:             fmt.Sprintf("%s://%s", url.Scheme(streamURL, "http"), url.Host(streamURL)),
		handshakeTimeout: defaultHandshakeTimeout,
		httpClient:       &http.Client{},
		logger:           jsonrpc.DefaultLogger,
		frames:           make(chan []byte, 64),
		closed:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the GET stream and blocks until the endpoint handshake
// completes or handshakeTimeout elapses.
func (c *Client) Connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.streamURL, nil)
	if err != nil {
		return upstream.NewUnavailableError(c.streamURL, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return upstream.NewUnavailableError(c.streamURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return upstream.NewUnavailableError(c.streamURL, fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	decoder := frame.NewSSEDecoder(resp.Body, func(err error) { c.logger.Errorf("sse upstream decode: %v", err) })

	handshakeCtx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()

	type handshakeResult struct {
		ev  *frame.Event
		err error
	}
	resultCh := make(chan handshakeResult, 1)
	go func() {
		ev, err := decoder.Next()
		resultCh <- handshakeResult{ev, err}
	}()

	select {
	case <-handshakeCtx.Done():
		_ = resp.Body.Close()
		return upstream.NewHandshakeFailedError(c.streamURL, handshakeCtx.Err())
	case res := <-resultCh:
		if res.err != nil {
			_ = resp.Body.Close()
			return upstream.NewHandshakeFailedError(c.streamURL, res.err)
		}
		if res.ev.Kind != frame.EventEndpoint || len(res.ev.Data) == 0 {
			_ = resp.Body.Close()
			return upstream.NewHandshakeFailedError(c.streamURL, fmt.Errorf("expected endpoint event, got %q", res.ev.Name))
		}
		c.mux.Lock()
		c.endpoint = url.Join(c.host, string(res.ev.Data))
		c.body = resp.Body
		c.mux.Unlock()
	}

	go c.pump(resp.Body, decoder)
	return nil
}

func (c *Client) pump(body io.ReadCloser, decoder *frame.SSEDecoder) {
	defer body.Close()
	defer close(c.frames)
	for {
		ev, err := decoder.Next()
		if err != nil {
			return
		}
		switch ev.Kind {
		case frame.EventMessage:
			if kind, _, method, err := frame.Classify(ev.Data); err == nil && kind == frame.KindRequest {
				c.logger.Errorf("dropping server-initiated request %q from upstream: no POST-back path to answer it", method)
				continue
			}
			select {
			case c.frames <- ev.Data:
			case <-c.closed:
				return
			}
		case frame.EventPing:
			// heartbeat, nothing to deliver
		default:
			c.logger.Errorf("unexpected upstream sse event: %s", ev.Name)
		}
	}
}

// Send POSTs frame to the learned message endpoint. Calls are serialized.
func (c *Client) Send(ctx context.Context, data []byte) error {
	c.sendMux.Lock()
	defer c.sendMux.Unlock()
	c.mux.Lock()
	endpoint := c.endpoint
	c.mux.Unlock()
	if endpoint == "" {
		return fmt.Errorf("sse upstream: send before connect completed")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send upstream request: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return nil
	default:
		return fmt.Errorf("upstream post rejected: status %d: %s", resp.StatusCode, body)
	}
}

// Frames returns the channel of frames read from the upstream stream.
func (c *Client) Frames() <-chan []byte {
	return c.frames
}

// Close idempotently stops the read pump.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.closed)
		c.mux.Lock()
		body := c.body
		c.mux.Unlock()
		if body != nil {
			_ = body.Close()
		}
	})
	return nil
}
