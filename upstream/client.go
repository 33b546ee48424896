// Package upstream defines the uniform surface the bridge drives an
// upstream MCP server connection through, plus the SSE and streamable-HTTP
// implementations of it.
package upstream

import "context"

// Client is the uniform interface the bridge uses regardless of which
// wire transport the upstream speaks. Implementations serialize Send
// calls internally; callers need not synchronize.
type Client interface {
	// Connect establishes the transport-specific connection. It fails
	// with an *UnavailableError or *HandshakeFailedError.
	Connect(ctx context.Context) error

	// Send delivers one already-encoded JSON-RPC frame upstream. It
	// returns once the frame has been written, not once a reply
	// arrives.
	Send(ctx context.Context, frame []byte) error

	// Frames returns the channel frames arriving from upstream are
	// published on, in receipt order. The SSE variant closes the channel
	// when its upstream stream ends, after Close or on its own; the
	// streamable-HTTP variant never closes it.
	Frames() <-chan []byte

	// Close idempotently tears down the connection and stops further
	// publishing on Frames.
	Close() error
}
