// Package session holds the process-wide session table and the per-session
// state the bridge coordinates over. A Session is owned by the listener
// that created it; the bridge keeps a back-reference for routing.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/mcp-proxy"
)

// Transport tags one side of a session by wire protocol.
type Transport string

const (
	TransportSSE        Transport = "sse"
	TransportStreamable Transport = "streamable"
)

// FrameWriter is the write side of a session's frontend or upstream
// handle: deliver one already-encoded wire frame.
type FrameWriter interface {
	WriteFrame(data []byte) error
}

// Closer releases whatever resources back a handle. Close is idempotent.
type Closer interface {
	Close() error
}

// FrameWriteCloser is the uniform shape a listener or upstream client
// hands the bridge for one direction of traffic.
type FrameWriteCloser interface {
	FrameWriter
	Closer
}

// Session is one downstream client's logical conversation with the proxy.
type Session struct {
	Id        string
	CreatedAt time.Time

	FrontendTransport Transport
	UpstreamTransport Transport

	// Frontend is the write side of the downstream stream; set at
	// admission and constant for the session's lifetime.
	Frontend FrameWriteCloser

	// Upstream is the send side of the upstream connection; nil until
	// the bridge reaches Active.
	mux      sync.RWMutex
	upstream FrameWriteCloser

	alive int32 // atomic bool, 1 == live

	// pendingId is the single outstanding request id for HTTP-to-*
	// flows; the frontend ends its response once a reply matching it
	// is written. SSE frontends leave this unset.
	pendingMux sync.Mutex
	pendingId  jsonrpc.RequestId
	hasPending bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Session in the live state, owned by frontend.
func New(id string, frontendTransport, upstreamTransport Transport, frontend FrameWriteCloser) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		Id:                id,
		CreatedAt:         time.Now(),
		FrontendTransport: frontendTransport,
		UpstreamTransport: upstreamTransport,
		Frontend:          frontend,
		alive:             1,
		ctx:               ctx,
		cancel:            cancel,
	}
}

// Context returns a context bound to the session's lifetime: it is
// canceled exactly when MarkClosing is called. Upstream sends use it so a
// session close interrupts any in-flight write.
func (s *Session) Context() context.Context {
	return s.ctx
}

// SetUpstream binds the upstream handle once connect succeeds.
func (s *Session) SetUpstream(upstream FrameWriteCloser) {
	s.mux.Lock()
	s.upstream = upstream
	s.mux.Unlock()
}

// Upstream returns the bound upstream handle, or nil if not yet Active.
func (s *Session) Upstream() FrameWriteCloser {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.upstream
}

// Alive reports whether the session has not yet been asked to close.
func (s *Session) Alive() bool {
	return atomic.LoadInt32(&s.alive) == 1
}

// Done returns a channel closed when the session transitions to Closing.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// MarkClosing flips the liveness flag and signals Done exactly once.
func (s *Session) MarkClosing() {
	if atomic.CompareAndSwapInt32(&s.alive, 1, 0) {
		s.cancel()
	}
}

// Await records id as the single in-flight request for an HTTP-to-*
// frontend. Resolve reports whether a reply's id matches it.
func (s *Session) Await(id jsonrpc.RequestId) {
	s.pendingMux.Lock()
	defer s.pendingMux.Unlock()
	s.pendingId = id
	s.hasPending = true
}

// Resolve reports whether id matches the awaited request id. Streamable
// frontends use this to know when to end the held response.
func (s *Session) Resolve(id jsonrpc.RequestId) bool {
	s.pendingMux.Lock()
	defer s.pendingMux.Unlock()
	if !s.hasPending {
		return false
	}
	return idsEqual(s.pendingId, id)
}

func idsEqual(a, b jsonrpc.RequestId) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	return a == b
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
