// Package frontend defines the uniform contract the bridge uses to admit
// downstream clients regardless of wire transport, plus the SSE and
// streamable-HTTP listener implementations of it.
package frontend

import (
	"context"
	"net/http"
	"sync"

	"github.com/viant/mcp-proxy/session"
)

// Router is the bridge's side of the frontend/bridge boundary. A listener
// mints its own session id (it may need to advertise the id, e.g. in an
// SSE endpoint event, before the session exists), calls Admit once per new
// downstream connection, and calls Route for every frame it reads off
// that connection afterward.
type Router interface {
	// Admit inserts a session under id bound to frontend into the table
	// and connects the matching upstream, blocking only for the bounded
	// connect phase. On success it starts the upstream-to-frontend pump
	// in the background and returns the Active session. On failure it
	// writes a single JSON-RPC error frame to frontend, leaves the
	// session in Closing, and returns it anyway so the caller can still
	// observe sess.Done().
	Admit(ctx context.Context, id string, frontendTransport session.Transport, frontend session.FrameWriteCloser) *session.Session

	// Route forwards one frame received from an already-admitted
	// frontend session to its bound upstream. Frames that are neither a
	// well-formed request nor a notification are rejected with a
	// correlated -32600 error written back to the frontend instead of
	// being forwarded. Callers that need to know when a specific reply
	// has been written back (HTTP-to-* flows) call sess.Await before
	// Route and then wait on sess.Done().
	Route(ctx context.Context, sess *session.Session, data []byte)

	// Lookup returns the session admitted under id, if it is still live.
	// The SSE message-post route uses this to resolve the session a
	// frame belongs to.
	Lookup(id string) (*session.Session, bool)
}

// FlushWriter wraps an http.ResponseWriter so that every WriteFrame call
// is flushed immediately, which is required for both SSE streams and
// chunked NDJSON responses to reach the client without buffering delay.
// Writes are serialized: the heartbeat task and the upstream-to-frontend
// pump both call WriteFrame on the same session and must never interleave
// partial records.
type FlushWriter struct {
	ResponseWriter http.ResponseWriter
	flusher        http.Flusher
	mux            sync.Mutex
}

// NewFlushWriter wraps w. If w does not implement http.Flusher, writes
// still succeed but are not flushed early.
func NewFlushWriter(w http.ResponseWriter) *FlushWriter {
	flusher, _ := w.(http.Flusher)
	return &FlushWriter{ResponseWriter: w, flusher: flusher}
}

// WriteFrame writes data as-is and flushes.
func (f *FlushWriter) WriteFrame(data []byte) error {
	f.mux.Lock()
	defer f.mux.Unlock()
	if _, err := f.ResponseWriter.Write(data); err != nil {
		return err
	}
	if f.flusher != nil {
		f.flusher.Flush()
	}
	return nil
}

// Close is a no-op: the handle's lifetime is tied to the HTTP handler
// goroutine, which ends when ServeHTTP returns.
func (f *FlushWriter) Close() error {
	return nil
}
