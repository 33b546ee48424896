// Package streamable implements the streamable-HTTP variant of the
// frontend listener: a single POST route whose response is held open and
// streamed as NDJSON until the frame matching the request's id is
// written.
package streamable

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/viant/mcp-proxy/frame"
	"github.com/viant/mcp-proxy/frontend"
	"github.com/viant/mcp-proxy/session"
)

// Options configures the path the Handler binds.
type Options struct {
	Path string
}

// Option mutates Options.
type Option func(*Options)

// WithPath overrides the POST route path. Default "/mcp".
func WithPath(path string) Option {
	return func(o *Options) { o.Path = path }
}

// Handler is the streamable-HTTP frontend listener.
type Handler struct {
	Options
	bridge frontend.Router
}

// New creates a Handler that hands admitted sessions and frames to
// bridge.
func New(bridge frontend.Router, opts ...Option) *Handler {
	h := &Handler{
		Options: Options{Path: "/mcp"},
		bridge:  bridge,
	}
	for _, opt := range opts {
		opt(&h.Options)
	}
	return h
}

// Register mounts the handler's route on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc(h.Path, h.handlePost).Methods(http.MethodPost)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Transfer-Encoding", "chunked")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writer := frontend.NewFlushWriter(w)

	id := session.NewID()
	sess := h.bridge.Admit(r.Context(), id, session.TransportStreamable, writer)

	kind, requestId, _, classifyErr := frame.Classify(data)
	if classifyErr == nil && kind == frame.KindRequest {
		sess.Await(requestId)
	}

	h.bridge.Route(r.Context(), sess, data)

	if classifyErr != nil || kind != frame.KindRequest {
		// Notifications, malformed frames, and stray responses have no
		// awaited reply; any error reply Route wrote is already in the
		// body, so end the response once routing has happened.
		sess.MarkClosing()
		return
	}

	select {
	case <-sess.Done():
	case <-r.Context().Done():
		sess.MarkClosing()
	}
}
