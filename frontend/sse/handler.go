// Package sse implements the SSE variant of the frontend listener: a GET
// route that holds a long-lived event stream open, and a POST route that
// accepts one frame per call against a previously admitted session.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/viant/mcp-proxy/frame"
	"github.com/viant/mcp-proxy/frontend"
	"github.com/viant/mcp-proxy/session"
)

// heartbeatInterval is how often a :ping comment is written on an open
// SSE stream to keep intermediaries from idling the connection.
const heartbeatInterval = 30 * time.Second

// Options configures the paths the Handler binds.
type Options struct {
	SSEPath     string
	MessagePath string
}

// Option mutates Options.
type Option func(*Options)

// WithSSEPath overrides the GET route path. Default "/sse".
func WithSSEPath(path string) Option {
	return func(o *Options) { o.SSEPath = path }
}

// WithMessagePath overrides the POST route base path. Default "/messages".
func WithMessagePath(path string) Option {
	return func(o *Options) { o.MessagePath = path }
}

// Handler is the SSE frontend listener.
type Handler struct {
	Options
	bridge frontend.Router
}

// New creates a Handler that hands admitted sessions and frames to
// bridge.
func New(bridge frontend.Router, opts ...Option) *Handler {
	h := &Handler{
		Options: Options{SSEPath: "/sse", MessagePath: "/messages"},
		bridge:  bridge,
	}
	for _, opt := range opts {
		opt(&h.Options)
	}
	return h
}

// Register mounts the handler's routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc(h.SSEPath, h.handleStream).Methods(http.MethodGet)
	r.HandleFunc(h.MessagePath+"/{session_id}", h.handleMessage).Methods(http.MethodPost)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	writer := frontend.NewFlushWriter(w)

	id := session.NewID()
	if err := writer.WriteFrame(frame.EncodeEndpoint(fmt.Sprintf("%s/%s", trimLeadingSlash(h.MessagePath), id))); err != nil {
		return
	}

	sess := h.bridge.Admit(r.Context(), id, session.TransportSSE, writer)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			sess.MarkClosing()
			return
		case <-sess.Done():
			return
		case <-ticker.C:
			if err := writer.WriteFrame(frame.EncodePing()); err != nil {
				sess.MarkClosing()
				return
			}
		}
	}
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["session_id"]

	s, ok := h.bridge.Lookup(sessionId)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Session not found"})
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read request body: %v", err), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	h.bridge.Route(r.Context(), s, data)
	w.WriteHeader(http.StatusAccepted)
}

func trimLeadingSlash(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}
