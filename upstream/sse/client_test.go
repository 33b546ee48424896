package sse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSSEServer(t *testing.T, endpointPath string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpointPath)
		fmt.Fprintf(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{}}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	mux.HandleFunc(endpointPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	return httptest.NewServer(mux)
}

func TestClient_ConnectAndReceiveMessage(t *testing.T) {
	srv := newSSEServer(t, "/messages/up")
	defer srv.Close()

	c := New(srv.URL + "/sse")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	select {
	case frame := <-c.Frames():
		assert.Contains(t, string(frame), `"id":1`)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a frame to be published")
	}
}

func TestClient_Send(t *testing.T) {
	srv := newSSEServer(t, "/messages/up")
	defer srv.Close()

	c := New(srv.URL + "/sse")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	err := c.Send(context.Background(), []byte(`{"jsonrpc":"2.0","method":"ping","id":2}`))
	assert.NoError(t, err)
}

func TestClient_DropsServerInitiatedRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", "/messages/up")
		fmt.Fprint(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":9,\"method\":\"sampling/createMessage\"}\n\n")
		fmt.Fprint(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":10,\"result\":{}}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	mux.HandleFunc("/messages/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL + "/sse")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	select {
	case frame := <-c.Frames():
		assert.Contains(t, string(frame), `"id":10`)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the response frame to be published")
	}
}

func TestClient_ConnectFailsWithoutEndpointEvent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "event: custom\ndata: nope\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL+"/sse", WithHandshakeTimeout(200*time.Millisecond))
	err := c.Connect(context.Background())
	assert.Error(t, err)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	srv := newSSEServer(t, "/messages/up")
	defer srv.Close()

	c := New(srv.URL + "/sse")
	require.NoError(t, c.Connect(context.Background()))
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
