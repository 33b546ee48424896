package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct{ n int }

func (f fakeCounter) Len() int { return f.n }

func TestHandler_HandleHealth(t *testing.T) {
	h := New("sse", "streamable", fakeCounter{n: 3})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "sse", status.InputMode)
	assert.Equal(t, "streamable", status.OutputMode)
	assert.Equal(t, 3, status.Sessions)
}

func TestHandler_HandleMetrics(t *testing.T) {
	h := New("streamable", "sse", fakeCounter{n: 2})
	h.ObserveFrame("upstream")
	h.ObserveFrame("frontend")
	h.ObserveFrame("frontend")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.HandleMetrics(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "mcp_proxy_sessions_active 2")
	assert.Contains(t, body, `mcp_proxy_frames_forwarded_total{direction="frontend"} 2`)
	assert.Contains(t, body, `mcp_proxy_frames_forwarded_total{direction="upstream"} 1`)
}
