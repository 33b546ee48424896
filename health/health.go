// Package health exposes the proxy's liveness surface: a JSON /health
// endpoint for load balancers and a Prometheus /metrics endpoint for
// observability. Neither is part of the core frame/session/bridge
// pipeline; both just read counters it maintains.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionCounter reports how many sessions are currently live. The
// bridge's session.Table satisfies this via Len.
type SessionCounter interface {
	Len() int
}

// Status is the JSON body served at /health.
type Status struct {
	Status     string `json:"status"`
	InputMode  string `json:"inputMode"`
	OutputMode string `json:"outputMode"`
	Sessions   int    `json:"sessions"`
}

// Handler serves /health and /metrics for one running proxy instance.
type Handler struct {
	inputMode  string
	outputMode string
	sessions   SessionCounter

	registry        *prometheus.Registry
	sessionGauge    prometheus.Gauge
	framesForwarded *prometheus.CounterVec
}

// New creates a Handler reporting inputMode/outputMode verbatim in
// /health and registering its own Prometheus collectors.
func New(inputMode, outputMode string, sessions SessionCounter) *Handler {
	registry := prometheus.NewRegistry()
	h := &Handler{
		inputMode:  inputMode,
		outputMode: outputMode,
		sessions:   sessions,
		registry:   registry,
		sessionGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcp_proxy_sessions_active",
			Help: "Number of sessions currently admitted.",
		}),
		framesForwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_proxy_frames_forwarded_total",
			Help: "Frames forwarded between a frontend and its upstream.",
		}, []string{"direction"}),
	}
	registry.MustRegister(h.sessionGauge, h.framesForwarded)
	return h
}

// ObserveFrame increments the forwarded-frame counter for direction,
// which is either "upstream" or "frontend".
func (h *Handler) ObserveFrame(direction string) {
	h.framesForwarded.WithLabelValues(direction).Inc()
}

// HandleHealth serves the /health endpoint.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(Status{
		Status:     "ok",
		InputMode:  h.inputMode,
		OutputMode: h.outputMode,
		Sessions:   h.sessions.Len(),
	})
}

// HandleMetrics serves the /metrics endpoint in Prometheus exposition
// format.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.sessionGauge.Set(float64(h.sessions.Len()))
	promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}).ServeHTTP(w, r)
}
