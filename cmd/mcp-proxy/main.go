// Command mcp-proxy runs the JSON-RPC/MCP transport-translating reverse
// proxy: it accepts downstream clients over SSE or streamable HTTP, binds
// each to a freshly dialed upstream MCP server connection, and bridges
// frames between them until either side disconnects.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gorilla/mux"

	"github.com/viant/mcp-proxy/bridge"
	"github.com/viant/mcp-proxy/frontend"
	ssefrontend "github.com/viant/mcp-proxy/frontend/sse"
	streamablefrontend "github.com/viant/mcp-proxy/frontend/streamable"
	"github.com/viant/mcp-proxy/health"
	"github.com/viant/mcp-proxy/internal/clog"
	"github.com/viant/mcp-proxy/session"
	"github.com/viant/mcp-proxy/upstream"
	sseupstream "github.com/viant/mcp-proxy/upstream/sse"
	streamableupstream "github.com/viant/mcp-proxy/upstream/streamable"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var cli struct {
	InputMode    string `default:"sse" enum:"sse,streamable" help:"frontend transport downstream clients speak"`
	OutputMode   string `default:"streamable" enum:"sse,streamable" help:"transport used to reach the upstream MCP server"`
	Port         int    `default:"3000" help:"port the proxy listens on"`
	Endpoint     string `help:"upstream MCP server base URL (default derived from --output-mode)"`
	SSEEndpoint  string `default:"/sse" help:"path the SSE frontend listens on"`
	HTTPEndpoint string `default:"/mcp" help:"path the streamable-HTTP frontend listens on"`

	LogLevel string `default:"info" enum:"debug,info,warning,error" help:"log verbosity"`
	LogFile  string `help:"optional path to rotate logs into, in addition to stderr"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("mcp-proxy"),
		kong.Description("JSON-RPC/MCP transport-translating reverse proxy"),
	)

	logger := newLogger()

	if cli.Endpoint == "" {
		switch cli.OutputMode {
		case "sse":
			cli.Endpoint = "http://localhost:3001" + cli.SSEEndpoint
		default:
			cli.Endpoint = "http://localhost:3001" + cli.HTTPEndpoint
		}
	}

	dial, err := newDialer(cli.OutputMode, cli.Endpoint, logger)
	if err != nil {
		logger.Errorf("configuration error: %v", err)
		os.Exit(1)
	}

	table := session.NewTable()
	healthHandler := health.New(cli.InputMode, cli.OutputMode, table)
	proxy := bridge.New(table, dial, logger, bridge.WithFrameObserver(healthHandler))

	router := mux.NewRouter()
	registerFrontend(router, cli.InputMode, proxy)
	router.HandleFunc("/health", healthHandler.HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/metrics", healthHandler.HandleMetrics).Methods(http.MethodGet)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cli.Port),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("mcp-proxy %s listening on %s (input=%s output=%s upstream=%s)",
			Version, server.Addr, cli.InputMode, cli.OutputMode, cli.Endpoint)
		serveErr <- server.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server failed: %v", err)
			os.Exit(1)
		}
	case <-sig:
		logger.Infof("shutdown signal received")
		proxy.Shutdown()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Errorf("graceful shutdown failed: %v", err)
			os.Exit(1)
		}
	}
}

func newLogger() *clog.Logger {
	level := clog.LevelInfo
	switch cli.LogLevel {
	case "debug":
		level = clog.LevelDebug
	case "warning":
		level = clog.LevelWarning
	case "error":
		level = clog.LevelError
	}
	if cli.LogFile != "" {
		return clog.NewRotating(cli.LogFile, clog.WithLevel(level))
	}
	return clog.New(os.Stderr, clog.WithLevel(level))
}

func newDialer(outputMode, endpoint string, logger *clog.Logger) (bridge.Dialer, error) {
	switch outputMode {
	case "sse":
		return func() upstream.Client {
			return sseupstream.New(endpoint, sseupstream.WithLogger(logger))
		}, nil
	case "streamable":
		return func() upstream.Client {
			return streamableupstream.New(endpoint)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported output mode %q", outputMode)
	}
}

func registerFrontend(router *mux.Router, inputMode string, proxy frontend.Router) {
	switch inputMode {
	case "sse":
		h := ssefrontend.New(proxy, ssefrontend.WithSSEPath(cli.SSEEndpoint))
		h.Register(router)
	default:
		h := streamablefrontend.New(proxy, streamablefrontend.WithPath(cli.HTTPEndpoint))
		h.Register(router)
	}
}
