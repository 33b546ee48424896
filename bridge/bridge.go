// Package bridge couples one frontend session to one upstream client: it
// runs the session state machine, routes frames in both directions, and
// orchestrates shutdown.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/viant/mcp-proxy"
	"github.com/viant/mcp-proxy/frame"
	"github.com/viant/mcp-proxy/session"
	"github.com/viant/mcp-proxy/upstream"
)

// defaultConnectTimeout bounds how long Admit waits for the upstream
// connect phase before failing the session.
const defaultConnectTimeout = 10 * time.Second

// defaultShutdownGrace is how long in-flight frontend writes are given to
// complete once the process shutdown signal fires.
const defaultShutdownGrace = 2 * time.Second

// Dialer opens a fresh upstream.Client for one session. The proxy
// supports exactly one configured upstream; Dialer closes over its
// endpoint URL and transport variant.
type Dialer func() upstream.Client

// FrameObserver is notified of every frame the bridge forwards, tagged
// by direction ("upstream" or "frontend"). health.Handler satisfies
// this via ObserveFrame.
type FrameObserver interface {
	ObserveFrame(direction string)
}

type noopObserver struct{}

func (noopObserver) ObserveFrame(string) {}

// Proxy implements frontend.Router: it owns the session table and binds
// every admitted frontend session to a freshly dialed upstream client.
type Proxy struct {
	table          *session.Table
	dial           Dialer
	logger         jsonrpc.Logger
	connectTimeout time.Duration
	shutdownGrace  time.Duration
	observer       FrameObserver

	shutdown chan struct{}
}

// Option configures a Proxy.
type Option func(*Proxy)

// WithConnectTimeout overrides the upstream connect deadline.
func WithConnectTimeout(d time.Duration) Option {
	return func(p *Proxy) { p.connectTimeout = d }
}

// WithShutdownGrace overrides the in-flight write grace period observed
// during Shutdown.
func WithShutdownGrace(d time.Duration) Option {
	return func(p *Proxy) { p.shutdownGrace = d }
}

// WithFrameObserver registers a FrameObserver notified of every frame
// forwarded in either direction.
func WithFrameObserver(observer FrameObserver) Option {
	return func(p *Proxy) { p.observer = observer }
}

// New creates a Proxy backed by table, dialing a new upstream.Client via
// dial for every admitted session.
func New(table *session.Table, dial Dialer, logger jsonrpc.Logger, opts ...Option) *Proxy {
	p := &Proxy{
		table:          table,
		dial:           dial,
		logger:         logger,
		connectTimeout: defaultConnectTimeout,
		shutdownGrace:  defaultShutdownGrace,
		observer:       noopObserver{},
		shutdown:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Admit implements frontend.Router.
func (p *Proxy) Admit(ctx context.Context, id string, frontendTransport session.Transport, frontendHandle session.FrameWriteCloser) *session.Session {
	sess := session.New(id, frontendTransport, "", frontendHandle)
	p.table.Insert(sess)

	go func() {
		select {
		case <-p.shutdown:
			sess.MarkClosing()
		case <-sess.Done():
		}
	}()

	client := p.dial()
	connectCtx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	err := client.Connect(connectCtx)
	cancel()
	if err != nil {
		p.logger.Errorf("upstream connect failed for session %s: %v", id, err)
		p.failSession(sess, err)
		return sess
	}

	sess.SetUpstream(&upstreamHandle{client: client, ctx: sess.Context()})
	go p.pumpUpstream(sess, client)
	go p.release(sess, client)
	return sess
}

// Route implements frontend.Router.
func (p *Proxy) Route(ctx context.Context, sess *session.Session, data []byte) {
	if !sess.Alive() {
		return
	}
	kind, id, _, classifyErr := frame.Classify(data)
	if classifyErr != nil || (kind != frame.KindRequest && kind != frame.KindNotification) {
		p.replyInvalidRequest(sess, id, classifyErr)
		return
	}

	versioned, err := frame.EnsureVersion(data)
	if err != nil {
		p.replyInvalidRequest(sess, id, err)
		return
	}

	up := sess.Upstream()
	if up == nil {
		return
	}
	if err := up.WriteFrame(versioned); err != nil {
		p.logger.Errorf("upstream send failed for session %s: %v", sess.Id, err)
		if kind == frame.KindRequest {
			p.writeInternalError(sess, id, err)
		}
		return
	}
	p.observer.ObserveFrame("upstream")
}

// Lookup implements frontend.Router.
func (p *Proxy) Lookup(id string) (*session.Session, bool) {
	s, ok := p.table.Lookup(id)
	if !ok || !s.Alive() {
		return nil, false
	}
	return s, true
}

// Shutdown moves every session to Closing and waits up to the configured
// grace period for in-flight frontend writes to finish.
func (p *Proxy) Shutdown() {
	close(p.shutdown)
	deadline := time.After(p.shutdownGrace)
	for {
		if p.table.Len() == 0 {
			return
		}
		select {
		case <-deadline:
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (p *Proxy) pumpUpstream(sess *session.Session, client upstream.Client) {
	for {
		select {
		case <-sess.Done():
			return
		case data, ok := <-client.Frames():
			if !ok {
				sess.MarkClosing()
				return
			}
			versioned, err := frame.EnsureVersion(data)
			if err != nil {
				p.logger.Errorf("malformed upstream frame for session %s: %v", sess.Id, err)
				continue
			}
			if err := sess.Frontend.WriteFrame(encodeForTransport(sess.FrontendTransport, versioned)); err != nil {
				p.logger.Errorf("frontend write failed for session %s: %v", sess.Id, err)
				sess.MarkClosing()
				return
			}
			p.observer.ObserveFrame("frontend")
			if _, id, _, err := frame.Classify(data); err == nil {
				if sess.Resolve(id) {
					sess.MarkClosing()
					return
				}
			}
		}
	}
}

func (p *Proxy) release(sess *session.Session, client upstream.Client) {
	<-sess.Done()
	_ = client.Close()
	_ = sess.Frontend.Close()
	p.table.Delete(sess.Id)
}

func (p *Proxy) failSession(sess *session.Session, cause error) {
	inner := jsonrpc.NewInnerError(jsonrpc.InternalError, "upstream connect failed", cause.Error())
	errFrame := jsonrpc.NewError(nil, inner)
	data, _ := json.Marshal(errFrame)
	_ = sess.Frontend.WriteFrame(encodeForTransport(sess.FrontendTransport, data))
	sess.MarkClosing()
	p.table.Delete(sess.Id)
}

func (p *Proxy) replyInvalidRequest(sess *session.Session, id jsonrpc.RequestId, cause error) {
	if cause == nil {
		cause = errors.New("frame is neither a request nor a notification")
	}
	errResp := jsonrpc.NewInvalidRequest(id, cause, nil)
	data, _ := json.Marshal(errResp)
	if err := sess.Frontend.WriteFrame(encodeForTransport(sess.FrontendTransport, data)); err != nil {
		p.logger.Errorf("frontend write failed for session %s: %v", sess.Id, err)
	}
}

func (p *Proxy) writeInternalError(sess *session.Session, id jsonrpc.RequestId, cause error) {
	resp := jsonrpc.NewResponse(id, nil)
	resp.Error = &jsonrpc.InnerError{Code: jsonrpc.InternalError, Message: "Internal error", Data: cause.Error()}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if writeErr := sess.Frontend.WriteFrame(encodeForTransport(sess.FrontendTransport, data)); writeErr != nil {
		p.logger.Errorf("frontend write failed for session %s: %v", sess.Id, writeErr)
	}
	if sess.Resolve(id) {
		sess.MarkClosing()
	}
}

func encodeForTransport(t session.Transport, data []byte) []byte {
	if t == session.TransportSSE {
		return frame.EncodeMessage(data)
	}
	return frame.EncodeNDJSON(data)
}

// upstreamHandle adapts upstream.Client's Send/Close pair to the
// session.FrameWriteCloser shape the session package expects on its
// upstream side.
type upstreamHandle struct {
	client upstream.Client
	ctx    context.Context
}

func (h *upstreamHandle) WriteFrame(data []byte) error {
	return h.client.Send(h.ctx, data)
}

func (h *upstreamHandle) Close() error {
	return h.client.Close()
}
