package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// PingFrame is written periodically to keep intermediaries from idling the socket out.
	PingFrame = "ping"
	// PongFrame is the service's reply to PingFrame. It is consumed silently.
	PongFrame = "pong"
)

// Status is the connection status reported to OnStatus.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusConnected  Status = "connected"
)

type state int

const (
	stateIdle state = iota
	stateConnecting
	stateConnected
	stateLeft
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Handlers receive session events. All three run on the session goroutine,
// one at a time, in the order the events happened. Any of them may be nil.
type Handlers struct {
	OnStatus  func(Status)
	OnMessage func(json.RawMessage)
	OnError   func(error)
}

// Session is a self-healing websocket connection.
//
// A Session reconnects forever until Leave is called. Inbound JSON frames are
// delivered to OnMessage; "pong" frames are dropped. Send never queues: it
// fails with ErrNotConnected while no connection is open.
type Session struct {
	url      string
	handlers Handlers
	cfg      config

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    state
	conn     *websocket.Conn
	gen      uint64
	retries  int
	attempts int
	reported Status

	writeMu sync.Mutex
}

type frame struct {
	data []byte
	err  error
}

var errSuperseded = errors.New("connection superseded")

// ValidateURL checks that rawURL is an absolute ws or wss URL.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse websocket url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScheme, u.Scheme)
	}
	return u, nil
}

// Dial starts a session against rawURL and returns immediately.
// StatusConnecting is reported before Dial returns; the connection itself is
// established in the background. Cancelling ctx is equivalent to Leave.
func Dial(ctx context.Context, rawURL string, h Handlers, opts ...Option) (*Session, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		url:      u.String(),
		handlers: h,
		cfg:      cfg,
		ctx:      sctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    stateConnecting,
	}

	s.emitStatus(StatusConnecting)
	go s.run()
	return s, nil
}

// Send encodes v as JSON and writes it as one text frame.
func (s *Session) Send(v any) error {
	if !s.connected() {
		return ErrNotConnected
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := s.write(0, data); err != nil {
		return err
	}
	s.cfg.hooks.frame(FrameSent)
	return nil
}

// Leave closes the session for good. It is idempotent, never blocks on the
// session goroutine and may be called from inside a handler. No handler is
// invoked after Leave returns, except one already running.
func (s *Session) Leave() {
	s.mu.Lock()
	if s.state == stateLeft {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = stateLeft
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	s.cancel()
	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}
	s.cfg.logger.Debug("websocket session left", "url", s.url, "from", prev.String())
}

// Done is closed once the session goroutine has exited after Leave.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Status returns the last reported status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reported
}

// Left reports whether Leave has been called.
func (s *Session) Left() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateLeft
}

// Retries returns the number of reconnects since the last successful open.
func (s *Session) Retries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retries
}

func (s *Session) connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateConnected && s.conn != nil
}

func (s *Session) run() {
	defer close(s.done)
	defer s.Leave()

	for {
		conn, gen, err := s.connect()
		if err == nil {
			s.serve(conn, gen)
		} else if s.ctx.Err() == nil {
			s.cfg.logger.Warn("websocket dial failed", "url", s.url, "err", err)
		}

		if s.ctx.Err() != nil {
			return
		}
		if !s.scheduleReconnect() {
			return
		}
	}
}

func (s *Session) connect() (*websocket.Conn, uint64, error) {
	s.mu.Lock()
	if s.state == stateLeft {
		s.mu.Unlock()
		return nil, 0, context.Canceled
	}
	s.gen++
	gen := s.gen
	s.attempts++
	attempt := s.attempts
	s.state = stateConnecting
	s.mu.Unlock()

	s.cfg.hooks.dial(attempt)
	s.cfg.logger.Debug("websocket dialing", "url", s.url, "attempt", attempt)

	conn, _, err := s.cfg.dialer.DialContext(s.ctx, s.url, s.cfg.header)
	if err != nil {
		return nil, gen, err
	}

	s.mu.Lock()
	if s.state == stateLeft || gen != s.gen {
		s.mu.Unlock()
		_ = conn.Close()
		return nil, gen, errSuperseded
	}
	s.conn = conn
	s.state = stateConnected
	s.mu.Unlock()

	s.cfg.logger.Info("websocket connected", "url", s.url, "attempt", attempt)
	s.emitStatus(StatusConnected)

	s.mu.Lock()
	s.retries = 0
	s.mu.Unlock()
	return conn, gen, nil
}

// serve pumps one connection until it closes or the session is left.
func (s *Session) serve(conn *websocket.Conn, gen uint64) {
	frames := make(chan frame)
	stop := make(chan struct{})
	defer close(stop)
	go readLoop(conn, frames, stop)

	keepalive := time.NewTicker(s.cfg.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-keepalive.C:
			if err := s.write(gen, []byte(PingFrame)); err != nil {
				s.cfg.logger.Debug("websocket keepalive failed", "err", err)
				continue
			}
			s.cfg.hooks.frame(FramePing)
		case f := <-frames:
			if f.err != nil {
				s.detach(conn, gen, f.err)
				return
			}
			s.dispatch(f.data)
		}
	}
}

func readLoop(conn *websocket.Conn, frames chan<- frame, stop <-chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		select {
		case frames <- frame{data: data, err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) detach(conn *websocket.Conn, gen uint64, cause error) {
	s.mu.Lock()
	if gen == s.gen && s.conn == conn {
		s.conn = nil
		if s.state == stateConnected {
			s.state = stateConnecting
		}
	}
	s.mu.Unlock()
	_ = conn.Close()

	if s.ctx.Err() != nil {
		return
	}
	if websocket.IsCloseError(cause, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.cfg.logger.Info("websocket closed by peer", "url", s.url, "err", cause)
		return
	}
	s.cfg.logger.Warn("websocket connection lost", "url", s.url, "err", cause)
}

func (s *Session) dispatch(data []byte) {
	if string(data) == PongFrame {
		s.cfg.hooks.frame(FramePong)
		return
	}
	if !json.Valid(data) {
		s.cfg.hooks.frame(FrameMalformed)
		s.emitError(fmt.Errorf("%w: %s", ErrMalformedFrame, preview(data)))
		return
	}
	s.cfg.hooks.frame(FrameMessage)
	if s.Left() || s.handlers.OnMessage == nil {
		return
	}
	s.handlers.OnMessage(json.RawMessage(data))
}

// scheduleReconnect reports connecting, bumps the retry counter and waits out
// the backoff. It returns false if the session was left meanwhile.
func (s *Session) scheduleReconnect() bool {
	s.mu.Lock()
	if s.state == stateLeft {
		s.mu.Unlock()
		return false
	}
	s.state = stateConnecting
	s.conn = nil
	s.mu.Unlock()

	s.emitStatus(StatusConnecting)

	s.mu.Lock()
	s.retries++
	retries := s.retries
	s.mu.Unlock()

	delay := Backoff(retries, s.cfg.baseDelay, s.cfg.maxDelay, s.cfg.random)
	s.cfg.hooks.reconnect(retries, delay)
	s.cfg.logger.Info("websocket reconnect scheduled", "url", s.url, "retries", retries, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// write sends one text frame. gen 0 targets the current connection; any other
// value fails unless that generation is still the live one.
func (s *Session) write(gen uint64, data []byte) error {
	s.mu.Lock()
	conn := s.conn
	if s.state != stateConnected || conn == nil || (gen != 0 && gen != s.gen) {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.cfg.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.writeTimeout))
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.cfg.logger.Debug("websocket write failed", "url", s.url, "err", err)
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (s *Session) emitStatus(st Status) {
	s.mu.Lock()
	if s.state == stateLeft || s.reported == st {
		s.mu.Unlock()
		return
	}
	s.reported = st
	s.mu.Unlock()

	if s.handlers.OnStatus != nil {
		s.handlers.OnStatus(st)
	}
}

func (s *Session) emitError(err error) {
	s.cfg.logger.Warn("websocket protocol error", "url", s.url, "err", err)
	if s.Left() || s.handlers.OnError == nil {
		return
	}
	s.handlers.OnError(err)
}

func preview(data []byte) string {
	const limit = 64
	if len(data) > limit {
		return fmt.Sprintf("%q...", data[:limit])
	}
	return fmt.Sprintf("%q", data)
}
