package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultKeepaliveInterval is how often a ping frame is written on an open connection.
const DefaultKeepaliveInterval = 30 * time.Second

// FrameKind classifies frames for observers.
type FrameKind string

const (
	FrameMessage   FrameKind = "message"
	FramePong      FrameKind = "pong"
	FrameMalformed FrameKind = "malformed"
	FramePing      FrameKind = "ping"
	FrameSent      FrameKind = "sent"
)

// Hooks lets observers follow the connection lifecycle.
// Hooks run on the session goroutine and must not block.
type Hooks struct {
	// OnDial is called before each connection attempt.
	OnDial func(attempt int)
	// OnReconnect is called when a reconnect is scheduled after a close.
	OnReconnect func(retries int, delay time.Duration)
	// OnFrame is called for every frame read or written.
	OnFrame func(kind FrameKind)
}

type config struct {
	logger       *slog.Logger
	keepalive    time.Duration
	baseDelay    time.Duration
	maxDelay     time.Duration
	random       func() float64
	dialer       *websocket.Dialer
	header       http.Header
	writeTimeout time.Duration
	hooks        Hooks
}

func defaultConfig() config {
	return config{
		logger:       slog.New(slog.DiscardHandler),
		keepalive:    DefaultKeepaliveInterval,
		baseDelay:    DefaultBaseDelay,
		maxDelay:     DefaultMaxDelay,
		dialer:       websocket.DefaultDialer,
		writeTimeout: 10 * time.Second,
	}
}

// Option configures a Session.
type Option func(*config)

// WithLogger sets the diagnostic logger. Socket errors only ever reach this sink.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithKeepaliveInterval overrides how often ping frames are written.
func WithKeepaliveInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.keepalive = d
		}
	}
}

// WithBackoff overrides the reconnect delay scale and cap.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(c *config) {
		if base > 0 {
			c.baseDelay = base
		}
		if maxDelay > 0 {
			c.maxDelay = maxDelay
		}
	}
}

// WithRandom injects the jitter source used by Backoff.
func WithRandom(rnd func() float64) Option {
	return func(c *config) {
		c.random = rnd
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *config) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithHeader sets extra handshake headers.
func WithHeader(h http.Header) Option {
	return func(c *config) {
		c.header = h
	}
}

// WithWriteTimeout bounds each frame write. Zero disables the deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) {
		c.writeTimeout = d
	}
}

// WithHooks registers lifecycle observers.
func WithHooks(h Hooks) Option {
	return func(c *config) {
		c.hooks = h
	}
}

func (h Hooks) dial(attempt int) {
	if h.OnDial != nil {
		h.OnDial(attempt)
	}
}

func (h Hooks) reconnect(retries int, delay time.Duration) {
	if h.OnReconnect != nil {
		h.OnReconnect(retries, delay)
	}
}

func (h Hooks) frame(kind FrameKind) {
	if h.OnFrame != nil {
		h.OnFrame(kind)
	}
}
