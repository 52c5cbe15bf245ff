// Package client joins a conversation and keeps its log reconciled.
//
// A Client wraps a transport.Session: every inbound frame is decoded into a
// domain.NodeMessage, merged into the conversation log by InstanceID, and
// handed to HandleMessage together with the merge outcome.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
)

// Status is the connection status of a conversation.
type Status = transport.Status

// Handlers receive conversation events on the session goroutine, in order.
type Handlers struct {
	StatusChanged func(Status)
	// HandleMessage receives the message that just arrived, after it was merged.
	HandleMessage func(domain.NodeMessage, reconcile.Outcome)
	// HandleError receives protocol violations. The caller decides whether to Leave.
	HandleError func(error)
}

// Client holds the settings needed to join one conversation endpoint.
type Client struct {
	wsURL         string
	logger        *slog.Logger
	initial       reconcile.Log
	hooks         []Hooks
	transportOpts []transport.Option
}

// New validates wsURL and returns a Client for it.
func New(wsURL string, opts ...Option) (*Client, error) {
	if _, err := transport.ValidateURL(wsURL); err != nil {
		return nil, err
	}
	c := &Client{
		wsURL:  wsURL,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Join opens the conversation. StatusChanged receives "connecting" before
// Join returns.
func (c *Client) Join(ctx context.Context, h Handlers) (*Conversation, error) {
	conv := &Conversation{
		handlers: h,
		hooks:    c.hooks,
		logger:   c.logger,
		log:      c.initial.Clone(),
	}

	opts := append([]transport.Option{transport.WithLogger(c.logger)}, c.transportOpts...)
	session, err := transport.Dial(ctx, c.wsURL, transport.Handlers{
		OnStatus:  conv.onStatus,
		OnMessage: conv.onMessage,
		OnError:   conv.onError,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("join conversation: %w", err)
	}
	conv.session = session
	return conv, nil
}

// Conversation is a joined conversation.
type Conversation struct {
	session  *transport.Session
	handlers Handlers
	hooks    []Hooks
	logger   *slog.Logger

	mu  sync.RWMutex
	log reconcile.Log
}

// Send validates cmd and writes it to the service. It fails with
// transport.ErrNotConnected while disconnected; nothing is queued.
func (c *Conversation) Send(cmd domain.Command) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", domain.ErrProtocolViolation)
	}
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := c.session.Send(cmd); err != nil {
		return err
	}
	c.logger.Debug("command sent", "type", cmd.CommandType())
	for _, h := range c.hooks {
		if h.OnCommand != nil {
			h.OnCommand(cmd)
		}
	}
	return nil
}

// Leave closes the conversation. Safe to call more than once and from handlers.
func (c *Conversation) Leave() {
	c.session.Leave()
}

// Done is closed after Leave once no handler can run anymore.
func (c *Conversation) Done() <-chan struct{} {
	return c.session.Done()
}

// Status returns the last reported connection status.
func (c *Conversation) Status() Status {
	return c.session.Status()
}

// Retries returns the reconnect attempts since the last successful open.
func (c *Conversation) Retries() int {
	return c.session.Retries()
}

// Messages returns a snapshot of the conversation log.
func (c *Conversation) Messages() []domain.NodeMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []domain.NodeMessage(c.log.Clone())
}

// Lookup returns the current version of the message with the given InstanceID.
func (c *Conversation) Lookup(instanceID string) (domain.NodeMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.log.Index(instanceID); i >= 0 {
		return c.log[i], true
	}
	return domain.NodeMessage{}, false
}

func (c *Conversation) onStatus(st Status) {
	c.logger.Debug("conversation status", "status", st)
	for _, h := range c.hooks {
		if h.OnStatus != nil {
			h.OnStatus(st)
		}
	}
	if c.handlers.StatusChanged != nil {
		c.handlers.StatusChanged(st)
	}
}

func (c *Conversation) onMessage(raw json.RawMessage) {
	var msg domain.NodeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.onError(fmt.Errorf("%w: %w", domain.ErrProtocolViolation, err))
		return
	}

	c.mu.Lock()
	next, outcome := reconcile.Merge(c.log, msg)
	c.log = next
	c.mu.Unlock()

	c.logger.Debug("message merged", "instance_id", msg.InstanceID, "outcome", outcome.Kind, "index", outcome.Index)
	for _, h := range c.hooks {
		if h.OnMerged != nil {
			h.OnMerged(msg, outcome)
		}
	}
	if c.handlers.HandleMessage != nil {
		c.handlers.HandleMessage(msg, outcome)
	}
}

func (c *Conversation) onError(err error) {
	c.logger.Warn("conversation protocol error", "err", err)
	if c.handlers.HandleError != nil {
		c.handlers.HandleError(err)
	}
}
