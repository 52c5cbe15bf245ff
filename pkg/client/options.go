package client

import (
	"log/slog"

	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
)

// Hooks observe a conversation without taking part in it.
// They run on the session goroutine and must not block.
type Hooks struct {
	OnStatus  func(transport.Status)
	OnMerged  func(domain.NodeMessage, reconcile.Outcome)
	OnCommand func(domain.Command)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the diagnostic logger, shared with the transport.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInitialMessages seeds the conversation log, typically with the
// messages returned by the start endpoint.
func WithInitialMessages(msgs ...domain.NodeMessage) Option {
	return func(c *Client) {
		c.initial = reconcile.MergeAll(c.initial, msgs...)
	}
}

// WithHooks adds an observer. It may be given more than once.
func WithHooks(h Hooks) Option {
	return func(c *Client) {
		c.hooks = append(c.hooks, h)
	}
}

// WithTransportOptions forwards options to the underlying transport session.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(c *Client) {
		c.transportOpts = append(c.transportOpts, opts...)
	}
}
