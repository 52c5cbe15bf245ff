package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/smoc/pkg/client"
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/privacy"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the channel events are published on unless WithChannel is given.
const DefaultChannel = "smoc:events"

// Publisher fans conversation activity out on a Redis PUBLISH channel.
// Nothing is stored; subscribers that are not listening miss the events.
type Publisher struct {
	client  *backend.Client
	channel string
	timeout time.Duration
	logger  *slog.Logger
	rewrite privacy.Middleware
}

type Option func(*Publisher)

// WithChannel sets the channel events are published on.
func WithChannel(channel string) Option {
	return func(p *Publisher) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// WithTimeout bounds each publish made from a hook.
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		p.timeout = d
	}
}

// WithLogger sets the logger publish failures are reported on.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMiddleware rewrites every event before it is published, e.g. to mask contact details.
func WithMiddleware(mw privacy.Middleware) Option {
	return func(p *Publisher) {
		p.rewrite = mw
	}
}

// New creates a Publisher with its own client.
func New(address, password string, db int, opts ...Option) *Publisher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Publisher on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		channel: DefaultChannel,
		timeout: 2 * time.Second,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ConversationChannel returns the conventional channel name for one conversation.
func ConversationChannel(conversationID string) string {
	return "smoc:conversation:" + conversationID
}

// Channel returns the channel events are published on.
func (p *Publisher) Channel() string {
	return p.channel
}

// Client returns the underlying client.
func (p *Publisher) Client() *backend.Client {
	return p.client
}

// Ping checks the connection.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Publish sends one event.
func (p *Publisher) Publish(ctx context.Context, ev client.Event) error {
	if p.rewrite != nil {
		ev = p.rewrite(ev)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Hooks returns client hooks that publish every status change, merged message
// and sent command. Failures are logged, never returned to the session.
func (p *Publisher) Hooks(ctx context.Context) client.Hooks {
	return client.Hooks{
		OnStatus: func(st transport.Status) {
			p.publishBounded(ctx, client.StatusEvent(st))
		},
		OnMerged: func(m domain.NodeMessage, o reconcile.Outcome) {
			p.publishBounded(ctx, client.MessageEvent(m, o))
		},
		OnCommand: func(cmd domain.Command) {
			p.publishBounded(ctx, client.CommandEvent(cmd))
		},
	}
}

func (p *Publisher) publishBounded(ctx context.Context, ev client.Event) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.Publish(ctx, ev); err != nil {
		p.logger.Warn("redis publish failed", "channel", p.channel, "event", ev.Event, "err", err)
	}
}

// Close closes the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
