package smoc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/smoc/pkg/bootstrap"
	"github.com/aretw0/smoc/pkg/client"
	"github.com/aretw0/smoc/pkg/domain"
)

// Version is the library version, reported by the CLI.
var Version = "0.4.0"

// Session is a joined conversation together with what the start endpoint returned.
type Session struct {
	*client.Conversation

	Theme  domain.Theme
	Detail domain.ConversationDetail
	WSURL  string
	// Backlog holds the messages the conversation already had when it was started.
	Backlog []domain.NodeMessage
}

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
	header     http.Header
	clientOpts []client.Option
}

// Option configures Join.
type Option func(*options)

// WithLogger sets the diagnostic logger for every layer.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient sets the client used to call the start endpoint.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithLang asks the start endpoint for a UI language.
func WithLang(lang domain.Lang) Option {
	return func(o *options) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Set("Accept-Language", string(lang))
	}
}

// WithClientOptions forwards options to the session client.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// Join starts the conversation behind flowURL and joins its session.
// The conversation log is seeded with the messages returned at start.
func Join(ctx context.Context, flowURL string, h client.Handlers, opts ...Option) (*Session, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	started, err := bootstrap.Prepare(ctx, flowURL,
		bootstrap.WithLogger(o.logger),
		bootstrap.WithHTTPClient(o.httpClient),
		bootstrap.WithHeader(o.header),
	)
	if err != nil {
		return nil, err
	}

	clientOpts := append([]client.Option{
		client.WithLogger(o.logger),
		client.WithInitialMessages(started.NodeMessages...),
	}, o.clientOpts...)
	c, err := client.New(started.WSURL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("session url %q: %w", started.WSURL, err)
	}

	conv, err := c.Join(ctx, h)
	if err != nil {
		return nil, err
	}

	return &Session{
		Conversation: conv,
		Theme:        started.Theme,
		Detail:       started.Detail,
		WSURL:        started.WSURL,
		Backlog:      started.NodeMessages,
	}, nil
}
