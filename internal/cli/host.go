package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/smoc"
	"github.com/aretw0/smoc/internal/config"
	httpadapter "github.com/aretw0/smoc/pkg/adapters/http"
	redisadapter "github.com/aretw0/smoc/pkg/adapters/redis"
	"github.com/aretw0/smoc/pkg/client"
	"github.com/aretw0/smoc/pkg/observability"
	"github.com/aretw0/smoc/pkg/privacy"
	"github.com/aretw0/smoc/pkg/transport"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	leaveTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// host owns everything that lives next to a joined conversation:
// metrics, the HTTP API and the redis fan-out.
type host struct {
	cfg       config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *observability.Metrics
	api       *httpadapter.Server
	publisher *redisadapter.Publisher
	release   redisadapter.ReleaseFunc
	session   *smoc.Session
}

func newHost(ctx context.Context, cfg config.Config, logger *slog.Logger) (*host, error) {
	reg := prometheus.NewRegistry()
	h := &host{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  observability.NewMetrics(reg),
	}

	if cfg.Metrics.Addr != "" {
		// The conversation is attached after Join; only the stream hooks are used before.
		h.api = httpadapter.NewServer(nil, reg, logger)
	}

	if cfg.Redis.Addr != "" {
		channel := cfg.Redis.Channel
		if channel == "" {
			channel = redisadapter.DefaultChannel
		}
		patterns := cfg.Redis.MaskPII
		if patterns == nil {
			patterns = privacy.DefaultPIIPatterns
		}
		mask, err := privacy.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, fmt.Errorf("%w: redis.mask_pii: %w", config.ErrInvalidConfig, err)
		}
		h.publisher = redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisadapter.WithChannel(channel),
			redisadapter.WithLogger(logger),
			redisadapter.WithMiddleware(mask),
		)
		if err := h.publisher.Ping(ctx); err != nil {
			_ = h.publisher.Close()
			return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Redis.Addr, err)
		}
	}
	return h, nil
}

// join starts the conversation and claims it when redis is configured.
func (h *host) join(ctx context.Context, handlers client.Handlers) error {
	hooks := []client.Hooks{h.metrics.ClientHooks()}
	if h.api != nil {
		hooks = append(hooks, h.api.Hooks())
	}
	if h.publisher != nil {
		hooks = append(hooks, h.publisher.Hooks(ctx))
	}

	clientOpts := []client.Option{
		client.WithTransportOptions(h.cfg.TransportOptions()...),
		client.WithTransportOptions(
			transport.WithHooks(h.metrics.TransportHooks()),
			transport.WithLogger(h.logger),
		),
	}
	for _, hk := range hooks {
		clientOpts = append(clientOpts, client.WithHooks(hk))
	}

	opts := []smoc.Option{
		smoc.WithLogger(h.logger),
		smoc.WithClientOptions(clientOpts...),
	}
	if lang, ok := h.cfg.Language(); ok {
		opts = append(opts, smoc.WithLang(lang))
	}

	sess, err := smoc.Join(ctx, h.cfg.FlowURL, handlers, opts...)
	if err != nil {
		return err
	}
	h.session = sess
	if h.api != nil {
		h.api.Conversation = sess
	}

	if h.publisher != nil && h.cfg.Redis.ClaimTTL > 0 {
		claimer := redisadapter.NewClaimer(h.publisher.Client(), "smoc:")
		release, err := claimer.Claim(ctx, sess.Detail.ConversationID, h.cfg.Redis.ClaimTTL)
		if err != nil {
			return err
		}
		h.release = release
	}
	return nil
}

// serve starts the HTTP API in g when it is configured.
func (h *host) serve(ctx context.Context, g *errgroup.Group) {
	if h.api == nil {
		return
	}
	g.Go(func() error {
		return serveHTTP(ctx, h.cfg.Metrics.Addr, h.api.Handler(), h.logger)
	})
}

// close leaves the conversation and releases what newHost and join acquired.
func (h *host) close() {
	if h.session != nil {
		h.session.Leave()
		select {
		case <-h.session.Done():
		case <-time.After(leaveTimeout):
			h.logger.Warn("session did not stop in time")
		}
	}
	if h.release != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := h.release(ctx); err != nil {
			h.logger.Warn("failed to release conversation claim", "err", err)
		}
		cancel()
	}
	if h.publisher != nil {
		if err := h.publisher.Close(); err != nil {
			h.logger.Warn("failed to close redis client", "err", err)
		}
	}
}

func (h *host) conversationID() string {
	if h.session == nil {
		return ""
	}
	return h.session.Detail.ConversationID
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}
