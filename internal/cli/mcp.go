package cli

import (
	"context"

	"github.com/aretw0/smoc/internal/config"
	mcpadapter "github.com/aretw0/smoc/pkg/adapters/mcp"
	"github.com/aretw0/smoc/pkg/client"
	"golang.org/x/sync/errgroup"
)

// MCPOptions configure RunMCP.
type MCPOptions struct {
	Config config.Config
	Debug  bool
	// SSEAddr serves MCP over SSE instead of Stdio when set.
	SSEAddr string
	BaseURL string
}

// RunMCP joins the configured conversation and exposes it as MCP tools.
func RunMCP(opts MCPOptions) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	cfg := opts.Config
	logger := createLogger(cfg.Log, opts.Debug)

	h, err := newHost(sigCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer h.close()

	// Agents poll the log through tools; the session only needs error reporting.
	handlers := client.Handlers{
		HandleError: func(err error) {
			logger.Warn("protocol error", "err", err)
		},
	}
	if err := h.join(sigCtx, handlers); err != nil {
		return handleExecutionError(err)
	}

	lang, ok := cfg.Language()
	if !ok {
		lang = h.session.Detail.Lang
	}
	srv := mcpadapter.NewServer(h.session,
		mcpadapter.WithLang(lang),
		mcpadapter.WithLogger(logger),
	)

	g, ctx := errgroup.WithContext(sigCtx)
	if opts.SSEAddr != "" {
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = "http://" + opts.SSEAddr
		}
		g.Go(func() error {
			defer sigCtx.Cancel()
			return srv.ServeSSE(ctx, opts.SSEAddr, baseURL)
		})
	} else {
		g.Go(func() error {
			defer sigCtx.Cancel()
			logger.Info("starting MCP server (Stdio)", "conversation_id", h.conversationID())
			return srv.ServeStdio()
		})
	}
	h.serve(ctx, g)

	return handleExecutionError(g.Wait())
}
