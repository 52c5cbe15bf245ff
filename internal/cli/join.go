package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/smoc"
	"github.com/aretw0/smoc/internal/config"
	"github.com/aretw0/smoc/internal/presentation/tui"
	"github.com/aretw0/smoc/pkg/runner"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// JoinOptions configure RunJoin.
type JoinOptions struct {
	Config config.Config
	JSON   bool
	Debug  bool
	Quiet  bool
	Strict bool

	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// RunJoin joins the configured conversation and drives it from the terminal,
// or as NDJSON when JSON is set, until input ends or the process is signalled.
func RunJoin(opts JoinOptions) error {
	stdin, stdout, stderr := opts.Stdin, opts.Stdout, opts.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	tty := stdout == io.Writer(os.Stdout) && isTerminal(os.Stdout)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	cfg := opts.Config
	logger := createLogger(cfg.Log, opts.Debug)

	if !opts.JSON && !opts.Quiet && tty {
		tui.PrintBanner(stdout, smoc.Version)
	}

	h, err := newHost(sigCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer h.close()

	inbox := runner.NewInbox(runner.DefaultInboxSize)
	defer inbox.Close()
	if err := h.join(sigCtx, inbox.Handlers()); err != nil {
		return handleExecutionError(err)
	}
	sess := h.session

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(stdin, stdout)
	} else {
		lang, ok := cfg.Language()
		if !ok {
			lang = sess.Detail.Lang
		}
		textOpts := []runner.TextHandlerOption{
			runner.WithTextHandlerLang(lang),
			runner.WithTextHandlerStatusFormatter(tui.StatusFormatter(sess.Theme)),
		}
		if tty {
			width := 80
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
				width = w
			}
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer(width)))
		}
		handler = runner.NewTextHandler(stdin, stdout, textOpts...)
	}

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithInputHandler(handler),
		runner.WithStrict(opts.Strict),
		runner.WithBacklog(sess.Backlog),
	)

	g, ctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		// Ending the conversation stops the HTTP API too.
		defer sigCtx.Cancel()
		return r.Run(ctx, sess, inbox)
	})
	h.serve(ctx, g)

	err = g.Wait()
	logCompletion(stderr, h.conversationID(), err, opts.JSON || opts.Quiet, sigCtx.Signal())
	return handleExecutionError(err)
}
