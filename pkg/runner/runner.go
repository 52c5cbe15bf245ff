package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
)

// Sender is the part of a conversation the Runner sends commands through.
type Sender interface {
	Send(domain.Command) error
}

// Runner drains an Inbox into an IOHandler and sends the commands it produces.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Strict ends Run on the first protocol violation reported by the session.
	Strict bool

	// Backlog is presented, in order, before the inbox is drained.
	Backlog []domain.NodeMessage
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run hosts the conversation until ctx is done, the handler reaches end of
// input or a fatal error occurs. End of input is not an error. The inbox is
// closed when Run returns; leaving the conversation is up to the caller.
func (r *Runner) Run(ctx context.Context, conv Sender, inbox *Inbox) error {
	defer inbox.Close()

	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	handler := r.resolveHandler()

	for i, m := range r.Backlog {
		ev := Event{Kind: EventMessage, Message: m, Outcome: reconcile.Outcome{Kind: reconcile.Appended, Index: i}}
		if err := r.handleEvent(ctx, logger, handler, conv, ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}

	var commands <-chan CommandInput
	if src, ok := handler.(CommandSource); ok {
		commands = src.Commands()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-inbox.Closed():
			return nil

		case ev := <-inbox.Events():
			if err := r.handleEvent(ctx, logger, handler, conv, ev); err != nil {
				if errors.Is(err, io.EOF) {
					logger.Debug("input closed")
					return nil
				}
				return err
			}

		case in, ok := <-commands:
			if !ok {
				logger.Debug("command source exhausted")
				return nil
			}
			if in.Err != nil {
				logger.Warn("rejected command input", "err", in.Err)
				if err := handler.SystemOutput(ctx, fmt.Sprintf("invalid command: %v", in.Err)); err != nil {
					return err
				}
				continue
			}
			if err := r.send(ctx, logger, handler, conv, in.Command); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	return r.Handler
}

func (r *Runner) handleEvent(ctx context.Context, logger *slog.Logger, h IOHandler, conv Sender, ev Event) error {
	switch ev.Kind {
	case EventStatus:
		logger.Debug("status", "status", ev.Status)
		return h.Status(ctx, ev.Status)

	case EventError:
		logger.Warn("session error", "err", ev.Err)
		if r.Strict && errors.Is(ev.Err, domain.ErrProtocolViolation) {
			return ev.Err
		}
		return h.SystemOutput(ctx, fmt.Sprintf("error: %v", ev.Err))

	case EventMessage:
		logger.Debug("message", "instance_id", ev.Message.InstanceID, "outcome", ev.Outcome.Kind.String())
		cmd, err := h.Output(ctx, ev.Message, ev.Outcome)
		if err != nil {
			return err
		}
		if cmd == nil {
			return nil
		}
		return r.send(ctx, logger, h, conv, cmd)
	}
	return nil
}

// send reports failed sends to the handler; only handler failures are fatal.
func (r *Runner) send(ctx context.Context, logger *slog.Logger, h IOHandler, conv Sender, cmd domain.Command) error {
	err := conv.Send(cmd)
	switch {
	case err == nil:
		logger.Debug("command sent", "type", cmd.CommandType())
		return nil
	case errors.Is(err, transport.ErrNotConnected):
		logger.Warn("command dropped while disconnected", "type", cmd.CommandType())
		return h.SystemOutput(ctx, "not connected: command dropped")
	default:
		logger.Warn("command rejected", "type", cmd.CommandType(), "err", err)
		return h.SystemOutput(ctx, fmt.Sprintf("command rejected: %v", err))
	}
}
