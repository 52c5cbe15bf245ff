package runner

import (
	"log/slog"

	"github.com/aretw0/smoc/pkg/domain"
)

// DefaultInputBufferSize is the default number of lines to buffer for input handlers.
const DefaultInputBufferSize = 64

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures the IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithStrict makes protocol violations reported by the session end Run.
// By default they are shown as system output and the conversation goes on.
func WithStrict(strict bool) Option {
	return func(r *Runner) {
		r.Strict = strict
	}
}

// WithBacklog sets messages to present before any session event, e.g. the
// messages the conversation already held when it was joined.
func WithBacklog(msgs []domain.NodeMessage) Option {
	return func(r *Runner) {
		r.Backlog = msgs
	}
}
