package runner

import (
	"context"

	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
)

// IOHandler defines the strategy for presenting a conversation.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Status presents a session status change.
	Status(ctx context.Context, st transport.Status) error

	// Output presents a merged message. It may return a command answering it;
	// a nil command means there is nothing to send.
	Output(ctx context.Context, msg domain.NodeMessage, outcome reconcile.Outcome) (domain.Command, error)

	// SystemOutput presents a meta-message (notices, non-fatal errors).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// CommandSource is implemented by handlers that produce commands on their own,
// independently of the messages they are shown.
type CommandSource interface {
	// Commands is closed when the source is exhausted.
	Commands() <-chan CommandInput
}

// CommandInput is one command read from a CommandSource, or the reason it could not be read.
type CommandInput struct {
	Command domain.Command
	Err     error
}

// ContentRenderer is a function that transforms markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// StatusFormatter formats a status line for a terminal.
type StatusFormatter func(transport.Status) string
