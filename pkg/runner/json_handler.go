package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/smoc/pkg/client"
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Every status change, merged message (updates included) and notice is written as
// one client.Event per line. Each input line is decoded as a wire command.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder

	mu        sync.Mutex
	commands  chan CommandInput
	startOnce sync.Once
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) emit(ev client.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(ev)
}

func (h *JSONHandler) Status(ctx context.Context, st transport.Status) error {
	return h.emit(client.StatusEvent(st))
}

func (h *JSONHandler) Output(ctx context.Context, msg domain.NodeMessage, outcome reconcile.Outcome) (domain.Command, error) {
	return nil, h.emit(client.MessageEvent(msg, outcome))
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(client.SystemEvent(msg))
}

// Commands starts reading the input on first call. Blank lines are skipped.
func (h *JSONHandler) Commands() <-chan CommandInput {
	h.startOnce.Do(func() {
		h.commands = make(chan CommandInput, DefaultInputBufferSize)
		go h.pump()
	})
	return h.commands
}

func (h *JSONHandler) pump() {
	defer close(h.commands)
	for {
		line, err := h.Reader.ReadString('\n')
		if text := strings.TrimSpace(line); text != "" {
			h.commands <- decodeLine(text)
		}
		if err != nil {
			if err != io.EOF {
				h.commands <- CommandInput{Err: err}
			}
			return
		}
	}
}

func decodeLine(text string) CommandInput {
	cmd, err := DecodeCommandLine(text)
	return CommandInput{Command: cmd, Err: err}
}
