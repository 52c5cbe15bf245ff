package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/transport"
)

// TextHandler implements the standard text-based interface.
//
// Bot messages are rendered once, when first appended; progress updates are
// not repainted. A message with form fields prompts for each field and
// submits a lead form. A message with enabled controls prints them numbered
// and answers the one picked.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Format   StatusFormatter
	Lang     domain.Lang

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerStatusFormatter configures how status changes are printed.
func WithTextHandlerStatusFormatter(format StatusFormatter) TextHandlerOption {
	return func(h *TextHandler) {
		h.Format = format
	}
}

// WithTextHandlerLang selects the language texts are shown in.
func WithTextHandlerLang(lang domain.Lang) TextHandlerOption {
	return func(h *TextHandler) {
		h.Lang = lang
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Lang:   domain.DefaultLang,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Status(ctx context.Context, st transport.Status) error {
	line := "[" + string(st) + "]"
	if h.Format != nil {
		line = h.Format(st)
	}
	_, err := fmt.Fprintln(h.Writer, line)
	return err
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[system] %s\n", msg)
	return err
}

func (h *TextHandler) Output(ctx context.Context, msg domain.NodeMessage, outcome reconcile.Outcome) (domain.Command, error) {
	if outcome.IsUpdate() {
		return nil, nil
	}
	h.render(Markdown(msg, h.Lang))

	bot, ok := msg.Bot()
	if !ok {
		return nil, nil
	}
	if fields := formFields(bot.Elements); len(fields) > 0 {
		return h.collectForm(ctx, fields)
	}

	var choices []domain.ControlOptions
	for _, c := range bot.Controls() {
		if opts := c.Control(); !opts.Disabled {
			choices = append(choices, opts)
		}
	}
	if len(choices) == 0 {
		return nil, nil
	}
	return h.choose(ctx, msg, choices)
}

func (h *TextHandler) render(md string) {
	if md == "" {
		return
	}
	output := md
	if h.Renderer != nil {
		if rendered, err := h.Renderer(md); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(h.Writer, strings.TrimSpace(output))
}

func (h *TextHandler) choose(ctx context.Context, msg domain.NodeMessage, choices []domain.ControlOptions) (domain.Command, error) {
	for i, c := range choices {
		fmt.Fprintf(h.Writer, "  %d) %s\n", i+1, domain.ControlText(c, h.Lang))
	}

	for {
		text, err := h.Input(ctx)
		if err != nil {
			return nil, err
		}
		if isQuit(text) {
			return nil, io.EOF
		}
		if text == "" {
			// skipped
			return nil, nil
		}

		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > len(choices) {
			fmt.Fprintf(h.Writer, "Please pick a number between 1 and %d.\n", len(choices))
			continue
		}

		control := choices[n-1]
		cmd, err := domain.AnswerControl(msg, control, domain.ControlText(control, h.Lang))
		if errors.Is(err, domain.ErrUnsupportedAnswer) {
			fmt.Fprintln(h.Writer, "That choice cannot be answered from here.")
			continue
		}
		return cmd, err
	}
}

type formField struct {
	name     string
	label    string
	required bool
}

func formFields(elements []domain.Element) []formField {
	var out []formField
	for _, el := range elements {
		switch e := el.(type) {
		case domain.Input:
			if !e.Options.Disabled {
				out = append(out, formField{name: e.Options.Name, label: e.Options.Label.String(), required: e.Options.Required})
			}
		case domain.FreeText:
			if !e.Options.Disabled {
				out = append(out, formField{name: e.Options.Name, label: e.Options.Label.String(), required: e.Options.Required})
			}
		}
	}
	return out
}

func (h *TextHandler) collectForm(ctx context.Context, fields []formField) (domain.Command, error) {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		label := f.label
		if label == "" {
			label = f.name
		}
		if f.required {
			label += " *"
		}

		for {
			fmt.Fprintf(h.Writer, "%s\n", label)
			text, err := h.Input(ctx)
			if err != nil {
				return nil, err
			}
			if isQuit(text) {
				return nil, io.EOF
			}
			if text == "" && f.required {
				fmt.Fprintln(h.Writer, "This field is required.")
				continue
			}
			values[f.name] = text
			break
		}
	}

	form, ok := domain.NewLeadForm(values)
	if !ok {
		fmt.Fprintln(h.Writer, "Nothing to submit.")
		return nil, nil
	}
	return domain.SubmitLeadForm{Form: form}, nil
}

func isQuit(text string) bool {
	switch strings.ToLower(text) {
	case "exit", "quit", ":q":
		return true
	}
	return false
}

// Input reads one sanitized line of visitor input.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			text := strings.TrimSpace(res.text)

			clean, err := SanitizeInput(text)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}
