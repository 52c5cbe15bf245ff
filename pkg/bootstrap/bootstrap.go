// Package bootstrap starts a conversation over HTTP and derives the websocket
// URL of its session.
//
// A flow URL has the shape
//
//	https://host/<operator>/<channel>/<template>?<query>
//
// Prepare calls GET /operator/<operator>/<channel>/<template>?<query> on the
// same host and returns the theme, the conversation detail, the messages
// already in the conversation and the session URL
//
//	wss://host/<operator>/<channel>/<template>/ws?<query>&conversation_id=<id>
package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/smoc/pkg/domain"
)

// ErrInvalidFlowURL is returned when a flow URL does not name an operator, a channel and a template.
var ErrInvalidFlowURL = errors.New("invalid flow url")

// ErrInvalidHandshake is returned when the start response breaks the contract.
var ErrInvalidHandshake = errors.New("invalid start response")

// HandshakeError is returned when the start endpoint answers with a non-2xx status.
type HandshakeError struct {
	StatusCode int
	Body       string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Body)
}

// FlowRef names the conversation template a flow URL points to.
type FlowRef struct {
	Operator string
	Channel  string
	Template string
}

func (r FlowRef) path() string {
	return "/" + url.PathEscape(r.Operator) + "/" + url.PathEscape(r.Channel) + "/" + url.PathEscape(r.Template)
}

// Conversation is the result of a successful start.
type Conversation struct {
	WSURL        string
	Ref          FlowRef
	Theme        domain.Theme
	Detail       domain.ConversationDetail
	NodeMessages []domain.NodeMessage
}

type startResponse struct {
	Theme              domain.Theme              `json:"theme"`
	ConversationDetail domain.ConversationDetail `json:"conversationDetail"`
	NodeMessages       []domain.NodeMessage      `json:"nodeMessages"`
}

type config struct {
	httpClient *http.Client
	logger     *slog.Logger
	header     http.Header
}

// Option configures Prepare.
type Option func(*config)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.httpClient = c
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithHeader adds headers to the start request, e.g. Accept-Language.
func WithHeader(h http.Header) Option {
	return func(cfg *config) {
		cfg.header = h
	}
}

// ParseFlowURL parses an http(s) flow URL.
func ParseFlowURL(raw string) (*url.URL, FlowRef, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, FlowRef{}, fmt.Errorf("%w: %w", ErrInvalidFlowURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, FlowRef{}, fmt.Errorf("%w: scheme %q", ErrInvalidFlowURL, u.Scheme)
	}

	segments := strings.Split(u.Path, "/")
	if len(segments) < 4 || segments[1] == "" || segments[2] == "" || segments[3] == "" {
		return nil, FlowRef{}, fmt.Errorf("%w: path %q lacks operator, channel and template", ErrInvalidFlowURL, u.Path)
	}
	ref := FlowRef{Operator: segments[1], Channel: segments[2], Template: segments[3]}
	return u, ref, nil
}

// StartURL returns the start endpoint for a flow URL, keeping its query.
func StartURL(flow *url.URL, ref FlowRef) *url.URL {
	u := *flow
	u.Path = "/operator" + ref.path()
	u.RawPath = ""
	u.Fragment = ""
	return &u
}

// WebSocketURL returns the session URL for a started conversation.
func WebSocketURL(flow *url.URL, ref FlowRef, conversationID string) string {
	u := *flow
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = ref.path() + "/ws"
	u.RawPath = ""
	u.Fragment = ""

	q := u.Query()
	q.Set("conversation_id", conversationID)
	u.RawQuery = q.Encode()
	return u.String()
}

// Prepare starts the conversation behind flowURL.
func Prepare(ctx context.Context, flowURL string, opts ...Option) (*Conversation, error) {
	cfg := config{
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	flow, ref, err := ParseFlowURL(flowURL)
	if err != nil {
		return nil, err
	}

	start := StartURL(flow, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, start.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build start request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range cfg.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	cfg.logger.Debug("starting conversation", "url", start.String())
	resp, err := cfg.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read start response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HandshakeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := validateResponse(body); err != nil {
		return nil, err
	}
	var payload startResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHandshake, err)
	}

	conv := &Conversation{
		WSURL:        WebSocketURL(flow, ref, payload.ConversationDetail.ConversationID),
		Ref:          ref,
		Theme:        payload.Theme,
		Detail:       payload.ConversationDetail,
		NodeMessages: payload.NodeMessages,
	}
	cfg.logger.Info("conversation started",
		"conversation_id", conv.Detail.ConversationID,
		"messages", len(conv.NodeMessages))
	return conv, nil
}
