package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/smoc"
	"github.com/aretw0/smoc/internal/presentation/graph"
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/runner"
	"github.com/aretw0/smoc/pkg/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	// LogURI is the resource the reconciled log is exposed at.
	LogURI = "smoc://log"
	// GraphURI is the resource the visited node paths are exposed at, as Mermaid.
	GraphURI = "smoc://graph"
)

// Conversation is the part of a joined conversation the MCP server drives.
type Conversation interface {
	Status() transport.Status
	Retries() int
	Messages() []domain.NodeMessage
	Lookup(instanceID string) (domain.NodeMessage, bool)
	Send(domain.Command) error
}

// StatusResponse is the result of conversation_status.
type StatusResponse struct {
	Status   transport.Status `json:"status" jsonschema_description:"connecting or connected"`
	Retries  int              `json:"retries" jsonschema_description:"Consecutive failed connection attempts"`
	Messages int              `json:"messages" jsonschema_description:"Number of messages in the log"`
}

// Choice is one answerable control of a message.
type Choice struct {
	Number           int    `json:"number" jsonschema_description:"1-based number to pass to answer_control"`
	Text             string `json:"text"`
	SurveyAnswerID   string `json:"surveyAnswerId,omitempty"`
	ApprovalAnswerID string `json:"approvalAnswerId,omitempty"`
}

// Entry is one message of the log as text.
type Entry struct {
	InstanceID   string   `json:"instanceId"`
	Path         []string `json:"path"`
	Interlocutor string   `json:"interlocutor"`
	Text         string   `json:"text"`
	Progress     *float64 `json:"progress,omitempty"`
	Choices      []Choice `json:"choices,omitempty"`
	Fields       []string `json:"fields,omitempty" jsonschema_description:"Lead form fields requested by the message"`
}

// LogResponse is the result of conversation_log.
type LogResponse struct {
	Entries []Entry `json:"entries"`
}

// SendResponse is the result of every tool that sends a command.
type SendResponse struct {
	Sent bool               `json:"sent"`
	Type domain.CommandType `json:"type"`
}

type SendCommandArgs struct {
	Command string `json:"command"`
}

type PerformActionArgs struct {
	NodePath string `json:"node_path"`
}

type SubmitLeadFormArgs struct {
	Form string `json:"form"`
}

type AnswerControlArgs struct {
	InstanceID string `json:"instance_id"`
	Choice     int    `json:"choice"`
}

// Server exposes a live conversation as an MCP server.
type Server struct {
	conv      Conversation
	lang      domain.Lang
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLang selects the language texts are returned in.
func WithLang(lang domain.Lang) Option {
	return func(s *Server) {
		s.lang = lang
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(conv Conversation, opts ...Option) *Server {
	s := &Server{
		conv:      conv,
		lang:      domain.DefaultLang,
		logger:    slog.New(slog.DiscardHandler),
		mcpServer: server.NewMCPServer("smoc-mcp", strings.TrimSpace(smoc.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP server over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("conversation_status",
		mcp.WithDescription("Report whether the conversation session is connected."),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("conversation_log",
		mcp.WithDescription("Return the reconciled conversation log as text, with the choices each bot message offers."),
		mcp.WithOutputSchema[LogResponse](),
	), mcp.NewStructuredToolHandler(s.handleLog))

	s.mcpServer.AddTool(mcp.NewTool("answer_control",
		mcp.WithDescription("Answer a bot message by picking one of its choices."),
		mcp.WithString("instance_id", mcp.Required(), mcp.Description("instanceId of the message to answer")),
		mcp.WithNumber("choice", mcp.Required(), mcp.Description("1-based choice number from conversation_log")),
		mcp.WithOutputSchema[SendResponse](),
	), mcp.NewStructuredToolHandler(s.handleAnswerControl))

	s.mcpServer.AddTool(mcp.NewTool("perform_action",
		mcp.WithDescription("Ask the service to perform the action at a node path."),
		mcp.WithString("node_path", mcp.Required(), mcp.Description("JSON array of node path segments")),
		mcp.WithOutputSchema[SendResponse](),
	), mcp.NewStructuredToolHandler(s.handlePerformAction))

	s.mcpServer.AddTool(mcp.NewTool("submit_lead_form",
		mcp.WithDescription("Submit the visitor's contact details."),
		mcp.WithString("form", mcp.Required(), mcp.Description("JSON object of lead form fields, e.g. {\"email\": \"a@b.c\"}")),
		mcp.WithOutputSchema[SendResponse](),
	), mcp.NewStructuredToolHandler(s.handleSubmitLeadForm))

	s.mcpServer.AddTool(mcp.NewTool("send_command",
		mcp.WithDescription("Send one raw wire command."),
		mcp.WithString("command", mcp.Required(), mcp.Description("The command as a JSON object with a type field")),
		mcp.WithOutputSchema[SendResponse](),
	), mcp.NewStructuredToolHandler(s.handleSendCommand))
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, _ struct{}) (StatusResponse, error) {
	return StatusResponse{
		Status:   s.conv.Status(),
		Retries:  s.conv.Retries(),
		Messages: len(s.conv.Messages()),
	}, nil
}

func (s *Server) handleLog(ctx context.Context, request mcp.CallToolRequest, _ struct{}) (LogResponse, error) {
	msgs := s.conv.Messages()
	entries := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, s.entry(m))
	}
	return LogResponse{Entries: entries}, nil
}

func (s *Server) entry(m domain.NodeMessage) Entry {
	e := Entry{
		InstanceID: m.InstanceID,
		Path:       m.Path,
		Text:       runner.Markdown(m, s.lang),
		Progress:   m.Progress,
	}
	if m.ChatMessage != nil {
		e.Interlocutor = string(m.ChatMessage.Interlocutor())
	}
	bot, ok := m.Bot()
	if !ok {
		return e
	}
	for i, c := range choices(bot) {
		e.Choices = append(e.Choices, Choice{
			Number:           i + 1,
			Text:             domain.ControlText(c, s.lang),
			SurveyAnswerID:   c.SurveyAnswerID,
			ApprovalAnswerID: c.ApprovalAnswerID,
		})
	}
	for _, el := range bot.Elements {
		switch f := el.(type) {
		case domain.Input:
			e.Fields = append(e.Fields, f.Options.Name)
		case domain.FreeText:
			e.Fields = append(e.Fields, f.Options.Name)
		}
	}
	return e
}

func choices(bot domain.BotMessage) []domain.ControlOptions {
	var out []domain.ControlOptions
	for _, c := range bot.Controls() {
		if opts := c.Control(); !opts.Disabled {
			out = append(out, opts)
		}
	}
	return out
}

func (s *Server) handleAnswerControl(ctx context.Context, request mcp.CallToolRequest, args AnswerControlArgs) (SendResponse, error) {
	msg, ok := s.conv.Lookup(args.InstanceID)
	if !ok {
		return SendResponse{}, fmt.Errorf("no message %q in the log", args.InstanceID)
	}
	bot, ok := msg.Bot()
	if !ok {
		return SendResponse{}, fmt.Errorf("message %q was not sent by the bot", args.InstanceID)
	}
	options := choices(bot)
	if args.Choice < 1 || args.Choice > len(options) {
		return SendResponse{}, fmt.Errorf("choice %d out of range 1..%d", args.Choice, len(options))
	}

	control := options[args.Choice-1]
	cmd, err := domain.AnswerControl(msg, control, domain.ControlText(control, s.lang))
	if err != nil {
		return SendResponse{}, err
	}
	return s.send(cmd)
}

func (s *Server) handlePerformAction(ctx context.Context, request mcp.CallToolRequest, args PerformActionArgs) (SendResponse, error) {
	var path []string
	if err := json.Unmarshal([]byte(args.NodePath), &path); err != nil {
		return SendResponse{}, fmt.Errorf("node_path must be a JSON array of strings: %w", err)
	}
	return s.send(domain.PerformAction{NodePath: path})
}

func (s *Server) handleSubmitLeadForm(ctx context.Context, request mcp.CallToolRequest, args SubmitLeadFormArgs) (SendResponse, error) {
	clean, err := runner.SanitizeInput(args.Form)
	if err != nil {
		return SendResponse{}, fmt.Errorf("form rejected: %w", err)
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(clean), &values); err != nil {
		return SendResponse{}, fmt.Errorf("form must be a JSON object of strings: %w", err)
	}
	form, ok := domain.NewLeadForm(values)
	if !ok {
		return SendResponse{}, errors.New("form has no lead form fields")
	}
	return s.send(domain.SubmitLeadForm{Form: form})
}

func (s *Server) handleSendCommand(ctx context.Context, request mcp.CallToolRequest, args SendCommandArgs) (SendResponse, error) {
	cmd, err := runner.DecodeCommandLine(args.Command)
	if err != nil {
		s.logger.Warn("MCP send_command: input rejected", "err", err, "size", len(args.Command))
		return SendResponse{}, fmt.Errorf("command rejected: %w", err)
	}
	return s.send(cmd)
}

func (s *Server) send(cmd domain.Command) (SendResponse, error) {
	if err := s.conv.Send(cmd); err != nil {
		s.logger.Warn("MCP: send failed", "type", cmd.CommandType(), "err", err)
		return SendResponse{}, fmt.Errorf("send failed: %w", err)
	}
	return SendResponse{Sent: true, Type: cmd.CommandType()}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(LogURI, "Conversation log",
		mcp.WithMIMEType("application/json"),
	), s.readLog)

	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Visited node paths",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), s.readGraph)
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "text/vnd.mermaid",
			Text:     graph.GenerateMermaid(s.conv.Messages()),
		},
	}, nil
}

func (s *Server) readLog(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	msgs := s.conv.Messages()
	if msgs == nil {
		msgs = []domain.NodeMessage{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode log: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LogURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
