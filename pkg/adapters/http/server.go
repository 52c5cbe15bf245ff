package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/smoc"
	"github.com/aretw0/smoc/internal/presentation/graph"
	"github.com/aretw0/smoc/pkg/client"
	"github.com/aretw0/smoc/pkg/domain"
	"github.com/aretw0/smoc/pkg/reconcile"
	"github.com/aretw0/smoc/pkg/runner"
	"github.com/aretw0/smoc/pkg/transport"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Conversation is the part of a joined conversation the HTTP surface needs.
type Conversation interface {
	Status() transport.Status
	Messages() []domain.NodeMessage
	Send(domain.Command) error
}

// Server exposes a live conversation over HTTP.
type Server struct {
	Conversation Conversation
	Streams      *StreamManager
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
}

// NewServer returns a Server for conv. Metrics are served from gatherer when it is not nil.
func NewServer(conv Conversation, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		Conversation: conv,
		Streams:      NewStreamManager(logger),
		Gatherer:     gatherer,
		Logger:       logger,
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/messages", s.GetMessages)
	r.Get("/graph", s.GetGraph)
	r.Post("/commands", s.PostCommand)
	r.Get("/events", s.SubscribeEvents)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

// Hooks returns client hooks that feed the /events stream.
func (s *Server) Hooks() client.Hooks {
	return client.Hooks{
		OnStatus: func(st transport.Status) {
			s.broadcast(client.StatusEvent(st))
		},
		OnMerged: func(m domain.NodeMessage, o reconcile.Outcome) {
			s.broadcast(client.MessageEvent(m, o))
		},
		OnCommand: func(cmd domain.Command) {
			s.broadcast(client.CommandEvent(cmd))
		},
	}
}

func (s *Server) broadcast(ev client.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.Logger.Error("event encode failed", "event", ev.Event, "err", err)
		return
	}
	s.Streams.Broadcast(string(data))
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

// GetHealth handles GET /health. It reports 503 while the session is reconnecting.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	st := s.Conversation.Status()
	code := http.StatusOK
	if st != transport.StatusConnected {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, map[string]string{"status": string(st)})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "smoc-http",
		"version": strings.TrimSpace(smoc.Version),
	})
}

// GetMessages handles GET /messages and returns the reconciled log.
func (s *Server) GetMessages(w http.ResponseWriter, r *http.Request) {
	msgs := s.Conversation.Messages()
	if msgs == nil {
		msgs = []domain.NodeMessage{}
	}
	s.writeJSON(w, http.StatusOK, msgs)
}

// GetGraph handles GET /graph and returns the visited node paths as a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(s.Conversation.Messages()))
}

// PostCommand handles POST /commands. The body is one wire command.
func (s *Server) PostCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, int64(runner.MaxInputSize())+1))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(body) > runner.MaxInputSize() {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		s.Logger.Warn("PostCommand: body rejected", "size", len(body))
		return
	}

	cmd, err := domain.DecodeCommand(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid command: %v", err), http.StatusBadRequest)
		s.Logger.Warn("PostCommand: invalid command", "err", err)
		return
	}

	if err := s.Conversation.Send(cmd); err != nil {
		if errors.Is(err, transport.ErrNotConnected) {
			http.Error(w, "Not connected", http.StatusServiceUnavailable)
			return
		}
		if errors.Is(err, domain.ErrProtocolViolation) {
			http.Error(w, fmt.Sprintf("Invalid command: %v", err), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("Send error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("PostCommand: send failed", "err", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// StreamManager fans events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- string]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StreamManager{
		subscribers: make(map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe() (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Broadcast never blocks: slow subscribers lose events.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping event")
		}
	}
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: %s\n\n", s.Conversation.Status())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
