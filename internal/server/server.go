// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Lin-Jiong-HDU/jarvis/internal/conversation"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/history"
	"github.com/Lin-Jiong-HDU/jarvis/internal/logging"
	"github.com/Lin-Jiong-HDU/jarvis/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 5 * time.Second

// Processor runs one command through the pipeline.
type Processor interface {
	Process(ctx context.Context, req core.Request) core.Outcome
}

// Chatter answers chat messages.
type Chatter interface {
	Reply(ctx context.Context, text string) conversation.Reply
}

// HistoryLister lists recorded commands.
type HistoryLister interface {
	Recent(n int) []*history.Entry
}

// Server serves the command, chat, health and metrics endpoints.
type Server struct {
	engine  Processor
	chat    Chatter
	history HistoryLister
	metrics *metrics.Metrics
	logger  *logging.Logger
	router  chi.Router
}

type Option func(*Server)

func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.logger = l.With("http") }
}

// WithMetrics enables GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHistory enables GET /history.
func WithHistory(h HistoryLister) Option {
	return func(s *Server) { s.history = h }
}

// New builds the router.
func New(engine Processor, chat Chatter, opts ...Option) *Server {
	s := &Server{engine: engine, chat: chat}
	for _, o := range opts {
		o(s)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Post("/command", s.handleCommand)
	r.Post("/chat", s.handleChat)
	r.Get("/health", s.handleHealth)
	if s.history != nil {
		r.Get("/history", s.handleHistory)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Infof("shutting down")
	return srv.Shutdown(shutdownCtx)
}

type commandRequest struct {
	Text     string `json:"text"`
	Platform string `json:"platform,omitempty"`
}

type chatRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !s.decode(w, r, &req) {
		return
	}

	out := s.engine.Process(r.Context(), core.Request{Text: req.Text, Platform: req.Platform})
	s.logger.Infof("[%s] %s platform=%s blocked=%t", RequestIDFrom(r.Context()), out.Branch, out.Platform, out.Blocked)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	entries := s.history.Recent(limit)
	if entries == nil {
		entries = []*history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, s.chat.Reply(r.Context(), req.Text))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body with a non-empty text field. It writes a 400 and
// returns false otherwise.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}

	var text string
	switch req := v.(type) {
	case *commandRequest:
		text = req.Text
	case *chatRequest:
		text = req.Text
	}
	if strings.TrimSpace(text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
