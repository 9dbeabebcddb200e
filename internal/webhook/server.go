// internal/webhook/server.go
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/user/chathub/internal/analysis"
	"github.com/user/chathub/internal/gateway"
	"github.com/user/chathub/internal/ingest"
	"github.com/user/chathub/internal/state"
	"github.com/user/chathub/internal/types"
	"github.com/user/chathub/internal/workflow"
)

const maxBody = 1 << 20

// InboundFunc hands a decoded message to the processing pipeline.
type InboundFunc func(ctx context.Context, msg *types.Message) (*gateway.Run, error)

// Server is the HTTP surface: platform webhooks, the workflow configuration
// API, the analysis API, plus optional metrics and presence handlers.
type Server struct {
	inbound     InboundFunc
	engine      *workflow.Engine
	analyzer    *analysis.Analyzer
	history     types.HistoryStore
	definitions *state.DefinitionStore
	feishuToken string
	mux         *http.ServeMux
}

// Option configures optional parts of the Server.
type Option func(*Server)

// WithDefinitions persists workflows created through the API to the
// definitions file.
func WithDefinitions(d *state.DefinitionStore) Option {
	return func(s *Server) { s.definitions = d }
}

// WithFeishuToken sets the verification token expected on Feishu callbacks.
func WithFeishuToken(token string) Option {
	return func(s *Server) { s.feishuToken = token }
}

// WithHandler mounts an extra handler, e.g. "GET /metrics" or "GET /ws".
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) { s.mux.Handle(pattern, h) }
}

// NewServer creates a Server. inbound receives every decoded message.
func NewServer(inbound InboundFunc, engine *workflow.Engine, analyzer *analysis.Analyzer, history types.HistoryStore, opts ...Option) *Server {
	s := &Server{
		inbound:  inbound,
		engine:   engine,
		analyzer: analyzer,
		history:  history,
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /webhook/telegram", s.handleTelegram)
	s.mux.HandleFunc("POST /webhook/feishu", s.handleFeishu)
	s.mux.HandleFunc("POST /webhook/{platform}", s.handleGeneric)
	s.mux.HandleFunc("POST /api/messages", s.handleGeneric)

	s.mux.HandleFunc("GET /api/workflows", s.handleListWorkflows)
	s.mux.HandleFunc("POST /api/workflows", s.handleCreateWorkflow)
	s.mux.HandleFunc("GET /api/workflows/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/workflows/{id}", s.handleGetWorkflow)
	s.mux.HandleFunc("DELETE /api/workflows/{id}", s.handleDeleteWorkflow)
	s.mux.HandleFunc("POST /api/workflows/{id}/enable", s.handleToggleWorkflow(true))
	s.mux.HandleFunc("POST /api/workflows/{id}/disable", s.handleToggleWorkflow(false))
	s.mux.HandleFunc("POST /api/engine/enable", s.handleEngine(true))
	s.mux.HandleFunc("POST /api/engine/disable", s.handleEngine(false))

	s.mux.HandleFunc("POST /api/analyze/sentiment", s.handleSentiment)
	s.mux.HandleFunc("POST /api/analyze/categorize", s.handleCategorize)
	s.mux.HandleFunc("GET /api/chats/{chat}/replies", s.handleReplies)
	s.mux.HandleFunc("GET /api/chats/{chat}/action-items", s.handleActionItems)
	s.mux.HandleFunc("GET /api/chats/{chat}/trend", s.handleTrend)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return nil, false
	}
	return body, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"engine":    s.engine.Enabled(),
		"remote":    s.analyzer.IsAvailable(),
		"workflows": len(s.engine.Store().List()),
	})
}

// enqueue hands msg to the pipeline and answers 202 with the run ID.
func (s *Server) enqueue(w http.ResponseWriter, r *http.Request, msg *types.Message) {
	run, err := s.inbound(r.Context(), ingest.Normalize(msg))
	if err != nil {
		slog.Error("enqueue inbound message failed", "chat", msg.ChatKey(), "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id":     string(run.ID),
		"message_id": string(msg.ID),
	})
}

func (s *Server) handleTelegram(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	msg, err := ingest.DecodeTelegramUpdate(body)
	if errors.Is(err, ingest.ErrIgnored) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.enqueue(w, r, msg)
}

func (s *Server) handleFeishu(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	event, err := ingest.DecodeFeishuEvent(body, s.feishuToken)
	if errors.Is(err, ingest.ErrIgnored) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		slog.Warn("rejected feishu callback", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if event.Challenge != "" {
		writeJSON(w, http.StatusOK, map[string]string{"challenge": event.Challenge})
		return
	}
	s.enqueue(w, r, event.Message)
}

func (s *Server) handleGeneric(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	msg, err := ingest.DecodeMessage(body, types.Platform(r.PathValue("platform")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.enqueue(w, r, msg)
}
