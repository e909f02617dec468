// Package api exposes every public operation of the daemon as local JSON
// endpoints for the dispatch surface to consume.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shyndman/whatsapp-mcp/internal/bridge"
	"github.com/shyndman/whatsapp-mcp/internal/cursor"
	"github.com/shyndman/whatsapp-mcp/internal/partition"
	"github.com/shyndman/whatsapp-mcp/internal/query"
	"github.com/shyndman/whatsapp-mcp/internal/store"
)

// Server wires the query service, partition planner, and bridge client into
// HTTP handlers.
type Server struct {
	queries *query.Service
	planner *partition.Planner
	bridge  *bridge.Client
	logger  *zap.Logger
}

func NewServer(queries *query.Service, planner *partition.Planner, bridge *bridge.Client, logger *zap.Logger) *Server {
	return &Server{
		queries: queries,
		planner: planner,
		bridge:  bridge,
		logger:  logger,
	}
}

// Handler builds the route table. Every request gets a request id and an
// access log line.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/messages", s.handleListMessages)
	mux.HandleFunc("GET /api/messages/{id}/context", s.handleMessageContext)
	mux.HandleFunc("POST /api/partitions", s.handlePlanPartitions)
	mux.HandleFunc("GET /api/chats", s.handleListChats)
	mux.HandleFunc("GET /api/chats/direct/{phone}", s.handleDirectChat)
	mux.HandleFunc("GET /api/chats/{jid}", s.handleGetChat)
	mux.HandleFunc("GET /api/contacts", s.handleSearchContacts)
	mux.HandleFunc("GET /api/contacts/{jid}/last-interaction", s.handleLastInteraction)
	mux.HandleFunc("POST /api/send", s.handleSend)
	mux.HandleFunc("POST /api/download", s.handleDownload)

	return s.withAccessLog(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":        true,
		"timestamp": time.Now().Unix(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeOperationError maps the error taxonomy to status codes: validation
// failures are 400, missing anchors and chats 404, everything else 500.
func (s *Server) writeOperationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cursor.ErrMalformed), errors.Is(err, partition.ErrInvalidSize):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("operation failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("request_id", uuid.NewString()),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
