// Package api implements the Paperscout HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nugget/paperscout/internal/agent"
	"github.com/nugget/paperscout/internal/buildinfo"
	"github.com/nugget/paperscout/internal/credentials"
	"github.com/nugget/paperscout/internal/events"
	"github.com/nugget/paperscout/internal/usage"
)

// maxBodyBytes caps request bodies. Conversation histories are small.
const maxBodyBytes = 1 << 20

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// QueryProcessor answers research queries. *agent.Service satisfies it.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, message string, prior []agent.Turn) agent.Result
}

// CredentialStore reads and replaces the model API key.
// *credentials.Store satisfies it.
type CredentialStore interface {
	Set(ctx context.Context, value string) error
	Status(ctx context.Context) (credentials.Status, error)
}

// UsageSummarizer reports token usage. *usage.Store satisfies it.
type UsageSummarizer interface {
	Summary(ctx context.Context, start, end time.Time) (*usage.Summary, error)
	SummaryByModel(ctx context.Context, start, end time.Time) (map[string]*usage.Summary, error)
}

// Deps are the collaborators behind the API. Query is required; a nil
// Credentials, Usage, or Events disables the matching endpoints.
type Deps struct {
	Query       QueryProcessor
	Credentials CredentialStore
	Usage       UsageSummarizer
	Events      *events.Bus
}

// Server is the HTTP API server.
type Server struct {
	address string
	port    int
	deps    Deps
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new API server.
func NewServer(address string, port int, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address: address,
		port:    port,
		deps:    deps,
		logger:  logger.With("component", "api"),
	}
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/query", s.handleQuery)

	mux.HandleFunc("GET /v1/credentials", s.handleCredentialStatus)
	mux.HandleFunc("PUT /v1/credentials", s.handleCredentialSet)

	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/usage", s.handleUsage)

	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests. It blocks until the server is shut
// down and returns nil in that case.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket event streams are long-lived
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, agent.Result{Success: false, Error: message}, s.logger)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "Paperscout",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.RuntimeInfo(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

// QueryRequest is the body of POST /v1/query.
type QueryRequest struct {
	Message             string       `json:"message"`
	ConversationHistory []agent.Turn `json:"conversation_history,omitempty"`
}

// handleQuery runs the agent. Failures the agent reports are returned
// with status 200 and success=false; only malformed requests get 4xx.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	res := s.deps.Query.ProcessQuery(r.Context(), message, req.ConversationHistory)
	if !res.Success {
		s.logger.Warn("query failed", "error", res.Error)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, res, s.logger)
}

// CredentialRequest is the body of PUT /v1/credentials.
type CredentialRequest struct {
	APIKey string `json:"api_key"`
}

func (s *Server) handleCredentialStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Credentials == nil {
		s.errorResponse(w, http.StatusNotFound, "credential store not configured")
		return
	}
	status, err := s.deps.Credentials.Status(r.Context())
	if err != nil {
		s.logger.Error("credential status failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "credential status unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, status, s.logger)
}

// handleCredentialSet stores a new API key. An empty key clears the
// stored value.
func (s *Server) handleCredentialSet(w http.ResponseWriter, r *http.Request) {
	if s.deps.Credentials == nil {
		s.errorResponse(w, http.StatusNotFound, "credential store not configured")
		return
	}
	var req CredentialRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.deps.Credentials.Set(r.Context(), strings.TrimSpace(req.APIKey)); err != nil {
		s.logger.Error("credential update failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to store credential")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUsage reports token usage over the last N hours (default 24).
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Usage == nil {
		s.errorResponse(w, http.StatusNotFound, "usage tracking not configured")
		return
	}
	hours := parseIntParam(r, "hours", 24)
	end := time.Now()
	start := end.Add(-time.Duration(hours) * time.Hour)

	total, err := s.deps.Usage.Summary(r.Context(), start, end)
	if err != nil {
		s.logger.Error("usage summary failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "usage summary unavailable")
		return
	}
	byModel, err := s.deps.Usage.SummaryByModel(r.Context(), start, end)
	if err != nil {
		s.logger.Error("usage summary failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "usage summary unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"hours":    hours,
		"start":    start.UTC().Format(time.RFC3339),
		"end":      end.UTC().Format(time.RFC3339),
		"total":    total,
		"by_model": byModel,
	}, s.logger)
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}
