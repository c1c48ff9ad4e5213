package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/scrapebridge/scrapebridge/internal/config"
)

// HTTPServer is the session-tracked streamable HTTP binding plus the
// push-stream pair, each gated by its endpoint enable flag. The health
// check is always served.
type HTTPServer struct {
	cfg        *config.Config
	dispatcher *Dispatcher
	sessions   *SessionManager
	sse        *SSETransport
	httpServer *http.Server
}

// NewHTTPServer creates the HTTP transport binding.
func NewHTTPServer(cfg *config.Config, dispatcher *Dispatcher) *HTTPServer {
	return &HTTPServer{
		cfg:        cfg,
		dispatcher: dispatcher,
		sessions:   NewSessionManager(),
		sse:        NewSSETransport(dispatcher),
	}
}

// Router builds the chi router with the configured endpoints.
func (s *HTTPServer) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	limiter := RateLimitMiddleware(DefaultRateLimit())

	if s.cfg.Endpoints.MCPEnabled {
		r.Group(func(r chi.Router) {
			r.Use(limiter)
			r.Post("/mcp", s.handleMCPPost)
			r.Get("/mcp", s.handleMCPGet)
			r.Delete("/mcp", s.handleMCPDelete)
		})
	}

	if s.cfg.Endpoints.SSEEnabled {
		r.Group(func(r chi.Router) {
			r.Use(limiter)
			r.Get("/sse", s.sse.HandleStream)
			r.Post("/messages", s.sse.HandleMessage)
		})
	}

	return r
}

// Start listens on the configured port until the listener fails or the
// server is shut down.
func (s *HTTPServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Endpoints.Port)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.Router(),
		ReadTimeout: 30 * time.Second,
		// WriteTimeout is intentionally omitted to support long-lived
		// SSE connections.
	}

	log.Info().
		Str("addr", addr).
		Bool("mcpEnabled", s.cfg.Endpoints.MCPEnabled).
		Bool("sseEnabled", s.cfg.Endpoints.SSEEnabled).
		Msg("starting HTTP server")
	return s.httpServer.ListenAndServe()
}

// Shutdown closes every tracked session and stream, then drains the
// HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.sessions.CloseAll()
	s.sse.Close()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// handleHealth answers unconditionally with static status, independent
// of session or endpoint state.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"name":    serverName,
		"version": serverVersion,
	})
}

// handleMCPPost handles POST /mcp (JSON-RPC requests).
func (s *HTTPServer) handleMCPPost(w http.ResponseWriter, r *http.Request) {
	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusOK, newError(nil, ParseError, "invalid JSON"))
		return
	}
	if req.JSONRPC != "2.0" {
		writeJSONResponse(w, http.StatusOK, newError(req.ID, InvalidRequest, "invalid jsonrpc version"))
		return
	}

	sessionID := r.Header.Get("Mcp-Session-Id")

	// An initialize call without a session creates one.
	if req.Method == "initialize" && sessionID == "" {
		session := s.sessions.CreateSession()
		log.Info().Str("sessionId", session.ID).Msg("created new MCP session")

		w.Header().Set("Mcp-Session-Id", session.ID)
		writeJSONResponse(w, http.StatusOK, s.dispatcher.Handle(r.Context(), &req))
		return
	}

	// Every other request must resolve to a known session.
	if sessionID == "" {
		writeJSONResponse(w, http.StatusOK, newError(req.ID, SessionError, "missing Mcp-Session-Id header"))
		return
	}
	if _, err := s.sessions.GetSession(sessionID); err != nil {
		writeJSONResponse(w, http.StatusOK, newError(req.ID, SessionError, "session not found"))
		return
	}
	s.sessions.UpdateLastSeen(sessionID)

	resp := s.dispatcher.Handle(r.Context(), &req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// handleMCPGet handles GET /mcp: a server-to-client SSE stream bound to
// an existing session.
func (s *HTTPServer) handleMCPGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, "missing Mcp-Session-Id header", http.StatusBadRequest)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	stream, err := NewSSEStream(r.Context(), w, sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	session.AttachStream(stream)
	defer session.DetachStream(stream)

	log.Info().Str("sessionId", sessionID).Msg("session stream established")
	<-stream.Done()
	log.Info().Str("sessionId", sessionID).Msg("session stream closed")
}

// handleMCPDelete handles DELETE /mcp (close session).
func (s *HTTPServer) handleMCPDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, "missing session ID", http.StatusBadRequest)
		return
	}

	s.sessions.DeleteSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode json response")
	}
}

func writeJSONResponse(w http.ResponseWriter, code int, resp *JSONRPCResponse) {
	writeJSON(w, code, resp)
}
