package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func newStreamID() string {
	return uuid.New().String()
}

// SSEStream manages one server-sent-events connection.
type SSEStream struct {
	mu        sync.Mutex
	w         http.ResponseWriter
	flusher   http.Flusher
	eventID   int
	sessionID string
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewSSEStream creates a new SSE stream over w, writing the standard
// event-stream headers.
func NewSSEStream(ctx context.Context, w http.ResponseWriter, sessionID string) (*SSEStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	streamCtx, cancel := context.WithCancel(ctx)

	return &SSEStream{
		w:         w,
		flusher:   flusher,
		sessionID: sessionID,
		ctx:       streamCtx,
		cancel:    cancel,
	}, nil
}

// SendEvent writes a named SSE event with a string payload.
func (s *SSEStream) SendEvent(event, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}

	s.eventID++
	fmt.Fprintf(s.w, "event: %s\n", event)
	fmt.Fprintf(s.w, "id: %d\n", s.eventID)
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
	return nil
}

// SendMessage sends a JSON-RPC message as a "message" event.
func (s *SSEStream) SendMessage(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.SendEvent("message", string(data))
}

// Close closes the stream.
func (s *SSEStream) Close() {
	s.cancel()
}

// Done returns a channel closed when the stream is closed.
func (s *SSEStream) Done() <-chan struct{} {
	return s.ctx.Done()
}

// SSETransport is the push-stream binding: one long-lived outbound
// event stream per client plus an inbound endpoint for posted
// messages. At most one stream connection is tracked at a time;
// closing the stream clears the tracked connection.
type SSETransport struct {
	dispatcher *Dispatcher

	mu      sync.Mutex
	stream  *SSEStream
	session string
}

// NewSSETransport creates the push-stream transport binding.
func NewSSETransport(dispatcher *Dispatcher) *SSETransport {
	return &SSETransport{dispatcher: dispatcher}
}

// HandleStream serves GET /sse: it opens the event stream, announces
// the message endpoint, and blocks until the client disconnects.
func (t *SSETransport) HandleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := newStreamID()

	stream, err := NewSSEStream(r.Context(), w, sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	t.mu.Lock()
	if t.stream != nil {
		t.stream.Close()
	}
	t.stream = stream
	t.session = sessionID
	t.mu.Unlock()

	log.Info().Str("sessionId", sessionID).Msg("SSE stream established")

	// Tell the client where to post messages for this stream.
	if err := stream.SendEvent("endpoint", fmt.Sprintf("/messages?sessionId=%s", sessionID)); err != nil {
		t.clear(stream)
		return
	}

	<-stream.Done()
	t.clear(stream)

	log.Info().Str("sessionId", sessionID).Msg("SSE stream closed")
}

// HandleMessage serves POST /messages: it dispatches the posted
// JSON-RPC message and pushes the response over the tracked stream.
func (t *SSETransport) HandleMessage(w http.ResponseWriter, r *http.Request) {
	t.mu.Lock()
	stream := t.stream
	session := t.session
	t.mu.Unlock()

	if stream == nil || r.URL.Query().Get("sessionId") != session {
		writeJSONResponse(w, http.StatusBadRequest,
			newError(nil, SessionError, "no active stream for session"))
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, newError(nil, ParseError, "invalid JSON"))
		return
	}
	if req.JSONRPC != "2.0" {
		writeJSONResponse(w, http.StatusBadRequest, newError(req.ID, InvalidRequest, "invalid jsonrpc version"))
		return
	}

	resp := t.dispatcher.Handle(r.Context(), &req)
	if resp != nil {
		if err := stream.SendMessage(resp); err != nil {
			log.Warn().Err(err).Msg("failed to push response over SSE stream")
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

// Close shuts down the tracked stream, if any.
func (t *SSETransport) Close() {
	t.mu.Lock()
	stream := t.stream
	t.stream = nil
	t.session = ""
	t.mu.Unlock()
	if stream != nil {
		stream.Close()
	}
}

func (t *SSETransport) clear(stream *SSEStream) {
	t.mu.Lock()
	if t.stream == stream {
		t.stream = nil
		t.session = ""
	}
	t.mu.Unlock()
}
