package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Session represents one active protocol client on the HTTP transport.
// Sessions live until explicitly closed or process exit; there is no
// expiry timer.
type Session struct {
	ID        string
	CreatedAt time.Time
	LastSeen  time.Time

	mu     sync.Mutex
	stream *SSEStream // optional server-to-client stream
}

// AttachStream records the session's push stream, closing any previous one.
func (s *Session) AttachStream(stream *SSEStream) {
	s.mu.Lock()
	prev := s.stream
	s.stream = stream
	s.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// DetachStream clears the stream if it is still the attached one.
func (s *Session) DetachStream(stream *SSEStream) {
	s.mu.Lock()
	if s.stream == stream {
		s.stream = nil
	}
	s.mu.Unlock()
}

// CloseStream closes the attached push stream, if any.
func (s *Session) CloseStream() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()
	if stream != nil {
		stream.Close()
	}
}

// SessionManager tracks active sessions by ID.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

// CreateSession registers a new session with a fresh random identifier.
func (sm *SessionManager) CreateSession() *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		LastSeen:  time.Now(),
	}
	sm.sessions[session.ID] = session

	log.Debug().Str("sessionId", session.ID).Msg("created session")
	return session
}

// GetSession retrieves a session by ID.
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("session not found")
	}
	return session, nil
}

// UpdateLastSeen refreshes the session's last-seen time.
func (sm *SessionManager) UpdateLastSeen(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[sessionID]; exists {
		session.LastSeen = time.Now()
	}
}

// DeleteSession removes a session and closes its stream.
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	session, exists := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if exists {
		session.CloseStream()
		log.Debug().Str("sessionId", sessionID).Msg("deleted session")
	}
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CloseAll closes every tracked session. Called on shutdown so no
// stream outlives the server.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.sessions = make(map[string]*Session)
	sm.mu.Unlock()

	for _, s := range sessions {
		s.CloseStream()
	}
	if len(sessions) > 0 {
		log.Info().Int("count", len(sessions)).Msg("closed all sessions")
	}
}
