package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManagerLifecycle(t *testing.T) {
	sm := NewSessionManager()
	assert.Equal(t, 0, sm.Count())

	session := sm.CreateSession()
	require.NotEmpty(t, session.ID)
	assert.Equal(t, 1, sm.Count())

	got, err := sm.GetSession(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)

	sm.DeleteSession(session.ID)
	assert.Equal(t, 0, sm.Count())

	_, err = sm.GetSession(session.ID)
	assert.Error(t, err)
}

func TestSessionManagerUnknownSession(t *testing.T) {
	sm := NewSessionManager()
	_, err := sm.GetSession("no-such-session")
	assert.Error(t, err)

	// Deleting an unknown session is a no-op.
	sm.DeleteSession("no-such-session")
}

func TestSessionManagerUniqueIDs(t *testing.T) {
	sm := NewSessionManager()
	a := sm.CreateSession()
	b := sm.CreateSession()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, sm.Count())
}

func TestSessionManagerUpdateLastSeen(t *testing.T) {
	sm := NewSessionManager()
	session := sm.CreateSession()
	created := session.LastSeen

	time.Sleep(5 * time.Millisecond)
	sm.UpdateLastSeen(session.ID)

	got, err := sm.GetSession(session.ID)
	require.NoError(t, err)
	assert.True(t, got.LastSeen.After(created))
}

func TestSessionManagerCloseAll(t *testing.T) {
	sm := NewSessionManager()
	sm.CreateSession()
	sm.CreateSession()
	sm.CreateSession()
	require.Equal(t, 3, sm.Count())

	sm.CloseAll()
	assert.Equal(t, 0, sm.Count())
}
