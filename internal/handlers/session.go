package handlers

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ternarybob/prospectus/internal/common"
)

// Session is one live WebSocket connection. Writes are serialized through
// the session's mutex; gorilla permits only one concurrent writer.
type Session struct {
	ID        string
	CreatedAt time.Time

	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Send marshals a message and writes it to the connection.
func (s *Session) Send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// SessionStore owns connection state. Sessions are created on connect and
// evicted on disconnect; nothing else holds connection references.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session for a connection.
func (st *SessionStore) Create(conn *websocket.Conn) *Session {
	session := &Session{
		ID:        common.NewConnectionID(),
		CreatedAt: time.Now(),
		conn:      conn,
	}

	st.mu.Lock()
	st.sessions[session.ID] = session
	st.mu.Unlock()
	return session
}

// Lookup returns the session for an id, or nil.
func (st *SessionStore) Lookup(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// Evict removes a session.
func (st *SessionStore) Evict(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Count returns the number of live sessions.
func (st *SessionStore) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
