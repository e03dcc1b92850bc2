package server

import (
	"encoding/hex"
	"sync"

	"github.com/google/uuid"

	"github.com/kayz/tomo/internal/api"
	"github.com/kayz/tomo/internal/flow"
	"github.com/kayz/tomo/internal/logger"
	"github.com/kayz/tomo/internal/store"
)

// Session is one onboarding conversation. Its mutex serializes chat turns
// and direct edits so each request sees a consistent snapshot.
type Session struct {
	ID    string
	State api.State

	mu sync.Mutex
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Sessions keeps live sessions in memory, optionally backed by a SQLite
// store that survives restarts.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	db       *store.Store
}

func NewSessions(db *store.Store) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		db:       db,
	}
}

// newSessionID is a short opaque token, 12 hex chars.
func newSessionID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:12]
}

// GetOrCreate resolves an incoming session id. Blank or unknown ids get a
// fresh session; known ids return the live one, falling back to the store.
func (s *Sessions) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			return sess
		}
		if sess := s.loadFromStore(id); sess != nil {
			s.sessions[id] = sess
			return sess
		}
	}

	sess := &Session{ID: newSessionID(), State: flow.NewState()}
	s.sessions[sess.ID] = sess
	logger.Debugf("created session %s", sess.ID)
	return sess
}

// Get returns the session for id, or nil when it is unknown.
func (s *Sessions) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	if sess := s.loadFromStore(id); sess != nil {
		s.sessions[id] = sess
		return sess
	}
	return nil
}

func (s *Sessions) loadFromStore(id string) *Session {
	if s.db == nil {
		return nil
	}
	state, ok, err := s.db.LoadSession(id)
	if err != nil {
		logger.Warnf("load session %s: %v", id, err)
		return nil
	}
	if !ok {
		return nil
	}
	return &Session{ID: id, State: state}
}

// Persist writes a session snapshot through to the store, if any. Call it
// with the session lock held.
func (s *Sessions) Persist(sess *Session) {
	if s.db == nil {
		return
	}
	if err := s.db.SaveSession(sess.ID, sess.State); err != nil {
		logger.Warnf("persist session %s: %v", sess.ID, err)
	}
}

// Record appends a chat line to the persisted history, if any.
func (s *Sessions) Record(sessionID, role, content string) {
	if s.db == nil {
		return
	}
	if err := s.db.AddHistory(sessionID, role, content); err != nil {
		logger.Warnf("record history for %s: %v", sessionID, err)
	}
}
