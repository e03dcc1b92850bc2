// Package store persists onboarding sessions and their chat history in
// SQLite so a restarted server picks up where users left off.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kayz/tomo/internal/api"
)

// HistoryEntry is one persisted chat line.
type HistoryEntry struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (creating if needed) the SQLite database at path.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id           TEXT PRIMARY KEY,
			current_step TEXT NOT NULL,
			answers      TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  TEXT NOT NULL,
			role        TEXT NOT NULL,
			content     TEXT,
			created_at  TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_history_session ON history(session_id);
	`)
	return err
}

// SaveSession inserts or updates a session snapshot.
func (s *Store) SaveSession(id string, state api.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers, err := json.Marshal(state.Answers)
	if err != nil {
		return err
	}

	now := time.Now().Format(time.RFC3339)
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, current_step, answers, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_step=excluded.current_step, answers=excluded.answers, updated_at=excluded.updated_at
	`, id, state.CurrentStep, string(answers), now, now)
	return err
}

// LoadSession returns the stored state for id. The second return value is
// false when the session is unknown.
func (s *Store) LoadSession(id string) (api.State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT current_step, answers FROM sessions WHERE id = ?`, id)

	var state api.State
	var answers string
	if err := row.Scan(&state.CurrentStep, &answers); err != nil {
		if err == sql.ErrNoRows {
			return api.State{}, false, nil
		}
		return api.State{}, false, err
	}

	if err := json.Unmarshal([]byte(answers), &state.Answers); err != nil {
		return api.State{}, false, err
	}
	if state.Answers == nil {
		state.Answers = map[string]any{}
	}
	return state, true, nil
}

// AddHistory appends a chat line to a session's history.
func (s *Store) AddHistory(sessionID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO history (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, role, content, now)
	return err
}

// History returns a session's chat lines in insertion order.
func (s *Store) History(sessionID string) ([]HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT role, content, created_at
		FROM history
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var createdAt string
		if err := rows.Scan(&e.Role, &e.Content, &createdAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
