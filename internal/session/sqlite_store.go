package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"lexatlas/client/internal/rbac"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	token TEXT NOT NULL,
	identity TEXT NOT NULL
);`

// SQLiteStore persists the session in a single-file database inside the
// client state directory. This is the default store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the session database under stateDir.
func NewSQLiteStore(stateDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(stateDir, "session.db"))
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*StoredSession, error) {
	var token, identityJSON string
	err := s.db.QueryRowContext(ctx, `SELECT token, identity FROM session WHERE id = 1`).Scan(&token, &identityJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	stored := StoredSession{Token: token}
	if err := json.Unmarshal([]byte(identityJSON), &stored.Identity); err != nil || !stored.valid() {
		// Half-valid pair: discard both sides rather than hand out a
		// token with no identity (or the reverse).
		log.Printf("session: discarding corrupt stored session")
		if err := s.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear corrupt session: %w", err)
		}
		return nil, nil
	}
	stored.Identity.Role = rbac.Normalize(string(stored.Identity.Role))
	return &stored, nil
}

func (s *SQLiteStore) Save(ctx context.Context, token string, identity Identity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO session (id, token, identity) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, identity = excluded.identity`,
		token, string(payload))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
