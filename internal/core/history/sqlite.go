package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	session_id  TEXT NOT NULL,
	text        TEXT NOT NULL,
	platform    TEXT NOT NULL,
	status      TEXT NOT NULL,
	message     TEXT NOT NULL,
	actions     TEXT NOT NULL,
	script_path TEXT NOT NULL,
	reason      TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_session ON entries (session_id);
`

// SQLiteStore keeps the history in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path in WAL mode.
// Callers must Close it.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("history store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("history store: open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history store: WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history store: schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save replaces the stored entries with entries in one transaction
func (s *SQLiteStore) Save(entries []*Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("history save: begin: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("history save: clear: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO entries
		(id, session_id, text, platform, status, message, actions, script_path, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("history save: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		actions, err := json.Marshal(e.Actions)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("history save: marshal actions: %w", err)
		}
		if _, err := stmt.Exec(e.ID, e.SessionID, e.Text, e.Platform, string(e.Status), e.Message,
			string(actions), e.ScriptPath, e.Reason, e.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("history save: insert %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history save: commit: %w", err)
	}
	return nil
}

// Load returns every stored entry, oldest first
func (s *SQLiteStore) Load() ([]*Entry, error) {
	rows, err := s.db.Query(`SELECT id, session_id, text, platform, status, message, actions, script_path, reason, created_at
		FROM entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("history load: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*Entry{}
	for rows.Next() {
		var (
			e         Entry
			status    string
			actions   string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Text, &e.Platform, &status, &e.Message,
			&actions, &e.ScriptPath, &e.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		e.Status = Status(status)
		if actions != "" && actions != "null" {
			_ = json.Unmarshal([]byte(actions), &e.Actions)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
