// Package store persists completed transcriptions to a local SQLite database.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFiles embed.FS

// Transcript is one persisted transcription record.
type Transcript struct {
	ID        int64
	Text      string
	CreatedAt time.Time
	Duration  float64 // seconds of source audio
}

// TranscriptStore appends and lists transcription history. Append is
// fire-and-forget from the engine's point of view: a failed insert never
// fails the transcription that produced it.
type TranscriptStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and applies
// the schema.
func Open(path string) (*TranscriptStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: configure database: %w", err)
	}

	schema, err := schemaFiles.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: read schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	return &TranscriptStore{db: db}, nil
}

// Append stores a completed transcription.
func (s *TranscriptStore) Append(text string, createdAt time.Time, durationSeconds float64) error {
	_, err := s.db.Exec(
		`INSERT INTO transcripts (text, created_at, duration_seconds) VALUES (?, ?, ?)`,
		text, createdAt.UTC(), durationSeconds,
	)
	if err != nil {
		return fmt.Errorf("store: insert transcript: %w", err)
	}
	return nil
}

// Recent returns up to limit transcripts, newest first.
func (s *TranscriptStore) Recent(limit int) ([]Transcript, error) {
	rows, err := s.db.Query(
		`SELECT id, text, created_at, duration_seconds
		 FROM transcripts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query transcripts: %w", err)
	}
	defer rows.Close()

	var out []Transcript
	for rows.Next() {
		var t Transcript
		if err := rows.Scan(&t.ID, &t.Text, &t.CreatedAt, &t.Duration); err != nil {
			return nil, fmt.Errorf("store: scan transcript: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate transcripts: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *TranscriptStore) Close() error {
	return s.db.Close()
}
