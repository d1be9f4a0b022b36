// Package store implements the persistent KV/vector adapter described in
// spec §3 (Data Model) and §6 (Persisted state layout): SQLite tables for
// SemanticChunk, ConversationMessage, ExtractedEvent and CalendarEvent,
// plus a flat cosine-similarity scan standing in for the HNSW index the
// spec names as "recommended" ("any equivalent approximate-NN structure
// is acceptable given fixed embedding dimension").
//
// Grounded on the teacher's internal/memory.Store: WAL pragmas, an
// idempotent CREATE TABLE IF NOT EXISTS migration, and a data directory
// created under the user's home on first run.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
)

// Config configures the store.
type Config struct {
	DataDir            string
	EmbeddingDimension int
}

// Store is the SQLite-backed persistence engine for the assistant's
// core entities.
type Store struct {
	db  *sql.DB
	dim int
}

// New opens (creating if absent) the SQLite database under cfg.DataDir
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.EmbeddingDimension <= 0 {
		return nil, apperror.New(apperror.Config, "store: embedding dimension must be positive")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "store: create data dir", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "assistant.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "store: open database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, apperror.Wrap(apperror.Internal, fmt.Sprintf("store: pragma %q", p), err)
		}
	}

	s := &Store{db: db, dim: cfg.EmbeddingDimension}
	if err := s.migrate(); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "store: migration", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS semantic_chunks (
			chunk_id   TEXT PRIMARY KEY,
			source     TEXT NOT NULL,
			text       TEXT NOT NULL,
			embedding  BLOB NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_source ON semantic_chunks(source);

		CREATE TABLE IF NOT EXISTS conversation_messages (
			message_sid     TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			sender          TEXT NOT NULL,
			recipient       TEXT NOT NULL,
			body            TEXT NOT NULL,
			received_at     TEXT NOT NULL,
			processed       INTEGER NOT NULL DEFAULT 0,
			event_extracted INTEGER NOT NULL DEFAULT 0,
			linked_event_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_messages_conv ON conversation_messages(conversation_id, received_at);
		CREATE INDEX IF NOT EXISTS idx_messages_processed ON conversation_messages(processed);

		CREATE TABLE IF NOT EXISTS extracted_events (
			id              TEXT PRIMARY KEY,
			source          TEXT NOT NULL,
			title           TEXT NOT NULL,
			start_at        TEXT NOT NULL,
			end_at          TEXT,
			timezone        TEXT NOT NULL,
			location        TEXT,
			attendees       TEXT,
			status          TEXT NOT NULL,
			confidence      REAL NOT NULL DEFAULT 0,
			relevance_score REAL,
			created_at      TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_events_status ON extracted_events(status);

		CREATE TABLE IF NOT EXISTS calendar_events (
			provider          TEXT NOT NULL,
			provider_event_id TEXT NOT NULL,
			calendar_id       TEXT NOT NULL,
			title             TEXT NOT NULL,
			start_at          TEXT NOT NULL,
			end_at            TEXT,
			status            TEXT NOT NULL,
			last_sync_at      TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (provider, provider_event_id)
		);

		CREATE TABLE IF NOT EXISTS audit_log (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			entity     TEXT NOT NULL,
			entity_id  TEXT NOT NULL,
			event      TEXT NOT NULL,
			detail     TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity, entity_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// recordAudit is a best-effort append to the audit trail; failures are
// discarded, neither logged nor surfaced to the caller.
func (s *Store) recordAudit(entity, entityID, event, detail string) {
	_, _ = s.db.Exec(
		`INSERT INTO audit_log (entity, entity_id, event, detail) VALUES (?, ?, ?, ?)`,
		entity, entityID, event, detail,
	)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
