// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spancache persists decoration spans per document for
// cross-session recovery. Each row carries the content hash of the
// flattened text the spans were computed against, so a reader can tell a
// still-valid cache from one that needs realignment.
package spancache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/notescan/pkg/types"
)

const dbFile = "spans.db"

// Store manages the span cache SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the cache database at DataDir/spans.db.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS span_cache (
			document_id TEXT PRIMARY KEY,
			spans TEXT NOT NULL,
			content_hash TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// GetCached returns the cached row for a document. The second return is
// false when no row exists; that is a miss, not an error.
func (s *Store) GetCached(ctx context.Context, documentID string) (types.CacheRow, bool, error) {
	var (
		row       types.CacheRow
		spansJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT document_id, spans, content_hash FROM span_cache WHERE document_id = ?`,
		documentID,
	).Scan(&row.DocumentID, &spansJSON, &row.ContentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CacheRow{}, false, nil
	}
	if err != nil {
		return types.CacheRow{}, false, fmt.Errorf("reading span cache for %q: %w", documentID, err)
	}

	if err := json.Unmarshal([]byte(spansJSON), &row.Spans); err != nil {
		return types.CacheRow{}, false, fmt.Errorf("parsing cached spans for %q: %w", documentID, err)
	}
	return row, true, nil
}

// SaveCached replaces the cached row for a document in one write.
func (s *Store) SaveCached(ctx context.Context, row types.CacheRow) error {
	spansJSON, err := json.Marshal(row.Spans)
	if err != nil {
		return fmt.Errorf("encoding spans for %q: %w", row.DocumentID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO span_cache (document_id, spans, content_hash)
		 VALUES (?, ?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET
			spans=excluded.spans,
			content_hash=excluded.content_hash`,
		row.DocumentID, string(spansJSON), row.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("writing span cache for %q: %w", row.DocumentID, err)
	}
	return nil
}

// Clear removes the cached row for a document, if any.
func (s *Store) Clear(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM span_cache WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("clearing span cache for %q: %w", documentID, err)
	}
	return nil
}
