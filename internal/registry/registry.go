// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry implements the knowledge-graph registry over SQLite:
// entities keyed by label and subject-predicate-object relationships,
// both with idempotent upserts so repeated registrations are harmless.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/notescan/pkg/types"
)

const dbFile = "graph.db"

// Store manages the graph registry SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the registry database at DataDir/graph.db,
// creating the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
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
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL UNIQUE,
			kind TEXT,
			document_id TEXT,
			attributes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_document ON entities(document_id)`,
		`CREATE TABLE IF NOT EXISTS relationships (
			id TEXT PRIMARY KEY,
			subject TEXT NOT NULL,
			predicate TEXT NOT NULL,
			object TEXT NOT NULL,
			document_id TEXT,
			confidence REAL,
			UNIQUE(subject, predicate, object)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_relationships_subject ON relationships(subject)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RegisterEntity upserts an entity by label. The first registration
// assigns the ID; later ones refresh kind, document, and attributes but
// keep the ID stable, so registration is safe to fire on every
// decoration event. An empty kind never erases a stored one; decoration
// events often carry the label alone.
func (s *Store) RegisterEntity(ctx context.Context, label, kind, documentID string, opts types.RegisterOptions) error {
	if label == "" {
		return errors.New("entity label is empty")
	}

	var attrs []byte
	if len(opts.Attributes) > 0 {
		attrs, _ = json.Marshal(opts.Attributes)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entities (id, label, kind, document_id, attributes)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(label) DO UPDATE SET
			kind=COALESCE(NULLIF(excluded.kind,''), entities.kind),
			document_id=excluded.document_id,
			attributes=COALESCE(excluded.attributes, entities.attributes)`,
		uuid.NewString(), label, kind, documentID, nullable(string(attrs)),
	)
	if err != nil {
		return fmt.Errorf("registering entity %q: %w", label, err)
	}
	return nil
}

// UpsertRelationship inserts or refreshes one relation, keyed by the
// (subject, predicate, object) triple.
func (s *Store) UpsertRelationship(ctx context.Context, rel types.Relation) error {
	if rel.Subject == "" || rel.Predicate == "" || rel.Object == "" {
		return errors.New("relation is missing subject, predicate, or object")
	}
	id := rel.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relationships (id, subject, predicate, object, document_id, confidence)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(subject, predicate, object) DO UPDATE SET
			document_id=excluded.document_id,
			confidence=excluded.confidence`,
		id, rel.Subject, rel.Predicate, rel.Object, rel.DocumentID, rel.Confidence,
	)
	if err != nil {
		return fmt.Errorf("upserting relationship %s-%s-%s: %w", rel.Subject, rel.Predicate, rel.Object, err)
	}
	return nil
}

// IsRegisteredEntity reports whether an entity with the label exists.
func (s *Store) IsRegisteredEntity(ctx context.Context, label string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM entities WHERE label = ?`, label,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking entity %q: %w", label, err)
	}
	return n > 0, nil
}

// FindEntityByLabel returns the entity with the label, or nil if none is
// registered.
func (s *Store) FindEntityByLabel(ctx context.Context, label string) (*types.Entity, error) {
	var (
		e     types.Entity
		attrs sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, label, kind, document_id, attributes FROM entities WHERE label = ?`, label,
	).Scan(&e.ID, &e.Label, &e.Kind, &e.DocumentID, &attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding entity %q: %w", label, err)
	}
	if attrs.Valid && attrs.String != "" {
		if err := json.Unmarshal([]byte(attrs.String), &e.Attributes); err != nil {
			return nil, fmt.Errorf("parsing attributes for %q: %w", label, err)
		}
	}
	return &e, nil
}

// Labels returns every registered entity label in sorted order.
func (s *Store) Labels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label FROM entities ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// Relations returns the relations extracted from a document, ordered by
// subject then predicate.
func (s *Store) Relations(ctx context.Context, documentID string) ([]types.Relation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject, predicate, object, document_id, confidence
		 FROM relationships WHERE document_id = ?
		 ORDER BY subject, predicate, object`, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	defer rows.Close()

	var rels []types.Relation
	for rows.Next() {
		var r types.Relation
		if err := rows.Scan(&r.ID, &r.Subject, &r.Predicate, &r.Object, &r.DocumentID, &r.Confidence); err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
