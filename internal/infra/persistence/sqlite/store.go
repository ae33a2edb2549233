// Package sqlite provides a SQLite-backed document store that mirrors the
// in-memory semantics and snapshots the document as JSON after every
// successful update.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"retreatcore/internal/infra/persistence/memory"
	"retreatcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DocumentStore = (*Store)(nil)

const documentBucket = "document"

// Store persists the document to a single SQLite table as a JSON blob.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the database at path and hydrates the
// in-memory store from any existing snapshot.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "retreatcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	doc, err := loadSnapshot(db)
	if err != nil {
		return nil, err
	}
	return &Store{Store: memory.NewStore(doc), db: db, path: path}, nil
}

func loadSnapshot(db *sql.DB) (*domain.Document, error) {
	var payload []byte
	err := db.QueryRow(`SELECT payload FROM state WHERE bucket = ?`, documentBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	doc := domain.NewDocument()
	if err := json.Unmarshal(payload, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func (s *Store) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := s.db.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, documentBucket, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", documentBucket, err)
	}
	return nil
}

// Update applies fn within the in-memory store, then snapshots the committed
// document to SQLite if successful.
func (s *Store) Update(ctx context.Context, fn func(doc *domain.Document) (*domain.Document, error)) error {
	if err := s.Store.Update(ctx, fn); err != nil {
		return err
	}
	return s.persist()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
