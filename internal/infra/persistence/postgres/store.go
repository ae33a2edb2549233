// Package postgres provides a Postgres-backed document store that mirrors the
// in-memory semantics while snapshotting the document as JSONB after every
// successful update.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"retreatcore/internal/infra/persistence/memory"
	"retreatcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DocumentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenDocumentStore defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/retreatcore?sslmode=disable"

	documentBucket = "document"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists the document to Postgres while reusing the in-memory
// implementation for request serialization.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the snapshot table exists, and hydrates the
// in-memory store from any existing snapshot.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	doc, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	return &Store{Store: memory.NewStore(doc), db: db}, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (*domain.Document, error) {
	var payload []byte
	err := db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = $1`, documentBucket).Scan(&payload)
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

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, documentBucket, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", documentBucket, err)
	}
	return nil
}

// Update applies fn within the in-memory store, then snapshots the committed
// document to Postgres if successful.
func (s *Store) Update(ctx context.Context, fn func(doc *domain.Document) (*domain.Document, error)) error {
	if err := s.Store.Update(ctx, fn); err != nil {
		return err
	}
	return s.persist(ctx)
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
