// Package memory provides the in-memory document store used for tests and
// ephemeral environments. It is the reference implementation of the store
// contract: updates are linearized at document granularity and callers only
// ever see deep copies of committed state.
package memory

import (
	"context"
	"sync"

	"retreatcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.DocumentStore = (*Store)(nil)

// Store holds the single committed document behind a mutex.
type Store struct {
	mu  sync.Mutex
	doc *domain.Document
}

// NewStore constructs a store seeded with the given document. A nil document
// starts from the empty skeleton.
func NewStore(initial *domain.Document) *Store {
	return &Store{doc: initial.Clone()}
}

// Update runs fn against a private deep copy of the committed document while
// holding the store lock, so concurrent requests are serialized and fn's
// load-mutate-save is one atomic unit. If fn fails nothing is committed.
func (s *Store) Update(ctx context.Context, fn func(doc *domain.Document) (*domain.Document, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.doc.Clone())
	if err != nil {
		return err
	}
	if next != nil {
		s.doc = next.Clone()
	}
	return nil
}

// Load returns a deep copy of the committed document.
func (s *Store) Load(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

// Snapshot returns a deep copy of the committed document for persistence
// wrappers that serialize state after successful updates.
func (s *Store) Snapshot() *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// ImportState replaces the committed document wholesale. Used by persistence
// wrappers when hydrating from durable storage.
func (s *Store) ImportState(doc *domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
}
