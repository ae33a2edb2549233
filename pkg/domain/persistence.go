package domain

import "context"

// DocumentStore is a minimal abstraction over durable backends. There is
// exactly one document instance; implementations must linearize updates at
// document granularity so that load-mutate-save runs as one atomic unit.
type DocumentStore interface {
	// Update runs fn against a private deep copy of the committed document.
	// If fn returns a nil error, the returned document becomes the new
	// committed state. If fn returns an error, nothing is committed and the
	// error is returned unchanged.
	Update(ctx context.Context, fn func(doc *Document) (*Document, error)) error
	// Load returns a deep copy of the committed document.
	Load(ctx context.Context) (*Document, error)
}
