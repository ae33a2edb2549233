package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"retreatcore/internal/blob"
	"retreatcore/pkg/domain"
)

// Archiver receives the committed document after every successful mutation.
// Archiving is best effort; failures are logged and never surfaced to callers.
type Archiver interface {
	Archive(ctx context.Context, doc *domain.Document) error
}

// BlobArchiver writes timestamped document snapshots to a blob store for
// offline inspection and disaster recovery.
type BlobArchiver struct {
	store blob.Store
	clock func() time.Time
}

// NewBlobArchiver constructs an archiver over the given blob store.
func NewBlobArchiver(store blob.Store) *BlobArchiver {
	return &BlobArchiver{store: store, clock: time.Now}
}

// Archive serializes the document under snapshots/<RFC3339>-<uuid>.json.
// The uuid suffix keeps keys unique under the store's create-only semantics
// even when two snapshots land in the same second.
func (a *BlobArchiver) Archive(ctx context.Context, doc *domain.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	key := fmt.Sprintf("snapshots/%s-%s.json", a.clock().UTC().Format(time.RFC3339), uuid.NewString())
	if _, err := a.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}
