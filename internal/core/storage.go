package core

import (
	"fmt"

	"retreatcore/internal/infra/persistence/memory"
	"retreatcore/internal/infra/persistence/postgres"
	"retreatcore/internal/infra/persistence/sqlite"
	"retreatcore/pkg/domain"
)

// StorageDriver identifies a concrete document store backend.
type StorageDriver string

// Supported storage drivers.
const (
	StorageMemory   StorageDriver = "memory"
	StorageSQLite   StorageDriver = "sqlite"
	StoragePostgres StorageDriver = "postgres"
)

// StorageConfig selects and configures the document store backend.
type StorageConfig struct {
	Driver StorageDriver
	// Path is the database file location for the sqlite driver.
	Path string
	// DSN is the connection string for the postgres driver.
	DSN string
}

// OpenDocumentStore constructs the configured store. An empty driver selects
// the in-memory store.
func OpenDocumentStore(cfg StorageConfig) (domain.DocumentStore, error) {
	switch cfg.Driver {
	case StorageMemory, "":
		return memory.NewStore(nil), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.Path)
	case StoragePostgres:
		return postgres.NewStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
