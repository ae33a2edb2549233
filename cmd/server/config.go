package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all server settings, read from the environment.
type Config struct {
	// Network
	ListenAddr     string `envconfig:"RETREATCORE_LISTEN_ADDR" default:":8080"`
	IdentityHeader string `envconfig:"RETREATCORE_IDENTITY_HEADER" default:"X-Auth-Email"`
	StaticDir      string `envconfig:"RETREATCORE_STATIC_DIR" default:"./static"`

	// Storage
	StorageDriver string `envconfig:"RETREATCORE_STORAGE_DRIVER" default:"sqlite"`
	SQLitePath    string `envconfig:"RETREATCORE_SQLITE_PATH" default:"retreatcore.db"`
	PostgresDSN   string `envconfig:"RETREATCORE_POSTGRES_DSN"`

	// Snapshot archive. Empty driver disables archiving; blob driver
	// specifics (fs root, S3 bucket) are read by the blob package itself.
	ArchiveEnabled bool `envconfig:"RETREATCORE_ARCHIVE_ENABLED" default:"false"`

	// Event configuration applied at startup. Empty skips seeding.
	SeedPath string `envconfig:"RETREATCORE_SEED_PATH"`

	// Reservations stay closed to non-admins until this RFC 3339 time.
	// Empty means reservations are open from the start.
	ReservationsAfter string `envconfig:"RETREATCORE_RESERVATIONS_AFTER"`

	ShutdownTimeout time.Duration `envconfig:"RETREATCORE_SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}

// reservationGate parses the configured gate time. Empty means no gate.
func (c Config) reservationGate() (time.Time, error) {
	if c.ReservationsAfter == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, c.ReservationsAfter)
}
