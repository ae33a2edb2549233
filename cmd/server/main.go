// Command server runs the retreatcore HTTP server: document engine, storage,
// optional snapshot archiving, and the web API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retreatcore/internal/blob"
	"retreatcore/internal/core"
	"retreatcore/internal/httpapi"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := LoadConfig()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	store, err := core.OpenDocumentStore(core.StorageConfig{
		Driver: core.StorageDriver(cfg.StorageDriver),
		Path:   cfg.SQLitePath,
		DSN:    cfg.PostgresDSN,
	})
	if err != nil {
		return err
	}

	gate, err := cfg.reservationGate()
	if err != nil {
		return err
	}
	var processorOpts []core.ProcessorOption
	if !gate.IsZero() {
		processorOpts = append(processorOpts, core.WithReservationGate(gate))
	}
	processor := core.NewProcessor(processorOpts...)

	serviceOpts := []core.ServiceOption{
		core.WithLogger(core.NewSlogLogger(logger)),
		core.WithMetricsRecorder(core.NewPrometheusMetricsRecorder(nil)),
		core.WithAuditRecorder(newLogAuditRecorder(logger)),
	}
	if cfg.ArchiveEnabled {
		blobStore, err := blob.Open(ctx)
		if err != nil {
			return err
		}
		serviceOpts = append(serviceOpts, core.WithArchiver(core.NewBlobArchiver(blobStore)))
		logger.Info("snapshot archiving enabled", "driver", blobStore.Driver())
	}
	svc := core.NewService(store, processor, serviceOpts...)

	if cfg.SeedPath != "" {
		seed, err := loadSeed(cfg.SeedPath)
		if err != nil {
			return err
		}
		if err := svc.Seed(ctx, seed); err != nil {
			return err
		}
		logger.Info("seed applied", "title", seed.Title, "path", cfg.SeedPath)
	}

	handler := httpapi.New(svc, httpapi.Options{
		IdentityHeader: cfg.IdentityHeader,
		StaticDir:      cfg.StaticDir,
		Logger:         logger,
	})
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// logAuditRecorder writes audit entries to the structured log. Deployments
// that need a durable trail can swap in their own recorder.
type logAuditRecorder struct {
	logger *slog.Logger
}

func newLogAuditRecorder(logger *slog.Logger) *logAuditRecorder {
	return &logAuditRecorder{logger: logger}
}

func (r *logAuditRecorder) Record(_ context.Context, entry core.AuditEntry) {
	r.logger.Info("audit",
		"id", entry.ID,
		"operation", entry.Operation,
		"status", string(entry.Status),
		"caller", entry.Caller,
		"kind", string(entry.Kind),
		"entity_id", entry.EntityID,
		"error", entry.Error,
		"duration_ms", float64(entry.Duration)/float64(time.Millisecond),
	)
}
