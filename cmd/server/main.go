package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bcnelson/household-calendar/internal/api"
	"github.com/bcnelson/household-calendar/internal/config"
	"github.com/bcnelson/household-calendar/internal/live"
	"github.com/bcnelson/household-calendar/internal/logging"
	"github.com/bcnelson/household-calendar/internal/service"
	"github.com/bcnelson/household-calendar/internal/snapshot"
	"github.com/bcnelson/household-calendar/internal/storage"
	"github.com/bcnelson/household-calendar/internal/storage/memory"
	"github.com/bcnelson/household-calendar/internal/storage/sql"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize storage
	store, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	if cfg.Snapshot.Enabled() && cfg.Snapshot.Restore {
		restoreSnapshot(store, cfg.Snapshot.Path, logger)
	}

	// The reader serves connect-time snapshots and snapshot files; it never publishes.
	reader := service.NewSyncService(store, nil, logger)
	hub := live.NewHub(reader, logger, cfg.Live.SendBuffer)
	syncService := service.NewSyncService(store, hub, logger)
	calendar := service.NewCalendarService(store, syncService, logger, cfg.Calendar.MaxMembers)

	var scheduler *snapshot.Scheduler
	if cfg.Snapshot.Enabled() {
		job := snapshot.NewJob(reader, cfg.Snapshot.Path, logger)
		scheduler, err = snapshot.NewScheduler(cfg.Snapshot.Schedule, job, logger)
		if err != nil {
			logger.Fatal("invalid snapshot schedule", zap.Error(err))
		}
		scheduler.Start()
	}

	// Create router
	router := api.NewRouter(calendar, hub, logger)

	// Create HTTP server. WriteTimeout is left unset so WebSocket connections
	// outlive a single request deadline.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("starting household calendar",
		zap.String("addr", "http://"+cfg.Server.Addr()),
		zap.String("driver", cfg.Database.Driver))

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Close()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if scheduler != nil {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Error("final snapshot failed", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func openStore(cfg config.DatabaseConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "sqlite3":
		// Create data directory if needed
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
			return nil, err
		}
	}
	store, err := sql.New(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// restoreSnapshot seeds an empty store from the snapshot file. A missing file
// or a store that already holds data is not an error.
func restoreSnapshot(store storage.Storage, path string, logger *zap.Logger) {
	state, err := snapshot.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info("no snapshot to restore", zap.String("path", path))
		return
	}
	if err != nil {
		logger.Fatal("failed to load snapshot", zap.String("path", path), zap.Error(err))
	}

	err = snapshot.Restore(context.Background(), store, state)
	switch {
	case errors.Is(err, snapshot.ErrStoreNotEmpty):
		logger.Info("store already has data, skipping snapshot restore")
	case err != nil:
		logger.Fatal("failed to restore snapshot", zap.Error(err))
	default:
		logger.Info("restored snapshot",
			zap.String("path", path),
			zap.Int("members", len(state.Members)),
			zap.Int("events", len(state.Events)))
	}
}
