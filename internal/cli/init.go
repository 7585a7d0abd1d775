// Package cli provides common CLI initialization utilities shared by
// cmd/planner, cmd/planner-worker and cmd/planner-import.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"planner/internal/archive/gcs"
	"planner/internal/categorize"
	"planner/internal/config"
	"planner/internal/log"
	"planner/internal/services"
	"planner/internal/storage"
)

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT style
// values and installs it as the slog default. An unknown level falls back
// to info.
func SetupLogger(level, format string, out io.Writer) *log.Logger {
	cfg := log.DefaultConfig()
	if parsed, err := log.ParseLevel(level); err == nil {
		cfg.Level = parsed
	}
	cfg.Format = format
	if out != nil {
		cfg.Output = out
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	logger.Info("SQLite repository ready", "path", dbPath, "schema_version", repo.SchemaVersion())
	return repo
}

// SeedRulesFromFile loads path into storage when the database holds no
// rules yet. An empty path is a no-op.
func SeedRulesFromFile(ctx context.Context, logger *log.Logger, store services.RuleStore, path string) error {
	if path == "" {
		return nil
	}
	set, err := categorize.LoadRulesFile(path)
	if err != nil {
		return err
	}
	seeded, err := services.SeedRules(ctx, store, set)
	if err != nil {
		return fmt.Errorf("seed rules from %s: %w", path, err)
	}
	if seeded {
		logger.Info("Category rules seeded", "path", path,
			"income", len(set.Income), "expenditure", len(set.Expenditure))
	}
	return nil
}

// InitArchive returns the Cloud Storage archiver when a bucket is
// configured, or nil. Service account credentials are reused when present,
// otherwise the client falls back to Application Default Credentials.
func InitArchive(ctx context.Context, logger *log.Logger, cfg *config.Config) (*gcs.Archiver, error) {
	if !cfg.ArchiveEnabled() {
		return nil, nil
	}
	var creds []byte
	if cfg.GoogleServiceAccountJSON != "" || cfg.GoogleServiceAccountFile != "" {
		var err error
		if creds, err = cfg.ServiceAccountCredentials(); err != nil {
			return nil, err
		}
	}
	return gcs.NewArchiver(ctx, cfg.ArchiveBucket, creds, logger)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
