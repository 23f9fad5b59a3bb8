package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gofrs/flock"

	"github.com/dori/ontask/internal/auth"
	"github.com/dori/ontask/internal/config"
	"github.com/dori/ontask/internal/db"
	"github.com/dori/ontask/internal/logger"
	"github.com/dori/ontask/internal/metrics"
)

// App holds the application state and dependencies
type App struct {
	Config  *config.Config
	DB      *db.DB
	Auth    *auth.LocalProvider
	Logger  *slog.Logger
	Metrics *metrics.Collector
	DataDir string

	logCloser io.Closer
	lockFile  *flock.Flock
}

// Options controls how New sets up the app
type Options struct {
	// Exclusive takes the single-instance lock. The TUI needs it; one-shot
	// commands like add and whoami do not.
	Exclusive bool
}

// New creates a new application instance and restores the persisted session
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		Config:  cfg,
		DataDir: cfg.DataDir,
		Metrics: metrics.NewCollector(),
	}

	log, closer, err := logger.OpenFile(cfg.LogPath(), logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	app.Logger = log
	app.logCloser = closer

	if opts.Exclusive {
		if err := app.acquireLock(); err != nil {
			app.Close()
			return nil, err
		}
	}

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database

	if n, err := database.DeleteExpiredSessions(ctx); err != nil {
		log.Warn("failed to prune sessions", slog.String("error", err.Error()))
	} else if n > 0 {
		log.Info("pruned expired sessions", slog.Int64("count", n))
	}

	app.Auth = auth.NewLocalProvider(database, auth.LocalConfig{
		SessionFile:   cfg.SessionPath(),
		SessionMaxAge: cfg.SessionMaxAge,
		Logger:        log,
		Events:        app.Metrics,
	})
	if err := app.Auth.Restore(ctx); err != nil {
		log.Error("failed to restore session", slog.String("error", err.Error()))
	}

	return app, nil
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	a.lockFile = flock.New(a.Config.LockPath())

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of ontask is already running")
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close writes the metrics textfile and releases resources
func (a *App) Close() error {
	var errs []error

	if err := a.Metrics.WriteTextfile(a.Config.MetricsFile); err != nil {
		errs = append(errs, err)
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	if a.logCloser != nil {
		a.logCloser.Close()
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
