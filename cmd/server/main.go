package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/masterconsole/internal/config"
	"github.com/JonMunkholm/masterconsole/internal/core"
	_ "github.com/JonMunkholm/masterconsole/internal/core/schemas" // Register all entities
	"github.com/JonMunkholm/masterconsole/internal/docstore"
	"github.com/JonMunkholm/masterconsole/internal/identity"
	"github.com/JonMunkholm/masterconsole/internal/labels"
	"github.com/JonMunkholm/masterconsole/internal/logging"
	"github.com/JonMunkholm/masterconsole/internal/metrics"
	"github.com/JonMunkholm/masterconsole/internal/session"
	"github.com/JonMunkholm/masterconsole/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logCloser := logging.Setup(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer logCloser.Close()

	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	store, err := docstore.Open(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open document store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("document store ready", "driver", cfg.Store.Driver)

	idp, err := identity.Open(ctx, cfg.Identity)
	if err != nil {
		slog.Error("failed to open identity provider", "driver", cfg.Identity.Driver, "error", err)
		os.Exit(1)
	}

	sessions, err := session.Open(ctx, cfg.Session)
	if err != nil {
		slog.Error("failed to open session store", "store", cfg.Session.Store, "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	catalog, err := labels.Default()
	if err != nil {
		slog.Error("failed to load labels", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	service := core.NewService(store, idp, core.Options{
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		MaxFileSize:   cfg.Import.MaxFileSize,
		Timeout:       cfg.Import.Timeout,
		Retention:     cfg.Import.ResultRetention,
		Observer:      m,
	})

	entities := service.Entities()
	slog.Info("entities registered", "count", len(entities))
	for _, e := range entities {
		slog.Debug("entity", "key", e.Key, "collection", e.Collection, "layout", e.Layout)
	}

	server := web.NewServer(cfg, web.Deps{
		Service:  service,
		Identity: idp,
		Sessions: sessions,
		Labels:   catalog,
		Metrics:  m,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active imports to complete (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("imports did not complete in time", "error", err)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
