// Command masterctl runs master-data imports and queries from the shell,
// against the same store and identity backends as the console server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/masterconsole/internal/config"
	"github.com/JonMunkholm/masterconsole/internal/core"
	_ "github.com/JonMunkholm/masterconsole/internal/core/schemas" // Register all entities
	"github.com/JonMunkholm/masterconsole/internal/docstore"
	"github.com/JonMunkholm/masterconsole/internal/identity"
	"github.com/JonMunkholm/masterconsole/internal/logging"
)

// env holds the backends a command runs against.
type env struct {
	cfg     *config.Config
	store   docstore.Store
	service *core.Service
	closers []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			slog.Warn("close", "error", err)
		}
	}
}

// openEnv loads configuration and opens the store and identity provider.
func openEnv(ctx context.Context) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}
	logCloser := logging.Setup(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	e.closers = append(e.closers, logCloser.Close)

	e.store, err = docstore.Open(ctx, cfg.Store)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open document store: %w", err)
	}
	e.closers = append(e.closers, e.store.Close)

	idp, err := identity.Open(ctx, cfg.Identity)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open identity provider: %w", err)
	}

	e.service = core.NewService(e.store, idp, core.Options{
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		MaxFileSize:   cfg.Import.MaxFileSize,
		Timeout:       cfg.Import.Timeout,
	})
	return e, nil
}

// lookupSchema resolves entity, listing the known keys when it is unknown.
func lookupSchema(entity string) (*core.Schema, error) {
	sc, ok := core.Get(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s (known: %s)", core.ErrUnknownEntity, entity, strings.Join(core.Keys(), ", "))
	}
	return sc, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "masterctl",
		Short:         "Import and inspect master data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newImportCmd(),
		newListCmd(),
		newEntitiesCmd(),
		newHistoryCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		msg := core.MapError(err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if core.IsUserFacing(err) {
			fmt.Fprintf(os.Stderr, "%s (Code: %s). %s\n", msg.Message, msg.Code, msg.Action)
		}
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
