package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/masterconsole/internal/config"
)

// Open builds the Store selected by cfg.Driver, migrating postgres when
// cfg.AutoMigrate is set.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	opts := PoolOptions{
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	switch strings.ToLower(cfg.Driver) {
	case "memory":
		slog.Warn("using in-memory document store; data is lost on exit")
		return NewMemory(), nil

	case "mongo":
		store, err := NewMongo(ctx, cfg.URL, cfg.Database, opts)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to document store", "driver", "mongo", "database", cfg.Database)
		return store, nil

	case "postgres":
		if cfg.AutoMigrate {
			if err := Migrate(cfg.URL); err != nil {
				return nil, err
			}
		}
		store, err := NewPostgres(ctx, cfg.URL, opts)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to document store", "driver", "postgres", "database", databaseName(cfg.URL))
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func databaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
