package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/masterconsole/internal/config"
)

// Open builds the Provider selected by cfg.Driver.
func Open(ctx context.Context, cfg config.IdentityConfig) (Provider, error) {
	switch strings.ToLower(cfg.Driver) {
	case "memory":
		slog.Warn("using in-memory identity provider", "seeded", len(cfg.SeedUsers))
		return NewMemory(cfg.SeedUsers...), nil
	case "firebase":
		return NewFirebase(ctx, FirebaseOptions{
			ProjectID:       cfg.ProjectID,
			APIKey:          cfg.APIKey,
			CredentialsFile: cfg.CredentialsFile,
			Endpoint:        cfg.Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown identity driver %q", cfg.Driver)
	}
}
