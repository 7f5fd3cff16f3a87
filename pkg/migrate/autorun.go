package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/roastery-backend/pkg/config"
	"github.com/angelmondragon/roastery-backend/pkg/db"
	"github.com/angelmondragon/roastery-backend/pkg/logger"
)

// MaybeRunDev applies the embedded remote migrations when the app runs in dev mode with
// the auto-migrate flag on. A nil remote client is a no-op: the app is running local-only.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, remote *db.Client) error {
	if remote == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := remote.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": "embedded"})
	logg.Info(ctx, "running goose migrations on remote (dev auto-run)")

	if err := RunEmbedded(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
