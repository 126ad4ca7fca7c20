// Package factory constructs configured infrastructure components.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openlens/openlens/internal/config"
	"github.com/openlens/openlens/internal/store"
	"github.com/openlens/openlens/internal/store/postgres"
	"github.com/openlens/openlens/internal/store/sqlite"
)

// NewStore opens the store selected by cfg.DBDriver.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		log.Info().Str("path", cfg.SQLitePath).Msg("opening sqlite store")
		return sqlite.New(ctx, cfg.SQLitePath)
	case "postgres":
		log.Info().Msg("opening postgres store")
		return postgres.New(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}
