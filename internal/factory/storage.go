package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/memonote/memo-service/internal/config"
	storepkg "github.com/memonote/memo-service/internal/store"
	storepg "github.com/memonote/memo-service/internal/store/postgres"
	storesqlite "github.com/memonote/memo-service/internal/store/sqlite"
)

// NewStore opens the store selected by cfg.DBDriver and migrates its schema.
// Connecting and migrating are bounded by BootstrapTimeoutSeconds.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	bootstrapCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
	defer cancel()

	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("%s_POSTGRES_DSN is required when DB_DRIVER=postgres", config.Prefix)
		}
		pool, err := storepg.Open(bootstrapCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := storepg.Migrate(bootstrapCtx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Debug().Str("driver", cfg.DBDriver).Msg("store schema ready")
		return storepg.NewWithPool(pool), nil

	case "sqlite":
		db, err := storesqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := storesqlite.Migrate(bootstrapCtx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Debug().Str("driver", cfg.DBDriver).Str("path", cfg.SQLitePath).Msg("store schema ready")
		return storesqlite.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
