// Package bootstrap wires the process-wide database and Redis connections.
package bootstrap

import (
	"context"
	"fmt"

	"reviewhub/internal/cache"
	"reviewhub/internal/config"
	"reviewhub/internal/database"
	"reviewhub/internal/observability"
	"reviewhub/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedCategories bool
}

// InitRuntime connects to DB and Redis and optionally seeds the default categories.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedCategories {
		created, err := seed.Categories(ctx, db)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed default categories: %w", err)
		}
		if created > 0 {
			observability.Logger.InfoContext(ctx, "seeded default categories", "created", created)
		}
	}

	return db, r, nil
}
