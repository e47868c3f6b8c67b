// Package bootstrap builds the backing stores the API process needs,
// honoring USE_MEMORY_STORES for local runs without Postgres or Redis.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/civicdesk/civic-portal/internal/cases"
	appconfig "github.com/civicdesk/civic-portal/internal/config"
	"github.com/civicdesk/civic-portal/internal/dedupe"
	"github.com/civicdesk/civic-portal/internal/refid"
	"github.com/civicdesk/civic-portal/internal/session"
	"github.com/civicdesk/civic-portal/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || cfg.UseMemoryStores || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildPgxPool connects to Postgres, or returns nil when disabled.
func BuildPgxPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *pgxpool.Pool {
	if cfg == nil || cfg.UseMemoryStores || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres not available", "error", err)
		return nil
	}
	return pool
}

// BuildSessionStore returns Redis-backed sessions, falling back to memory.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) session.Store {
	if redisClient != nil {
		return session.NewRedisStore(redisClient, cfg.SessionTTL)
	}
	logger.Warn("using in-memory session store; sessions do not survive restarts")
	return session.NewMemoryStore(cfg.SessionTTL)
}

// BuildDedupeGuard returns the Postgres idempotency guard, falling back to
// memory.
func BuildDedupeGuard(cfg *appconfig.Config, pool *pgxpool.Pool, logger *logging.Logger) dedupe.Guard {
	if pool != nil {
		return dedupe.NewStore(pool, cfg.DedupeRetention)
	}
	logger.Warn("using in-memory idempotency guard")
	return dedupe.NewMemoryGuard(cfg.DedupeRetention)
}

// BuildRefAllocator returns the Postgres reference allocator, falling back
// to memory.
func BuildRefAllocator(pool *pgxpool.Pool, logger *logging.Logger) refid.Allocator {
	if pool != nil {
		return refid.NewPostgresAllocator(pool)
	}
	logger.Warn("using in-memory reference allocator; references reset on restart")
	return refid.NewMemoryAllocator()
}

// BuildCaseRepository returns the Postgres case repository, falling back to
// memory with the default department seed.
func BuildCaseRepository(pool *pgxpool.Pool, logger *logging.Logger) cases.Repository {
	if pool != nil {
		return cases.NewPostgresRepository(pool)
	}
	logger.Warn("using in-memory case repository; cases are lost on restart")
	return cases.NewInMemoryRepository(nil)
}
