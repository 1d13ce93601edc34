// Package idempotency selects the replay store backend for Idempotency-Key requests.
package idempotency

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/skinstore/internal/config"
	"github.com/dejobratic/skinstore/internal/idempotency/memory"
	"github.com/dejobratic/skinstore/internal/idempotency/postgres"
	"github.com/dejobratic/skinstore/internal/idempotency/redis"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

// Store is a replay store that can also drop expired entries.
type Store interface {
	ports.IdempotencyStore
	Purge(ctx context.Context) (int64, error)
}

// Open builds the configured backend. The pool is only used by the postgres
// backend. The returned func releases any connection Open created.
func Open(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (Store, func(), error) {
	switch cfg.Idempotency.Backend {
	case config.IdempotencyBackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewStore(client, cfg.Idempotency.TTL), func() { _ = client.Close() }, nil
	case config.IdempotencyBackendMemory:
		return memory.NewStore(cfg.Idempotency.TTL), func() {}, nil
	case config.IdempotencyBackendPostgres:
		if pool == nil {
			return nil, nil, fmt.Errorf("postgres idempotency backend needs a database pool")
		}
		return postgres.NewStore(pool, cfg.Idempotency.TTL), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown idempotency backend %q", cfg.Idempotency.Backend)
	}
}
