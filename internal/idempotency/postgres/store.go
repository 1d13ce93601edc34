package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/skinstore/internal/orders/ports"
)

// Store keeps replayable responses in the idempotency_keys table.
type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewStore creates a postgres-backed store. Rows older than ttl are ignored
// on read and removed by Purge; a ttl of zero disables expiry.
func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	return &Store{pool: pool, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT status_code, body, order_id
		FROM idempotency_keys
		WHERE key = $1
		  AND ($2::bigint = 0 OR created_at > now() - make_interval(secs => $2::bigint))
	`

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, query, key, s.ttlSeconds()).Scan(
		&resp.StatusCode,
		&resp.Body,
		&resp.OrderID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select idempotency key %q: %w", key, err)
	}

	return &resp, nil
}

// Reserve inserts a pending row for key. An expired row is taken over, a live
// one is left alone and reported as held.
func (s *Store) Reserve(ctx context.Context, key string) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, order_id)
		VALUES ($1, 0, ''::bytea, '')
		ON CONFLICT (key) DO UPDATE
		SET status_code = 0,
		    body        = ''::bytea,
		    order_id    = '',
		    created_at  = now()
		WHERE $2::bigint > 0
		  AND idempotency_keys.created_at <= now() - make_interval(secs => $2::bigint)
	`

	tag, err := s.pool.Exec(ctx, query, key, s.ttlSeconds())
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key %q: %w", key, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release deletes a pending row. A saved response is kept.
func (s *Store) Release(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1 AND status_code = 0`, key); err != nil {
		return fmt.Errorf("release idempotency key %q: %w", key, err)
	}
	return nil
}

// Save keeps the first live response for a key. A pending or expired row is
// replaced.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, order_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET status_code = EXCLUDED.status_code,
		    body        = EXCLUDED.body,
		    order_id    = EXCLUDED.order_id,
		    created_at  = now()
		WHERE idempotency_keys.status_code = 0
		   OR ($5::bigint > 0
		       AND idempotency_keys.created_at <= now() - make_interval(secs => $5::bigint))
	`

	body := response.Body
	if body == nil {
		body = []byte{}
	}

	if _, err := s.pool.Exec(ctx, query, key, response.StatusCode, body, response.OrderID, s.ttlSeconds()); err != nil {
		return fmt.Errorf("insert idempotency key %q: %w", key, err)
	}
	return nil
}

// Purge deletes expired rows and reports how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM idempotency_keys WHERE created_at <= now() - make_interval(secs => $1::bigint)`,
		s.ttlSeconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ttlSeconds() int64 {
	return int64(s.ttl / time.Second)
}
