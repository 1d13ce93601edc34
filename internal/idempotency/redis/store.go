package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dejobratic/skinstore/internal/orders/ports"
)

const keyPrefix = "idempotency:"

// saveScript writes the response unless a finished one is already stored.
var saveScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur and cjson.decode(cur).status_code ~= 0 then
	return 0
end
if tonumber(ARGV[2]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// releaseScript deletes the key only while it is still a reservation.
var releaseScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur and cjson.decode(cur).status_code == 0 then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type record struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
	OrderID    string `json:"order_id"`
}

// Store keeps replayable responses in redis. Expiry is delegated to redis key TTLs.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore wraps an existing client. A ttl of zero keeps keys forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// NewClient builds a client from connection settings and checks it with PING.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency key %q: %w", key, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency key %q: %w", key, err)
	}

	return &ports.StoredResponse{
		StatusCode: rec.StatusCode,
		Body:       rec.Body,
		OrderID:    rec.OrderID,
	}, nil
}

// Reserve writes a pending record with SETNX.
func (s *Store) Reserve(ctx context.Context, key string) (bool, error) {
	data, err := json.Marshal(record{})
	if err != nil {
		return false, fmt.Errorf("encode idempotency key %q: %w", key, err)
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+key, data, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key %q: %w", key, err)
	}
	return ok, nil
}

// Save replaces a reservation or a missing key. The first finished response wins.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	data, err := json.Marshal(record{
		StatusCode: response.StatusCode,
		Body:       response.Body,
		OrderID:    response.OrderID,
	})
	if err != nil {
		return fmt.Errorf("encode idempotency key %q: %w", key, err)
	}

	if err := saveScript.Run(ctx, s.client, []string{keyPrefix + key}, data, s.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("set idempotency key %q: %w", key, err)
	}
	return nil
}

// Release deletes a reservation. A saved response is kept.
func (s *Store) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{keyPrefix + key}).Err(); err != nil {
		return fmt.Errorf("release idempotency key %q: %w", key, err)
	}
	return nil
}

// Purge is a no-op; redis evicts expired keys itself.
func (s *Store) Purge(context.Context) (int64, error) {
	return 0, nil
}
