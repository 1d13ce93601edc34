//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/dejobratic/skinstore/internal/idempotency/redis"
	"github.com/dejobratic/skinstore/internal/orders/ports"
)

func setupRedis(t *testing.T) *goredis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := goredis.ParseURL(uri)
	require.NoError(t, err)

	client, err := redis.NewClient(ctx, opts.Addr, opts.Password, opts.DB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestStore(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	t.Run("unknown key returns nil", func(t *testing.T) {
		resp, err := redis.NewStore(client, time.Hour).Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, resp)
	})

	t.Run("first response wins", func(t *testing.T) {
		store := redis.NewStore(client, time.Hour)
		body := []byte(`{"message":"Order created successfully","orderId":"a"}`)

		require.NoError(t, store.Save(ctx, "k1", ports.StoredResponse{StatusCode: 201, Body: body, OrderID: "a"}))
		require.NoError(t, store.Save(ctx, "k1", ports.StoredResponse{StatusCode: 201, OrderID: "b"}))

		resp, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 201, resp.StatusCode)
		assert.Equal(t, "a", resp.OrderID)
		assert.JSONEq(t, string(body), string(resp.Body))
	})

	t.Run("keys carry the configured ttl", func(t *testing.T) {
		store := redis.NewStore(client, time.Minute)
		require.NoError(t, store.Save(ctx, "k2", ports.StoredResponse{StatusCode: 201}))

		ttl, err := client.TTL(ctx, "idempotency:k2").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Minute)
	})
	t.Run("reservation is replaced by save and kept by release", func(t *testing.T) {
		store := redis.NewStore(client, time.Hour)

		ok, err := store.Reserve(ctx, "k3")
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = store.Reserve(ctx, "k3")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Save(ctx, "k3", ports.StoredResponse{StatusCode: 201, OrderID: "a"}))
		require.NoError(t, store.Release(ctx, "k3"))

		resp, err := store.Get(ctx, "k3")
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "a", resp.OrderID)
	})

	t.Run("release frees a pending key", func(t *testing.T) {
		store := redis.NewStore(client, time.Hour)

		_, err := store.Reserve(ctx, "k4")
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "k4"))

		ok, err := store.Reserve(ctx, "k4")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
