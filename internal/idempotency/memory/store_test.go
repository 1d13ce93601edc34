package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/skinstore/internal/orders/ports"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown key returns nil", func(t *testing.T) {
		resp, err := NewStore(time.Hour).Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, resp)
	})

	t.Run("first response wins", func(t *testing.T) {
		store := NewStore(time.Hour)
		require.NoError(t, store.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, Body: []byte(`{"orderId":"a"}`), OrderID: "a"}))
		require.NoError(t, store.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, Body: []byte(`{"orderId":"b"}`), OrderID: "b"}))

		resp, err := store.Get(ctx, "k")
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "a", resp.OrderID)
		assert.JSONEq(t, `{"orderId":"a"}`, string(resp.Body))
	})

	t.Run("returned body is a copy", func(t *testing.T) {
		store := NewStore(0)
		require.NoError(t, store.Save(ctx, "k", ports.StoredResponse{StatusCode: 200, Body: []byte("abc")}))

		resp, err := store.Get(ctx, "k")
		require.NoError(t, err)
		resp.Body[0] = 'z'

		again, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again.Body))
	})

	t.Run("entries expire after ttl", func(t *testing.T) {
		store := NewStore(time.Minute)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		require.NoError(t, store.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, OrderID: "a"}))
		now = now.Add(2 * time.Minute)

		resp, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Nil(t, resp)

		require.NoError(t, store.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, OrderID: "b"}))
		resp, err = store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "b", resp.OrderID)
	})

	t.Run("purge removes only expired entries", func(t *testing.T) {
		store := NewStore(time.Minute)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		require.NoError(t, store.Save(ctx, "old", ports.StoredResponse{StatusCode: 201}))
		now = now.Add(30 * time.Second)
		require.NoError(t, store.Save(ctx, "new", ports.StoredResponse{StatusCode: 201}))
		now = now.Add(45 * time.Second)

		removed, err := store.Purge(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		resp, err := store.Get(ctx, "new")
		require.NoError(t, err)
		assert.NotNil(t, resp)
	})

	t.Run("concurrent saves keep a single response", func(t *testing.T) {
		store := NewStore(time.Hour)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = store.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, OrderID: string(rune('a' + i))})
			}(i)
		}
		wg.Wait()

		first, err := store.Get(ctx, "k")
		require.NoError(t, err)
		second, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, first.OrderID, second.OrderID)
	})
}

func TestStoreReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("only one caller reserves a key", func(t *testing.T) {
		store := NewStore(time.Hour)

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			won int
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.Reserve(ctx, "k")
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					won++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, won)
		resp, err := store.Get(ctx, "k")
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Pending())
	})

	t.Run("save replaces the reservation", func(t *testing.T) {
		store := NewStore(time.Hour)
		ok, err := store.Reserve(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, store.Save(ctx, "k", ports.StoredResponse{StatusCode: 201, OrderID: "a"}))

		resp, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, resp.Pending())
		assert.Equal(t, "a", resp.OrderID)

		ok, err = store.Reserve(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release frees a reservation but keeps a response", func(t *testing.T) {
		store := NewStore(time.Hour)
		_, err := store.Reserve(ctx, "pending")
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, "done", ports.StoredResponse{StatusCode: 201}))

		require.NoError(t, store.Release(ctx, "pending"))
		require.NoError(t, store.Release(ctx, "done"))

		ok, err := store.Reserve(ctx, "pending")
		require.NoError(t, err)
		assert.True(t, ok)
		resp, err := store.Get(ctx, "done")
		require.NoError(t, err)
		assert.NotNil(t, resp)
	})

	t.Run("an expired reservation can be taken over", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		store := NewStore(time.Minute)
		store.now = func() time.Time { return now }

		_, err := store.Reserve(ctx, "k")
		require.NoError(t, err)
		now = now.Add(2 * time.Minute)

		ok, err := store.Reserve(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
