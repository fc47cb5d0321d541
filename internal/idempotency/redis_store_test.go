package idempotency

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupRedisStore(t *testing.T) Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return NewRedisStore(client, testLogger())
}

func TestRedisStore_LockIsExclusive(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	first, err := store.Lock(ctx, "k1", time.Minute)
	assert.NoError(t, err)
	assert.True(t, first)

	second, err := store.Lock(ctx, "k1", time.Minute)
	assert.NoError(t, err)
	assert.False(t, second)

	assert.NoError(t, store.ReleaseLock(ctx, "k1"))

	third, err := store.Lock(ctx, "k1", time.Minute)
	assert.NoError(t, err)
	assert.True(t, third)
}

func TestRedisStore_RecordRoundTrip(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	missing, err := store.Get(ctx, "k2")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	err = store.Set(ctx, "k2", &Record{Status: StatusCompleted, Response: []byte(`"ok"`)}, time.Minute)
	assert.NoError(t, err)

	record, err := store.Get(ctx, "k2")
	assert.NoError(t, err)
	assert.NotNil(t, record)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Equal(t, []byte(`"ok"`), record.Response)
}
