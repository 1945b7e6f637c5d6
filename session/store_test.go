package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(now time.Time, ttl time.Duration) Data {
	return Data{
		AdminID:   1,
		UserName:  "root",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	id, err := store.Create(ctx, sample(now, time.Hour))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.AdminID)
	assert.Equal(t, "root", got.UserName)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExpiryAndSweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }

	live, err := store.Create(ctx, sample(now, time.Hour))
	require.NoError(t, err)
	stale, err := store.Create(ctx, sample(now.Add(-2*time.Hour), time.Hour))
	require.NoError(t, err)

	_, err = store.Get(ctx, stale)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, store.Len())

	removed := NewSweeper(store, time.Minute).SweepOnce(ctx)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, err = store.Get(ctx, live)
	assert.NoError(t, err)
}

func TestSweeper_StopsWithContext(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	_, err := store.Create(context.Background(), sample(now.Add(-2*time.Hour), time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	NewSweeper(store, 10*time.Millisecond).Start(ctx)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_Lifecycle(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, sample(time.Now(), time.Hour))
	require.NoError(t, err)
	assert.True(t, mr.Exists(redisKeyPrefix+id))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "root", got.UserName)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, sample(time.Now(), time.Minute))
	require.NoError(t, err)

	ttl := mr.TTL(redisKeyPrefix + id)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Create(ctx, sample(time.Now().Add(-time.Hour), time.Minute))
	assert.Error(t, err)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
