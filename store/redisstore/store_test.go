package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	authsession "github.com/bionicotaku/lingo-utils-authsession"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var _ authsession.Store = (*Store)(nil)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return New(rdb, "test:", ttl), mr
}

func TestStoreSetGetRemove(t *testing.T) {
	store, mr := newTestStore(t, 0)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "token")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "token", "abc"))
	require.True(t, mr.Exists("test:token"))

	value, ok, err := store.Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", value)

	require.NoError(t, store.Remove(ctx, "token"))
	require.False(t, mr.Exists("test:token"))
}

func TestStoreAppliesTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "user", "{}"))
	require.Equal(t, time.Minute, mr.TTL("test:user"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Get(ctx, "user")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenPingsServer(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := Open(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Open(context.Background(), Config{})
	require.Error(t, err)
}

func TestOpenURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := OpenURL(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Set(context.Background(), "token", "x"))
	got, err := mr.Get(defaultPrefix + "token")
	require.NoError(t, err)
	require.Equal(t, "x", got)
}
