package pgstore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	authsession "github.com/bionicotaku/lingo-utils-authsession"
	"github.com/stretchr/testify/require"
)

var _ authsession.Store = (*Store)(nil)

func TestPostgresIntegration(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("AUTHSESSION_PG_DSN"))
	if dsn == "" {
		t.Skip("AUTHSESSION_PG_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	key := "it_token_" + time.Now().Format("150405.000000")
	require.NoError(t, store.Set(ctx, key, "v1"))
	require.NoError(t, store.Set(ctx, key, "v2"))

	value, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", value)

	require.NoError(t, store.Remove(ctx, key))
	_, ok, err = store.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
}
