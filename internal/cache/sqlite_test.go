package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func TestSQLiteSetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	key := Key("John", "Smith", "acme.com", "")

	require.NoError(t, st.Set(ctx, key, testResult(), time.Hour))

	got, err := st.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "john@acme.com", got.Email)
	assert.True(t, got.Verified)
}

func TestSQLiteGetMiss(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteExpired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// Already-expired TTL.
	require.NoError(t, st.Set(ctx, "expired", testResult(), -time.Hour))

	got, err := st.Get(ctx, "expired")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteSetOverwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := testResult()
	require.NoError(t, st.Set(ctx, "k", first, time.Hour))

	second := testResult()
	second.Email = "j.smith@acme.com"
	require.NoError(t, st.Set(ctx, "k", second, time.Hour))

	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "j.smith@acme.com", got.Email)
}

func TestSQLiteClear(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "a", testResult(), time.Hour))
	require.NoError(t, st.Set(ctx, "b", testResult(), time.Hour))
	require.NoError(t, st.Clear(ctx))

	got, err := st.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteDeleteExpired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "stale", testResult(), -time.Hour))
	require.NoError(t, st.Set(ctx, "fresh", testResult(), time.Hour))

	removed, err := st.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := st.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
