package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entry := Entry{Value: 123.45, FetchedAt: time.Now()}
	require.NoError(t, store.Set(ctx, "k", entry, time.Minute))

	got, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry.Value, got.Value)
}

func TestMemoryStoreMiss(t *testing.T) {
	_, found, err := NewMemoryStore().Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreRetentionExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k", Entry{Value: 1}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "entries past retention are gone")
}

func TestEntryFresh(t *testing.T) {
	fresh := Entry{FetchedAt: time.Now()}
	stale := Entry{FetchedAt: time.Now().Add(-2 * time.Hour)}

	assert.True(t, fresh.Fresh(time.Hour))
	assert.False(t, stale.Fresh(time.Hour),
		"a retained entry can still be stale; freshness is the caller's call")
}
