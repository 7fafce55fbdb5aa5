package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResetStoreSingleUse(t *testing.T) {
	store := NewMemoryResetStore()
	ctx := context.Background()

	token, err := store.Issue(ctx, 7, time.Hour)
	require.NoError(t, err)
	assert.Len(t, token, 64, "32 random bytes hex-encoded")

	userID, ok, err := store.Consume(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), userID)

	// The same token must not work twice.
	_, ok, err = store.Consume(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryResetStoreUnknownToken(t *testing.T) {
	store := NewMemoryResetStore()

	_, ok, err := store.Consume(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryResetStoreExpiry(t *testing.T) {
	store := NewMemoryResetStore()
	ctx := context.Background()

	token, err := store.Issue(ctx, 7, -time.Second)
	require.NoError(t, err)

	_, ok, err := store.Consume(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok, "expired token must not consume")
}

func TestMemoryResetStoreTokensAreUnique(t *testing.T) {
	store := NewMemoryResetStore()
	ctx := context.Background()

	a, err := store.Issue(ctx, 1, time.Hour)
	require.NoError(t, err)
	b, err := store.Issue(ctx, 1, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
