package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetNXAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }

	ok, err := cache.SetNX(ctx, "idem:1", map[string]string{"state": "pending"}, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "idem:1", map[string]string{"state": "other"}, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	var got map[string]string
	require.NoError(t, cache.GetJSON(ctx, "idem:1", &got))
	assert.Equal(t, "pending", got["state"])

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, cache.GetJSON(ctx, "idem:1", &got), ErrCacheMiss)
}

func TestHashTokenIsStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, Backoff(100*time.Millisecond, 0))
	assert.Equal(t, 400*time.Millisecond, Backoff(100*time.Millisecond, 2))
}
