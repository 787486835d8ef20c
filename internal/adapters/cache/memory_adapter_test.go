package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/ai-event-scanner/backend/internal/domain/providers"
)

func TestMemoryAdapter_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(10, time.Hour)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "classify:abc", []byte(`{"score":7}`), 0))
	got, err := c.Get(ctx, "classify:abc")
	require.NoError(t, err)
	assert.Equal(t, `{"score":7}`, string(got))

	exists, err := c.Exists(ctx, "classify:abc")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryAdapter_Bounded(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(2, time.Hour)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_PerKeyExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(10, time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "events:month:3:2026", []byte("[]"), 60))
	_, err := c.Get(ctx, "events:month:3:2026")
	require.NoError(t, err)

	now = now.Add(61 * time.Second)
	_, err = c.Get(ctx, "events:month:3:2026")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_DeletePattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(10, time.Hour)

	require.NoError(t, c.Set(ctx, "events:month:3:2026:sf", []byte("x"), 0))
	require.NoError(t, c.Set(ctx, "events:month:4:2026:sf", []byte("y"), 0))
	require.NoError(t, c.Set(ctx, "classify:abc", []byte("z"), 0))

	require.NoError(t, c.DeletePattern(ctx, "events:month:*"))

	assert.Equal(t, 1, c.Len())
	exists, _ := c.Exists(ctx, "classify:abc")
	assert.True(t, exists)
}
