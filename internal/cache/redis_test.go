package cache

import (
	"context"
	"testing"

	"example.com/restaurant-pos/config"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCache(t *testing.T) {
	c, err := NewRedisCache(config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	require.NoError(t, c.Set(ctx, GetItemCacheKey(1), map[string]string{"name": "Tea"}))

	var out map[string]string
	assert.True(t, errors.Is(c.Get(ctx, GetItemCacheKey(1), &out), ErrMiss))
	assert.NoError(t, c.Delete(ctx, GetItemCacheKey(1)))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestGetItemCacheKey(t *testing.T) {
	assert.Equal(t, "item:42", GetItemCacheKey(42))
}
