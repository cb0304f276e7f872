package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"social-publisher/infrastructure/cache"
)

func TestMemoryKV_RoundTrip(t *testing.T) {
	kv := cache.NewMemoryKV()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, kv.Set(ctx, "k", "v"))
	got, ok, err := kv.Get(ctx, "k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	assert.NoError(t, kv.Delete(ctx, "k"))
	_, ok, _ = kv.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryKV_GetDelete(t *testing.T) {
	kv := cache.NewMemoryKV()
	ctx := context.Background()

	assert.NoError(t, kv.Set(ctx, "once", "payload"))

	got, ok, err := kv.GetDelete(ctx, "once")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", got)

	_, ok, err = kv.GetDelete(ctx, "once")
	assert.NoError(t, err)
	assert.False(t, ok)
}
