package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopFunc(ctx context.Context, cfg *Config, args map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubAdapter{slug: "memory", ops: map[string]Func{OpSearchProducts: noopFunc}})

	adapter, ok := registry.Get("memory")
	require.True(t, ok)
	assert.Equal(t, "memory", adapter.Slug())

	_, ok = registry.Get("other")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"memory"}, registry.Slugs())
}

func TestValidateOperations(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubAdapter{slug: "memory", ops: map[string]Func{OpSearchProducts: noopFunc}})

	t.Run("accepts urls and registered slugs", func(t *testing.T) {
		err := registry.ValidateOperations(map[string]string{
			OpSearchProducts: "memory",
			OpGetProduct:     "https://adapter.internal/getProduct",
			OpAddTracking:    "",
		})
		assert.NoError(t, err)
	})

	t.Run("rejects unknown slug", func(t *testing.T) {
		err := registry.ValidateOperations(map[string]string{
			OpSearchProducts: "nope",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown adapter slug "nope"`)
	})

	t.Run("rejects unimplemented operation", func(t *testing.T) {
		err := registry.ValidateOperations(map[string]string{
			OpGetProduct: "memory",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not implement")
	})
}
