package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-nse/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	_, err = client.Status(context.Background())
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(context.Background(), config.RedisConfig{Enabled: false})
	cache := NewCache(client, "test")
	ctx := context.Background()

	var result []string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", []string{"A"}, time.Minute))
	assert.NoError(t, cache.SetAll(ctx, map[string]any{"a": 1, "b": 2}, time.Minute))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "ranking:latest:daily", RankingKey("daily"))
	assert.Equal(t, "ranking:weekly:2024-03-01", RankingDateKey("weekly", "2024-03-01"))
}

func TestCache_RoundTrip(t *testing.T) {
	if testing.Short() || os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, config.RedisConfig{
		Host:    os.Getenv("REDIS_HOST"),
		Port:    "6379",
		Timeout: time.Second,
		Enabled: true,
	})
	require.NoError(t, err)
	defer client.Close()

	cache := NewCache(client, "aegis-nse-test")
	require.NoError(t, cache.SetAll(ctx, map[string]any{
		RankingKey("daily"):                   map[string]float64{"A": 0.7},
		RankingDateKey("daily", "2024-03-01"): map[string]float64{"A": 0.7},
	}, time.Minute))

	for _, key := range []string{RankingKey("daily"), RankingDateKey("daily", "2024-03-01")} {
		var got map[string]float64
		found, err := cache.Get(ctx, key, &got)
		require.NoError(t, err)
		assert.True(t, found, key)
		assert.Equal(t, 0.7, got["A"])
		require.NoError(t, cache.Delete(ctx, key))
	}

	st, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Contains(t, st.Addr, ":6379")
}
