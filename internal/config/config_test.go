package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnvUsesDefaultsWhenUnset(t *testing.T) {
	cfg := FromEnv()
	require.Equal(t, "./models", cfg.ModelsRoot)
	require.Equal(t, DefaultBurstWindow, cfg.BurstWindow)
	require.Equal(t, DefaultCacheCapacity, cfg.CacheCapacity)
	require.Equal(t, DefaultQueueCapacity, cfg.QueueCapacity)
}

func TestFromEnvReadsOverrides(t *testing.T) {
	t.Setenv("IOTWATCH_MODELS_ROOT", "/srv/models")
	t.Setenv("IOTWATCH_BURST_WINDOW", "2s")
	t.Setenv("IOTWATCH_CACHE_CAPACITY", "256")
	t.Setenv("IOTWATCH_DBSCAN_EPS", "3.5")

	cfg := FromEnv()
	require.Equal(t, "/srv/models", cfg.ModelsRoot)
	require.Equal(t, 2*time.Second, cfg.BurstWindow)
	require.Equal(t, 256, cfg.CacheCapacity)
	require.InDelta(t, 3.5, cfg.DefaultDBSCANEps, 1e-9)
}

func TestFromEnvIgnoresUnparseableOverrides(t *testing.T) {
	t.Setenv("IOTWATCH_BURST_WINDOW", "not-a-duration")
	t.Setenv("IOTWATCH_CACHE_CAPACITY", "not-a-number")
	t.Setenv("IOTWATCH_DBSCAN_EPS", "not-a-float")

	cfg := FromEnv()
	require.Equal(t, DefaultBurstWindow, cfg.BurstWindow)
	require.Equal(t, DefaultCacheCapacity, cfg.CacheCapacity)
	require.InDelta(t, DefaultDBSCANEps, cfg.DefaultDBSCANEps, 1e-9)
}
