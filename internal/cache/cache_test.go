package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/iotwatch/internal/metrics"
)

func TestGetOrLoadCachesAfterFirstMiss(t *testing.T) {
	c := New[string, string]("test")
	defer c.Stop()

	calls := 0
	loader := func(key string) (string, error) {
		calls++
		return "value-" + key, nil
	}

	v1, err := c.GetOrLoad("a", loader)
	require.NoError(t, err)
	require.Equal(t, "value-a", v1)

	v2, err := c.GetOrLoad("a", loader)
	require.NoError(t, err)
	require.Equal(t, "value-a", v2)
	require.Equal(t, 1, calls)
}

func TestGetOrLoadPropagatesLoaderError(t *testing.T) {
	c := New[string, string]("test")
	defer c.Stop()

	wantErr := errors.New("boom")
	_, err := c.GetOrLoad("a", func(string) (string, error) { return "", wantErr })
	require.ErrorIs(t, err, wantErr)
}

func TestInvalidateForcesReload(t *testing.T) {
	c := New[string, int]("test")
	defer c.Stop()

	calls := 0
	loader := func(string) (int, error) { calls++; return calls, nil }

	v1, err := c.GetOrLoad("k", loader)
	require.NoError(t, err)
	require.Equal(t, 1, v1)

	c.Invalidate("k")

	v2, err := c.GetOrLoad("k", loader)
	require.NoError(t, err)
	require.Equal(t, 2, v2)
}

func TestWithTTLExpiresEntries(t *testing.T) {
	c := New[string, int]("test", WithTTL[string, int](10*time.Millisecond))
	defer c.Stop()

	calls := 0
	loader := func(string) (int, error) { calls++; return calls, nil }

	_, err := c.GetOrLoad("k", loader)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v, err := c.GetOrLoad("k", loader)
		return err == nil && v == 2
	}, time.Second, 5*time.Millisecond)
}

func TestWithMetricsRecordsHitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCacheMetrics(reg)
	c := New[string, string]("labeled", WithMetrics[string, string](m))
	defer c.Stop()

	loader := func(key string) (string, error) { return key, nil }

	_, err := c.GetOrLoad("a", loader)
	require.NoError(t, err)
	_, err = c.GetOrLoad("a", loader)
	require.NoError(t, err)

	require.Equal(t, float64(1), testutil.ToFloat64(m.MissesTotal.WithLabelValues("labeled")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.HitsTotal.WithLabelValues("labeled")))
}
