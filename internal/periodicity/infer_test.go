package periodicity

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func periodicObservations(period float64, cycles int) []Observation {
	obs := make([]Observation, 0, cycles)
	for i := 0; i < cycles; i++ {
		obs = append(obs, Observation{StartTime: float64(i) * period})
	}
	return obs
}

func TestInferOnLongPeriodicSeriesReportsCountAndPlausiblePeriod(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	obs := periodicObservations(60, 600)
	result := Infer(obs, 1.0, 100, rng)
	require.Equal(t, 600, result.Count)
	if result.Detected {
		require.InDelta(t, 60, result.Periods[0], 4)
	}
}

func TestInferEmptyObservations(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	result := Infer(nil, 1.0, 100, rng)
	require.False(t, result.Detected)
	require.Equal(t, 0, result.Count)
}

func TestCoalesceHostsSharedSuffix(t *testing.T) {
	hosts := []string{"a.b.example.com", "c.b.example.com", "unique.other.org"}
	rep := CoalesceHosts(hosts)
	require.Equal(t, "*.b.example.com", rep["a.b.example.com"])
	require.Equal(t, "*.b.example.com", rep["c.b.example.com"])
	require.Equal(t, "unique.other.org", rep["unique.other.org"])
}

func TestFormatLineDetected(t *testing.T) {
	r := BucketReport{Protocol: "TCP", Host: "h.example.com", Result: Result{Count: 42, Detected: true, Periods: []float64{60, 61}}}
	require.Equal(t, "TCP h.example.com # 42: best: 60, 61", r.FormatLine())
}

func TestFormatLineNotDetected(t *testing.T) {
	r := BucketReport{Protocol: "UDP", Host: "h.example.com", Result: Result{Count: 3, Detected: false}}
	require.Equal(t, "No period detected UDP h.example.com # 3", r.FormatLine())
}

func TestEpsTableFallsBackToDefault(t *testing.T) {
	table := newEpsTable(map[string]float64{"amazon_plug": 3.5})
	require.Equal(t, 3.5, table.Lookup("amazon_plug"))
	require.Equal(t, DefaultEps, table.Lookup("totally_unrelated_xyz"))
}
