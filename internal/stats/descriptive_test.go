package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdenticalValuesYieldBoundaryPolicy(t *testing.T) {
	xs := []float64{5, 5, 5, 5}
	require.Zero(t, Variance(xs))
	require.Zero(t, Skewness(xs))
	require.Equal(t, -1.0, Kurtosis(xs))
}

func TestInterPacketDeltasFirstIsZero(t *testing.T) {
	deltas := InterPacketDeltas([]float64{10, 10.5, 11.2})
	require.Equal(t, []float64{0, 0.5, 0.6999999999999993}, deltas)
}

func TestMedAbsDev(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 100}
	require.InDelta(t, 1.0, MedAbsDev(xs), 1e-9)
}

func TestEuclidean(t *testing.T) {
	require.InDelta(t, 5.0, Euclidean([]float64{0, 0}, []float64{3, 4}), 1e-9)
}

func TestAutocorrelationLagZeroIsOne(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	acf := Autocorrelation(y, 4)
	require.InDelta(t, 1.0, acf[0], 1e-9)
}

func TestDFTMagnitudesLength(t *testing.T) {
	y := make([]float64, 16)
	for i := range y {
		y[i] = math.Sin(float64(i))
	}
	mags := DFTMagnitudes(y)
	require.Len(t, mags, 9)
}
