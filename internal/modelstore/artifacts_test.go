package modelstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/iotwatch/internal/types"
)

func TestEventNameFromFilenameJoinsRemainingUnderscoreSegments(t *testing.T) {
	require.Equal(t, "motion_detected", EventNameFromFilename("clf_motion_detected.json"))
	require.Equal(t, "on", EventNameFromFilename("clf_on.json"))
	require.Equal(t, "", EventNameFromFilename("noextension"))
}

func TestStandardizerRoundTrip(t *testing.T) {
	var ss Standardizer
	for i := range ss.Mean {
		ss.Mean[i] = 1.5
		ss.Scale[i] = 2.0
	}
	var x [types.NumericFeatureCount]float64
	for i := range x {
		x[i] = 3.0
	}
	transformed := ss.Transform(x)
	back := ss.InverseTransform(transformed)
	for i := range x {
		require.InDelta(t, x[i], back[i], 1e-9)
	}
}

func TestStandardizerUnitScalerOnZerosReturnsZeros(t *testing.T) {
	var ss Standardizer
	for i := range ss.Scale {
		ss.Scale[i] = 1.0
	}
	var zeros [types.NumericFeatureCount]float64
	out := ss.Transform(zeros)
	for _, v := range out {
		require.Zero(t, v)
	}
}

func TestFilterModelPredictFirstCoreSampleWins(t *testing.T) {
	m := &FilterModel{
		Eps: 1.0,
		Components: [][]float64{
			{0, 0},
			{10, 10},
		},
		Labels:            []int{0, 1},
		CoreSampleIndices: []int{0, 1},
	}
	require.Equal(t, 0, m.Predict([]float64{0.1, 0.1}))
	require.Equal(t, -1, m.Predict([]float64{5, 5}))
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "a-bfoo", SanitizeFilename("a:b*foo"))
}
