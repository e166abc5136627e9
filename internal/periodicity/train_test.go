package periodicity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProtocolTrainingKeepsTLSDistinctFromTCP(t *testing.T) {
	require.Equal(t, "TCP", NormalizeProtocolTraining("TCP"))
	require.Equal(t, "TCP", NormalizeProtocolTraining("MQTT"))
	require.Equal(t, "TLS", NormalizeProtocolTraining("TLS"))
	require.Equal(t, "TCP & TLS", NormalizeProtocolTraining("TCP;TLS"))
}

func TestInferBucketsGroupsByProtocolAndCoalescedHost(t *testing.T) {
	var inputs []BucketInput
	for i := 0; i < 50; i++ {
		inputs = append(inputs, BucketInput{Protocol: "TCP", Host: "a.b.example.com", StartTime: float64(i) * 30})
		inputs = append(inputs, BucketInput{Protocol: "UDP", Host: "other.org", StartTime: float64(i) * 45})
	}

	reports := InferBuckets(inputs, 1.0, 50, 7)
	require.Len(t, reports, 2)
	require.Equal(t, "TCP", reports[0].Protocol)
	require.Equal(t, "UDP", reports[1].Protocol)
	require.Equal(t, 50, reports[0].Result.Count)
	require.Equal(t, 50, reports[1].Result.Count)
}

func TestInferBucketsIsIdempotentAcrossReruns(t *testing.T) {
	var inputs []BucketInput
	for i := 0; i < 40; i++ {
		inputs = append(inputs, BucketInput{Protocol: "TCP", Host: "h.example.com", StartTime: float64(i) * 60})
	}

	first := InferBuckets(inputs, 1.0, 50, 42)
	second := InferBuckets(inputs, 1.0, 50, 42)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("InferBuckets not idempotent (-first +second):\n%s", diff)
	}
}

func TestBucketSeedOffsetVariesByBucket(t *testing.T) {
	require.NotEqual(t, bucketSeedOffset("TCP", "a.example.com"), bucketSeedOffset("TCP", "b.example.com"))
}
