package standardize

import (
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/iotwatch/internal/cache"
	"github.com/fenwicklabs/iotwatch/internal/metrics"
	"github.com/fenwicklabs/iotwatch/internal/modelstore"
	"github.com/fenwicklabs/iotwatch/internal/resolver"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

type fakeRegistry struct {
	products map[string]string
}

func (f *fakeRegistry) Lookup(mac string) (string, bool) {
	p, ok := f.products[mac]
	return p, ok
}

func TestStandardizeUnknownDeviceIsDropped(t *testing.T) {
	reg := &fakeRegistry{products: map[string]string{}}
	models := resolver.NewModelResolver(t.TempDir(), nil, 0.8)
	store := modelstore.NewStore(t.TempDir(), time.Minute, 8, metrics.NewCacheMetrics(prometheus.NewRegistry()))
	products := cache.New[string, string]("device_product")
	m := metrics.NewStandardizerMetrics(prometheus.NewRegistry())

	stage := NewStage(reg, models, store, products, nil, nil, m, slog.Default())
	_, err := stage.Standardize(types.BFV{DeviceMAC: "unknown-mac"})
	require.ErrorIs(t, err, ErrUnknownDevice)
}

func TestSplitEightyTwentyByRowOrder(t *testing.T) {
	rows := make([]IdleRow, 10)
	train, test := SplitEightyTwenty(rows)
	require.Len(t, train, 8)
	require.Len(t, test, 2)
}

func TestFitStandardizerOnUniformColumnYieldsZeroScale(t *testing.T) {
	rows := []IdleRow{
		{Numeric: [types.NumericFeatureCount]float64{}},
		{Numeric: [types.NumericFeatureCount]float64{}},
	}
	ss, _, _ := FitStandardizer(rows)
	for _, s := range ss.Scale {
		require.Zero(t, s)
	}
}
