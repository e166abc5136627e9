package filter

import (
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/iotwatch/internal/cache"
	"github.com/fenwicklabs/iotwatch/internal/metrics"
	"github.com/fenwicklabs/iotwatch/internal/modelstore"
	"github.com/fenwicklabs/iotwatch/internal/pipeline"
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

func (f *fakeRegistry) LocalMACs() []string {
	macs := make([]string, 0, len(f.products))
	for mac := range f.products {
		macs = append(macs, mac)
	}
	return macs
}

func newTestStage(t *testing.T, reg *fakeRegistry) (*Stage, *pipeline.Queue[types.SBFV], *pipeline.Queue[types.SBFV]) {
	t.Helper()
	models := resolver.NewModelResolver(t.TempDir(), nil, 0.8)
	store := modelstore.NewStore(t.TempDir(), time.Minute, 8, metrics.NewCacheMetrics(prometheus.NewRegistry()))
	products := cache.New[string, string]("device_product")
	macs := cache.New[string, []string]("device_mac_list")
	in := pipeline.NewQueue[types.SBFV](8)
	out := pipeline.NewQueue[types.SBFV](8)
	m := metrics.NewFilterMetrics(prometheus.NewRegistry())

	stage := NewStage(reg, models, store, products, macs, reg, in, out, m, slog.Default())
	return stage, in, out
}

func TestProcessDropsUnknownDeviceSilently(t *testing.T) {
	reg := &fakeRegistry{products: map[string]string{}}
	stage, _, out := newTestStage(t, reg)

	stage.process(types.SBFV{DeviceMAC: "unknown-mac", Protocol: "TCP"})

	_, ok := out.TryGet()
	require.False(t, ok)
}

func TestProcessDropsWhenModelUnresolvable(t *testing.T) {
	reg := &fakeRegistry{products: map[string]string{"aa:bb": "SomeUnknownThing"}}
	stage, _, out := newTestStage(t, reg)

	stage.process(types.SBFV{DeviceMAC: "aa:bb", Protocol: "TCP"})

	_, ok := out.TryGet()
	require.False(t, ok)
}

func TestLocalMACSetReflectsRegistry(t *testing.T) {
	reg := &fakeRegistry{products: map[string]string{"aa:bb": "x", "cc:dd": "y"}}
	stage, _, _ := newTestStage(t, reg)

	set := stage.localMACSet()
	require.True(t, set["aa:bb"])
	require.True(t, set["cc:dd"])
	require.Len(t, set, 2)
}
