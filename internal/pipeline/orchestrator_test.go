package pipeline

import (
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/iotwatch/internal/cache"
	"github.com/fenwicklabs/iotwatch/internal/capture"
	"github.com/fenwicklabs/iotwatch/internal/filter"
	"github.com/fenwicklabs/iotwatch/internal/idle"
	"github.com/fenwicklabs/iotwatch/internal/metrics"
	"github.com/fenwicklabs/iotwatch/internal/modelstore"
	"github.com/fenwicklabs/iotwatch/internal/predict"
	"github.com/fenwicklabs/iotwatch/internal/resolver"
	"github.com/fenwicklabs/iotwatch/internal/standardize"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

type emptyRegistry struct{}

func (emptyRegistry) Lookup(string) (string, bool) { return "", false }
func (emptyRegistry) LocalMACs() []string          { return nil }

type emptyARPCache struct{}

func (emptyARPCache) GetMACAddr(net.IP) (string, bool) { return "", false }

func newTestOrchestrator(t *testing.T) (*Orchestrator, *Gate) {
	t.Helper()
	reg := prometheus.NewRegistry()
	cacheMetrics := metrics.NewCacheMetrics(reg)
	store := modelstore.NewStore(t.TempDir(), time.Minute, 8, cacheMetrics)
	models := resolver.NewModelResolver(t.TempDir(), nil, 0.8)
	products := cache.New[string, string]("device_product")
	macs := cache.New[string, []string]("device_mac_list")

	gate := NewGate()
	burstQueue := NewQueue[types.BFV](8)
	ssQueue := NewQueue[types.SBFV](8)
	filteredQueue := NewQueue[types.SBFV](8)

	assembler := capture.NewAssembler(emptyARPCache{}, burstQueue, metrics.NewAssemblerMetrics(reg))
	idleRec := idle.NewRecorder(t.TempDir(), idle.NewMemoryIdleSet(), metrics.NewIdleRecorderMetrics(reg))
	stdStage := standardize.NewStage(emptyRegistry{}, models, store, products, burstQueue, ssQueue, metrics.NewStandardizerMetrics(reg), slog.Default())
	filterStage := filter.NewStage(emptyRegistry{}, models, store, products, macs, emptyRegistry{}, ssQueue, filteredQueue, metrics.NewFilterMetrics(reg), slog.Default())
	predictStage := predict.NewStage(emptyRegistry{}, models, store, products, predict.NewEventQueue(), filteredQueue, metrics.NewPredictorMetrics(reg), slog.Default())

	orch := NewOrchestrator(gate, Stages{
		Assembler:     assembler,
		IdleRec:       idleRec,
		Std:           stdStage,
		Filt:          filterStage,
		Pred:          predictStage,
		BurstQueue:    burstQueue,
		SSQueue:       ssQueue,
		FilteredQueue: filteredQueue,
	}, 4, slog.Default())
	return orch, gate
}

func TestOnPacketDroppedWhenNotInspecting(t *testing.T) {
	orch, gate := newTestOrchestrator(t)
	gate.SetInspecting(false)

	orch.OnPacket(types.PacketRecord{})
	require.Equal(t, 0, orch.burstQueue.Len())
}

func TestRunReturnsAfterShutdown(t *testing.T) {
	orch, gate := newTestOrchestrator(t)

	done := make(chan struct{})
	go func() {
		orch.Run(context.Background(), time.Hour)
		close(done)
	}()

	gate.Shutdown()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}
