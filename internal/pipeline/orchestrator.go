// orchestrator.go wires the five pipeline stages (spec.md §2) into one
// runnable unit: a bounded worker pool runs one long-lived task per stage,
// each draining its input Queue and enqueueing into the next, until the
// shared Gate is shut down. Follows the
// pond.NewResultPool + NewGroupContext + SubmitErr/Wait idiom in
// controlplane/telemetry/internal/data/internet/latencies.go (there used
// for bounded fan-out of short-lived result tasks; here the same group
// shape bounds the long-lived per-stage worker goroutines instead, each
// "result" being the stage loop's terminal error) and on
// flow-enricher/internal/flow-enricher/enricher.go's consumer/producer
// worker-loop shape.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/fenwicklabs/iotwatch/internal/capture"
	"github.com/fenwicklabs/iotwatch/internal/filter"
	"github.com/fenwicklabs/iotwatch/internal/idle"
	"github.com/fenwicklabs/iotwatch/internal/predict"
	"github.com/fenwicklabs/iotwatch/internal/standardize"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

// Orchestrator owns the inter-stage queues, the shared Gate, and the
// worker pool driving every stage. It is the "explicit context struct"
// §9's design notes call for in place of a global_state aggregate.
type Orchestrator struct {
	gate *Gate

	burstQueue *Queue[types.BFV]
	ssQueue    *Queue[types.SBFV]

	assembler *capture.Assembler
	idleRec   *idle.Recorder
	std       *standardize.Stage
	filt      *filter.Stage
	pred      *predict.Stage

	pool pond.ResultPool[struct{}]
	log  *slog.Logger
}

// Stages bundles the already-constructed per-stage workers an Orchestrator
// drives. Each stage owns its own input queue (and, where applicable,
// output queue) as built by its package's NewStage constructor; the
// Orchestrator only sequences their Run loops and the burst-queue fanout
// to the Idle Recorder.
type Stages struct {
	Assembler *capture.Assembler
	IdleRec   *idle.Recorder
	Std       *standardize.Stage
	Filt      *filter.Stage
	Pred      *predict.Stage

	BurstQueue    *Queue[types.BFV]
	SSQueue       *Queue[types.SBFV]
	FilteredQueue *Queue[types.SBFV]
}

// NewOrchestrator builds an Orchestrator over an already-wired Stages set
// and a worker-pool size (one slot per concurrent stage task; poolSize<=0
// defaults to 8, covering the 4 fan-in loops plus headroom).
func NewOrchestrator(gate *Gate, s Stages, poolSize int, log *slog.Logger) *Orchestrator {
	if poolSize <= 0 {
		poolSize = 8
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		gate:       gate,
		burstQueue: s.BurstQueue,
		ssQueue:    s.SSQueue,
		assembler:  s.Assembler,
		idleRec:    s.IdleRec,
		std:        s.Std,
		filt:       s.Filt,
		pred:       s.Pred,
		pool:       pond.NewResultPool[struct{}](poolSize),
		log:        log,
	}
}

// OnPacket is the packet-ingestion entrypoint: a producer-side gate check,
// applied at enqueue only, never after a dequeue. A paused gate silently
// drops the packet.
func (o *Orchestrator) OnPacket(pkt types.PacketRecord) {
	if !o.gate.IsInspecting() {
		return
	}
	o.assembler.OnPacket(pkt)
}

// Run starts every stage's worker loop plus the burst-assembler's periodic
// sweep, and blocks until the Gate is shut down or ctx is cancelled. A
// Gate shutdown triggered from outside (e.g. an operator calling
// Orchestrator.Shutdown) cancels the sweeper's own context too, so every
// submitted task — sweeper included — observes the same shutdown signal.
func (o *Orchestrator) Run(ctx context.Context, sweepInterval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := o.gate.Done()
	group := o.pool.NewGroupContext(ctx)

	group.SubmitErr(func() (struct{}, error) {
		o.assembler.RunSweeper(ctx, sweepInterval)
		return struct{}{}, nil
	})
	// runBurstFanout both records idle BFVs and drives the Standardizer
	// directly, rather than racing a separate std.Run(done) consumer
	// against it on the same burst queue.
	group.SubmitErr(func() (struct{}, error) { o.runBurstFanout(done); return struct{}{}, nil })
	group.SubmitErr(func() (struct{}, error) { o.filt.Run(done); return struct{}{}, nil })
	group.SubmitErr(func() (struct{}, error) { o.pred.Run(done); return struct{}{}, nil })

	select {
	case <-ctx.Done():
		o.gate.Shutdown()
	case <-done:
		cancel()
	}
	if _, err := group.Wait(); err != nil {
		o.log.Warn("pipeline: stage group exited with error", "err", err)
	}
}

// runBurstFanout drains burstQueue and both records idle-device BFVs
// (§4.5's side channel) and forwards every BFV into the standardizer's
// input, matching §2's "Idle Recorder (side channel)" reading the same
// burst queue the Standardizer consumes.
func (o *Orchestrator) runBurstFanout(done <-chan struct{}) {
	for {
		bfv, ok := o.burstQueue.Get(done)
		if !ok {
			return
		}
		if o.idleRec != nil {
			if err := o.idleRec.Record(bfv); err != nil {
				o.log.Warn("idle recorder: write failed", "mac", bfv.DeviceMAC, "err", err)
			}
		}
		sbfv, err := o.std.Standardize(bfv)
		if err != nil {
			continue
		}
		o.ssQueue.Put(sbfv)
	}
}

// Shutdown flips the Gate's is_running flag, breaking every worker loop at
// its next dequeue (§5).
func (o *Orchestrator) Shutdown() {
	o.gate.Shutdown()
}
