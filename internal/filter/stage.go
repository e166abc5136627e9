// stage.go wraps the pure Filter function (spec.md §4.3) as a pipeline
// worker: resolving the device's model and fingerprint, loading density
// models through the modelstore, and draining/forwarding queues, in the
// same Stage/Run shape as internal/standardize and internal/predict.
package filter

import (
	"errors"
	"log/slog"

	"github.com/fenwicklabs/iotwatch/internal/cache"
	"github.com/fenwicklabs/iotwatch/internal/metrics"
	"github.com/fenwicklabs/iotwatch/internal/modelstore"
	"github.com/fenwicklabs/iotwatch/internal/pipeline"
	"github.com/fenwicklabs/iotwatch/internal/registry"
	"github.com/fenwicklabs/iotwatch/internal/resolver"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

var errUnknownDevice = errors.New("filter: unknown device")

// LocalMACSource supplies the set of MAC addresses belonging to devices on
// this LAN, used by IsNoise to recognize local-peer-MAC-as-host bursts
// (§4.3, §4.8's "device MAC list" cached lookup).
type LocalMACSource interface {
	LocalMACs() []string
}

// Stage is the Periodic Filter worker.
type Stage struct {
	devices  registry.DeviceRegistry
	models   *resolver.ModelResolver
	store    *modelstore.Store
	products *cache.Cache[string, string]
	macs     *cache.Cache[string, []string]
	local    LocalMACSource

	in  *pipeline.Queue[types.SBFV]
	out *pipeline.Queue[types.SBFV]

	m   *metrics.FilterMetrics
	log *slog.Logger
}

// NewStage builds a Periodic Filter Stage.
func NewStage(devices registry.DeviceRegistry, models *resolver.ModelResolver, store *modelstore.Store, products *cache.Cache[string, string], macs *cache.Cache[string, []string], local LocalMACSource, in, out *pipeline.Queue[types.SBFV], m *metrics.FilterMetrics, log *slog.Logger) *Stage {
	if log == nil {
		log = slog.Default()
	}
	return &Stage{devices: devices, models: models, store: store, products: products, macs: macs, local: local, in: in, out: out, m: m, log: log}
}

func (s *Stage) localMACSet() map[string]bool {
	macs, err := s.macs.GetOrLoad("local", func(string) ([]string, error) {
		if s.local == nil {
			return nil, nil
		}
		return s.local.LocalMACs(), nil
	})
	if err != nil {
		return nil
	}
	set := make(map[string]bool, len(macs))
	for _, m := range macs {
		set[m] = true
	}
	return set
}

// Run implements the §4.3 contract for one SBFV at a time, draining in
// until done is closed.
func (s *Stage) Run(done <-chan struct{}) {
	for {
		sbfv, ok := s.in.Get(done)
		if !ok {
			return
		}
		s.process(sbfv)
	}
}

func (s *Stage) process(sbfv types.SBFV) {
	product, err := s.products.GetOrLoad(sbfv.DeviceMAC, func(mac string) (string, error) {
		name, ok := s.devices.Lookup(mac)
		if !ok {
			return "", errUnknownDevice
		}
		return name, nil
	})
	if err != nil {
		s.log.Info("filter: unknown device", "mac", sbfv.DeviceMAC)
		return
	}
	model, ok := s.models.Resolve(product)
	if !ok {
		s.log.Info("filter: unknown model", "mac", sbfv.DeviceMAC, "product", product)
		return
	}

	fp, err := s.store.Fingerprint(model)
	if err != nil {
		s.log.Info("filter: missing fingerprint", "model", model, "err", err)
		s.m.NoFingerprintTotal.Inc()
		return
	}

	if IsControlPlaneProtocol(sbfv.Protocol) {
		s.m.ControlPlaneDroppedTotal.Inc()
		return
	}

	outcome := Filter(sbfv, fp, model, s.localMACSet(), func(model, host, proto string) (*modelstore.FilterModel, error) {
		return s.store.FilterModel(model, host, proto)
	})

	switch outcome {
	case OutcomePass:
		s.m.PassedTotal.Inc()
		s.out.Put(sbfv)
	case OutcomePeriodic:
		s.m.PeriodicDroppedTotal.Inc()
	case OutcomeNoFingerprint:
		s.m.NoFingerprintTotal.Inc()
	}
}
