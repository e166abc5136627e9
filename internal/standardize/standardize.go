// Package standardize implements the Standardizer stage (spec.md §4.2):
// resolving a device's model, loading its fitted scaler, and applying it to
// the numeric part of a BFV to produce an SBFV.
package standardize

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

// Sentinel errors per the §7 taxonomy.
var (
	ErrUnknownDevice = errors.New("standardize: unknown device")
	ErrUnknownModel  = errors.New("standardize: unknown model")
	ErrTransform     = errors.New("standardize: transform failure")
)

// Stage is the Standardizer worker.
type Stage struct {
	devices  registry.DeviceRegistry
	models   *resolver.ModelResolver
	store    *modelstore.Store
	products *cache.Cache[string, string]

	in  *pipeline.Queue[types.BFV]
	out *pipeline.Queue[types.SBFV]

	m   *metrics.StandardizerMetrics
	log *slog.Logger
}

// NewStage builds a Standardizer Stage.
func NewStage(devices registry.DeviceRegistry, models *resolver.ModelResolver, store *modelstore.Store, products *cache.Cache[string, string], in *pipeline.Queue[types.BFV], out *pipeline.Queue[types.SBFV], m *metrics.StandardizerMetrics, log *slog.Logger) *Stage {
	if log == nil {
		log = slog.Default()
	}
	return &Stage{devices: devices, models: models, store: store, products: products, in: in, out: out, m: m, log: log}
}

// Standardize implements the §4.2 contract for a single BFV.
func (s *Stage) Standardize(bfv types.BFV) (types.SBFV, error) {
	product, err := s.products.GetOrLoad(bfv.DeviceMAC, func(mac string) (string, error) {
		name, ok := s.devices.Lookup(mac)
		if !ok {
			return "", ErrUnknownDevice
		}
		return name, nil
	})
	if err != nil {
		s.m.UnknownDeviceTotal.Inc()
		s.log.Info("standardize: unknown device", "mac", bfv.DeviceMAC)
		return types.SBFV{}, ErrUnknownDevice
	}

	model, ok := s.models.Resolve(product)
	if !ok {
		s.m.UnknownModelTotal.Inc()
		s.log.Info("standardize: unknown model", "mac", bfv.DeviceMAC, "product", product)
		return types.SBFV{}, ErrUnknownModel
	}

	ss, err := s.store.Standardizer(model)
	if err != nil {
		s.m.TransformFailedTotal.Inc()
		s.log.Warn("standardize: failed to load standardizer", "model", model, "err", err)
		return types.SBFV{}, ErrTransform
	}

	numeric := ss.Transform(bfv.Numeric)
	sbfv := types.SBFV{
		Numeric:   numeric,
		DeviceMAC: bfv.DeviceMAC,
		State:     bfv.State,
		Event:     bfv.Event,
		StartTime: bfv.StartTime,
		Protocol:  bfv.Protocol,
		Hosts:     bfv.Hosts,
	}
	s.m.TransformedTotal.Inc()
	return sbfv, nil
}

// Run drains in, standardizes each BFV, and enqueues the result onto out
// until done is closed.
func (s *Stage) Run(done <-chan struct{}) {
	for {
		bfv, ok := s.in.Get(done)
		if !ok {
			return
		}
		sbfv, err := s.Standardize(bfv)
		if err != nil {
			continue
		}
		s.out.Put(sbfv)
	}
}
