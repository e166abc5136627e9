// Package predict implements the Event Predictor stage (spec.md §4.4):
// running a device's ensemble of per-event binary classifiers over an SBFV
// and naming the first positive result in deterministic filename order.
package predict

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

var errUnknownDevice = errors.New("predict: unknown device")

// Stage is the Event Predictor worker.
type Stage struct {
	devices  registry.DeviceRegistry
	models   *resolver.ModelResolver
	store    *modelstore.Store
	products *cache.Cache[string, string]
	events   *EventQueue

	in  *pipeline.Queue[types.SBFV]
	m   *metrics.PredictorMetrics
	log *slog.Logger
}

// NewStage builds an Event Predictor Stage.
func NewStage(devices registry.DeviceRegistry, models *resolver.ModelResolver, store *modelstore.Store, products *cache.Cache[string, string], events *EventQueue, in *pipeline.Queue[types.SBFV], m *metrics.PredictorMetrics, log *slog.Logger) *Stage {
	if log == nil {
		log = slog.Default()
	}
	return &Stage{devices: devices, models: models, store: store, products: products, events: events, in: in, m: m, log: log}
}

// Predict implements the §4.4 contract for a single SBFV: the first
// classifier (in filename order) that returns 1 names the event; ties are
// broken by filename ordering (the ensemble is already sorted). If no
// classifier fires, the burst is "periodic/unexpected" and nothing is
// emitted.
func (s *Stage) Predict(sbfv types.SBFV) (event string, emitted bool) {
	product, err := s.products.GetOrLoad(sbfv.DeviceMAC, func(mac string) (string, error) {
		name, ok := s.devices.Lookup(mac)
		if !ok {
			return "", errUnknownDevice
		}
		return name, nil
	})
	if err != nil {
		return "", false
	}
	model, ok := s.models.Resolve(product)
	if !ok {
		return "", false
	}

	ensemble, err := s.store.ClassifierEnsemble(model)
	if err != nil {
		s.m.ClassifierLoadErrors.Inc()
		s.log.Warn("predict: failed to load classifier ensemble", "model", model, "err", err)
		return "", false
	}

	for _, clf := range ensemble {
		result, err := clf.Predict(sbfv.Numeric[:])
		if err != nil {
			s.m.ClassifierPredictErrors.Inc()
			s.log.Warn("predict: classifier predict failed", "event", clf.EventName, "err", err)
			continue
		}
		if result == 1 {
			s.events.Append(sbfv.DeviceMAC, EventRecord{Timestamp: sbfv.StartTime, Event: clf.EventName})
			s.m.EventsEmittedTotal.Inc()
			return clf.EventName, true
		}
	}

	s.m.NoEventTotal.Inc()
	return "", false
}

// Run drains in, predicting an event for each SBFV, until done is closed.
func (s *Stage) Run(done <-chan struct{}) {
	for {
		sbfv, ok := s.in.Get(done)
		if !ok {
			return
		}
		s.Predict(sbfv)
	}
}
