// Package metrics defines the Prometheus instrumentation for each pipeline
// stage, one counter/histogram struct per stage, following
// flow-enricher/metrics.go's convention of a factory built with
// promauto.With(reg).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AssemblerMetrics instruments the Burst Assembler stage.
type AssemblerMetrics struct {
	PacketsReceivedTotal   prometheus.Counter
	PacketsRejectedTotal   *prometheus.CounterVec
	BurstsSealedTotal      prometheus.Counter
	BurstsDiscardedTotal   prometheus.Counter
	BurstQueueDroppedTotal prometheus.Counter
	OpenFlowsGauge         prometheus.Gauge
}

func NewAssemblerMetrics(reg prometheus.Registerer) *AssemblerMetrics {
	f := promauto.With(reg)
	return &AssemblerMetrics{
		PacketsReceivedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "assembler_packets_received_total",
			Help: "Total number of packets consumed from the packet queue",
		}),
		PacketsRejectedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assembler_packets_rejected_total",
			Help: "Total number of packets rejected by the assembler, by reason",
		}, []string{"reason"}),
		BurstsSealedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "assembler_bursts_sealed_total",
			Help: "Total number of bursts sealed and emitted as BFVs",
		}),
		BurstsDiscardedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "assembler_bursts_discarded_total",
			Help: "Total number of singleton bursts discarded at seal time",
		}),
		BurstQueueDroppedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "assembler_burst_queue_dropped_total",
			Help: "Total number of BFVs dropped because the burst queue was full",
		}),
		OpenFlowsGauge: f.NewGauge(prometheus.GaugeOpts{
			Name: "assembler_open_flows",
			Help: "Current number of flow keys with an open burst buffer",
		}),
	}
}

// StandardizerMetrics instruments the Standardizer stage.
type StandardizerMetrics struct {
	TransformedTotal  prometheus.Counter
	UnknownDeviceTotal prometheus.Counter
	UnknownModelTotal prometheus.Counter
	TransformFailedTotal prometheus.Counter
}

func NewStandardizerMetrics(reg prometheus.Registerer) *StandardizerMetrics {
	f := promauto.With(reg)
	return &StandardizerMetrics{
		TransformedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "standardizer_transformed_total",
			Help: "Total number of BFVs standardized into SBFVs",
		}),
		UnknownDeviceTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "standardizer_unknown_device_total",
			Help: "Total number of BFVs dropped for unknown device",
		}),
		UnknownModelTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "standardizer_unknown_model_total",
			Help: "Total number of BFVs dropped for unresolved model",
		}),
		TransformFailedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "standardizer_transform_failed_total",
			Help: "Total number of BFVs dropped due to a transform failure",
		}),
	}
}

// FilterMetrics instruments the Periodic Filter stage.
type FilterMetrics struct {
	PassedTotal           prometheus.Counter
	PeriodicDroppedTotal  prometheus.Counter
	NoFingerprintTotal    prometheus.Counter
	ControlPlaneDroppedTotal prometheus.Counter
}

func NewFilterMetrics(reg prometheus.Registerer) *FilterMetrics {
	f := promauto.With(reg)
	return &FilterMetrics{
		PassedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "filter_passed_total",
			Help: "Total number of SBFVs passed through as non-periodic",
		}),
		PeriodicDroppedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "filter_periodic_dropped_total",
			Help: "Total number of SBFVs dropped as periodic traffic",
		}),
		NoFingerprintTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "filter_no_fingerprint_total",
			Help: "Total number of SBFVs dropped for lacking a device fingerprint",
		}),
		ControlPlaneDroppedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "filter_control_plane_dropped_total",
			Help: "Total number of SBFVs dropped as control-plane noise",
		}),
	}
}

// PredictorMetrics instruments the Event Predictor stage.
type PredictorMetrics struct {
	EventsEmittedTotal    prometheus.Counter
	NoEventTotal          prometheus.Counter
	ClassifierLoadErrors  prometheus.Counter
	ClassifierPredictErrors prometheus.Counter
	PredictDuration       prometheus.Histogram
}

func NewPredictorMetrics(reg prometheus.Registerer) *PredictorMetrics {
	f := promauto.With(reg)
	return &PredictorMetrics{
		EventsEmittedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "predictor_events_emitted_total",
			Help: "Total number of events emitted to filtered_event_queue",
		}),
		NoEventTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "predictor_no_event_total",
			Help: "Total number of SBFVs for which no classifier fired",
		}),
		ClassifierLoadErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "predictor_classifier_load_errors_total",
			Help: "Total number of classifier artifact load failures",
		}),
		ClassifierPredictErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "predictor_classifier_predict_errors_total",
			Help: "Total number of classifier predict failures",
		}),
		PredictDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "predictor_predict_duration_seconds",
			Help: "Duration of a full ensemble prediction pass",
		}),
	}
}

// IdleRecorderMetrics instruments the Idle Recorder side channel.
type IdleRecorderMetrics struct {
	RowsWrittenTotal prometheus.Counter
	WriteErrors      prometheus.Counter
}

func NewIdleRecorderMetrics(reg prometheus.Registerer) *IdleRecorderMetrics {
	f := promauto.With(reg)
	return &IdleRecorderMetrics{
		RowsWrittenTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "idle_recorder_rows_written_total",
			Help: "Total number of BFV rows appended to idle-data CSVs",
		}),
		WriteErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "idle_recorder_write_errors_total",
			Help: "Total number of idle-data CSV write failures",
		}),
	}
}

// CacheMetrics instruments the TTL cache.
type CacheMetrics struct {
	HitsTotal      *prometheus.CounterVec
	MissesTotal    *prometheus.CounterVec
	EvictionsTotal *prometheus.CounterVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	f := promauto.With(reg)
	return &CacheMetrics{
		HitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of TTL cache hits, by cache name",
		}, []string{"cache"}),
		MissesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of TTL cache misses, by cache name",
		}, []string{"cache"}),
		EvictionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of TTL cache evictions, by cache name",
		}, []string{"cache"}),
	}
}
