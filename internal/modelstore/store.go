package modelstore

import (
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fenwicklabs/iotwatch/internal/cache"
	"github.com/fenwicklabs/iotwatch/internal/metrics"
)

// Store is the TTL-cached, backoff-retried front for every on-disk model
// artifact (§4.8, §9's modelstore.go teacher-retry idiom applied to a local
// file read racing a concurrent trainer write instead of a flaky network
// call).
type Store struct {
	modelsRoot string

	standardizers *cache.Cache[string, *Standardizer]
	fingerprints  *cache.Cache[string, Fingerprint]
	filterModels  *cache.Cache[string, *FilterModel]
	classifiers   *cache.Cache[string, []*LinearClassifier]

	retryMaxElapsed time.Duration
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithRetryMaxElapsed overrides the default 2s backoff ceiling for a single
// artifact load.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(s *Store) { s.retryMaxElapsed = d }
}

// NewStore builds a Store rooted at modelsRoot, with each artifact kind
// cached under its own TTL+LRU cache instance (§4.8 lists device ->
// standardizer, device -> fingerprint as distinct cached lookups).
func NewStore(modelsRoot string, ttl time.Duration, capacity int, m *metrics.CacheMetrics, opts ...Option) *Store {
	s := &Store{
		modelsRoot:      modelsRoot,
		retryMaxElapsed: 2 * time.Second,
		standardizers: cache.New[string, *Standardizer]("standardizer",
			cache.WithTTL[string, *Standardizer](ttl), cache.WithCapacity[string, *Standardizer](capacity), cache.WithMetrics[string, *Standardizer](m)),
		fingerprints: cache.New[string, Fingerprint]("fingerprint",
			cache.WithTTL[string, Fingerprint](ttl), cache.WithCapacity[string, Fingerprint](capacity), cache.WithMetrics[string, Fingerprint](m)),
		filterModels: cache.New[string, *FilterModel]("filter_model",
			cache.WithTTL[string, *FilterModel](ttl), cache.WithCapacity[string, *FilterModel](capacity), cache.WithMetrics[string, *FilterModel](m)),
		classifiers: cache.New[string, []*LinearClassifier]("classifier_ensemble",
			cache.WithTTL[string, []*LinearClassifier](ttl), cache.WithCapacity[string, []*LinearClassifier](capacity), cache.WithMetrics[string, []*LinearClassifier](m)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) retry(op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = s.retryMaxElapsed
	return backoff.Retry(op, b)
}

// Standardizer loads (or returns the cached) standardizer for model.
func (s *Store) Standardizer(model string) (*Standardizer, error) {
	return s.standardizers.GetOrLoad(model, func(model string) (*Standardizer, error) {
		path := filepath.Join(s.modelsRoot, "SS_PCA", model+".pkl")
		var ss *Standardizer
		err := s.retry(func() error {
			var loadErr error
			ss, loadErr = LoadStandardizer(path)
			return loadErr
		})
		return ss, err
	})
}

// Fingerprint loads (or returns the cached) periodic fingerprint for model.
func (s *Store) Fingerprint(model string) (Fingerprint, error) {
	return s.fingerprints.GetOrLoad(model, func(model string) (Fingerprint, error) {
		path := filepath.Join(s.modelsRoot, "freq_period", "fingerprints", model+".txt")
		var fp Fingerprint
		err := s.retry(func() error {
			var loadErr error
			fp, loadErr = LoadFingerprint(path)
			return loadErr
		})
		return fp, err
	})
}

// filterModelCacheKey uniquely identifies a (model, host, proto) bucket.
func filterModelCacheKey(model, host, proto string) string {
	return model + "\x00" + host + "\x00" + proto
}

// FilterModel loads (or returns the cached) density cluster for
// (model, host, proto), per the path convention of §4.3/§6.
func (s *Store) FilterModel(model, host, proto string) (*FilterModel, error) {
	key := filterModelCacheKey(model, host, proto)
	return s.filterModels.GetOrLoad(key, func(string) (*FilterModel, error) {
		filename := SanitizeFilename(model) + SanitizeFilename(host) + SanitizeFilename(proto) + ".model"
		path := filepath.Join(s.modelsRoot, "filter_density", "filter", filename)
		var fm *FilterModel
		err := s.retry(func() error {
			var loadErr error
			fm, loadErr = LoadFilterModel(path)
			return loadErr
		})
		return fm, err
	})
}

// ClassifierEnsemble loads (or returns the cached) ordered list of per-event
// classifiers under `<models>/binary/rf/<model>/`, in deterministic
// filename order (§4.4).
func (s *Store) ClassifierEnsemble(model string) ([]*LinearClassifier, error) {
	return s.classifiers.GetOrLoad(model, func(model string) ([]*LinearClassifier, error) {
		dir := filepath.Join(s.modelsRoot, "binary", "rf", model)
		var files []string
		err := s.retry(func() error {
			var loadErr error
			files, loadErr = ListClassifierFiles(dir)
			return loadErr
		})
		if err != nil {
			return nil, err
		}
		ensemble := make([]*LinearClassifier, 0, len(files))
		for _, f := range files {
			path := filepath.Join(dir, f)
			clf, loadErr := LoadLinearClassifier(path)
			if loadErr != nil {
				continue
			}
			if clf.EventName == "" {
				clf.EventName = EventNameFromFilename(f)
			}
			ensemble = append(ensemble, clf)
		}
		return ensemble, nil
	})
}

// InvalidateModel drops the cached standardizer, fingerprint and classifier
// ensemble for model. Cached filter models, keyed by (model, host, proto),
// are not dropped; they stay until their TTL expires.
func (s *Store) InvalidateModel(model string) {
	s.standardizers.Invalidate(model)
	s.fingerprints.Invalidate(model)
	s.classifiers.Invalidate(model)
}
