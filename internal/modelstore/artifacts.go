// Package modelstore loads the on-disk model artifacts consumed on the hot
// path: the per-device standardizer, periodic fingerprint, periodic filter
// clusters, and event classifier ensembles. Per §9's design note, the
// original's pickled artifacts are replaced with neutral, explicit formats:
// a plain struct for the scaler, an explicit list of core samples/labels/eps
// for the density model, and (since no pack repo vendors an ONNX runtime) a
// small JSON-encoded linear classifier for the event models.
package modelstore

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/fenwicklabs/iotwatch/internal/stats"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

// Standardizer is the per-device fitted scaler: mean and stddev per
// numeric feature, applied as an affine transform.
type Standardizer struct {
	Mean  [types.NumericFeatureCount]float64 `json:"mean"`
	Scale [types.NumericFeatureCount]float64 `json:"scale"`
}

type standardizerFile struct {
	SS Standardizer `json:"ss"`
}

// LoadStandardizer reads a standardizer artifact from path (§6:
// `models/SS_PCA/<mac_or_model>.pkl`, content now JSON: `{"ss": scaler}`).
func LoadStandardizer(path string) (*Standardizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read standardizer %s: %w", path, err)
	}
	var f standardizerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode standardizer %s: %w", path, err)
	}
	return &f.SS, nil
}

// SaveStandardizer persists a standardizer artifact, used by the offline
// Standardizer Fit trainer.
func SaveStandardizer(path string, ss *Standardizer) error {
	data, err := json.Marshal(standardizerFile{SS: *ss})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Transform applies ss to the numeric part of a BFV, producing an SBFV,
// per §4.2.
func (ss *Standardizer) Transform(x [types.NumericFeatureCount]float64) [types.NumericFeatureCount]float64 {
	var out [types.NumericFeatureCount]float64
	for i := range x {
		if ss.Scale[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = (x[i] - ss.Mean[i]) / ss.Scale[i]
	}
	return out
}

// InverseTransform undoes Transform, used by the round-trip test property
// in §8.
func (ss *Standardizer) InverseTransform(x [types.NumericFeatureCount]float64) [types.NumericFeatureCount]float64 {
	var out [types.NumericFeatureCount]float64
	for i := range x {
		out[i] = x[i]*ss.Scale[i] + ss.Mean[i]
	}
	return out
}

// FitStandardizer computes a standard scaler (mean, population stddev) over
// rows of numeric features, per §4.6.1.
func FitStandardizer(rows [][types.NumericFeatureCount]float64) *Standardizer {
	var ss Standardizer
	if len(rows) == 0 {
		return &ss
	}
	col := make([]float64, len(rows))
	for i := 0; i < types.NumericFeatureCount; i++ {
		for r, row := range rows {
			col[r] = row[i]
		}
		ss.Mean[i] = stats.Mean(col)
		ss.Scale[i] = math.Sqrt(stats.Variance(col))
	}
	return &ss
}

// FingerprintEntry is one (host-pattern, protocol, period) tuple of a
// device's periodic fingerprint (§3).
type FingerprintEntry struct {
	HostPattern string
	Protocol    string
	Period      float64
}

// Fingerprint is a device's ordered fingerprint list.
type Fingerprint []FingerprintEntry

// LoadFingerprint reads `<proto> <host> <period>` lines from path (§6:
// `models/freq_period/fingerprints/<model>.txt`).
func LoadFingerprint(path string) (Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fingerprint %s: %w", path, err)
	}
	var fp Fingerprint
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		proto, host := fields[0], fields[1]
		var period float64
		if _, err := fmt.Sscanf(fields[2], "%f", &period); err != nil {
			continue
		}
		fp = append(fp, FingerprintEntry{HostPattern: host, Protocol: proto, Period: period})
	}
	return fp, nil
}

// SaveFingerprint writes fp to path in the same line format LoadFingerprint
// reads, used by the Fingerprint Emitter (§4.6.2).
func SaveFingerprint(path string, fp Fingerprint) error {
	var b strings.Builder
	for _, e := range fp {
		fmt.Fprintf(&b, "%s %s %g\n", e.Protocol, e.HostPattern, e.Period)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// FilterModel is a density-based clustering model over one (host, proto)
// bucket: eps, core sample feature vectors, their labels, and the indices
// mapping each core sample to its label (§3, §4.3).
type FilterModel struct {
	Eps               float64     `json:"eps"`
	Components        [][]float64 `json:"components"`
	Labels            []int       `json:"labels"`
	CoreSampleIndices []int       `json:"core_sample_indices"`
}

type filterModelFile struct {
	TrainedModel FilterModel `json:"trained_model"`
}

// LoadFilterModel reads a filter model artifact from path (§6:
// `models/filter_.../filter/<model><host><proto>.model`).
func LoadFilterModel(path string) (*FilterModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filter model %s: %w", path, err)
	}
	var f filterModelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode filter model %s: %w", path, err)
	}
	return &f.TrainedModel, nil
}

// SaveFilterModel persists a filter model artifact, used by the Periodic
// Filter Trainer (§4.6.3).
func SaveFilterModel(path string, m *FilterModel) error {
	data, err := json.Marshal(filterModelFile{TrainedModel: *m})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Predict implements the DBSCAN-predict density test of §4.3: scan core
// samples in components/core_sample_indices order, assign the first core
// sample's label if within eps, else -1 (noise).
func (m *FilterModel) Predict(sbfv []float64) int {
	for i, core := range m.Components {
		if stats.Euclidean(sbfv, core) < m.Eps {
			if i < len(m.CoreSampleIndices) {
				idx := m.CoreSampleIndices[i]
				if idx >= 0 && idx < len(m.Labels) {
					return m.Labels[idx]
				}
			}
			return -1
		}
	}
	return -1
}

// LinearClassifier is the neutral binary-classifier format this port
// substitutes for the original's pickled scikit-learn estimators: a linear
// decision function thresholded at 0, matching any linear model (logistic
// regression, linear SVM) retrained to export weights+bias.
type LinearClassifier struct {
	EventName string    `json:"event_name"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
}

// LoadLinearClassifier reads a classifier artifact from path.
func LoadLinearClassifier(path string) (*LinearClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier %s: %w", path, err)
	}
	var c LinearClassifier
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode classifier %s: %w", path, err)
	}
	return &c, nil
}

// Predict returns 1 if the linear decision function is positive, else 0.
func (c *LinearClassifier) Predict(x []float64) (int, error) {
	if len(x) != len(c.Weights) {
		return 0, fmt.Errorf("classifier %s: expected %d features, got %d", c.EventName, len(c.Weights), len(x))
	}
	var sum float64
	for i, w := range c.Weights {
		sum += w * x[i]
	}
	sum += c.Bias
	if sum > 0 {
		return 1, nil
	}
	return 0, nil
}

// EventNameFromFilename recovers the event name from a classifier filename,
// matching original_source/core/predict_event.py's
// `'_'.join(f1.split('.')[0].split('_')[1:])` exactly: split off the
// extension, split the remainder on '_', drop the first token, and rejoin
// the rest with '_'. This is not simply "the suffix after the first
// underscore" whenever the event name itself contains underscores.
func EventNameFromFilename(filename string) string {
	base := filename
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	parts := strings.Split(base, "_")
	if len(parts) <= 1 {
		return ""
	}
	return strings.Join(parts[1:], "_")
}

// ListClassifierFiles returns classifier filenames under dir in
// deterministic (sorted) order, matching §4.4's "deterministic filename
// order" tie-break rule.
func ListClassifierFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list classifiers %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// SanitizeFilename removes '*' and replaces ':' with '-', per §4.6.3/§6's
// file-naming sanitization rule.
func SanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}
