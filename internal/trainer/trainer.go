// Package trainer implements the three idempotent offline entry points
// named in spec.md §6: train_standardizer(mac), infer_periodicity(mac),
// train_periodic_filter(mac). It wires together internal/standardize,
// internal/periodicity, and internal/filter's building blocks against the
// on-disk layout of §6, following flow-enricher's thin cmd/ entrypoint
// calling into internal/ business logic.
package trainer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fenwicklabs/iotwatch/internal/filter"
	"github.com/fenwicklabs/iotwatch/internal/modelstore"
	"github.com/fenwicklabs/iotwatch/internal/periodicity"
	"github.com/fenwicklabs/iotwatch/internal/standardize"
)

// Paths resolves the on-disk layout of spec.md §6, rooted at ProjectRoot
// and ModelsRoot.
type Paths struct {
	ProjectRoot string
	ModelsRoot  string
}

func (p Paths) IdleCSV(mac string) string {
	return filepath.Join(p.ProjectRoot, "idle-data", mac+".csv")
}

func (p Paths) StdTrainCSV(mac string) string {
	return filepath.Join(p.ProjectRoot, "idle-data-std", mac+"_train.csv")
}

func (p Paths) StdTestCSV(mac string) string {
	return filepath.Join(p.ProjectRoot, "idle-data-std", mac+"_test.csv")
}

func (p Paths) StandardizerModel(mac string) string {
	return filepath.Join(p.ModelsRoot, "SS_PCA", mac+".pkl")
}

func (p Paths) PeriodicityReport(mac string) string {
	return filepath.Join(p.ModelsRoot, "freq_period", "1s", mac+".txt")
}

func (p Paths) Fingerprint(model string) string {
	return filepath.Join(p.ModelsRoot, "freq_period", "fingerprints", model+".txt")
}

func (p Paths) FilterModel(model, host, proto string) string {
	name := modelstore.SanitizeFilename(model) + modelstore.SanitizeFilename(host) + modelstore.SanitizeFilename(proto)
	return filepath.Join(p.ModelsRoot, "filter_density", "filter", name+".model")
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// TrainStandardizer implements §4.6.1 end to end: read the device's idle
// CSV, 80/20 split by row order, fit and persist the scaler, and write the
// standardized train/test CSVs.
func TrainStandardizer(p Paths, mac string) error {
	rows, err := standardize.ReadIdleCSV(p.IdleCSV(mac))
	if err != nil {
		return fmt.Errorf("train standardizer %s: %w", mac, err)
	}
	ss, train, test := standardize.FitStandardizer(rows)

	if err := ensureDir(p.StandardizerModel(mac)); err != nil {
		return err
	}
	if err := modelstore.SaveStandardizer(p.StandardizerModel(mac), ss); err != nil {
		return fmt.Errorf("train standardizer %s: %w", mac, err)
	}

	if err := ensureDir(p.StdTrainCSV(mac)); err != nil {
		return err
	}
	if err := standardize.WriteStandardizedCSV(p.StdTrainCSV(mac), train); err != nil {
		return fmt.Errorf("train standardizer %s: %w", mac, err)
	}
	if err := standardize.WriteStandardizedCSV(p.StdTestCSV(mac), test); err != nil {
		return fmt.Errorf("train standardizer %s: %w", mac, err)
	}
	return nil
}

// InferPeriodicity implements §4.6.2 end to end: read the device's idle
// CSV, bucket by (protocol, host) with coalescing, run the DFT/permutation/
// ACF pipeline per bucket, and write the raw report and fingerprint files.
// seed drives the permutation null deterministically, per §8's idempotence
// property.
func InferPeriodicity(p Paths, mac, model string, samplingRateSeconds float64, permutationTrials int, seed int64) error {
	rows, err := standardize.ReadIdleCSV(p.IdleCSV(mac))
	if err != nil {
		return fmt.Errorf("infer periodicity %s: %w", mac, err)
	}

	inputs := make([]periodicity.BucketInput, 0, len(rows))
	for _, r := range rows {
		inputs = append(inputs, periodicity.BucketInput{
			Protocol:  r.Tail[tailIndexProtocol],
			Host:      r.Tail[tailIndexHosts],
			StartTime: parseFloatOrZero(r.Tail[tailIndexStartTime]),
		})
	}

	reports := periodicity.InferBuckets(inputs, samplingRateSeconds, permutationTrials, seed)

	if err := ensureDir(p.PeriodicityReport(mac)); err != nil {
		return err
	}
	if err := periodicity.WriteReport(p.PeriodicityReport(mac), reports); err != nil {
		return fmt.Errorf("infer periodicity %s: %w", mac, err)
	}

	if err := ensureDir(p.Fingerprint(model)); err != nil {
		return err
	}
	if err := periodicity.EmitFingerprint(p.PeriodicityReport(mac), p.Fingerprint(model)); err != nil {
		return fmt.Errorf("infer periodicity %s: %w", mac, err)
	}
	return nil
}

// TrainPeriodicFilter implements §4.6.3 end to end: for each fingerprint
// tuple, select the matching standardized rows, run DBSCAN, and persist
// the filter model. Returns per-tuple evaluation stats for the caller to
// log (informational per §4.6.3 step 5).
func TrainPeriodicFilter(p Paths, mac, model string, eps float64, minSamples int) (map[string]filter.EvalStats, error) {
	fp, err := modelstore.LoadFingerprint(p.Fingerprint(model))
	if err != nil {
		return nil, fmt.Errorf("train periodic filter %s: %w", mac, err)
	}

	trainRows, err := readStandardizedRows(p.StdTrainCSV(mac))
	if err != nil {
		return nil, fmt.Errorf("train periodic filter %s: %w", mac, err)
	}
	testRows, err := readStandardizedRows(p.StdTestCSV(mac))
	if err != nil {
		return nil, fmt.Errorf("train periodic filter %s: %w", mac, err)
	}

	results := make(map[string]filter.EvalStats, len(fp))
	for _, entry := range fp {
		train, test := filter.SelectRows(trainRows, testRows, entry.HostPattern, entry.Protocol)
		fitRows := train
		if len(fitRows) == 0 {
			fitRows = test
		}
		numeric := make([][]float64, len(fitRows))
		for i, r := range fitRows {
			numeric[i] = r.Numeric
		}
		fm := filter.DBSCANFit(numeric, eps, minSamples)

		path := p.FilterModel(model, entry.HostPattern, entry.Protocol)
		if err := ensureDir(path); err != nil {
			return results, err
		}
		if err := modelstore.SaveFilterModel(path, fm); err != nil {
			return results, fmt.Errorf("train periodic filter %s: %w", mac, err)
		}

		testNumeric := make([][]float64, len(test))
		for i, r := range test {
			testNumeric[i] = r.Numeric
		}
		results[entry.HostPattern+"|"+entry.Protocol] = filter.Evaluate(fm, testNumeric)
	}
	return results, nil
}

const (
	tailIndexStartTime = 3
	tailIndexProtocol  = 4
	tailIndexHosts     = 5
)

func parseFloatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func readStandardizedRows(path string) ([]filter.Row, error) {
	rows, err := standardize.ReadIdleCSV(path)
	if err != nil {
		return nil, err
	}
	out := make([]filter.Row, len(rows))
	for i, r := range rows {
		out[i] = filter.Row{
			Numeric:  r.Numeric[:],
			Host:     filter.NormalizeHost(r.Tail[tailIndexHosts]),
			Protocol: filter.NormalizeProtocol(r.Tail[tailIndexProtocol]),
		}
	}
	return out, nil
}
