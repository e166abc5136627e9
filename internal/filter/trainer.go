package filter

import (
	"sort"

	"github.com/fenwicklabs/iotwatch/internal/modelstore"
	"github.com/fenwicklabs/iotwatch/internal/stats"
	"github.com/fenwicklabs/iotwatch/internal/types"
)

// Row pairs an SBFV's numeric vector with its (normalized) host/protocol,
// as read from the standardized idle train/test CSVs.
type Row struct {
	Numeric  []float64
	Host     string
	Protocol string
}

const maxTrainingRows = 5000

// SelectRows implements §4.6.3 step 1/2: filters rows whose protocol and
// host match (host,proto), capping the training subset to the first 5000
// rows; the test subset uses the relaxed last-three-labels suffix fallback
// only when the strict filter yields zero rows.
func SelectRows(trainRows, testRows []Row, host, proto string) (train, test []Row) {
	for _, r := range trainRows {
		if r.Protocol != proto || !types.MatchesHostPattern(r.Host, host) {
			continue
		}
		train = append(train, r)
		if len(train) >= maxTrainingRows {
			break
		}
	}

	for _, r := range testRows {
		if r.Protocol == proto && types.MatchesHostPattern(r.Host, host) {
			test = append(test, r)
		}
	}
	if len(test) == 0 {
		suffix := types.LastLabels(host, 3)
		for _, r := range testRows {
			if r.Protocol == proto && (r.Host == suffix || len(r.Host) >= len(suffix) && r.Host[len(r.Host)-len(suffix):] == suffix) {
				test = append(test, r)
			}
		}
	}
	return train, test
}

// DBSCANFit runs a DBSCAN clustering pass over rows (§4.6.3 step 3),
// producing a FilterModel with the discovered core samples and labels.
// This is a direct, from-scratch DBSCAN implementation (spec.md names the
// algorithm explicitly; no pack repo vendors a clustering library, so there
// is nothing to wire here instead of hand-rolling it).
func DBSCANFit(rows [][]float64, eps float64, minSamples int) *modelstore.FilterModel {
	n := len(rows)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -2 // unvisited
	}
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if stats.Euclidean(rows[i], rows[j]) < eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}

	cluster := 0
	for i := 0; i < n; i++ {
		if labels[i] != -2 {
			continue
		}
		if len(neighbors[i])+1 < minSamples {
			labels[i] = -1
			continue
		}
		labels[i] = cluster
		seeds := append([]int(nil), neighbors[i]...)
		for s := 0; s < len(seeds); s++ {
			j := seeds[s]
			if labels[j] == -1 {
				labels[j] = cluster
			}
			if labels[j] != -2 {
				continue
			}
			labels[j] = cluster
			if len(neighbors[j])+1 >= minSamples {
				seeds = append(seeds, neighbors[j]...)
			}
		}
		cluster++
	}

	var coreIndices []int
	for i := 0; i < n; i++ {
		if labels[i] >= 0 && len(neighbors[i])+1 >= minSamples {
			coreIndices = append(coreIndices, i)
		}
	}
	sort.Ints(coreIndices)

	components := make([][]float64, len(coreIndices))
	for i, idx := range coreIndices {
		components[i] = rows[idx]
	}

	return &modelstore.FilterModel{
		Eps:               eps,
		Components:        components,
		Labels:            labels,
		CoreSampleIndices: coreIndices,
	}
}

// EvalStats summarizes §4.6.3 step 5's informational evaluation: how many
// test-subset rows were classified periodic (label >= 0) vs kept (label <
// 0).
type EvalStats struct {
	Periodic int
	Kept     int
}

// Evaluate runs Predict over each test row and tallies the outcome.
func Evaluate(m *modelstore.FilterModel, testRows [][]float64) EvalStats {
	var s EvalStats
	for _, row := range testRows {
		if m.Predict(row) >= 0 {
			s.Periodic++
		} else {
			s.Kept++
		}
	}
	return s
}
