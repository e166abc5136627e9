// Package periodicity implements the offline Periodicity Inference trainer
// (spec.md §4.6.2): binning burst counts into a time series, testing
// candidate periods from the DFT against a permutation null, validating
// with autocorrelation, and a small-sample inter-arrival fallback. Grounded
// on original_source/core/periodicity_inference.py, read directly to
// resolve the algorithm's exact bin exclusions and thresholds since
// spec.md's §4.6.2 narrative leaves some of them implicit.
package periodicity

import (
	"math"
	"math/rand"

	"github.com/fenwicklabs/iotwatch/internal/stats"
)

// Result is the outcome of inferring periodicity for one (protocol, host)
// bucket.
type Result struct {
	Count     int
	Detected  bool
	Periods   []float64 // 1 or 2 reported periods, best first
}

// Observation is one burst's contribution to a (protocol, host) bucket: its
// start time in seconds.
type Observation struct {
	StartTime float64
}

// Infer implements §4.6.2 steps 2-5 for a single (protocol, host) bucket.
// samplingRateSeconds is S (default 1); rng drives the permutation null and
// must be seeded deterministically by the caller for the idempotence
// property in §8.
func Infer(observations []Observation, samplingRateSeconds float64, permutationTrials int, rng *rand.Rand) Result {
	count := len(observations)
	if count == 0 {
		return Result{Count: 0, Detected: false}
	}

	y, n := bin(observations, samplingRateSeconds)
	if n < 2 {
		return Result{Count: count, Detected: false}
	}

	candidates := candidatePeriods(y, samplingRateSeconds, permutationTrials, rng)
	validated := validateByACF(y, candidates)
	if len(validated) > 0 {
		periods := make([]float64, 0, 2)
		for i, c := range validated {
			if i >= 2 {
				break
			}
			periods = append(periods, c)
		}
		return Result{Count: count, Detected: true, Periods: periods}
	}

	nonEmpty := countNonEmpty(y)
	if nonEmpty >= 4 && nonEmpty <= 6 {
		if period, ok := smallSampleFallback(observations, samplingRateSeconds); ok {
			return Result{Count: count, Detected: true, Periods: []float64{period}}
		}
	}

	return Result{Count: count, Detected: false}
}

// bin builds the zero-filled time series y[t] of burst counts over
// [t_min, t_max] at sampling rate S (§4.6.2 step 2).
func bin(observations []Observation, samplingRateSeconds float64) ([]float64, int) {
	tmin, tmax := observations[0].StartTime, observations[0].StartTime
	for _, o := range observations {
		if o.StartTime < tmin {
			tmin = o.StartTime
		}
		if o.StartTime > tmax {
			tmax = o.StartTime
		}
	}
	n := int(math.Floor((tmax-tmin)/samplingRateSeconds)) + 1
	if n < 1 {
		n = 1
	}
	y := make([]float64, n)
	for _, o := range observations {
		idx := int(math.Floor((o.StartTime - tmin) / samplingRateSeconds))
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		y[idx]++
	}
	return y, n
}

// candidatePeriods implements §4.6.2 step 3: DFT magnitude over bins
// 2..N/2-1, a permutation null threshold, and round(N/k) for each surviving
// bin k, keeping only candidates whose period is >= 10 samples. Bins 0, 1,
// and N-1 are excluded from the candidate set (bin 0 is the DC component;
// bin N-1 mirrors bin 1 for a real-valued signal; bin 1 itself is too close
// to DC to be a meaningful period candidate).
func candidatePeriods(y []float64, samplingRateSeconds float64, trials int, rng *rand.Rand) map[int]float64 {
	n := len(y)
	mags := stats.DFTMagnitudes(y)
	threshold := stats.PermutationThreshold(y, samplingRateSeconds, trials, rng)

	candidates := make(map[int]float64) // bin -> period
	hi := n / 2
	for k := 2; k < hi && k < len(mags); k++ {
		if mags[k] <= threshold {
			continue
		}
		period := math.Round(float64(n) / float64(k))
		if period < 10 {
			continue
		}
		candidates[k] = period
	}
	return candidates
}

// validateByACF implements §4.6.2 step 4: for each candidate bin k, scan
// the ACF index range [round(N/(k+1))+1, round(N/(k-1))-1] and keep indices
// whose ACF >= 3.315/sqrt(N); return the validated periods ordered by
// descending ACF value.
func validateByACF(y []float64, candidates map[int]float64) []float64 {
	if len(candidates) == 0 {
		return nil
	}
	n := len(y)
	nlags := n - 1
	if nlags < 1 {
		return nil
	}
	acf := stats.Autocorrelation(y, nlags)
	cutoff := 3.315 / math.Sqrt(float64(n))

	type scored struct {
		period float64
		value  float64
	}
	var found []scored
	for k := range candidates {
		lo := int(math.Round(float64(n)/float64(k+1))) + 1
		hi := int(math.Round(float64(n) / float64(maxInt(k-1, 1))))
		hi--
		if lo < 1 {
			lo = 1
		}
		if hi >= len(acf) {
			hi = len(acf) - 1
		}
		for idx := lo; idx <= hi; idx++ {
			if idx < 0 || idx >= len(acf) {
				continue
			}
			if acf[idx] >= cutoff {
				found = append(found, scored{period: float64(idx), value: acf[idx]})
			}
		}
	}
	if len(found) == 0 {
		return nil
	}
	// Sort descending by ACF value (simple insertion sort; lists are small).
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].value > found[j-1].value; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}
	periods := make([]float64, 0, len(found))
	seen := make(map[float64]bool)
	for _, f := range found {
		if seen[f.period] {
			continue
		}
		seen[f.period] = true
		periods = append(periods, f.period)
	}
	return periods
}

func countNonEmpty(y []float64) int {
	n := 0
	for _, v := range y {
		if v > 0 {
			n++
		}
	}
	return n
}

// smallSampleFallback implements §4.6.2 step 5: when 4-6 non-empty bins
// exist and no DFT/ACF period validated, check that every second-difference
// of successive inter-arrival times is within 3600/S, and if so report the
// mean inter-arrival as the period.
func smallSampleFallback(observations []Observation, samplingRateSeconds float64) (float64, bool) {
	times := make([]float64, len(observations))
	for i, o := range observations {
		times[i] = o.StartTime
	}
	// Sort ascending (insertion sort; inputs are small by construction).
	for i := 1; i < len(times); i++ {
		for j := i; j > 0 && times[j] < times[j-1]; j-- {
			times[j], times[j-1] = times[j-1], times[j]
		}
	}
	if len(times) < 3 {
		return 0, false
	}
	interArrivals := stats.InterPacketDeltas(times)[1:]
	if len(interArrivals) < 2 {
		return 0, false
	}
	limit := 3600 / samplingRateSeconds
	for i := 1; i < len(interArrivals); i++ {
		diff := math.Abs(interArrivals[i] - interArrivals[i-1])
		if diff > limit {
			return 0, false
		}
	}
	return stats.Mean(interArrivals), true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
