package stats

import (
	"math"
	"math/cmplx"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
)

// DFTMagnitudes returns |FFT(y)| for a real-valued sequence y, as a slice of
// length len(y)/2+1 (the one-sided spectrum gonum's real FFT produces).
func DFTMagnitudes(y []float64) []float64 {
	n := len(y)
	if n == 0 {
		return nil
	}
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, y)
	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplx.Abs(c)
	}
	return mags
}

// PermutationThreshold builds a null distribution for the DFT magnitude of y
// by permuting y `trials` times and recording the max magnitude (over bins
// 1..N/2-1, matching the original's exclusion of bin 0, the Nyquist bin, and
// DC) of each shuffle. It returns the kth-largest value of that
// distribution, as specified in §4.6.2 step 3 (6th for sub-10-minute
// sampling rates, 11th at S>=600).
//
// rng is caller-supplied so inference can be made reproducible (§8
// idempotence property requires a fixed RNG seed for the permutation null).
func PermutationThreshold(y []float64, samplingRateSeconds float64, trials int, rng *rand.Rand) float64 {
	n := len(y)
	if n == 0 || trials <= 0 {
		return math.Inf(1)
	}
	maxima := make([]float64, trials)
	shuffled := make([]float64, n)
	for t := 0; t < trials; t++ {
		copy(shuffled, y)
		rng.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		mags := DFTMagnitudes(shuffled)
		var max float64
		hi := n / 2
		for i := 1; i < hi && i < len(mags); i++ {
			if mags[i] > max {
				max = mags[i]
			}
		}
		maxima[t] = max
	}
	sort.Float64s(maxima)

	rank := 6
	if samplingRateSeconds >= 600 {
		rank = 11
	}
	idx := len(maxima) - rank
	if idx < 0 {
		idx = 0
	}
	return maxima[idx]
}

// Autocorrelation returns the sample autocorrelation function of y for lags
// 0..nlags inclusive, normalized by the lag-0 autocovariance (matching
// statsmodels.tsa.acf's default, non-FFT-equivalent definition).
func Autocorrelation(y []float64, nlags int) []float64 {
	n := len(y)
	if n == 0 {
		return nil
	}
	if nlags >= n {
		nlags = n - 1
	}
	mean := Mean(y)
	var c0 float64
	for _, v := range y {
		d := v - mean
		c0 += d * d
	}
	acf := make([]float64, nlags+1)
	if c0 == 0 {
		acf[0] = 1
		return acf
	}
	for lag := 0; lag <= nlags; lag++ {
		var sum float64
		for i := 0; i < n-lag; i++ {
			sum += (y[i] - mean) * (y[i+lag] - mean)
		}
		acf[lag] = sum / c0
	}
	return acf
}
