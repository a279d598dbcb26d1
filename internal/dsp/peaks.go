// internal/dsp/peaks.go
package dsp

import "math"

// FindCandidates scans an acceleration-magnitude series for stroke
// candidates. The signal of interest is the first difference of the
// series: a swing shows up as a sharp jerk, so the detector thresholds
// the absolute derivative at mean + mult*stddev (population stddev,
// adapting the threshold to the session's own noise floor). An index
// qualifies when its derivative magnitude exceeds the threshold, is a
// local maximum (>= both neighbors), and sits at least
// minSeparationSec*sampleRate samples after the previously kept
// candidate. Returned indices address the magnitude series. A series
// shorter than 3 samples yields no candidates.
func FindCandidates(mag []float64, sampleRate, mult, minSeparationSec float64) []int {
	if len(mag) < 3 {
		return nil
	}

	deriv := make([]float64, len(mag)-1)
	for i := range deriv {
		d := mag[i+1] - mag[i]
		if d < 0 {
			d = -d
		}
		deriv[i] = d
	}

	mean, std := meanStd(deriv)
	threshold := mean + mult*std

	minSep := int(minSeparationSec * sampleRate)
	if minSep < 1 {
		minSep = 1
	}

	var candidates []int
	last := -1
	for i := 1; i < len(deriv)-1; i++ {
		if deriv[i] <= threshold {
			continue
		}
		if deriv[i] < deriv[i-1] || deriv[i] < deriv[i+1] {
			continue
		}
		// Derivative index i is the step onto sample i+1.
		idx := i + 1
		if last >= 0 && idx-last < minSep {
			continue
		}
		candidates = append(candidates, idx)
		last = idx
	}
	return candidates
}

// meanStd returns the mean and population standard deviation of x.
func meanStd(x []float64) (mean, std float64) {
	if len(x) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range x {
		sum += v
	}
	mean = sum / float64(len(x))
	var sq float64
	for _, v := range x {
		d := v - mean
		sq += d * d
	}
	variance := sq / float64(len(x))
	if variance <= 0 {
		return mean, 0
	}
	return mean, math.Sqrt(variance)
}
