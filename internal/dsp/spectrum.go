// internal/dsp/spectrum.go
package dsp

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrShortWindow indicates the window has too few samples for spectral analysis
	ErrShortWindow = errors.New("window too short for spectral analysis")
	// ErrDegenerateSignal indicates a NaN/Inf-bearing or zero-variance window
	ErrDegenerateSignal = errors.New("degenerate signal window")
	// ErrTransformRequired indicates a Transform instance is required
	ErrTransformRequired = errors.New("transform instance is required")
)

// minSpectrumSamples is the smallest window the validator will analyze.
// Anything this short cannot carry a meaningful impact signature.
const minSpectrumSamples = 5

// varianceFloor below which a window counts as constant. Catches windows
// that are flat up to floating-point residue from the mean subtraction.
const varianceFloor = 1e-18

// Spectrum holds the frequency-domain features of one channel window.
// Bin i sits at Freqs[i] = i * sampleRate / N Hz; Power[i] is the
// squared magnitude of that bin and TotalPower their sum.
type Spectrum struct {
	Freqs      []float64
	Magnitudes []float64
	Power      []float64
	TotalPower float64
}

// PeakFreq returns the frequency of the highest-power bin, skipping the
// DC bin. Returns 0 for an empty spectrum.
func (s Spectrum) PeakFreq() float64 {
	if len(s.Power) < 2 {
		return 0
	}
	peak := 1
	for i := 2; i < len(s.Power); i++ {
		if s.Power[i] > s.Power[peak] {
			peak = i
		}
	}
	return s.Freqs[peak]
}

// AnalyzeSpectrum computes the spectral features of one channel window:
// mean removal, Hann window, real FFT over non-negative bins, per-bin
// power, total power. Degenerate input (NaN/Inf or zero variance) is
// rejected before the transform runs so it can never propagate into a
// reported metric.
func AnalyzeSpectrum(x []float64, sampleRate float64, t Transform) (Spectrum, error) {
	if t == nil {
		return Spectrum{}, ErrTransformRequired
	}
	if len(x) < minSpectrumSamples {
		return Spectrum{}, ErrShortWindow
	}

	mean, variance, finite := windowStats(x)
	if !finite || variance < varianceFloor {
		return Spectrum{}, ErrDegenerateSignal
	}

	// Remove DC and taper with a Hann window of matching length.
	n := len(x)
	windowed := make([]float64, n)
	hann := hannWindow(n)
	for i, v := range x {
		windowed[i] = (v - mean) * hann[i]
	}

	coeffs := t.Spectrum(windowed)

	spec := Spectrum{
		Freqs:      make([]float64, len(coeffs)),
		Magnitudes: make([]float64, len(coeffs)),
		Power:      make([]float64, len(coeffs)),
	}
	for i, c := range coeffs {
		mag := cmplx.Abs(c)
		spec.Freqs[i] = float64(i) * sampleRate / float64(n)
		spec.Magnitudes[i] = mag
		spec.Power[i] = mag * mag
	}
	spec.TotalPower = floats.Sum(spec.Power)

	return spec, nil
}

// hannWindow returns a symmetric Hann window of length n:
// w[i] = 0.5 - 0.5*cos(2πi/(n-1)). Endpoints are zero.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// windowStats returns the mean and population variance of x, and whether
// every element is finite.
func windowStats(x []float64) (mean, variance float64, finite bool) {
	if len(x) == 0 {
		return 0, 0, true
	}
	var sum float64
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, false
		}
		sum += v
	}
	mean = sum / float64(len(x))
	var sq float64
	for _, v := range x {
		d := v - mean
		sq += d * d
	}
	return mean, sq / float64(len(x)), true
}
