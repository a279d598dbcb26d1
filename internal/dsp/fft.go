// internal/dsp/fft.go
package dsp

import "gonum.org/v1/gonum/dsp/fourier"

// Transform computes the frequency-domain coefficients of a real signal.
// Spectrum returns the coefficients for the non-negative frequency bins
// (len(x)/2 + 1 of them). Implementations may use any normalization
// convention: the validator only ever compares powers produced by the
// same Transform, so the convention cancels out of the ratio.
type Transform interface {
	Spectrum(x []float64) []complex128
}

// FFTTransform is the production Transform, backed by gonum's real FFT.
// Plans are cached per window length. Not safe for concurrent use; the
// engine drives it from a single goroutine.
type FFTTransform struct {
	plans map[int]*fourier.FFT
}

// NewFFTTransform creates an FFT-backed Transform with an empty plan cache.
func NewFFTTransform() *FFTTransform {
	return &FFTTransform{plans: make(map[int]*fourier.FFT)}
}

// Spectrum computes the non-negative frequency coefficients of x.
func (t *FFTTransform) Spectrum(x []float64) []complex128 {
	n := len(x)
	plan, ok := t.plans[n]
	if !ok {
		plan = fourier.NewFFT(n)
		t.plans[n] = plan
	}
	return plan.Coefficients(nil, x)
}
