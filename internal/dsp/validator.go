// internal/dsp/validator.go
package dsp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRatioThreshold indicates the power-ratio threshold must be positive
	ErrInvalidRatioThreshold = errors.New("power ratio threshold must be positive")
)

// epsilonPower keeps the power ratio finite when the gyro window carries
// essentially no energy.
const epsilonPower = 1e-9

// Validator classifies an analysis window as a genuine impact or a
// non-impact (practice swing, noise) from the ratio of acoustic to
// rotational spectral energy. A real shuttle impact produces a sharp
// broadband transient on the microphone channel that is disproportionate
// to the smoother gyro motion energy; a practice swing lacks that spike.
type Validator struct {
	threshold float64
	transform Transform
}

// NewValidator creates a spectral validator. The threshold is the fixed
// power-ratio constant above which a window counts as a real impact.
func NewValidator(threshold float64, transform Transform) (*Validator, error) {
	if transform == nil {
		return nil, ErrTransformRequired
	}
	if threshold <= 0 {
		return nil, ErrInvalidRatioThreshold
	}
	return &Validator{threshold: threshold, transform: transform}, nil
}

// Validate computes the mic/gyro spectral power ratio over the two
// channel windows and classifies the window. Both channels run through
// the identical analysis path, so the Transform's normalization cancels
// in the ratio. Short or degenerate windows return an error with a zero
// ratio; the caller treats those as "not a swing", never as fatal.
func (v *Validator) Validate(micWindow, gyroWindow []float64, sampleRate float64) (ratio float64, valid bool, err error) {
	mic, err := AnalyzeSpectrum(micWindow, sampleRate, v.transform)
	if err != nil {
		return 0, false, fmt.Errorf("mic channel: %w", err)
	}
	gyro, err := AnalyzeSpectrum(gyroWindow, sampleRate, v.transform)
	if err != nil {
		return 0, false, fmt.Errorf("gyro channel: %w", err)
	}

	ratio = mic.TotalPower / (gyro.TotalPower + epsilonPower)
	return ratio, ratio > v.threshold, nil
}

// Threshold returns the configured power-ratio threshold (for testing
// and inspection).
func (v *Validator) Threshold() float64 {
	return v.threshold
}
