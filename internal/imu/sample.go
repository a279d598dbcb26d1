// internal/imu/sample.go
package imu

import "math"

// Sample is one multi-channel reading from the racket-mounted sensor.
// Acceleration is in g, angular rate in deg/s, MicRMS is the raw RMS
// scalar computed on the sensor. Samples are immutable once produced;
// the JSON tags define the transport payload.
type Sample struct {
	// T is the sample timestamp in seconds (monotonic, non-decreasing)
	T float64 `json:"t"`
	// AccelX/Y/Z is acceleration in g
	AccelX float64 `json:"ax"`
	AccelY float64 `json:"ay"`
	AccelZ float64 `json:"az"`
	// GyroX/Y/Z is angular rate in deg/s
	GyroX float64 `json:"gx"`
	GyroY float64 `json:"gy"`
	GyroZ float64 `json:"gz"`
	// MicRMS is the microphone RMS level (raw scalar, sensor units)
	MicRMS float64 `json:"mic"`
}

// AccelMagnitude returns the Euclidean norm of the acceleration vector in g.
func (s Sample) AccelMagnitude() float64 {
	return math.Sqrt(s.AccelX*s.AccelX + s.AccelY*s.AccelY + s.AccelZ*s.AccelZ)
}

// GyroMagnitude returns the Euclidean norm of the angular-rate vector in deg/s.
func (s Sample) GyroMagnitude() float64 {
	return math.Sqrt(s.GyroX*s.GyroX + s.GyroY*s.GyroY + s.GyroZ*s.GyroZ)
}

// EstimateRate derives the effective sample rate in Hz from a timestamp
// series: (count-1) / (t_last - t_first). Falls back to nominal when the
// series is too short or its duration is not positive, so jittery or
// degenerate timing never produces a zero or negative rate.
func EstimateRate(timestamps []float64, nominal float64) float64 {
	if len(timestamps) < 2 {
		return nominal
	}
	duration := timestamps[len(timestamps)-1] - timestamps[0]
	if duration <= 0 {
		return nominal
	}
	return float64(len(timestamps)-1) / duration
}
