// internal/swing/metrics.go
package swing

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// gravityMS2 converts acceleration from g to m/s²
	gravityMS2 = 9.81
	// degToRad converts angular rate from deg/s to rad/s
	degToRad = math.Pi / 180.0
)

// computeMetrics converts a refined window into physical quantities
// using the fixed calibration table. Deterministic: identical windows
// produce identical events. The angular-rate peak drives the speed
// chain (tip speed, outgoing shuttle speed, shuttle-side forces); the
// gravity-compensated acceleration peak drives the force chain on the
// racket side.
func computeMetrics(win analysisWindow, accelMag, gyroMag []float64, rate, ratio float64, valid bool, cal Calibration) Event {
	gyroWin := gyroMag[win.start : win.end+1]
	accelWin := accelMag[win.start : win.end+1]

	peakGyroRad := floats.Max(gyroWin) * degToRad

	// Peak acceleration relative to the window mean, so the static 1 g
	// baseline never counts as impact.
	meanAccel := floats.Sum(accelWin) / float64(len(accelWin))
	var peakDev float64
	for _, v := range accelWin {
		d := math.Abs(v - meanAccel)
		if d > peakDev {
			peakDev = d
		}
	}
	peakAccel := peakDev * gravityMS2

	tipSpeed := peakGyroRad * cal.LeverArmM
	outgoing := cal.VelocityRatio * tipSpeed

	return Event{
		T:                   win.impactT,
		PeakAngularVelocity: peakGyroRad,
		PeakTipSpeed:        tipSpeed,
		PeakAcceleration:    peakAccel,
		ImpactForce:         cal.TipMassKg * peakAccel,
		SwingSideForce:      cal.RacketMassKg * peakAccel,
		ShuttleForceActual:  cal.ShuttleMassKg * outgoing / cal.ContactTimeS,
		ShuttleForceStd:     cal.ShuttleMassKg * (outgoing + cal.IncomingSpeedMS) / cal.ContactTimeS,
		DurationMs:          float64(win.length()) / rate * 1000.0,
		ValidationRatio:     ratio,
		Valid:               valid,
	}
}
