// internal/swing/event.go
package swing

// Event is one validated swing with its physical metrics. It is the
// engine's only durable output: created once at emission, immutable
// thereafter, handed to the caller by value. ID is empty until the
// persistence/streaming edge assigns one.
type Event struct {
	// ID is assigned outside the engine (persistence/stream edge)
	ID string `json:"id,omitempty"`
	// T is the impact timestamp in seconds (sample clock)
	T float64 `json:"t"`
	// PeakAngularVelocity is the peak gyro magnitude in rad/s
	PeakAngularVelocity float64 `json:"peak_angular_velocity"`
	// PeakTipSpeed is the racket-head speed in m/s
	PeakTipSpeed float64 `json:"peak_tip_speed"`
	// PeakAcceleration is the gravity-compensated peak in m/s²
	PeakAcceleration float64 `json:"peak_accel"`
	// ImpactForce is the force at the effective tip mass in N
	ImpactForce float64 `json:"impact_force"`
	// SwingSideForce is the force on the racket+sensor mass in N
	SwingSideForce float64 `json:"swing_side_force"`
	// ShuttleForceActual uses the outgoing shuttle speed alone
	ShuttleForceActual float64 `json:"shuttle_force_actual"`
	// ShuttleForceStd adds the assumed incoming speed, comparable
	// across sessions with different feed pace
	ShuttleForceStd float64 `json:"shuttle_force_std"`
	// DurationMs is the analysis window length in milliseconds
	DurationMs float64 `json:"duration_ms"`
	// ValidationRatio is the mic/gyro spectral power ratio
	ValidationRatio float64 `json:"validation_ratio"`
	// Valid reports whether the ratio cleared the impact threshold
	Valid bool `json:"valid"`
}

// Diagnostic is a structured note from inside the detection path. The
// engine never logs; it hands these to the injected sink instead.
type Diagnostic struct {
	// Stage names the pipeline stage that produced the note
	Stage string
	// Reason is a short human-readable cause
	Reason string
	// T is the sample-clock time the note refers to
	T float64
	// SampleID is the logical sample the note refers to (0 if none)
	SampleID uint64
}

// DiagnosticFunc receives diagnostics from the engine.
// Must be non-blocking and fast - called from the ingest path.
type DiagnosticFunc func(d Diagnostic)
