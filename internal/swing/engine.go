// internal/swing/engine.go
package swing

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/racketlab/swingsense/internal/dsp"
	"github.com/racketlab/swingsense/internal/imu"
)

var (
	// ErrInvalidCapacity indicates ring capacity must be positive
	ErrInvalidCapacity = errors.New("ring capacity must be positive")
	// ErrInvalidMinNewSamples indicates the reanalysis throttle must be positive
	ErrInvalidMinNewSamples = errors.New("min new samples must be positive")
	// ErrInvalidMinBuffer indicates the minimum analysis size must be positive and fit the capacity
	ErrInvalidMinBuffer = errors.New("min buffer samples must be positive and no larger than capacity")
	// ErrInvalidWindowSeconds indicates pre/post window seconds must be positive
	ErrInvalidWindowSeconds = errors.New("pre and post window seconds must be positive")
	// ErrInvalidSeparation indicates the minimum separation must be positive
	ErrInvalidSeparation = errors.New("min separation seconds must be positive")
	// ErrInvalidSearchRadius indicates the search radius must be positive
	ErrInvalidSearchRadius = errors.New("search radius seconds must be positive")
	// ErrInvalidThresholdMult indicates the derivative threshold multiplier must be positive
	ErrInvalidThresholdMult = errors.New("threshold multiplier must be positive")
	// ErrInvalidNominalRate indicates the nominal sample rate must be positive
	ErrInvalidNominalRate = errors.New("nominal sample rate must be positive")
	// ErrInvalidCalibration indicates a non-positive physical constant
	ErrInvalidCalibration = errors.New("calibration constant must be positive")
)

// Config holds the engine tuning, fixed at construction.
// All values should come from the application config file.
type Config struct {
	// Capacity is the ring buffer size in samples (from config: engine.capacity)
	Capacity int
	// MinNewSamples is the reanalysis throttle: a pass runs every this
	// many new samples (from config: engine.min_new_samples)
	MinNewSamples int
	// MinBufferSamples is the smallest buffer an analysis pass will
	// look at (from config: engine.min_buffer_samples)
	MinBufferSamples int
	// PreSeconds is the window span carved before the refined apex
	// (from config: engine.pre_seconds)
	PreSeconds float64
	// PostSeconds is the window span carved after the refined apex
	// (from config: engine.post_seconds)
	PostSeconds float64
	// MinSeparationSec spaces both stroke candidates and accepted
	// swings (from config: engine.min_separation_seconds)
	MinSeparationSec float64
	// SearchRadiusSec bounds the apex re-centering search
	// (from config: engine.search_radius_seconds)
	SearchRadiusSec float64
	// ThresholdMult scales the adaptive derivative threshold
	// (from config: engine.threshold_multiplier)
	ThresholdMult float64
	// RatioThreshold is the spectral power-ratio constant above which a
	// window counts as a real impact (from config: engine.power_ratio_threshold)
	RatioThreshold float64
	// NominalRate is the fallback sample rate in Hz
	// (from config: engine.nominal_sample_rate)
	NominalRate float64
}

// Calibration is the fixed physical-constants table. The values are
// calibrated against ground truth, never inferred at runtime.
type Calibration struct {
	// LeverArmM is the rotation-axis to racket-tip distance in m
	// (from config: calibration.lever_arm_m)
	LeverArmM float64
	// TipMassKg is the effective mass at the tip in kg (from config: calibration.tip_mass_kg)
	TipMassKg float64
	// RacketMassKg is the racket+sensor effective mass in kg (from config: calibration.racket_mass_kg)
	RacketMassKg float64
	// VelocityRatio relates outgoing shuttle speed to tip speed (from config: calibration.velocity_ratio)
	VelocityRatio float64
	// ShuttleMassKg is the shuttle mass in kg (from config: calibration.shuttle_mass_kg)
	ShuttleMassKg float64
	// ContactTimeS is the assumed shuttle contact duration in s (from config: calibration.contact_time_s)
	ContactTimeS float64
	// IncomingSpeedMS is the standardized incoming shuttle speed in m/s
	// (from config: calibration.incoming_speed_ms)
	IncomingSpeedMS float64
}

// gateState is the emission gate position.
type gateState int

const (
	// gateIdle means no recently accepted swing
	gateIdle gateState = iota
	// gateCooldown means within the minimum separation of the last
	// accepted swing; valid re-detections are dropped
	gateCooldown
)

func (s gateState) String() string {
	if s == gateCooldown {
		return "cooldown"
	}
	return "idle"
}

// Engine is the real-time swing detection pipeline: ring buffer,
// candidate detection, window refinement, spectral validation, metrics,
// emission gating. Single-threaded and run-to-completion: one Ingest
// call finishes all of its analysis before returning, and callers with
// more than one producer must serialize Ingest themselves. Nothing in
// the engine blocks or performs I/O.
type Engine struct {
	config Config
	cal    Calibration

	buf       *sampleBuffer
	validator *dsp.Validator

	// cursor is the logical ID of the last analyzed candidate sample
	cursor     uint64
	newSamples int

	// Emission gate state
	gate          gateState
	lastAcceptedT float64

	// Snapshot scratch, reused across passes
	timestamps []float64
	accelMag   []float64
	gyroMag    []float64
	micRMS     []float64

	// Counters for inspection
	sampleCount uint64
	swingCount  uint64
	lastRate    float64

	// Diagnostic sink, swappable while another goroutine ingests
	diagPtr atomic.Pointer[DiagnosticFunc]
}

// NewEngine creates a detection engine with the given tuning,
// calibration table, and spectral transform. Configuration problems are
// programmer errors and fail fast here; nothing later in the pipeline
// returns an error.
func NewEngine(cfg Config, cal Calibration, transform dsp.Transform) (*Engine, error) {
	if cfg.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if cfg.MinNewSamples <= 0 {
		return nil, ErrInvalidMinNewSamples
	}
	if cfg.MinBufferSamples <= 0 || cfg.MinBufferSamples > cfg.Capacity {
		return nil, ErrInvalidMinBuffer
	}
	if cfg.PreSeconds <= 0 || cfg.PostSeconds <= 0 {
		return nil, ErrInvalidWindowSeconds
	}
	if cfg.MinSeparationSec <= 0 {
		return nil, ErrInvalidSeparation
	}
	if cfg.SearchRadiusSec <= 0 {
		return nil, ErrInvalidSearchRadius
	}
	if cfg.ThresholdMult <= 0 {
		return nil, ErrInvalidThresholdMult
	}
	if cfg.NominalRate <= 0 {
		return nil, ErrInvalidNominalRate
	}
	if err := validateCalibration(cal); err != nil {
		return nil, err
	}

	validator, err := dsp.NewValidator(cfg.RatioThreshold, transform)
	if err != nil {
		return nil, err
	}

	return &Engine{
		config:     cfg,
		cal:        cal,
		buf:        newSampleBuffer(cfg.Capacity),
		validator:  validator,
		gate:       gateIdle,
		timestamps: make([]float64, 0, cfg.Capacity),
		accelMag:   make([]float64, 0, cfg.Capacity),
		gyroMag:    make([]float64, 0, cfg.Capacity),
		micRMS:     make([]float64, 0, cfg.Capacity),
		lastRate:   cfg.NominalRate,
	}, nil
}

func validateCalibration(cal Calibration) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"lever_arm_m", cal.LeverArmM},
		{"tip_mass_kg", cal.TipMassKg},
		{"racket_mass_kg", cal.RacketMassKg},
		{"velocity_ratio", cal.VelocityRatio},
		{"shuttle_mass_kg", cal.ShuttleMassKg},
		{"contact_time_s", cal.ContactTimeS},
		{"incoming_speed_ms", cal.IncomingSpeedMS},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidCalibration, f.name)
		}
	}
	return nil
}

// SetDiagnostics sets the sink for structured diagnostics.
// The sink is invoked from the ingest path - it must be fast and non-blocking.
func (e *Engine) SetDiagnostics(fn DiagnosticFunc) {
	if fn == nil {
		e.diagPtr.Store(nil)
	} else {
		e.diagPtr.Store(&fn)
	}
}

// Ingest appends one sample and, every MinNewSamples once the buffer
// holds MinBufferSamples, runs a full analysis pass. Returns the single
// newly accepted swing, or nil: "no swing at this instant" is the
// normal outcome, never an error. Ingestion is the trigger for
// analysis; there is no separate asynchronous path.
func (e *Engine) Ingest(s imu.Sample) *Event {
	e.buf.push(s)
	e.sampleCount++
	e.newSamples++

	if e.buf.len() < e.config.MinBufferSamples {
		return nil
	}
	if e.newSamples < e.config.MinNewSamples {
		return nil
	}
	e.newSamples = 0

	return e.analyze()
}

// analyze runs one pass over the current buffer contents.
func (e *Engine) analyze() *Event {
	e.snapshot()

	rate := imu.EstimateRate(e.timestamps, e.config.NominalRate)
	e.lastRate = rate

	first := e.buf.firstID()
	// Eviction may have overtaken the cursor; floor it at the oldest
	// live sample so it never references an evicted one.
	if e.cursor+1 < first {
		e.cursor = first - 1
	}

	candidates := dsp.FindCandidates(e.accelMag, rate, e.config.ThresholdMult, e.config.MinSeparationSec)
	for _, c := range candidates {
		id := first + uint64(c)
		if id <= e.cursor {
			continue
		}
		e.cursor = id

		win, ok := refineWindow(e.gyroMag, e.timestamps, c, rate, e.config)
		if !ok {
			continue
		}

		ratio, valid, err := e.validator.Validate(
			e.micRMS[win.start:win.end+1],
			e.gyroMag[win.start:win.end+1],
			rate,
		)
		if err != nil {
			if errors.Is(err, dsp.ErrDegenerateSignal) {
				e.diag(Diagnostic{
					Stage:    "validate",
					Reason:   "degenerate signal window",
					T:        win.impactT,
					SampleID: id,
				})
			}
			continue
		}
		if !valid {
			continue
		}

		ev := computeMetrics(win, e.accelMag, e.gyroMag, rate, ratio, valid, e.cal)
		if !e.admit(&ev, id) {
			continue
		}

		e.swingCount++
		return &ev
	}
	return nil
}

// admit is the duplicate suppressor. Acceptance is keyed to the time
// since the last ACCEPTED swing, so a run of re-detections of one
// physical swing cannot extend the cooldown indefinitely.
func (e *Engine) admit(ev *Event, id uint64) bool {
	if e.gate == gateCooldown && ev.T-e.lastAcceptedT >= e.config.MinSeparationSec {
		e.gate = gateIdle
	}
	if e.gate == gateCooldown {
		e.diag(Diagnostic{
			Stage:    "gate",
			Reason:   "within cooldown of last accepted swing",
			T:        ev.T,
			SampleID: id,
		})
		return false
	}

	e.gate = gateCooldown
	e.lastAcceptedT = ev.T
	return true
}

// snapshot copies the live buffer into the per-channel scratch series.
func (e *Engine) snapshot() {
	n := e.buf.len()
	e.timestamps = e.timestamps[:0]
	e.accelMag = e.accelMag[:0]
	e.gyroMag = e.gyroMag[:0]
	e.micRMS = e.micRMS[:0]
	for i := 0; i < n; i++ {
		s := e.buf.at(i)
		e.timestamps = append(e.timestamps, s.T)
		e.accelMag = append(e.accelMag, s.AccelMagnitude())
		e.gyroMag = append(e.gyroMag, s.GyroMagnitude())
		e.micRMS = append(e.micRMS, s.MicRMS)
	}
}

func (e *Engine) diag(d Diagnostic) {
	fnPtr := e.diagPtr.Load()
	if fnPtr != nil {
		(*fnPtr)(d)
	}
}

// Reset clears all pipeline state. Logical sample IDs keep counting
// upward so a cursor from before the reset can never alias new data.
func (e *Engine) Reset() {
	e.buf.reset()
	e.cursor = 0
	e.newSamples = 0
	e.gate = gateIdle
	e.lastAcceptedT = 0
	e.sampleCount = 0
	e.swingCount = 0
	e.lastRate = e.config.NominalRate
}

// SampleCount returns the number of samples ingested since construction
// or the last Reset.
func (e *Engine) SampleCount() uint64 {
	return e.sampleCount
}

// SwingCount returns the number of accepted swings.
func (e *Engine) SwingCount() uint64 {
	return e.swingCount
}

// Rate returns the most recent sample-rate estimate in Hz.
func (e *Engine) Rate() float64 {
	return e.lastRate
}

// GateState returns the emission gate position ("idle" or "cooldown")
// for inspection.
func (e *Engine) GateState() string {
	return e.gate.String()
}

// Config returns the engine tuning (for testing and inspection).
func (e *Engine) Config() Config {
	return e.config
}

// Calibration returns the physical-constants table.
func (e *Engine) Calibration() Calibration {
	return e.cal
}
