// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/racketlab/swingsense/internal/swing"
)

const (
	AppName       = "swingsense"
	ConfigType    = "yaml"
	DefaultConfig = `# SwingSense Configuration

# Detection engine tuning
engine:
  capacity: 1000                # Ring buffer size in samples (~10s at 100 Hz)
  min_new_samples: 25           # Reanalysis throttle: run a pass every N new samples
  min_buffer_samples: 50        # Smallest buffer an analysis pass will look at
  pre_seconds: 0.15             # Window span carved before the refined apex
  post_seconds: 0.25            # Window span carved after the refined apex
  min_separation_seconds: 0.5   # Minimum spacing between swings
  search_radius_seconds: 0.10   # Apex re-centering search radius
  threshold_multiplier: 1.0     # Adaptive derivative threshold scale (mean + k*stddev)
  power_ratio_threshold: 0.5    # Mic/gyro spectral power ratio above which a window is an impact
  nominal_sample_rate: 100      # Fallback sample rate in Hz when timestamps are unusable

# Physical constants, calibrated against ground truth
calibration:
  lever_arm_m: 0.39             # Rotation axis to racket tip distance in m
  tip_mass_kg: 0.15             # Effective mass at the racket tip
  racket_mass_kg: 0.095         # Racket + sensor effective mass
  velocity_ratio: 1.5           # Outgoing shuttle speed relative to tip speed
  shuttle_mass_kg: 0.0053       # Shuttle mass
  contact_time_s: 0.002         # Assumed shuttle contact duration
  incoming_speed_ms: 15.0       # Standardized incoming shuttle speed

# Sample sources
mqtt:
  broker: "tcp://localhost:1883"
  topic: "swingsense/samples"
  client_id: "swingsense"
serial:
  port: "/dev/ttyUSB0"          # Sensor serial port (use 'ls /dev/ttyUSB*' to find)
  baud_rate: 115200

# Persistence
store:
  path: "swingsense.db"         # SQLite database file

# HTTP and WebSocket API
api:
  listen: ":8787"

# Output
debug: false                    # Enable debug output
`
)

// EngineSettings is the detection engine tuning block.
type EngineSettings struct {
	Capacity             int     `mapstructure:"capacity"`
	MinNewSamples        int     `mapstructure:"min_new_samples"`
	MinBufferSamples     int     `mapstructure:"min_buffer_samples"`
	PreSeconds           float64 `mapstructure:"pre_seconds"`
	PostSeconds          float64 `mapstructure:"post_seconds"`
	MinSeparationSeconds float64 `mapstructure:"min_separation_seconds"`
	SearchRadiusSeconds  float64 `mapstructure:"search_radius_seconds"`
	ThresholdMultiplier  float64 `mapstructure:"threshold_multiplier"`
	PowerRatioThreshold  float64 `mapstructure:"power_ratio_threshold"`
	NominalSampleRate    float64 `mapstructure:"nominal_sample_rate"`
}

// CalibrationSettings is the physical-constants block.
type CalibrationSettings struct {
	LeverArmM       float64 `mapstructure:"lever_arm_m"`
	TipMassKg       float64 `mapstructure:"tip_mass_kg"`
	RacketMassKg    float64 `mapstructure:"racket_mass_kg"`
	VelocityRatio   float64 `mapstructure:"velocity_ratio"`
	ShuttleMassKg   float64 `mapstructure:"shuttle_mass_kg"`
	ContactTimeS    float64 `mapstructure:"contact_time_s"`
	IncomingSpeedMS float64 `mapstructure:"incoming_speed_ms"`
}

// MQTTSettings is the MQTT sample-source block.
type MQTTSettings struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

// SerialSettings is the serial sample-source block.
type SerialSettings struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
}

// StoreSettings is the persistence block.
type StoreSettings struct {
	Path string `mapstructure:"path"`
}

// APISettings is the HTTP/WebSocket block.
type APISettings struct {
	Listen string `mapstructure:"listen"`
}

// Settings holds all application configuration
type Settings struct {
	Engine      EngineSettings      `mapstructure:"engine"`
	Calibration CalibrationSettings `mapstructure:"calibration"`
	MQTT        MQTTSettings        `mapstructure:"mqtt"`
	Serial      SerialSettings      `mapstructure:"serial"`
	Store       StoreSettings       `mapstructure:"store"`
	API         APISettings         `mapstructure:"api"`
	Debug       bool                `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/swingsense/
func Init() error {
	// Set defaults
	viper.SetDefault("engine.capacity", 1000)
	viper.SetDefault("engine.min_new_samples", 25)
	viper.SetDefault("engine.min_buffer_samples", 50)
	viper.SetDefault("engine.pre_seconds", 0.15)
	viper.SetDefault("engine.post_seconds", 0.25)
	viper.SetDefault("engine.min_separation_seconds", 0.5)
	viper.SetDefault("engine.search_radius_seconds", 0.10)
	viper.SetDefault("engine.threshold_multiplier", 1.0)
	viper.SetDefault("engine.power_ratio_threshold", 0.5)
	viper.SetDefault("engine.nominal_sample_rate", 100)
	viper.SetDefault("calibration.lever_arm_m", 0.39)
	viper.SetDefault("calibration.tip_mass_kg", 0.15)
	viper.SetDefault("calibration.racket_mass_kg", 0.095)
	viper.SetDefault("calibration.velocity_ratio", 1.5)
	viper.SetDefault("calibration.shuttle_mass_kg", 0.0053)
	viper.SetDefault("calibration.contact_time_s", 0.002)
	viper.SetDefault("calibration.incoming_speed_ms", 15.0)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "swingsense/samples")
	viper.SetDefault("mqtt.client_id", "swingsense")
	viper.SetDefault("serial.port", "/dev/ttyUSB0")
	viper.SetDefault("serial.baud_rate", 115200)
	viper.SetDefault("store.path", "swingsense.db")
	viper.SetDefault("api.listen", ":8787")
	viper.SetDefault("debug", false)

	// Support both config.yaml and .config.yaml
	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		// Try config.yaml as fallback
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	// Read config file - if not found, create default in XDG config dir
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config found - create default in ~/.config/swingsense/
			xdgConfigPath := filepath.Join(configDir, AppName)
			if err = ensureConfigExists(xdgConfigPath); err != nil {
				return err
			}
			// Read the newly created config
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// EngineConfig maps the engine block onto the detection engine tuning.
func (s *Settings) EngineConfig() swing.Config {
	return swing.Config{
		Capacity:         s.Engine.Capacity,
		MinNewSamples:    s.Engine.MinNewSamples,
		MinBufferSamples: s.Engine.MinBufferSamples,
		PreSeconds:       s.Engine.PreSeconds,
		PostSeconds:      s.Engine.PostSeconds,
		MinSeparationSec: s.Engine.MinSeparationSeconds,
		SearchRadiusSec:  s.Engine.SearchRadiusSeconds,
		ThresholdMult:    s.Engine.ThresholdMultiplier,
		RatioThreshold:   s.Engine.PowerRatioThreshold,
		NominalRate:      s.Engine.NominalSampleRate,
	}
}

// CalibrationTable maps the calibration block onto the engine's
// physical-constants table.
func (s *Settings) CalibrationTable() swing.Calibration {
	return swing.Calibration{
		LeverArmM:       s.Calibration.LeverArmM,
		TipMassKg:       s.Calibration.TipMassKg,
		RacketMassKg:    s.Calibration.RacketMassKg,
		VelocityRatio:   s.Calibration.VelocityRatio,
		ShuttleMassKg:   s.Calibration.ShuttleMassKg,
		ContactTimeS:    s.Calibration.ContactTimeS,
		IncomingSpeedMS: s.Calibration.IncomingSpeedMS,
	}
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Engine tuning
	if s.Engine.Capacity < 100 || s.Engine.Capacity > 100000 {
		errs = append(errs, fmt.Errorf("engine.capacity must be between 100 and 100000 samples, got %d", s.Engine.Capacity))
	}
	if s.Engine.MinNewSamples < 1 || s.Engine.MinNewSamples > s.Engine.Capacity {
		errs = append(errs, fmt.Errorf("engine.min_new_samples must be between 1 and engine.capacity, got %d", s.Engine.MinNewSamples))
	}
	if s.Engine.MinBufferSamples < 10 || s.Engine.MinBufferSamples > s.Engine.Capacity {
		errs = append(errs, fmt.Errorf("engine.min_buffer_samples must be between 10 and engine.capacity, got %d", s.Engine.MinBufferSamples))
	}
	if s.Engine.PreSeconds <= 0 || s.Engine.PreSeconds > 5 {
		errs = append(errs, fmt.Errorf("engine.pre_seconds must be between 0 and 5, got %v", s.Engine.PreSeconds))
	}
	if s.Engine.PostSeconds <= 0 || s.Engine.PostSeconds > 5 {
		errs = append(errs, fmt.Errorf("engine.post_seconds must be between 0 and 5, got %v", s.Engine.PostSeconds))
	}
	if s.Engine.MinSeparationSeconds < 0.05 || s.Engine.MinSeparationSeconds > 10 {
		errs = append(errs, fmt.Errorf("engine.min_separation_seconds must be between 0.05 and 10, got %v", s.Engine.MinSeparationSeconds))
	}
	if s.Engine.SearchRadiusSeconds <= 0 || s.Engine.SearchRadiusSeconds > 2 {
		errs = append(errs, fmt.Errorf("engine.search_radius_seconds must be between 0 and 2, got %v", s.Engine.SearchRadiusSeconds))
	}
	if s.Engine.ThresholdMultiplier <= 0 || s.Engine.ThresholdMultiplier > 10 {
		errs = append(errs, fmt.Errorf("engine.threshold_multiplier must be between 0 and 10, got %v", s.Engine.ThresholdMultiplier))
	}
	if s.Engine.PowerRatioThreshold <= 0 {
		errs = append(errs, fmt.Errorf("engine.power_ratio_threshold must be positive, got %v", s.Engine.PowerRatioThreshold))
	}
	if s.Engine.NominalSampleRate < 10 || s.Engine.NominalSampleRate > 10000 {
		errs = append(errs, fmt.Errorf("engine.nominal_sample_rate must be between 10 and 10000 Hz, got %v", s.Engine.NominalSampleRate))
	}

	// The full analysis window must fit the ring at the nominal rate
	windowSamples := int((s.Engine.PreSeconds + s.Engine.PostSeconds) * s.Engine.NominalSampleRate)
	if windowSamples > s.Engine.Capacity {
		errs = append(errs, fmt.Errorf("analysis window (%d samples at nominal rate) exceeds engine.capacity (%d)", windowSamples, s.Engine.Capacity))
	}

	// Calibration constants are all strictly positive physical values
	calFields := []struct {
		name  string
		value float64
	}{
		{"calibration.lever_arm_m", s.Calibration.LeverArmM},
		{"calibration.tip_mass_kg", s.Calibration.TipMassKg},
		{"calibration.racket_mass_kg", s.Calibration.RacketMassKg},
		{"calibration.velocity_ratio", s.Calibration.VelocityRatio},
		{"calibration.shuttle_mass_kg", s.Calibration.ShuttleMassKg},
		{"calibration.contact_time_s", s.Calibration.ContactTimeS},
		{"calibration.incoming_speed_ms", s.Calibration.IncomingSpeedMS},
	}
	for _, f := range calFields {
		if f.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", f.name, f.value))
		}
	}

	// Sources
	if s.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker must not be empty"))
	}
	if s.MQTT.Topic == "" {
		errs = append(errs, errors.New("mqtt.topic must not be empty"))
	}
	if s.MQTT.ClientID == "" {
		errs = append(errs, errors.New("mqtt.client_id must not be empty"))
	}
	if s.Serial.Port == "" {
		errs = append(errs, errors.New("serial.port must not be empty"))
	}
	validBauds := map[int]bool{
		9600:   true,
		19200:  true,
		38400:  true,
		57600:  true,
		115200: true,
		230400: true,
		460800: true,
		921600: true,
	}
	if !validBauds[s.Serial.BaudRate] {
		errs = append(errs, fmt.Errorf("serial.baud_rate must be a standard rate (9600..921600), got %d", s.Serial.BaudRate))
	}

	// Persistence and API
	if s.Store.Path == "" {
		errs = append(errs, errors.New("store.path must not be empty"))
	}
	if s.API.Listen == "" {
		errs = append(errs, errors.New("api.listen must not be empty"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
