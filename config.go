package fusion

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Config holds the filter tuning. Fields left nil fall back to the defaults
// returned by the Get* accessors, so partial JSON files are safe. Sensor
// noise is not configurable; see the StdLaser* and StdRadar* constants.
type Config struct {
	// Process noise
	StdA     *float64 `json:"std_a,omitempty"`     // longitudinal acceleration, m/s^2
	StdYawDD *float64 `json:"std_yawdd,omitempty"` // yaw acceleration, rad/s^2

	// Sensor gating. A disabled sensor still initializes the filter.
	UseLaser *bool `json:"use_laser,omitempty"`
	UseRadar *bool `json:"use_radar,omitempty"`

	// RadarInitMode is "reference" or "polar".
	RadarInitMode *string `json:"radar_init_mode,omitempty"`

	// CovarianceRidge is added to the diagonal of P before prediction.
	CovarianceRidge *float64 `json:"covariance_ridge,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptyConfig returns a Config with all fields nil.
func EmptyConfig() *Config {
	return &Config{}
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() *Config {
	return &Config{
		StdA:            ptrFloat64(3.0),
		StdYawDD:        ptrFloat64(0.8),
		UseLaser:        ptrBool(true),
		UseRadar:        ptrBool(true),
		RadarInitMode:   ptrString(string(RadarInitReference)),
		CovarianceRidge: ptrFloat64(0),
	}
}

// LoadConfig reads a Config from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, errors.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat config file")
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, errors.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config JSON")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.StdA != nil && *c.StdA <= 0 {
		return errors.Errorf("std_a must be positive, got %f", *c.StdA)
	}
	if c.StdYawDD != nil && *c.StdYawDD <= 0 {
		return errors.Errorf("std_yawdd must be positive, got %f", *c.StdYawDD)
	}
	if c.RadarInitMode != nil {
		switch RadarInitMode(*c.RadarInitMode) {
		case RadarInitReference, RadarInitPolar:
		default:
			return errors.Errorf("radar_init_mode must be %q or %q, got %q",
				RadarInitReference, RadarInitPolar, *c.RadarInitMode)
		}
	}
	if c.CovarianceRidge != nil && *c.CovarianceRidge < 0 {
		return errors.Errorf("covariance_ridge must be non-negative, got %f", *c.CovarianceRidge)
	}
	return nil
}

// GetStdA returns the std_a value or the default.
func (c *Config) GetStdA() float64 {
	if c.StdA == nil {
		return 3.0
	}
	return *c.StdA
}

// GetStdYawDD returns the std_yawdd value or the default.
func (c *Config) GetStdYawDD() float64 {
	if c.StdYawDD == nil {
		return 0.8
	}
	return *c.StdYawDD
}

// GetUseLaser returns the use_laser value or the default.
func (c *Config) GetUseLaser() bool {
	if c.UseLaser == nil {
		return true
	}
	return *c.UseLaser
}

// GetUseRadar returns the use_radar value or the default.
func (c *Config) GetUseRadar() bool {
	if c.UseRadar == nil {
		return true
	}
	return *c.UseRadar
}

// GetRadarInitMode returns the radar_init_mode value or the default.
func (c *Config) GetRadarInitMode() RadarInitMode {
	if c.RadarInitMode == nil || *c.RadarInitMode == "" {
		return RadarInitReference
	}
	return RadarInitMode(*c.RadarInitMode)
}

// GetCovarianceRidge returns the covariance_ridge value or the default.
func (c *Config) GetCovarianceRidge() float64 {
	if c.CovarianceRidge == nil {
		return 0
	}
	return *c.CovarianceRidge
}

// ProcessNoise returns the configured process noise.
func (c *Config) ProcessNoise() ProcessNoise {
	return ProcessNoise{StdA: c.GetStdA(), StdYawDD: c.GetStdYawDD()}
}

// Model returns the measurement model for a sensor kind.
func (c *Config) Model(kind SensorKind) (MeasurementModel, error) {
	switch kind {
	case Lidar:
		return NewLidarModel(), nil
	case Radar:
		r := NewRadarModel()
		r.InitMode = c.GetRadarInitMode()
		return r, nil
	default:
		return nil, errors.Wrapf(ErrUnknownSensor, "%v", kind)
	}
}

// Enabled reports whether updates from a sensor kind are applied.
func (c *Config) Enabled(kind SensorKind) bool {
	switch kind {
	case Lidar:
		return c.GetUseLaser()
	case Radar:
		return c.GetUseRadar()
	default:
		return false
	}
}
