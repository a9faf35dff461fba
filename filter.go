package fusion

import (
	"log"

	"github.com/pkg/errors"
)

// Outcome says what a measurement did to the filter.
type Outcome int

const (
	// Initialized means the measurement seeded the state.
	Initialized Outcome = iota + 1
	// Updated means a predict and update cycle ran.
	Updated
	// Skipped means the sensor is disabled and the state is unchanged.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Initialized:
		return "initialized"
	case Updated:
		return "updated"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// State is everything the filter carries from one measurement to the next.
type State struct {
	X           Matrix // (5, 1) px, py, v, yaw, yaw_rate
	P           Matrix // (5, 5)
	TimestampUs int64
	Initialized bool
	NISLidar    float64
	NISRadar    float64
}

// Copy returns a State that shares no storage with s.
func (s State) Copy() State {
	out := s
	if s.Initialized {
		out.X = s.X.Copy()
		out.P = s.P.Copy()
	}
	return out
}

// NIS returns the most recent NIS value for a sensor kind.
func (s State) NIS(kind SensorKind) float64 {
	if kind == Radar {
		return s.NISRadar
	}
	return s.NISLidar
}

// Step applies one measurement to s and returns the new state. s is never
// modified, so on error the caller still holds the last good state.
func Step(cfg *Config, s State, m MeasurementPackage) (State, Outcome, error) {
	if err := m.Validate(); err != nil {
		return s, 0, err
	}
	model, err := cfg.Model(m.Sensor)
	if err != nil {
		return s, 0, err
	}

	if !s.Initialized {
		x, P := model.Initialize(m.Vector())
		return State{
			X:           x,
			P:           P,
			TimestampUs: m.Timestamp,
			Initialized: true,
		}, Initialized, nil
	}

	if m.Timestamp < s.TimestampUs {
		return s, 0, errors.Wrapf(ErrOutOfOrder, "%d < %d", m.Timestamp, s.TimestampUs)
	}
	if !cfg.Enabled(m.Sensor) {
		return s, Skipped, nil
	}

	dt := float64(m.Timestamp-s.TimestampUs) / 1000000.0

	pred, err := Predict(s.X, addRidge(s.P, cfg.GetCovarianceRidge()), dt, cfg.ProcessNoise())
	if err != nil {
		return s, 0, errors.Wrapf(err, "predict t=%d", m.Timestamp)
	}
	post, err := Update(pred, model, m.Vector())
	if err != nil {
		return s, 0, errors.Wrapf(err, "update t=%d", m.Timestamp)
	}

	next := State{
		X:           post.X,
		P:           post.P,
		TimestampUs: m.Timestamp,
		Initialized: true,
		NISLidar:    s.NISLidar,
		NISRadar:    s.NISRadar,
	}
	if m.Sensor == Radar {
		next.NISRadar = post.NIS
	} else {
		next.NISLidar = post.NIS
	}
	return next, Updated, nil
}

// UnscentedKalmanFilter tracks a single object from lidar and radar
// measurements delivered in timestamp order. It is not safe for concurrent
// use.
type UnscentedKalmanFilter struct {
	cfg     *Config
	state   State
	logger  *log.Logger
	monitor *NISMonitor
}

type Option func(*UnscentedKalmanFilter)

// WithLogger logs initialization, skipped measurements and rejected cycles.
func WithLogger(l *log.Logger) Option {
	return func(kf *UnscentedKalmanFilter) { kf.logger = l }
}

// WithNISMonitor records every NIS value produced by an update.
func WithNISMonitor(m *NISMonitor) Option {
	return func(kf *UnscentedKalmanFilter) { kf.monitor = m }
}

// NewUnscentedKalmanFilter returns an uninitialized filter. A nil cfg uses
// the defaults.
func NewUnscentedKalmanFilter(cfg *Config, opts ...Option) *UnscentedKalmanFilter {
	if cfg == nil {
		cfg = EmptyConfig()
	}
	kf := &UnscentedKalmanFilter{cfg: cfg}
	for _, opt := range opts {
		opt(kf)
	}
	return kf
}

func (kf *UnscentedKalmanFilter) logf(format string, args ...interface{}) {
	if kf.logger != nil {
		kf.logger.Printf(format, args...)
	}
}

// ProcessMeasurement runs one filter cycle. The state is replaced only when
// the cycle succeeds.
func (kf *UnscentedKalmanFilter) ProcessMeasurement(m MeasurementPackage) (Outcome, error) {
	next, outcome, err := Step(kf.cfg, kf.state, m)
	if err != nil {
		kf.logf("ukf: rejected %v measurement at %d: %v", m.Sensor, m.Timestamp, err)
		return outcome, err
	}

	switch outcome {
	case Initialized:
		kf.logf("ukf: initialized from %v at %d: x=%v", m.Sensor, m.Timestamp, Values(next.X))
	case Skipped:
		kf.logf("ukf: skipped %v measurement at %d: sensor disabled", m.Sensor, m.Timestamp)
	case Updated:
		if kf.monitor != nil {
			kf.monitor.Observe(m.Sensor, next.NIS(m.Sensor))
		}
	}

	kf.state = next
	return outcome, nil
}

// State returns a copy of the current estimate.
func (kf *UnscentedKalmanFilter) State() State {
	return kf.state.Copy()
}

// Reset discards the estimate; the next measurement initializes again.
func (kf *UnscentedKalmanFilter) Reset() {
	kf.state = State{}
}
