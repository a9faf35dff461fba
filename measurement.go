package fusion

import (
	"fmt"
	"math"

	mat "github.com/mrfyo/matrix"
	"github.com/pkg/errors"
)

// Sensor noise standard deviations, as provided by the sensor manufacturer.
const (
	StdLaserPx = 0.15 // m
	StdLaserPy = 0.15 // m

	StdRadarRho    = 0.3  // m
	StdRadarPhi    = 0.03 // rad
	StdRadarRhoDot = 0.3  // m/s
)

// MinRange is the smallest radar range a sigma point may project to.
const MinRange = 1e-6

type SensorKind int

const (
	Lidar SensorKind = iota
	Radar
)

func (k SensorKind) String() string {
	switch k {
	case Lidar:
		return "lidar"
	case Radar:
		return "radar"
	default:
		return fmt.Sprintf("SensorKind(%d)", int(k))
	}
}

// Dim is the size of the raw measurement for the sensor kind.
func (k SensorKind) Dim() int {
	switch k {
	case Lidar:
		return LidarDim
	case Radar:
		return RadarDim
	default:
		return 0
	}
}

// MeasurementPackage is a single timestamped sensor reading. Raw holds
// (px, py) for lidar and (rho, phi, rho_dot) for radar.
type MeasurementPackage struct {
	Sensor    SensorKind
	Timestamp int64 // microseconds
	Raw       []float64
}

// Validate checks the sensor kind and the raw vector.
func (m MeasurementPackage) Validate() error {
	dim := m.Sensor.Dim()
	if dim == 0 {
		return errors.Wrapf(ErrUnknownSensor, "%v", m.Sensor)
	}
	if len(m.Raw) != dim {
		return errors.Wrapf(ErrBadMeasurement, "%v measurement has %d values, want %d", m.Sensor, len(m.Raw), dim)
	}
	for i, v := range m.Raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrBadMeasurement, "%v value %d is %v", m.Sensor, i, v)
		}
	}
	return nil
}

// Vector returns Raw as a column.
func (m MeasurementPackage) Vector() Matrix {
	return NewVector(m.Raw...)
}

// MeasurementModel projects predicted state sigma points into the space of
// one sensor.
type MeasurementModel interface {
	Kind() SensorKind
	Dim() int
	// Project maps a (5, 1) state into a (Dim, 1) measurement.
	Project(state Matrix) (Matrix, error)
	// Residual returns a - b with angular components wrapped.
	Residual(a, b Matrix) Matrix
	// Noise returns the (Dim, Dim) measurement noise covariance R.
	Noise() Matrix
	// Initialize seeds the state and covariance from a first measurement.
	Initialize(z Matrix) (x, P Matrix)
}

type LidarModel struct {
	StdPx float64
	StdPy float64
}

func NewLidarModel() LidarModel {
	return LidarModel{StdPx: StdLaserPx, StdPy: StdLaserPy}
}

func (LidarModel) Kind() SensorKind { return Lidar }

func (LidarModel) Dim() int { return LidarDim }

func (LidarModel) Project(state Matrix) (Matrix, error) {
	return NewVector(state.GetIndex(IdxPx), state.GetIndex(IdxPy)), nil
}

func (LidarModel) Residual(a, b Matrix) Matrix {
	return a.Sub(b)
}

func (l LidarModel) Noise() Matrix {
	return mat.Diag([]float64{l.StdPx * l.StdPx, l.StdPy * l.StdPy})
}

// Initialize places the object at the measured position with zero speed,
// heading and turn rate; those three get unit variance.
func (l LidarModel) Initialize(z Matrix) (x, P Matrix) {
	x = NewVector(z.GetIndex(0), z.GetIndex(1), 0, 0, 0)
	P = mat.Diag([]float64{l.StdPx * l.StdPx, l.StdPy * l.StdPy, 1, 1, 1})
	return x, P
}

// RadarInitMode selects how a radar reading seeds heading and turn rate.
type RadarInitMode string

const (
	// RadarInitReference copies rho into yaw and rho_dot into yaw_rate. This
	// keeps estimates bit-compatible with previously recorded runs.
	RadarInitReference RadarInitMode = "reference"
	// RadarInitPolar takes the bearing as the heading and a zero turn rate.
	RadarInitPolar RadarInitMode = "polar"
)

type RadarModel struct {
	StdRho    float64
	StdPhi    float64
	StdRhoDot float64
	InitMode  RadarInitMode
}

func NewRadarModel() RadarModel {
	return RadarModel{
		StdRho:    StdRadarRho,
		StdPhi:    StdRadarPhi,
		StdRhoDot: StdRadarRhoDot,
		InitMode:  RadarInitReference,
	}
}

func (RadarModel) Kind() SensorKind { return Radar }

func (RadarModel) Dim() int { return RadarDim }

func (RadarModel) Project(state Matrix) (Matrix, error) {
	px := state.GetIndex(IdxPx)
	py := state.GetIndex(IdxPy)
	v := state.GetIndex(IdxV)
	yaw := state.GetIndex(IdxYaw)

	rho := math.Sqrt(px*px + py*py)
	if rho < MinRange {
		return Matrix{}, errors.Wrapf(ErrDegenerateRange, "px=%g py=%g", px, py)
	}
	phi := math.Atan2(py, px)
	rhoDot := (px*math.Cos(yaw)*v + py*math.Sin(yaw)*v) / rho

	return NewVector(rho, phi, rhoDot), nil
}

func (RadarModel) Residual(a, b Matrix) Matrix {
	d := a.Sub(b)
	d.Set(1, 0, NormalizeAngle(d.Get(1, 0)))
	return d
}

func (r RadarModel) Noise() Matrix {
	return mat.Diag([]float64{
		r.StdRho * r.StdRho,
		r.StdPhi * r.StdPhi,
		r.StdRhoDot * r.StdRhoDot,
	})
}

// Initialize converts the polar reading to a Cartesian position. The speed
// is the magnitude of rho_dot along the bearing, which ignores any
// tangential motion.
func (r RadarModel) Initialize(z Matrix) (x, P Matrix) {
	rho := z.GetIndex(0)
	phi := z.GetIndex(1)
	rhoDot := z.GetIndex(2)

	vx := rhoDot * math.Cos(phi)
	vy := rhoDot * math.Sin(phi)
	v := math.Sqrt(vx*vx + vy*vy)

	switch r.InitMode {
	case RadarInitPolar:
		x = NewVector(rho*math.Cos(phi), rho*math.Sin(phi), v, NormalizeAngle(phi), 0)
	default:
		x = NewVector(rho*math.Cos(phi), rho*math.Sin(phi), v, rho, rhoDot)
	}

	// Heading and turn rate carry the raw bearing deviation, not its square.
	P = mat.Diag([]float64{
		r.StdRho * r.StdRho,
		r.StdRho * r.StdRho,
		r.StdRhoDot * r.StdRhoDot,
		r.StdPhi,
		r.StdPhi,
	})
	return x, P
}
