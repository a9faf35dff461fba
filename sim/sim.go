// Package sim generates ground-truth CTRV trajectories and the noisy lidar
// and radar readings a sensor suite would report for them.
package sim

import (
	"math"
	"math/rand/v2"

	"github.com/SpynFayde/fusion"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// Scenario describes one synthetic run.
type Scenario struct {
	Start    [fusion.StateDim]float64 // px, py, v, yaw, yaw_rate
	Steps    int
	StartUs  int64
	DtUs     int64   // time between measurements
	StdA     float64 // truth longitudinal acceleration noise
	StdYawDD float64 // truth yaw acceleration noise
	// Sensors is cycled through, one reading per step. Empty means
	// lidar and radar alternate starting with lidar.
	Sensors []fusion.SensorKind
	// NoiseFree disables measurement noise.
	NoiseFree bool
	Seed      uint64
}

// Sample is one step of a scenario.
type Sample struct {
	Truth       [fusion.StateDim]float64
	Measurement fusion.MeasurementPackage
}

func (s Scenario) sensors() []fusion.SensorKind {
	if len(s.Sensors) == 0 {
		return []fusion.SensorKind{fusion.Lidar, fusion.Radar}
	}
	return s.Sensors
}

func (s Scenario) normal(src rand.Source, sigma float64) distuv.Normal {
	if s.NoiseFree {
		sigma = 0
	}
	return distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
}

// Generate runs the scenario. The first sample is at StartUs with the
// truth equal to Start.
func (s Scenario) Generate() ([]Sample, error) {
	if s.Steps <= 0 {
		return nil, errors.Errorf("steps must be positive, got %d", s.Steps)
	}
	if s.DtUs <= 0 {
		return nil, errors.Errorf("dt must be positive, got %d", s.DtUs)
	}

	src := rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15)
	accel := distuv.Normal{Mu: 0, Sigma: s.StdA, Src: src}
	yawAccel := distuv.Normal{Mu: 0, Sigma: s.StdYawDD, Src: src}

	laserX := s.normal(src, fusion.StdLaserPx)
	laserY := s.normal(src, fusion.StdLaserPy)
	radarRho := s.normal(src, fusion.StdRadarRho)
	radarPhi := s.normal(src, fusion.StdRadarPhi)
	radarRhoDot := s.normal(src, fusion.StdRadarRhoDot)

	radar := fusion.NewRadarModel()
	sensors := s.sensors()
	dt := float64(s.DtUs) / 1000000.0

	truth := s.Start
	out := make([]Sample, 0, s.Steps)
	for i := 0; i < s.Steps; i++ {
		if i > 0 {
			aug := fusion.NewVector(truth[0], truth[1], truth[2], truth[3], truth[4], accel.Rand(), yawAccel.Rand())
			next := fusion.CTRV(aug, dt)
			for k := range truth {
				truth[k] = next.GetIndex(k)
			}
		}

		kind := sensors[i%len(sensors)]
		m := fusion.MeasurementPackage{
			Sensor:    kind,
			Timestamp: s.StartUs + int64(i)*s.DtUs,
		}
		switch kind {
		case fusion.Lidar:
			m.Raw = []float64{
				truth[0] + laserX.Rand(),
				truth[1] + laserY.Rand(),
			}
		case fusion.Radar:
			z, err := radar.Project(fusion.NewVector(truth[:]...))
			if err != nil {
				return nil, errors.Wrapf(err, "step %d", i)
			}
			m.Raw = []float64{
				z.GetIndex(0) + radarRho.Rand(),
				fusion.NormalizeAngle(z.GetIndex(1) + radarPhi.Rand()),
				z.GetIndex(2) + radarRhoDot.Rand(),
			}
		default:
			return nil, errors.Wrapf(fusion.ErrUnknownSensor, "step %d", i)
		}

		out = append(out, Sample{Truth: truth, Measurement: m})
	}
	return out, nil
}

// RMSE returns the per-component root mean squared error between estimates
// and truths, which must have the same length.
func RMSE(estimates, truths [][]float64) ([]float64, error) {
	if len(estimates) == 0 || len(estimates) != len(truths) {
		return nil, errors.Errorf("need matching non-empty inputs, got %d estimates and %d truths", len(estimates), len(truths))
	}
	dim := len(truths[0])
	sum := make([]float64, dim)
	for i := range estimates {
		if len(estimates[i]) != dim || len(truths[i]) != dim {
			return nil, errors.Errorf("row %d has %d/%d values, want %d", i, len(estimates[i]), len(truths[i]), dim)
		}
		for k := 0; k < dim; k++ {
			d := estimates[i][k] - truths[i][k]
			sum[k] += d * d
		}
	}
	for k := range sum {
		sum[k] = math.Sqrt(sum[k] / float64(len(estimates)))
	}
	return sum, nil
}
