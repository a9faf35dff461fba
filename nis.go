package fusion

import (
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// consistencyLevel is the chi-square quantile NIS values are compared to.
const consistencyLevel = 0.95

// NISSummary describes the NIS values seen for one sensor kind.
type NISSummary struct {
	Sensor        SensorKind
	Count         int
	Mean          float64
	Threshold95   float64 // χ²(dim) 95% quantile
	FractionAbove float64 // share of values above Threshold95
}

// NISMonitor accumulates NIS values per sensor kind. A well tuned filter
// has a mean NIS near the measurement dimension and about 5% of values
// above the 95% chi-square quantile. The zero value is ready to use.
type NISMonitor struct {
	values map[SensorKind][]float64
}

func NewNISMonitor() *NISMonitor {
	return &NISMonitor{values: make(map[SensorKind][]float64)}
}

// Observe records one NIS value.
func (m *NISMonitor) Observe(kind SensorKind, nis float64) {
	if m.values == nil {
		m.values = make(map[SensorKind][]float64)
	}
	m.values[kind] = append(m.values[kind], nis)
}

// Threshold95 returns the 95% chi-square quantile for the sensor's
// measurement dimension: 5.991 for lidar and 7.815 for radar.
func Threshold95(kind SensorKind) float64 {
	return distuv.ChiSquared{K: float64(kind.Dim())}.Quantile(consistencyLevel)
}

// Summary returns the statistics for one sensor kind.
func (m *NISMonitor) Summary(kind SensorKind) NISSummary {
	vals := m.values[kind]
	s := NISSummary{
		Sensor:      kind,
		Count:       len(vals),
		Threshold95: Threshold95(kind),
	}
	if len(vals) == 0 {
		return s
	}
	s.Mean = stat.Mean(vals, nil)

	above := 0
	for _, v := range vals {
		if v > s.Threshold95 {
			above++
		}
	}
	s.FractionAbove = float64(above) / float64(len(vals))
	return s
}

// Consistent reports whether no more than 5% plus slack of the NIS values
// for a sensor kind exceed the 95% quantile.
func (m *NISMonitor) Consistent(kind SensorKind, slack float64) bool {
	s := m.Summary(kind)
	return s.Count > 0 && s.FractionAbove <= (1-consistencyLevel)+slack
}
