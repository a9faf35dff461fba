package sim

import (
	"math"
	"testing"

	"github.com/SpynFayde/fusion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNoiseFree(t *testing.T) {
	t.Parallel()

	s := Scenario{
		Start:     [fusion.StateDim]float64{10, 0, 2, math.Pi / 2, 0},
		Steps:     4,
		StartUs:   1000,
		DtUs:      500000,
		NoiseFree: true,
	}
	samples, err := s.Generate()
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, fusion.Lidar, samples[0].Measurement.Sensor)
	assert.Equal(t, fusion.Radar, samples[1].Measurement.Sensor)
	assert.Equal(t, int64(1000), samples[0].Measurement.Timestamp)
	assert.Equal(t, int64(1501000), samples[3].Measurement.Timestamp)

	// Straight north at 2 m/s.
	assert.InDelta(t, 10.0, samples[2].Truth[0], 1e-9)
	assert.InDelta(t, 2.0, samples[2].Truth[1], 1e-9)

	assert.InDelta(t, 10.0, samples[0].Measurement.Raw[0], 1e-12)
	radar := samples[1].Measurement.Raw
	assert.InDelta(t, math.Hypot(10, 1), radar[0], 1e-9)
	assert.InDelta(t, math.Atan2(1, 10), radar[1], 1e-9)
	assert.InDelta(t, 2*1/math.Hypot(10, 1), radar[2], 1e-9)
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	s := Scenario{
		Start: [fusion.StateDim]float64{50, 50, 5, 0, 0.1},
		Steps: 20, DtUs: 50000, StdA: 1, StdYawDD: 0.3, Seed: 7,
	}
	a, err := s.Generate()
	require.NoError(t, err)
	b, err := s.Generate()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateRejectsBadScenario(t *testing.T) {
	t.Parallel()

	_, err := Scenario{Steps: 0, DtUs: 1}.Generate()
	assert.Error(t, err)
	_, err = Scenario{Steps: 3, DtUs: 0}.Generate()
	assert.Error(t, err)
}

func TestRMSE(t *testing.T) {
	t.Parallel()

	rmse, err := RMSE([][]float64{{1, 2}, {3, 4}}, [][]float64{{1, 0}, {3, 8}})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rmse[0], 1e-12)
	assert.InDelta(t, math.Sqrt(10), rmse[1], 1e-12)

	_, err = RMSE(nil, nil)
	assert.Error(t, err)
	_, err = RMSE([][]float64{{1}}, [][]float64{{1, 2}})
	assert.Error(t, err)
}

// TestFilterConsistency runs a long scenario whose truth follows the same
// noise model the filter assumes. NIS values should then follow a
// chi-square distribution with the measurement dimension as degrees of
// freedom.
func TestFilterConsistency(t *testing.T) {
	t.Parallel()

	const stdA, stdYawDD = 1.0, 0.3
	a, yawdd := stdA, stdYawDD
	cfg := fusion.DefaultConfig()
	cfg.StdA = &a
	cfg.StdYawDD = &yawdd

	for _, seed := range []uint64{1, 2, 3} {
		s := Scenario{
			Start:    [fusion.StateDim]float64{100, 50, 5, 0.5, 0.1},
			Steps:    1000,
			DtUs:     50000,
			StdA:     stdA,
			StdYawDD: stdYawDD,
			Seed:     seed,
		}
		samples, err := s.Generate()
		require.NoError(t, err)

		monitor := fusion.NewNISMonitor()
		kf := fusion.NewUnscentedKalmanFilter(cfg)
		var estimates, truths [][]float64
		for i, sample := range samples {
			outcome, err := kf.ProcessMeasurement(sample.Measurement)
			require.NoError(t, err, "seed %d step %d", seed, i)
			// Let the filter settle before judging it.
			if i > 20 && outcome == fusion.Updated {
				kind := sample.Measurement.Sensor
				monitor.Observe(kind, kf.State().NIS(kind))
			}
			truth := sample.Truth
			estimates = append(estimates, fusion.Values(kf.State().X)[:3])
			truths = append(truths, truth[:3])
		}

		lidar := monitor.Summary(fusion.Lidar)
		radar := monitor.Summary(fusion.Radar)
		assert.InDelta(t, 2.0, lidar.Mean, 0.5, "seed %d", seed)
		assert.InDelta(t, 3.0, radar.Mean, 0.6, "seed %d", seed)
		assert.True(t, monitor.Consistent(fusion.Lidar, 0.05), "seed %d: %+v", seed, lidar)
		assert.True(t, monitor.Consistent(fusion.Radar, 0.05), "seed %d: %+v", seed, radar)

		rmse, err := RMSE(estimates, truths)
		require.NoError(t, err)
		assert.Less(t, rmse[0], 0.2, "seed %d px", seed)
		assert.Less(t, rmse[1], 0.2, "seed %d py", seed)
		assert.Less(t, rmse[2], 0.5, "seed %d v", seed)
	}
}
