package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/SpynFayde/fusion"
	"github.com/SpynFayde/fusion/sim"
)

func main() {
	cfg := fusion.DefaultConfig()
	if len(os.Args) > 1 {
		var err error
		cfg, err = fusion.LoadConfig(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	scenario := sim.Scenario{
		Start:    [fusion.StateDim]float64{60, 20, 5, 0.5, 0.1},
		Steps:    500,
		DtUs:     50000,
		StdA:     cfg.GetStdA() / 2,
		StdYawDD: cfg.GetStdYawDD() / 2,
		Seed:     1,
	}
	samples, err := scenario.Generate()
	if err != nil {
		log.Fatalf("Failed to generate scenario: %v", err)
	}

	monitor := fusion.NewNISMonitor()
	logger := log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	kf := fusion.NewUnscentedKalmanFilter(cfg, fusion.WithLogger(logger), fusion.WithNISMonitor(monitor))

	var estimates, truths [][]float64
	var result []string
	for _, s := range samples {
		if _, err := kf.ProcessMeasurement(s.Measurement); err != nil {
			log.Fatalf("Filter error: %v", err)
		}
		st := kf.State()
		x := fusion.Values(st.X)
		estimates = append(estimates, x)
		truths = append(truths, s.Truth[:])

		csv := fmt.Sprintf("%d,%s,%.5f,%.5f,%.5f,%.5f,%.5f,%.5f,%.5f,%.5f,%.5f",
			s.Measurement.Timestamp, s.Measurement.Sensor,
			s.Truth[0], s.Truth[1], s.Truth[2],
			x[0], x[1], x[2], x[3], x[4], st.NIS(s.Measurement.Sensor))
		result = append(result, csv)
	}

	rmse, err := sim.RMSE(estimates, truths)
	if err != nil {
		log.Fatalf("Failed to compute RMSE: %v", err)
	}
	fmt.Printf("RMSE px=%.4f py=%.4f v=%.4f\n", rmse[0], rmse[1], rmse[2])

	for _, kind := range []fusion.SensorKind{fusion.Lidar, fusion.Radar} {
		s := monitor.Summary(kind)
		fmt.Printf("NIS %s: n=%d mean=%.3f above %.3f: %.1f%%\n",
			kind, s.Count, s.Mean, s.Threshold95, 100*s.FractionAbove)
	}

	csv := strings.Join(result, "\r\n")

	if err := os.WriteFile("./out.csv", []byte(csv), fs.ModePerm); err != nil {
		log.Fatalf("Failed to write out.csv: %v", err)
	}
}
