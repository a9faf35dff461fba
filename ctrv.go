package fusion

import (
	"math"

	mat "github.com/mrfyo/matrix"
)

// yawRateEpsilon is the turn rate below which the CTRV motion is treated as
// a straight line.
const yawRateEpsilon = 0.001

// ProcessNoise holds the standard deviations of the two process noise
// components: longitudinal acceleration and yaw acceleration.
type ProcessNoise struct {
	StdA     float64 // m/s^2
	StdYawDD float64 // rad/s^2
}

// Q returns diag(StdA², StdYawDD²).
func (n ProcessNoise) Q() Matrix {
	return mat.Diag([]float64{n.StdA * n.StdA, n.StdYawDD * n.StdYawDD})
}

// CTRV propagates one augmented sigma point (px, py, v, yaw, yaw_rate, ν_a,
// ν_yawdd) by dt seconds under the constant turn rate and velocity model and
// returns the (5, 1) predicted state.
func CTRV(aug Matrix, dt float64) Matrix {
	px := aug.GetIndex(0)
	py := aug.GetIndex(1)
	v := aug.GetIndex(2)
	yaw := aug.GetIndex(3)
	yawd := aug.GetIndex(4)
	nuA := aug.GetIndex(5)
	nuYawdd := aug.GetIndex(6)

	var dpx, dpy float64
	if math.Abs(yawd) > yawRateEpsilon {
		dpx = v / yawd * (math.Sin(yaw+yawd*dt) - math.Sin(yaw))
		dpy = v / yawd * (-math.Cos(yaw+yawd*dt) + math.Cos(yaw))
	} else {
		dpx = v * math.Cos(yaw) * dt
		dpy = v * math.Sin(yaw) * dt
	}

	dt2 := 0.5 * dt * dt
	return NewVector(
		px+dpx+dt2*math.Cos(yaw)*nuA,
		py+dpy+dt2*math.Sin(yaw)*nuA,
		v+dt*nuA,
		yaw+yawd*dt+dt2*nuYawdd,
		yawd+dt*nuYawdd,
	)
}
