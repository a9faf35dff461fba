package fusion

import (
	mat "github.com/mrfyo/matrix"
	"github.com/pkg/errors"
)

// Prediction is the outcome of the unscented prediction step. Sigmas is kept
// so the update can reuse the propagated points without drawing new ones.
type Prediction struct {
	X           Matrix  // (5, 1)
	P           Matrix  // (5, 5)
	Sigmas      Matrix  // (5, 2*7+1) propagated augmented sigma points
	StateSigmas Matrix  // (5, 2*5+1) sigma points of the prior (x, P)
	Weights     Matrix  // (1, 2*7+1)
	Dt          float64 // seconds
}

// Posterior is the outcome of a measurement update.
type Posterior struct {
	X          Matrix  // (5, 1)
	P          Matrix  // (5, 5)
	NIS        float64 // yᵗ S⁻¹ y
	Innovation Matrix  // (m, 1)
	S          Matrix  // (m, m)
	ZPred      Matrix  // (m, 1)
}

// stateResidual returns a - b with the yaw component wrapped.
func stateResidual(a, b Matrix) Matrix {
	d := a.Sub(b)
	d.Set(IdxYaw, 0, NormalizeAngle(d.Get(IdxYaw, 0)))
	return d
}

// Predict propagates (x, P) by dt seconds through the CTRV model. The inputs
// are not modified.
func Predict(x, P Matrix, dt float64, noise ProcessNoise) (*Prediction, error) {
	n := x.Row
	if n != StateDim {
		return nil, errors.Errorf("state has %d rows, want %d", n, StateDim)
	}

	stateSigmas, err := GenerateSigmaPoints(x, P)
	if err != nil {
		return nil, errors.Wrap(err, "state covariance")
	}

	xAug := mat.Zeros(Shape{Row: AugmentedDim, Col: 1})
	for i := 0; i < n; i++ {
		xAug.Set(i, 0, x.GetIndex(i))
	}
	PAug := BlockDiag(P, noise.Q()) // (7, 7)

	sigmas, err := GenerateSigmaPoints(xAug, PAug) // (7, 2*7+1)
	if err != nil {
		return nil, errors.Wrap(err, "augmented covariance")
	}
	c := sigmas.Col

	sigmaXs := mat.Zeros(Shape{Row: n, Col: c}) // (5, 2*7+1)
	for j := 0; j < c; j++ {
		sigmaXs.SetCol(j, CTRV(sigmas.GetCol(j), dt))
	}

	W := SigmaWeights(AugmentedDim)

	priorX := mat.Zeros(Shape{Row: n, Col: 1})
	for j := 0; j < c; j++ {
		w := W.Get(0, j)
		for i := 0; i < n; i++ {
			priorX.Set(i, 0, priorX.Get(i, 0)+w*sigmaXs.Get(i, j))
		}
	}

	priorP := mat.Zeros(Shape{Row: n, Col: n})
	for j := 0; j < c; j++ {
		diffX := stateResidual(sigmaXs.GetCol(j), priorX) // (n, 1)
		mat.MatrixAdd(priorP, diffX.Dot(diffX.T()).ScaleMul(W.Get(0, j)))
	}

	if !isFinite(priorX) || !isFinite(priorP) {
		return nil, errors.Wrap(ErrNonFinite, "prediction")
	}

	return &Prediction{
		X:           priorX,
		P:           priorP,
		Sigmas:      sigmaXs,
		StateSigmas: stateSigmas,
		Weights:     W,
		Dt:          dt,
	}, nil
}

// Update corrects a prediction with measurement z under the given model.
// The prediction is not modified.
func Update(pred *Prediction, model MeasurementModel, z Matrix) (*Posterior, error) {
	n := pred.X.Row
	m := model.Dim()
	if z.Row != m {
		return nil, errors.Wrapf(ErrBadMeasurement, "%v measurement has %d rows, want %d", model.Kind(), z.Row, m)
	}

	W := pred.Weights
	priorX := pred.X       // (n, 1)
	priorP := pred.P       // (n, n)
	sigmaXs := pred.Sigmas // (n, 2*7+1)

	count := sigmaXs.Col
	sigmaZs := mat.Zeros(Shape{Row: m, Col: count})
	for j := 0; j < count; j++ {
		zj, err := model.Project(sigmaXs.GetCol(j))
		if err != nil {
			return nil, errors.Wrapf(err, "sigma point %d", j)
		}
		sigmaZs.SetCol(j, zj)
	}

	priorZ := mat.Zeros(Shape{Row: m, Col: 1})
	for j := 0; j < count; j++ {
		w := W.Get(0, j)
		for i := 0; i < m; i++ {
			priorZ.Set(i, 0, priorZ.Get(i, 0)+w*sigmaZs.Get(i, j))
		}
	}

	Pzz := model.Noise()                    // (m, m)
	Pxz := mat.Zeros(Shape{Row: n, Col: m}) // (n, m)
	for j := 0; j < count; j++ {
		w := W.Get(0, j)
		diffZ := model.Residual(sigmaZs.GetCol(j), priorZ) // (m, 1)
		mat.MatrixAdd(Pzz, diffZ.Dot(diffZ.T()).ScaleMul(w))
		diffX := stateResidual(sigmaXs.GetCol(j), priorX) // (n, 1)
		mat.MatrixAdd(Pxz, diffX.Dot(diffZ.T()).ScaleMul(w))
	}

	SInv, err := invertSPD(Pzz)
	if err != nil {
		return nil, errors.Wrapf(err, "%v update", model.Kind())
	}

	K := Pxz.Dot(SInv) // (n, m)
	Y := model.Residual(z, priorZ)
	X := priorX.Add(K.Dot(Y))
	P := Symmetrize(priorP.Sub(K.Dot(Pzz).Dot(K.T())))
	nis := Y.T().Dot(SInv).Dot(Y).Get(0, 0)

	if !isFinite(X) || !isFinite(P) {
		return nil, errors.Wrapf(ErrNonFinite, "%v update", model.Kind())
	}

	return &Posterior{
		X:          X,
		P:          P,
		NIS:        nis,
		Innovation: Y,
		S:          Pzz,
		ZPred:      priorZ,
	}, nil
}
