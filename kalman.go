package fusion

import (
	"math"

	mat "github.com/mrfyo/matrix"
)

type (
	Shape  = mat.Shape
	Matrix = mat.Matrix
)

// Filter consumes measurement packages one at a time and exposes the
// current estimate.
type Filter interface {
	ProcessMeasurement(m MeasurementPackage) (Outcome, error)
	State() State
}

// Dimensions of the state, the noise-augmented state and the two
// measurement spaces.
const (
	StateDim     = 5
	AugmentedDim = 7
	LidarDim     = 2
	RadarDim     = 3
)

// Indices into the state vector.
const (
	IdxPx = iota
	IdxPy
	IdxV
	IdxYaw
	IdxYawRate
)

// NewVector returns a (len(v), 1) column.
func NewVector(v ...float64) Matrix {
	data := make([]float64, len(v))
	copy(data, v)
	return mat.NewMatrix(Shape{Row: len(v), Col: 1}, data)
}

// Values flattens a column into a slice.
func Values(x Matrix) []float64 {
	out := make([]float64, x.Row)
	for i := 0; i < x.Row; i++ {
		out[i] = x.Get(i, 0)
	}
	return out
}

func BlockDiag(mats ...Matrix) Matrix {
	w := 0
	h := 0
	for _, matrix := range mats {
		w += matrix.Row
		h += matrix.Col
	}

	newMatrix := mat.Zeros(Shape{Row: w, Col: h})
	w, h = 0, 0
	for _, matrix := range mats {
		for i := 0; i < matrix.Row; i++ {
			for j := 0; j < matrix.Col; j++ {
				newMatrix.Set(w+i, h+j, matrix.Get(i, j))
			}
		}
		w += matrix.Row
		h += matrix.Col
	}

	return newMatrix
}

// Symmetrize returns (M + Mᵗ) / 2.
func Symmetrize(m Matrix) Matrix {
	out := mat.Zeros(m.Shape)
	for i := 0; i < m.Row; i++ {
		for j := 0; j < m.Col; j++ {
			out.Set(i, j, 0.5*(m.Get(i, j)+m.Get(j, i)))
		}
	}
	return out
}

func isFinite(m Matrix) bool {
	for i := 0; i < m.Row; i++ {
		for j := 0; j < m.Col; j++ {
			v := m.Get(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// addRidge returns P + eps*I. P is returned unchanged when eps is zero.
func addRidge(P Matrix, eps float64) Matrix {
	if eps == 0 {
		return P
	}
	out := P.Copy()
	for i := 0; i < out.Row; i++ {
		out.Set(i, i, out.Get(i, i)+eps)
	}
	return out
}
