package fusion

import (
	"math"

	mat "github.com/mrfyo/matrix"
	"github.com/pkg/errors"
)

// SpreadingParameter returns λ = 3 - n for an n-dimensional sigma set.
func SpreadingParameter(n int) float64 {
	return 3 - float64(n)
}

// SigmaWeights returns the (1, 2n+1) weights for an n-dimensional sigma set.
func SigmaWeights(n int) Matrix {
	nf := float64(n)
	lambda := SpreadingParameter(n)

	m := 2*n + 1
	W := mat.Full(Shape{Row: 1, Col: m}, 0.5/(lambda+nf))
	W.Set(0, 0, lambda/(lambda+nf))

	return W
}

// GenerateSigmaPoints places 2n+1 sigma points around x using the lower
// Cholesky factor of P. Column 0 is x itself.
func GenerateSigmaPoints(x, P Matrix) (Matrix, error) {
	n := x.Row
	if P.Row != n || P.Col != n {
		return Matrix{}, errors.Errorf("covariance is %dx%d, mean has %d rows", P.Row, P.Col, n)
	}

	L, err := cholesky(P)
	if err != nil {
		return Matrix{}, err
	}

	m := 2*n + 1
	sigmas := mat.Zeros(Shape{Row: n, Col: m}) // (n, 2*n+1)

	s := math.Sqrt(SpreadingParameter(n) + float64(n))
	S := L.ScaleMul(s)

	sigmas.SetCol(0, x)
	for k := 0; k < n; k++ {
		Sk := S.GetCol(k)
		sigmas.SetCol(k+1, x.Add(Sk))
		sigmas.SetCol(k+n+1, x.Sub(Sk))
	}

	return sigmas, nil
}
