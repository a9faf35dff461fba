package fusion

import (
	mat "github.com/mrfyo/matrix"
	"github.com/pkg/errors"
	dense "gonum.org/v1/gonum/mat"
)

// factorize computes the Cholesky decomposition of a symmetric P. Only the
// upper triangle of P is read.
func factorize(P Matrix) (*dense.Cholesky, error) {
	n := P.Row
	if P.Col != n {
		return nil, errors.Errorf("covariance is %dx%d, want square", P.Row, P.Col)
	}
	if !isFinite(P) {
		return nil, errors.Wrap(ErrDecomposition, "non-finite entry")
	}

	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data[i*n+j] = P.Get(i, j)
		}
	}

	var ch dense.Cholesky
	if ok := ch.Factorize(dense.NewSymDense(n, data)); !ok {
		return nil, errors.Wrapf(ErrDecomposition, "%dx%d covariance has a non-positive pivot", n, n)
	}
	return &ch, nil
}

// fromDense copies a gonum matrix into a Matrix.
func fromDense(d dense.Matrix) Matrix {
	r, c := d.Dims()
	out := mat.Zeros(Shape{Row: r, Col: c})
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, d.At(i, j))
		}
	}
	return out
}

// cholesky returns the lower factor L of P with P = L·Lᵗ, or
// ErrDecomposition when P is not positive definite.
func cholesky(P Matrix) (Matrix, error) {
	ch, err := factorize(P)
	if err != nil {
		return Matrix{}, err
	}

	var L dense.TriDense
	ch.LTo(&L)
	out := fromDense(&L)
	if !isFinite(out) {
		return Matrix{}, ErrDecomposition
	}
	return out, nil
}

// invertSPD inverts a symmetric positive definite matrix. A matrix without
// a Cholesky factor, or one too ill-conditioned to invert, is reported as
// ErrSingularInnovation.
func invertSPD(S Matrix) (Matrix, error) {
	ch, err := factorize(S)
	if err != nil {
		return Matrix{}, errors.Wrap(ErrSingularInnovation, err.Error())
	}

	var inv dense.SymDense
	if err := ch.InverseTo(&inv); err != nil {
		return Matrix{}, errors.Wrap(ErrSingularInnovation, err.Error())
	}
	SInv := fromDense(&inv)
	if !isFinite(SInv) {
		return Matrix{}, ErrSingularInnovation
	}
	return SInv, nil
}
