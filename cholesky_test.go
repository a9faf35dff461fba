package fusion

import (
	"math"
	"testing"

	mat "github.com/mrfyo/matrix"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCholeskyReconstructs(t *testing.T) {
	t.Parallel()

	P := mat.NewMatrix(Shape{Row: 3, Col: 3}, []float64{
		4, 2, 0.4,
		2, 5, 1,
		0.4, 1, 3,
	})

	L, err := cholesky(P)
	require.NoError(t, err)
	require.Equal(t, P.Shape, L.Shape)

	for i := 0; i < 3; i++ {
		assert.Greater(t, L.Get(i, i), 0.0)
		for j := i + 1; j < 3; j++ {
			assert.Equal(t, 0.0, L.Get(i, j), "L[%d][%d]", i, j)
		}
	}

	LLt := L.Dot(L.T())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, P.Get(i, j), LLt.Get(i, j), 1e-12, "[%d][%d]", i, j)
		}
	}
}

func TestCholeskyNotPositiveDefinite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		P    Matrix
	}{
		{"negative pivot", mat.Diag([]float64{0.1, 0.1, 1, -1e-9, 1})},
		{"zero", mat.Zeros(Shape{Row: 3, Col: 3})},
		{"indefinite", mat.NewMatrix(Shape{Row: 2, Col: 2}, []float64{1, 2, 2, 1})},
		{"nan", mat.Diag([]float64{1, math.NaN()})},
		{"inf", mat.Diag([]float64{math.Inf(1), 1})},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err error
			require.NotPanics(t, func() { _, err = cholesky(tt.P) })
			assert.True(t, errors.Is(err, ErrDecomposition), "got %v", err)
		})
	}
}

func TestCholeskyDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	P := mat.Diag([]float64{4, 9})
	_, err := cholesky(P)
	require.NoError(t, err)
	assert.Equal(t, 4.0, P.Get(0, 0))
	assert.Equal(t, 9.0, P.Get(1, 1))
	assert.Equal(t, 0.0, P.Get(0, 1))
}

func TestInvertSPD(t *testing.T) {
	t.Parallel()

	t.Run("inverse", func(t *testing.T) {
		S := mat.NewMatrix(Shape{Row: 3, Col: 3}, []float64{
			0.09, 0.001, 0.01,
			0.001, 0.0009, 0,
			0.01, 0, 0.09,
		})
		SInv, err := invertSPD(S)
		require.NoError(t, err)

		I := S.Dot(SInv)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := 0.0
				if i == j {
					want = 1
				}
				assert.InDelta(t, want, I.Get(i, j), 1e-9, "[%d][%d]", i, j)
			}
		}
	})

	t.Run("singular", func(t *testing.T) {
		_, err := invertSPD(mat.Zeros(Shape{Row: 2, Col: 2}))
		assert.True(t, errors.Is(err, ErrSingularInnovation), "got %v", err)
	})

	t.Run("indefinite", func(t *testing.T) {
		_, err := invertSPD(mat.Diag([]float64{1, -1}))
		assert.True(t, errors.Is(err, ErrSingularInnovation), "got %v", err)
	})
}
