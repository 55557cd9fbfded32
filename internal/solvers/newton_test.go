package solvers

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/mdao/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewtonScalarRoot(t *testing.T) {
	n := NewNewton("sqrt2", 1e-12)
	x := []float64{1}
	iters, err := n.Solve(x,
		func(x, r []float64) error { r[0] = x[0]*x[0] - 2; return nil },
		func(x []float64, j *mat.Dense) error { j.Set(0, 0, 2*x[0]); return nil },
	)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, x[0], 1e-12)
	assert.Less(t, iters, 10)
	assert.NotEmpty(t, n.History)
	assert.Less(t, n.History[len(n.History)-1], 1e-12)
}

func TestNewtonLinearSystemOneStep(t *testing.T) {
	// R = K x - F with K = [[2,-1],[-1,2]], F = [1,0]
	n := NewNewton("lin", 1e-12)
	x := []float64{0, 0}
	iters, err := n.Solve(x,
		func(x, r []float64) error {
			r[0] = 2*x[0] - x[1] - 1
			r[1] = -x[0] + 2*x[1]
			return nil
		},
		func(_ []float64, j *mat.Dense) error {
			j.Set(0, 0, 2)
			j.Set(0, 1, -1)
			j.Set(1, 0, -1)
			j.Set(1, 1, 2)
			return nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, iters)
	assert.InDelta(t, 2.0/3, x[0], 1e-12)
	assert.InDelta(t, 1.0/3, x[1], 1e-12)
}

func TestNewtonSingularJacobian(t *testing.T) {
	n := NewNewton("flat", 1e-12)
	_, err := n.Solve([]float64{1},
		func(_, r []float64) error { r[0] = 1; return nil },
		func(_ []float64, j *mat.Dense) error { return nil },
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSingularJacobian))
}

func TestNewtonBudgetExhausted(t *testing.T) {
	n := NewNewton("slow", 1e-300)
	n.MaxIter = 2
	_, err := n.Solve([]float64{10},
		func(x, r []float64) error { r[0] = x[0]*x[0]*x[0] - 1; return nil },
		func(x []float64, j *mat.Dense) error { j.Set(0, 0, 3*x[0]*x[0]); return nil },
	)
	var cerr *core.ConvergenceError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, cerr.Iterations)
	assert.ErrorIs(t, err, core.ErrConvergence)
}

func TestFactorizeRejectsNonSquare(t *testing.T) {
	_, err := Factorize("test", mat.NewDense(2, 3, nil))
	assert.ErrorIs(t, err, core.ErrShapeMismatch)
}

func TestSolveTranspose(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 0, 1})
	f, err := Factorize("test", a)
	require.NoError(t, err)

	x, err := f.SolveVec(true, []float64{1, 4})
	require.NoError(t, err)
	// Aᵀ = [[1,0],[2,1]]
	assert.InDelta(t, 1.0, x[0], 1e-14)
	assert.InDelta(t, 2.0, x[1], 1e-14)

	y, err := f.SolveTranspose(mat.NewDense(2, 1, []float64{1, 4}))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, y.At(1, 0), 1e-14)
}
