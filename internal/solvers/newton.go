package solvers

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ResidualFunc writes R(x) into r.
type ResidualFunc func(x, r []float64) error

// JacobianFunc writes dR/dx at x into j.
type JacobianFunc func(x []float64, j *mat.Dense) error

// Newton solves R(x) = 0 by full Newton steps with a backtracking line search.
type Newton struct {
	Name    string
	MaxIter int
	Tol     float64
	// MaxBacktrack bounds step halvings per iteration; 0 takes full steps.
	MaxBacktrack int
	Logger       logr.Logger

	// History holds ‖R‖₂ at the start of each iteration of the last Solve.
	History []float64
}

func NewNewton(name string, tol float64) *Newton {
	return &Newton{
		Name:         name,
		MaxIter:      50,
		Tol:          tol,
		MaxBacktrack: 8,
		Logger:       logr.Discard(),
	}
}

// Solve iterates from x in place and returns the number of iterations taken.
// It stops when ‖R‖₂ < Tol.
func (n *Newton) Solve(x []float64, residual ResidualFunc, jacobian JacobianFunc) (int, error) {
	size := len(x)
	if size == 0 {
		return 0, fmt.Errorf("newton %s: empty state", n.Name)
	}
	r := make([]float64, size)
	trial := make([]float64, size)
	rTrial := make([]float64, size)
	j := mat.NewDense(size, size, nil)
	n.History = n.History[:0]

	if err := residual(x, r); err != nil {
		return 0, err
	}
	norm := floats.Norm(r, 2)

	for iter := 0; iter < n.MaxIter; iter++ {
		n.History = append(n.History, norm)
		n.Logger.V(logging.TRACE).Info("newton iteration", "solver", n.Name, "iter", iter, "norm", norm)
		if norm < n.Tol {
			return iter, nil
		}

		j.Zero()
		if err := jacobian(x, j); err != nil {
			return iter, err
		}
		f, err := Factorize("newton "+n.Name, j)
		if err != nil {
			return iter, err
		}
		dx, err := f.SolveVec(false, r)
		if err != nil {
			return iter, err
		}

		step := 1.0
		for bt := 0; ; bt++ {
			copy(trial, x)
			floats.AddScaled(trial, -step, dx)
			if err := residual(trial, rTrial); err != nil {
				return iter, err
			}
			trialNorm := floats.Norm(rTrial, 2)
			if trialNorm < norm || bt >= n.MaxBacktrack {
				norm = trialNorm
				break
			}
			step /= 2
		}
		copy(x, trial)
		copy(r, rTrial)
	}

	n.History = append(n.History, norm)
	if norm < n.Tol {
		return n.MaxIter, nil
	}
	return n.MaxIter, &core.ConvergenceError{Component: n.Name, Iterations: n.MaxIter, Norm: norm, Tol: n.Tol}
}
