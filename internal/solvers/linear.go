package solvers

import (
	"math"

	"github.com/san-kum/mdao/internal/core"
	"gonum.org/v1/gonum/mat"
)

// Factor is an LU factorization that has passed the conditioning check.
type Factor struct {
	lu   mat.LU
	n    int
	cond float64
}

// Factorize LU-factorizes the square matrix a. A matrix whose condition
// estimate is infinite or above mat.ConditionTolerance is rejected with a
// *core.SingularError.
func Factorize(op string, a mat.Matrix) (*Factor, error) {
	r, c := a.Dims()
	if r != c {
		return nil, &core.ShapeError{Op: op, Name: "jacobian", Want: core.Shape{r, r}, Got: core.Shape{r, c}}
	}
	f := &Factor{n: r}
	f.lu.Factorize(a)
	f.cond = f.lu.Cond()
	if math.IsInf(f.cond, 0) || math.IsNaN(f.cond) || f.cond > mat.ConditionTolerance {
		return nil, &core.SingularError{Op: op, Cond: f.cond}
	}
	return f, nil
}

func (f *Factor) Cond() float64 { return f.cond }
func (f *Factor) Size() int     { return f.n }

// Solve returns x with A x = b.
func (f *Factor) Solve(b mat.Matrix) (*mat.Dense, error) {
	var x mat.Dense
	if err := f.lu.SolveTo(&x, false, b); err != nil {
		return nil, &core.SingularError{Op: "solve", Cond: f.cond}
	}
	return &x, nil
}

// SolveTranspose returns x with Aᵀ x = b.
func (f *Factor) SolveTranspose(b mat.Matrix) (*mat.Dense, error) {
	var x mat.Dense
	if err := f.lu.SolveTo(&x, true, b); err != nil {
		return nil, &core.SingularError{Op: "solve transpose", Cond: f.cond}
	}
	return &x, nil
}

// SolveVec solves A x = b (or Aᵀ x = b) for a vector right-hand side.
func (f *Factor) SolveVec(trans bool, b []float64) ([]float64, error) {
	if len(b) != f.n {
		return nil, &core.ShapeError{Op: "solve", Name: "rhs", Want: core.Shape{f.n}, Got: core.Shape{len(b)}}
	}
	var x mat.VecDense
	if err := f.lu.SolveVecTo(&x, trans, mat.NewVecDense(f.n, append([]float64(nil), b...))); err != nil {
		return nil, &core.SingularError{Op: "solve", Cond: f.cond}
	}
	return x.RawVector().Data, nil
}
