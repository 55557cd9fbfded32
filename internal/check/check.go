// Package check compares analytic derivatives with finite differences.
package check

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Form selects the finite-difference stencil.
type Form int

const (
	Forward Form = iota
	Central
)

func (f Form) String() string {
	if f == Central {
		return "central"
	}
	return "forward"
}

// ParseForm accepts "forward" or "central".
func ParseForm(s string) (Form, error) {
	switch s {
	case "", "forward":
		return Forward, nil
	case "central":
		return Central, nil
	}
	return Forward, fmt.Errorf("check: unknown form %q", s)
}

// Options configures a derivative check.
type Options struct {
	Step   float64
	Form   Form
	AbsTol float64
	RelTol float64
}

func DefaultOptions() Options {
	return Options{Step: 1e-6, Form: Forward, AbsTol: 1e-6, RelTol: 1e-6}
}

// Result compares one analytic derivative block against its approximation.
type Result struct {
	Of, Wrt  string
	Analytic *mat.Dense
	Approx   *mat.Dense
	// AbsErr is the Frobenius norm of the difference; RelErr divides it by
	// the norm of the approximation.
	AbsErr float64
	RelErr float64
}

func newResult(of, wrt string, analytic, approx *mat.Dense) Result {
	r := Result{Of: of, Wrt: wrt, Analytic: analytic, Approx: approx}
	var diff mat.Dense
	diff.Sub(analytic, approx)
	r.AbsErr = mat.Norm(&diff, 2)
	if n := mat.Norm(approx, 2); n > 0 {
		r.RelErr = r.AbsErr / n
	} else if r.AbsErr > 0 {
		r.RelErr = math.Inf(1)
	}
	return r
}

// OK reports whether the block passes either tolerance.
func (r Result) OK(o Options) bool {
	return r.AbsErr <= o.AbsTol || r.RelErr <= o.RelTol
}

// difference approximates the columns of d(response)/d(variable) by
// perturbing each entry of base through perturb and reading eval.
func difference(o Options, base []float64, rows int,
	perturb func(x []float64) error, eval func() ([]float64, error)) (*mat.Dense, error) {

	cols := len(base)
	out := mat.NewDense(rows, cols, nil)
	x := make([]float64, cols)

	sample := func(j int, h float64) ([]float64, error) {
		copy(x, base)
		x[j] += h
		if err := perturb(x); err != nil {
			return nil, err
		}
		return eval()
	}

	var center []float64
	if o.Form == Forward {
		copy(x, base)
		if err := perturb(x); err != nil {
			return nil, err
		}
		c, err := eval()
		if err != nil {
			return nil, err
		}
		center = c
	}

	for j := 0; j < cols; j++ {
		plus, err := sample(j, o.Step)
		if err != nil {
			return nil, err
		}
		lo, span := center, o.Step
		if o.Form == Central {
			if lo, err = sample(j, -o.Step); err != nil {
				return nil, err
			}
			span = 2 * o.Step
		}
		if len(plus) != rows || len(lo) != rows {
			return nil, fmt.Errorf("check: response size changed during perturbation")
		}
		for i := 0; i < rows; i++ {
			out.Set(i, j, (plus[i]-lo[i])/span)
		}
	}

	copy(x, base)
	if err := perturb(x); err != nil {
		return nil, err
	}
	return out, nil
}
