package optim

import (
	"context"
	"math"

	"github.com/go-logr/logr"
	"github.com/san-kum/mdao/internal/logging"
	"gonum.org/v1/gonum/floats"
)

// SteepestDescent is a projected gradient method with Armijo backtracking.
// Gradients come from the model's adjoint totals.
type SteepestDescent struct {
	Step    float64
	MaxIter int
	Tol     float64
	// Lower and Upper bound every design entry; equal bounds mean unbounded.
	Lower, Upper float64
	Logger       logr.Logger

	// OnIterate, when set, observes every accepted iterate.
	OnIterate func(iter int, f float64, gnorm float64)
}

const (
	armijo        = 1e-4
	maxBacktracks = 30
)

func (s *SteepestDescent) project(x []float64) {
	if s.Lower == s.Upper {
		return
	}
	for i := range x {
		x[i] = math.Min(math.Max(x[i], s.Lower), s.Upper)
	}
}

func (s *SteepestDescent) gradient(p Problem) ([]float64, error) {
	totals, err := p.Model.ComputeTotals([]string{p.Objective}, p.Design)
	if err != nil {
		return nil, err
	}
	var g []float64
	for _, name := range p.Design {
		d, _ := totals.Get(p.Objective, name)
		g = append(g, d.RawRowView(0)...)
	}
	return g, nil
}

// Minimize iterates from the model's current design. The model is left at
// the best design found, analyzed and linearized.
func (s *SteepestDescent) Minimize(ctx context.Context, p Problem) (*Result, error) {
	log := s.Logger
	if log.GetSink() == nil {
		log = logging.FromContext(ctx)
	}
	x, vals, err := p.design()
	if err != nil {
		return nil, err
	}
	s.project(x)
	if err := p.setDesign(x, vals); err != nil {
		return nil, err
	}
	f, err := p.evaluate(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{History: []float64{f}}
	trial := make([]float64, len(x))
	for iter := 1; iter <= s.MaxIter; iter++ {
		g, err := s.gradient(p)
		if err != nil {
			return nil, err
		}

		alpha := s.Step
		var fTrial float64
		accepted := false
		for bt := 0; bt < maxBacktracks; bt++ {
			copy(trial, x)
			floats.AddScaled(trial, -alpha, g)
			s.project(trial)
			if err := p.setDesign(trial, vals); err != nil {
				return nil, err
			}
			if fTrial, err = p.evaluate(ctx); err != nil {
				return nil, err
			}
			// sufficient decrease along the projected step
			if fTrial <= f-armijo/alpha*floats.Distance(trial, x, 2)*floats.Distance(trial, x, 2) {
				accepted = true
				break
			}
			alpha /= 2
		}

		move := floats.Distance(trial, x, 2)
		if !accepted {
			// restore the last iterate
			if err := p.setDesign(x, vals); err != nil {
				return nil, err
			}
			if _, err := p.evaluate(ctx); err != nil {
				return nil, err
			}
			res.Converged = move < s.Tol
			break
		}

		copy(x, trial)
		change := f - fTrial
		f = fTrial
		res.History = append(res.History, f)
		res.Iterations = iter
		gnorm := floats.Norm(g, 2)
		log.V(logging.DEBUG).Info("descent step", "iter", iter, "objective", f, "gradient", gnorm, "alpha", alpha)
		if s.OnIterate != nil {
			s.OnIterate(iter, f, gnorm)
		}

		if move < s.Tol || change < s.Tol*(1+math.Abs(f)) {
			res.Converged = true
			break
		}
	}

	res.Design = p.snapshot(x, vals)
	res.Objective = f
	return res, nil
}
