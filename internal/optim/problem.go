// Package optim drives a model's design variables toward a minimum of one
// scalar response.
package optim

import (
	"context"
	"fmt"

	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/model"
)

// Problem names the objective and the design variables of a model.
type Problem struct {
	Model     *model.Model
	Objective string
	Design    []string
}

type Result struct {
	Design     map[string][]float64
	Objective  float64
	Iterations int
	// History holds the objective after every accepted iterate, starting
	// with the initial design.
	History   []float64
	Converged bool
}

// evaluate runs a full analysis and returns the scalar objective.
func (p Problem) evaluate(ctx context.Context) (float64, error) {
	if err := p.Model.RunAnalysis(ctx); err != nil {
		return 0, err
	}
	v, err := p.Model.GetVal(p.Objective)
	if err != nil {
		return 0, err
	}
	if v.Size() != 1 {
		return 0, &core.ShapeError{Op: "objective", Name: p.Objective, Want: core.Shape{}, Got: v.Shape()}
	}
	return v.Float(), nil
}

// design returns the flattened design vector and the value templates used
// to write it back.
func (p Problem) design() ([]float64, []core.Value, error) {
	var x []float64
	vals := make([]core.Value, len(p.Design))
	for i, name := range p.Design {
		if !p.Model.Independent(name) {
			return nil, nil, fmt.Errorf("design variable %q: %w", name, model.ErrNotIndependent)
		}
		v, err := p.Model.GetVal(name)
		if err != nil {
			return nil, nil, err
		}
		vals[i] = v
		x = append(x, v.Data()...)
	}
	return x, vals, nil
}

func (p Problem) setDesign(x []float64, vals []core.Value) error {
	off := 0
	for i, name := range p.Design {
		n := vals[i].Size()
		v, err := vals[i].WithData(x[off : off+n])
		if err != nil {
			return err
		}
		if err := p.Model.SetVal(name, v); err != nil {
			return err
		}
		off += n
	}
	return nil
}

func (p Problem) snapshot(x []float64, vals []core.Value) map[string][]float64 {
	out := make(map[string][]float64, len(p.Design))
	off := 0
	for i, name := range p.Design {
		n := vals[i].Size()
		out[name] = append([]float64(nil), x[off:off+n]...)
		off += n
	}
	return out
}
