package model

import (
	"fmt"

	"github.com/san-kum/mdao/internal/adjoint"
	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/logging"
	"github.com/san-kum/mdao/internal/solvers"
	"gonum.org/v1/gonum/mat"
)

// slots lays every variable name of the model out along one global vector.
type slots struct {
	names  []string
	offset map[string]int
	size   map[string]int
	n      int
}

func (m *Model) slots() (*slots, error) {
	s := &slots{offset: make(map[string]int), size: make(map[string]int)}
	add := func(k core.Kind, name string) error {
		if _, ok := s.offset[name]; ok {
			return nil
		}
		size, err := m.store.Size(k, name)
		if err != nil {
			return err
		}
		s.names = append(s.names, name)
		s.offset[name] = s.n
		s.size[name] = size
		s.n += size
		return nil
	}
	for _, k := range []core.Kind{core.Output, core.Input} {
		for _, name := range m.store.Names(k) {
			if err := add(k, name); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Jacobian assembles the global residual Jacobian of the linearized model.
// Explicit outputs y = f(x) contribute rows of y − f(x); implicit components
// contribute their ∂R blocks; independent variables contribute identity rows.
func (m *Model) Jacobian() (*mat.Dense, []string, error) {
	s, err := m.slots()
	if err != nil {
		return nil, nil, err
	}
	j, err := m.assemble(s)
	if err != nil {
		return nil, nil, err
	}
	return j, s.names, nil
}

func (m *Model) assemble(s *slots) (*mat.Dense, error) {
	j := mat.NewDense(s.n, s.n, nil)
	identity := func(name string) {
		o := s.offset[name]
		for i := 0; i < s.size[name]; i++ {
			j.Set(o+i, o+i, 1)
		}
	}

	for _, name := range s.names {
		owner, ok := m.owners[name]
		if !ok {
			identity(name)
			continue
		}
		c := m.subs[m.index[owner]].c
		alpha := -1.0
		switch c.(type) {
		case *component.IndepVarComp:
			identity(name)
			continue
		case component.Implicit:
			alpha = 1
		default:
			identity(name)
		}
		for _, k := range c.Meta().Keys() {
			if k.Of != name {
				continue
			}
			if err := m.table.AddTo(j, s.offset[k.Of], s.offset[k.Wrt], k.Of, k.Wrt, alpha); err != nil {
				return nil, err
			}
		}
	}
	return j, nil
}

// ComputeTotals returns d(of)/d(wrt) for every pair of the requested names by
// the adjoint method: one factorization of the global Jacobian and one
// transposed solve per response. wrt names must be independent variables.
// The model must be linearized at its current values.
func (m *Model) ComputeTotals(of, wrt []string) (adjoint.Totals, error) {
	if !m.linearized {
		return nil, &core.LifecycleError{Op: "compute totals", Component: "model", State: "not linearized"}
	}
	s, err := m.slots()
	if err != nil {
		return nil, err
	}
	for _, name := range of {
		if _, ok := s.offset[name]; !ok {
			return nil, &core.VariableError{Op: "compute totals of", Kind: core.Output, Name: name, Err: core.ErrUnknownVariable}
		}
	}
	for _, name := range wrt {
		if _, ok := s.offset[name]; !ok {
			return nil, &core.VariableError{Op: "compute totals wrt", Kind: core.Input, Name: name, Err: core.ErrUnknownVariable}
		}
		if !m.Independent(name) {
			return nil, fmt.Errorf("compute totals wrt %q: %w", name, ErrNotIndependent)
		}
	}

	j, err := m.assemble(s)
	if err != nil {
		return nil, err
	}
	f, err := solvers.Factorize("compute totals", j)
	if err != nil {
		return nil, err
	}
	m.log.V(logging.DEBUG).Info("global jacobian factorized", "size", s.n, "cond", f.Cond())

	totals := make(adjoint.Totals)
	for _, name := range of {
		rows := s.size[name]
		seed := mat.NewDense(s.n, rows, nil)
		for i := 0; i < rows; i++ {
			seed.Set(s.offset[name]+i, i, 1)
		}
		psi, err := f.SolveTranspose(seed)
		if err != nil {
			return nil, err
		}
		for _, x := range wrt {
			o, cols := s.offset[x], s.size[x]
			d := mat.NewDense(rows, cols, nil)
			d.Copy(psi.Slice(o, o+cols, 0, rows).T())
			totals[adjoint.Pair{Of: name, Wrt: x}] = d
		}
	}
	return totals, nil
}
