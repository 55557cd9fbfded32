package component

import (
	"github.com/san-kum/mdao/internal/core"
)

// Harness runs a single component against private arenas, outside any model.
type Harness struct {
	Store *core.Store
	Table *core.Table
	c     Component
}

// NewHarness attaches c to fresh arenas and declares its partials.
func NewHarness(name string, c Component) (*Harness, error) {
	h := &Harness{Store: core.NewStore(), Table: core.NewTable(), c: c}
	owned := make(map[string]bool)
	err := Attach(c, Binding{
		Name:  name,
		Store: h.Store,
		Table: h.Table,
		Claim: func(out string) error {
			if owned[out] {
				return &core.VariableError{Op: "claim", Kind: core.Output, Name: out, Err: core.ErrDuplicateName}
			}
			owned[out] = true
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	if err := SetupPartials(c); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Harness) Component() Component { return h.c }

// Set writes an input (and an output of the same name, if any).
func (h *Harness) Set(name string, v core.Value) error {
	found := false
	for _, k := range []core.Kind{core.Output, core.Input} {
		if !h.Store.Has(k, name) {
			continue
		}
		found = true
		if err := h.Store.Set(k, name, v); err != nil {
			return err
		}
	}
	if !found {
		return &core.VariableError{Op: "set", Kind: core.Input, Name: name, Err: core.ErrUnknownVariable}
	}
	return nil
}

func (h *Harness) Get(name string) (core.Value, error) {
	if h.Store.Has(core.Output, name) {
		return h.Store.Get(core.Output, name)
	}
	return h.Store.Get(core.Input, name)
}

// Run evaluates then linearizes the component.
func (h *Harness) Run(tol float64) error {
	if err := Evaluate(h.c, tol); err != nil {
		return err
	}
	return Linearize(h.c)
}
