package component

import (
	"fmt"
	"slices"

	"github.com/san-kum/mdao/internal/core"
)

// Binding connects a component to the arenas of its model.
type Binding struct {
	Name  string
	Store *core.Store
	Table *core.Table
	// Claim registers the component as the single owner of an output name.
	Claim func(output string) error
}

// Attach binds c and runs its Setup. For implicit components it confirms that
// every output has a residual of the same name. On failure every name the
// component declared is removed from the store and c is left unattached.
func Attach(c Component, bd Binding) (err error) {
	b := c.Meta()
	if b.state != Uninitialized {
		return fmt.Errorf("component: %q is already attached as %q", bd.Name, b.name)
	}
	b.name = bd.Name
	b.store = bd.Store
	b.table = bd.Table
	b.claim = bd.Claim
	b.implicit = isImplicit(c)

	mark := b.store.Mark()
	defer func() {
		if err != nil {
			b.store.Rollback(mark)
			b.reset()
		}
	}()

	if err := c.Setup(); err != nil {
		return fmt.Errorf("setup %s: %w", b.name, err)
	}
	if b.implicit {
		for _, out := range b.outputs {
			if !b.store.Has(core.Residual, out) {
				return &core.VariableError{Op: "align residuals", Kind: core.Residual, Name: out, Err: core.ErrUnknownVariable}
			}
		}
	}
	b.state = SetupDone
	return nil
}

// SetupPartials runs the component's partial declarations. A failure drops
// every block declared by this call.
func SetupPartials(c Component) error {
	b := c.Meta()
	if b.state != SetupDone {
		return fmt.Errorf("component: %q cannot declare partials in state %s", b.name, b.state)
	}
	n, declared := b.table.Len(), len(b.blocks)
	if err := c.SetupPartials(); err != nil {
		b.table.Truncate(n)
		b.blocks = b.blocks[:declared]
		return fmt.Errorf("setup partials %s: %w", b.name, err)
	}
	b.state = PartialsDeclared
	return nil
}

// Evaluate runs the forward step of c: Compute for explicit components,
// GuessNonlinear then SolveNonlinear for implicit ones. Afterwards every
// output is copied into the input of the same name. A failed step leaves c
// unevaluated, so it cannot be linearized until it evaluates again.
func Evaluate(c Component, tol float64) (err error) {
	b := c.Meta()
	if b.state < SetupDone {
		return fmt.Errorf("component: %q evaluated before setup", b.name)
	}
	defer func() {
		if err != nil && b.state > PartialsDeclared {
			b.state = PartialsDeclared
		}
	}()
	in, out := b.inputsView(), b.outputsView()

	switch comp := c.(type) {
	case Implicit:
		b.converged = false
		if err := comp.GuessNonlinear(in, out, b.residualsView()); err != nil {
			return fmt.Errorf("guess %s: %w", b.name, err)
		}
		if err := comp.SolveNonlinear(in, out, tol); err != nil {
			return fmt.Errorf("solve %s: %w", b.name, err)
		}
		b.converged = true
	case Explicit:
		if err := comp.Compute(in, out); err != nil {
			return fmt.Errorf("compute %s: %w", b.name, err)
		}
	default:
		return fmt.Errorf("component: %q is neither explicit nor implicit", b.name)
	}

	for _, name := range b.outputs {
		if _, err := b.store.Propagate(name); err != nil {
			return err
		}
	}
	if b.state >= PartialsDeclared {
		b.state = Evaluated
	}
	return nil
}

// Linearize fills the component's partial blocks at the current state. It
// requires declared partials and a converged forward evaluation.
func Linearize(c Component) error {
	b := c.Meta()
	if b.state < Evaluated || (b.implicit && !b.converged) {
		return &core.LifecycleError{Op: "linearize", Component: b.name, State: b.state.String()}
	}
	in, out, p := b.inputsView(), b.outputsView(), b.partialsView()

	switch comp := c.(type) {
	case Implicit:
		if err := comp.Linearize(in, out, p); err != nil {
			return fmt.Errorf("linearize %s: %w", b.name, err)
		}
	case Explicit:
		if err := comp.ComputePartials(in, p); err != nil {
			return fmt.Errorf("compute partials %s: %w", b.name, err)
		}
	}
	b.state = Linearized
	return nil
}

// ApplyNonlinear evaluates the residuals of an implicit component at the
// current inputs and outputs.
func ApplyNonlinear(c Implicit) error {
	b := c.Meta()
	if b.state < SetupDone {
		return fmt.Errorf("component: %q evaluated before setup", b.name)
	}
	return c.ApplyNonlinear(b.inputsView(), b.outputsView(), b.residualsView())
}

// Respond evaluates c without propagation or lifecycle changes and returns
// the flattened response per output name: output values for explicit
// components, residual values for implicit ones.
func Respond(c Component) (map[string][]float64, error) {
	b := c.Meta()
	kind := core.Output
	switch comp := c.(type) {
	case Implicit:
		if err := ApplyNonlinear(comp); err != nil {
			return nil, err
		}
		kind = core.Residual
	case Explicit:
		if err := comp.Compute(b.inputsView(), b.outputsView()); err != nil {
			return nil, err
		}
	}

	resp := make(map[string][]float64, len(b.outputs))
	for _, name := range b.outputs {
		v, err := b.store.Get(kind, name)
		if err != nil {
			return nil, err
		}
		resp[name] = v.Data()
	}
	return resp, nil
}

// WrtKind reports the namespace a declared wrt name lives in.
func (b *Base) WrtKind(wrt string) core.Kind {
	if b.implicit && slices.Contains(b.outputs, wrt) {
		return core.Output
	}
	return core.Input
}
