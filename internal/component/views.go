package component

import (
	"slices"

	"github.com/san-kum/mdao/internal/core"
	"gonum.org/v1/gonum/mat"
)

// view reads and writes one namespace of the shared store, restricted to the
// names its component declared.
type view struct {
	store *core.Store
	kind  core.Kind
	names []string
	// extra names readable from another namespace (implicit outputs seen as inputs)
	alt     core.Kind
	altName []string
}

func (v view) resolve(op, name string) (core.Kind, error) {
	if slices.Contains(v.names, name) {
		return v.kind, nil
	}
	if slices.Contains(v.altName, name) {
		return v.alt, nil
	}
	return v.kind, &core.VariableError{Op: op, Kind: v.kind, Name: name, Err: core.ErrUnknownVariable}
}

// Value returns a copy of a declared variable.
func (v view) Value(name string) (core.Value, error) {
	k, err := v.resolve("read", name)
	if err != nil {
		return core.Value{}, err
	}
	return v.store.Get(k, name)
}

// Float returns a scalar variable (or the first element of a tensor).
func (v view) Float(name string) (float64, error) {
	val, err := v.Value(name)
	if err != nil {
		return 0, err
	}
	return val.Float(), nil
}

// Slice returns the flattened values of a variable.
func (v view) Slice(name string) ([]float64, error) {
	val, err := v.Value(name)
	if err != nil {
		return nil, err
	}
	return val.Data(), nil
}

func (v view) Names() []string { return slices.Clone(v.names) }

type writer struct{ view }

func (w writer) Set(name string, val core.Value) error {
	if !slices.Contains(w.names, name) {
		return &core.VariableError{Op: "write", Kind: w.kind, Name: name, Err: core.ErrUnknownVariable}
	}
	return w.store.Set(w.kind, name, val)
}

func (w writer) SetFloat(name string, x float64) error {
	return w.Set(name, core.Scalar(x))
}

// SetSlice keeps the declared shape and overwrites the flattened values.
func (w writer) SetSlice(name string, data []float64) error {
	if !slices.Contains(w.names, name) {
		return &core.VariableError{Op: "write", Kind: w.kind, Name: name, Err: core.ErrUnknownVariable}
	}
	return w.store.SetData(w.kind, name, data)
}

// Inputs is a read-only view of a component's inputs.
type Inputs struct{ view }

// Outputs reads and writes a component's outputs.
type Outputs struct{ writer }

// Residuals reads and writes an implicit component's residuals.
type Residuals struct{ writer }

// Partials fills the blocks a component declared.
type Partials struct {
	table *core.Table
	keys  []core.Key
}

func (p Partials) check(of, wrt string) error {
	k := core.Key{Of: of, Wrt: wrt}
	if !slices.Contains(p.keys, k) {
		return &core.BlockError{Op: "fill", Key: k, Err: core.ErrUnknownBlock}
	}
	return nil
}

// Set fills a block: pattern values for sparse blocks, row-major entries for dense ones.
func (p Partials) Set(of, wrt string, values ...float64) error {
	if err := p.check(of, wrt); err != nil {
		return err
	}
	return p.table.Fill(of, wrt, values)
}

func (p Partials) SetDense(of, wrt string, m mat.Matrix) error {
	if err := p.check(of, wrt); err != nil {
		return err
	}
	return p.table.FillDense(of, wrt, m)
}

func (b *Base) inputsView() Inputs {
	v := view{store: b.store, kind: core.Input, names: b.inputs}
	if b.implicit {
		v.alt = core.Output
		v.altName = b.outputs
	}
	return Inputs{v}
}

func (b *Base) outputsView() Outputs {
	return Outputs{writer{view{store: b.store, kind: core.Output, names: b.outputs}}}
}

func (b *Base) residualsView() Residuals {
	return Residuals{writer{view{store: b.store, kind: core.Residual, names: b.outputs}}}
}

func (b *Base) partialsView() Partials {
	return Partials{table: b.table, keys: b.blocks}
}
