package component

import (
	"fmt"
	"slices"

	"github.com/san-kum/mdao/internal/core"
	"gonum.org/v1/gonum/mat"
)

// Base is the bookkeeping every component embeds. It records which names the
// component declared and reaches the shared store and table through the
// binding installed by Attach.
type Base struct {
	name    string
	options Options

	store *core.Store
	table *core.Table
	claim func(output string) error

	inputs  []string
	outputs []string
	blocks  []core.Key

	implicit  bool
	state     State
	converged bool
}

// NewBase returns a Base carrying construction-time options.
func NewBase(opts Options) Base {
	return Base{options: opts}
}

func (b *Base) Meta() *Base { return b }

func (b *Base) Name() string     { return b.name }
func (b *Base) Options() Options { return b.options }
func (b *Base) State() State     { return b.state }
func (b *Base) IsImplicit() bool { return b.implicit }

// Converged reports whether the last SolveNonlinear call succeeded.
func (b *Base) Converged() bool { return b.converged }

// Arena returns the shared store and table the component is bound to.
func (b *Base) Arena() (*core.Store, *core.Table) { return b.store, b.table }

func (b *Base) InputNames() []string  { return slices.Clone(b.inputs) }
func (b *Base) OutputNames() []string { return slices.Clone(b.outputs) }
func (b *Base) Keys() []core.Key      { return slices.Clone(b.blocks) }

// reset returns b to its unattached state, keeping construction options.
func (b *Base) reset() {
	*b = Base{options: b.options}
}

func (b *Base) bound() error {
	if b.store == nil {
		return fmt.Errorf("component: %q is not attached to a store", b.name)
	}
	return nil
}

// AddInput declares an input. Inputs are shared: several components may read
// the same name as long as they agree on its shape.
func (b *Base) AddInput(name string, v core.Value) error {
	if err := b.bound(); err != nil {
		return err
	}
	if slices.Contains(b.inputs, name) {
		return &core.VariableError{Op: "add input", Kind: core.Input, Name: name, Err: core.ErrDuplicateName}
	}
	if out, err := b.store.Get(core.Output, name); err == nil && !out.SameShape(v) {
		return &core.VariableError{Op: "add input", Kind: core.Input, Name: name,
			Err: fmt.Errorf("%w: output of the same name has shape %s", core.ErrDuplicateName, out.Shape())}
	}
	if err := b.store.Declare(core.Input, name, v); err != nil {
		return err
	}
	b.inputs = append(b.inputs, name)
	return nil
}

// AddOutput declares an output owned by this component. Implicit components
// also get a residual of the same shape.
func (b *Base) AddOutput(name string, v core.Value) error {
	if err := b.bound(); err != nil {
		return err
	}
	if slices.Contains(b.outputs, name) {
		return &core.VariableError{Op: "add output", Kind: core.Output, Name: name, Err: core.ErrDuplicateName}
	}
	if b.claim != nil {
		if err := b.claim(name); err != nil {
			return err
		}
	}
	if in, err := b.store.Get(core.Input, name); err == nil && !in.SameShape(v) {
		return &core.VariableError{Op: "add output", Kind: core.Output, Name: name,
			Err: fmt.Errorf("%w: input of the same name has shape %s", core.ErrDuplicateName, in.Shape())}
	}
	if err := b.store.Declare(core.Output, name, v); err != nil {
		return err
	}
	if b.implicit {
		if err := b.store.Declare(core.Residual, name, core.Zeros(v.Shape()...)); err != nil {
			return err
		}
	}
	b.outputs = append(b.outputs, name)
	return nil
}

type partialConfig struct {
	rows, cols []int
	flat       []float64
	dense      mat.Matrix
}

// PartialOption refines a partial declaration.
type PartialOption func(*partialConfig)

// Rows fixes a coordinate sparsity pattern for the block.
func Rows(rows, cols []int) PartialOption {
	return func(c *partialConfig) {
		c.rows = rows
		c.cols = cols
	}
}

// Val seeds the block: pattern values for sparse blocks, row-major entries
// for dense ones.
func Val(values ...float64) PartialOption {
	return func(c *partialConfig) { c.flat = values }
}

// DenseVal seeds a dense block from a matrix.
func DenseVal(m mat.Matrix) PartialOption {
	return func(c *partialConfig) { c.dense = m }
}

// DeclarePartials declares d(of)/d(wrt). Either name may be core.Wildcard,
// which expands once, here, over the outputs/inputs declared so far. Implicit
// components may also name their own outputs as wrt. The expansion is
// declared as a whole or not at all.
func (b *Base) DeclarePartials(of, wrt string, opts ...PartialOption) error {
	if err := b.bound(); err != nil {
		return err
	}
	if b.state < SetupDone {
		return fmt.Errorf("component: %q declares partials before setup", b.name)
	}
	var cfg partialConfig
	for _, o := range opts {
		o(&cfg)
	}

	n, declared := b.table.Len(), len(b.blocks)
	for _, k := range core.ExpandWildcard(of, wrt, b.outputs, b.inputs) {
		if err := b.declareBlock(k, cfg); err != nil {
			b.table.Truncate(n)
			b.blocks = b.blocks[:declared]
			return err
		}
	}
	return nil
}

func (b *Base) declareBlock(k core.Key, cfg partialConfig) error {
	if !slices.Contains(b.outputs, k.Of) {
		return &core.VariableError{Op: "declare partials of", Kind: core.Output, Name: k.Of, Err: core.ErrUnknownVariable}
	}
	wrtKind := core.Input
	switch {
	case slices.Contains(b.inputs, k.Wrt):
	case b.implicit && slices.Contains(b.outputs, k.Wrt):
		wrtKind = core.Output
	default:
		return &core.VariableError{Op: "declare partials wrt", Kind: core.Input, Name: k.Wrt, Err: core.ErrUnknownVariable}
	}

	rows, err := b.store.Size(core.Output, k.Of)
	if err != nil {
		return err
	}
	cols, err := b.store.Size(wrtKind, k.Wrt)
	if err != nil {
		return err
	}

	switch {
	case cfg.rows != nil:
		err = b.table.DeclareSparse(k.Of, k.Wrt, rows, cols, cfg.rows, cfg.cols, cfg.flat)
	case cfg.dense != nil:
		err = b.table.DeclareDense(k.Of, k.Wrt, rows, cols, cfg.dense)
	case cfg.flat != nil:
		if len(cfg.flat) != rows*cols {
			return &core.ShapeError{Op: "declare partials", Name: k.String(), Want: core.Shape{rows, cols}, Got: core.Shape{len(cfg.flat)}}
		}
		err = b.table.DeclareDense(k.Of, k.Wrt, rows, cols, mat.NewDense(rows, cols, slices.Clone(cfg.flat)))
	default:
		err = b.table.DeclareDense(k.Of, k.Wrt, rows, cols, nil)
	}
	if err != nil {
		return err
	}
	b.blocks = append(b.blocks, k)
	return nil
}
