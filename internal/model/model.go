// Package model composes components over one shared store and partials table
// and drives analysis and total-derivative computation.
package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/logging"
)

var (
	// ErrNotIndependent indicates a totals request with respect to a computed variable.
	ErrNotIndependent = errors.New("model: not an independent variable")

	// ErrSealed indicates a structural change after Setup.
	ErrSealed = errors.New("model: already set up")
)

// DefaultTolerance is handed to SolveNonlinear when no tolerance is configured.
const DefaultTolerance = 1e-10

type Option func(*Model)

func WithLogger(l logr.Logger) Option {
	return func(m *Model) { m.log = l }
}

func WithTolerance(tol float64) Option {
	return func(m *Model) { m.tol = tol }
}

// WithDependencyOrder evaluates components in data-dependency order instead of
// registration order.
func WithDependencyOrder() Option {
	return func(m *Model) { m.graphOrder = true }
}

type subsystem struct {
	name string
	c    component.Component
}

type edge struct{ from, to string }

// Model owns the store and partials table shared by its components.
type Model struct {
	store *core.Store
	table *core.Table
	log   logr.Logger
	tol   float64

	graphOrder bool
	deps       []edge

	subs   []subsystem
	index  map[string]int
	owners map[string]string
	order  []int

	ready      bool
	linearized bool
}

func New(opts ...Option) *Model {
	m := &Model{
		store:  core.NewStore(),
		table:  core.NewTable(),
		log:    logr.Discard(),
		tol:    DefaultTolerance,
		index:  make(map[string]int),
		owners: make(map[string]string),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Model) Store() *core.Store  { return m.store }
func (m *Model) Table() *core.Table  { return m.table }
func (m *Model) Tolerance() float64  { return m.tol }
func (m *Model) Logger() logr.Logger { return m.log }

// AddSubsystem binds c to the model's arenas and runs its Setup. Output names
// are owned by exactly one component.
func (m *Model) AddSubsystem(name string, c component.Component) error {
	if m.ready {
		return fmt.Errorf("add subsystem %q: %w", name, ErrSealed)
	}
	if _, ok := m.index[name]; ok {
		return fmt.Errorf("add subsystem %q: %w", name, core.ErrDuplicateName)
	}

	var claimed []string
	err := component.Attach(c, component.Binding{
		Name:  name,
		Store: m.store,
		Table: m.table,
		Claim: func(out string) error {
			if owner, ok := m.owners[out]; ok {
				return &core.VariableError{Op: "claim output", Kind: core.Output, Name: out,
					Err: fmt.Errorf("%w: already owned by %q", core.ErrDuplicateName, owner)}
			}
			m.owners[out] = name
			claimed = append(claimed, out)
			return nil
		},
	})
	if err != nil {
		for _, out := range claimed {
			delete(m.owners, out)
		}
		return err
	}

	m.index[name] = len(m.subs)
	m.subs = append(m.subs, subsystem{name: name, c: c})
	m.log.V(logging.DEBUG).Info("subsystem added", "name", name, "implicit", c.Meta().IsImplicit(),
		"inputs", c.Meta().InputNames(), "outputs", c.Meta().OutputNames())
	return nil
}

// DependsOn records that subsystem after must be evaluated after before.
// Any recorded edge switches the model to dependency order.
func (m *Model) DependsOn(after, before string) error {
	if m.ready {
		return fmt.Errorf("depends on: %w", ErrSealed)
	}
	for _, n := range []string{after, before} {
		if _, ok := m.index[n]; !ok {
			return fmt.Errorf("depends on: subsystem %q: %w", n, core.ErrUnknownVariable)
		}
	}
	m.deps = append(m.deps, edge{from: before, to: after})
	return nil
}

// Setup declares every component's partials in registration order and fixes
// the evaluation order. After a failure it can be called again: components
// whose partials are already declared are skipped.
func (m *Model) Setup() error {
	if m.ready {
		return nil
	}
	for _, s := range m.subs {
		if s.c.Meta().State() >= component.PartialsDeclared {
			continue
		}
		if err := component.SetupPartials(s.c); err != nil {
			return err
		}
	}
	order, err := m.resolveOrder()
	if err != nil {
		return err
	}
	m.order = order
	m.ready = true
	m.log.V(logging.DEBUG).Info("model set up", "order", m.Order(), "variables", len(m.store.Names(core.Output)),
		"blocks", m.table.Len())
	return nil
}

// Order returns the subsystem names in evaluation order.
func (m *Model) Order() []string {
	idx := m.order
	if idx == nil {
		idx = registrationOrder(len(m.subs))
	}
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = m.subs[j].name
	}
	return out
}

// Subsystems returns the subsystem names in registration order.
func (m *Model) Subsystems() []string {
	out := make([]string, len(m.subs))
	for i, s := range m.subs {
		out[i] = s.name
	}
	return out
}

func (m *Model) Component(name string) (component.Component, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.subs[i].c, true
}

// Owner returns the subsystem that computes output name.
func (m *Model) Owner(name string) (string, bool) {
	o, ok := m.owners[name]
	return o, ok
}

// RunAnalysis performs one forward pass and then one linearization pass, both
// in evaluation order. It sets the model up first if needed. A logger carried
// by ctx takes precedence over the model's own.
func (m *Model) RunAnalysis(ctx context.Context) error {
	if err := m.Setup(); err != nil {
		return err
	}
	m.linearized = false
	log := logging.FromContextOr(ctx, m.log)

	for _, i := range m.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := m.subs[i]
		if err := component.Evaluate(s.c, m.tol); err != nil {
			return err
		}
		log.V(logging.DEBUG).Info("evaluated", "subsystem", s.name, "state", s.c.Meta().State())
	}
	for _, i := range m.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := m.subs[i]
		if err := component.Linearize(s.c); err != nil {
			return err
		}
		log.V(logging.DEBUG).Info("linearized", "subsystem", s.name)
	}
	m.linearized = true
	return nil
}

// Linearized reports whether partials reflect the current values.
func (m *Model) Linearized() bool { return m.linearized }

// SetVal writes name wherever it is declared: the output, the input, or both.
// It fails only when the name is in neither namespace. Writing invalidates
// the last linearization.
func (m *Model) SetVal(name string, v core.Value) error {
	found := false
	for _, k := range []core.Kind{core.Output, core.Input} {
		if !m.store.Has(k, name) {
			continue
		}
		found = true
		if err := m.store.Set(k, name, v); err != nil {
			return err
		}
	}
	if !found {
		return &core.VariableError{Op: "set_val", Kind: core.Input, Name: name, Err: core.ErrUnknownVariable}
	}
	m.linearized = false
	return nil
}

// GetVal reads name, preferring the output namespace.
func (m *Model) GetVal(name string) (core.Value, error) {
	if m.store.Has(core.Output, name) {
		return m.store.Get(core.Output, name)
	}
	if m.store.Has(core.Input, name) {
		return m.store.Get(core.Input, name)
	}
	return core.Value{}, &core.VariableError{Op: "get_val", Kind: core.Output, Name: name, Err: core.ErrUnknownVariable}
}

// Independent reports whether name is a free variable: an IndepVarComp
// output or an input no component computes.
func (m *Model) Independent(name string) bool {
	owner, ok := m.owners[name]
	if !ok {
		return m.store.Has(core.Input, name)
	}
	_, isIVC := m.subs[m.index[owner]].c.(*component.IndepVarComp)
	return isIVC
}

// DesignVariables returns the IndepVarComp outputs in registration order.
func (m *Model) DesignVariables() []string {
	var out []string
	for _, s := range m.subs {
		if _, ok := s.c.(*component.IndepVarComp); ok {
			out = append(out, s.c.Meta().OutputNames()...)
		}
	}
	return out
}
