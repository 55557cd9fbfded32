// Package registry maps component type names to constructors.
package registry

import (
	"fmt"
	"slices"

	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/components"
)

// Factory builds a component from its options.
type Factory func(opts component.Options) (component.Component, error)

type entry struct {
	factory Factory
	summary string
}

type Registry struct {
	types map[string]entry
}

// New returns a registry holding the built-in components.
func New() *Registry {
	r := &Registry{types: make(map[string]entry)}

	r.Register("scale", "y = factor·x elementwise", wrap(components.NewScale))
	r.Register("square", "f = y² elementwise", wrap(components.NewSquare))
	r.Register("paraboloid", "f = (x-3)² + xy + (y+4)² - 3", wrap(components.NewParaboloid))
	r.Register("linear", "y = A·x + b", wrap(components.NewLinear))
	r.Register("density_filter", "hat-kernel smoothing of a 1-D density field", wrap(components.NewDensityFilter))
	r.Register("average", "mean of a vector", wrap(components.NewAverage))
	r.Register("spring_chain", "implicit SIMP spring chain, R = K(ρ)·u − F", wrap(components.NewSpringChain))
	r.Register("compliance", "load work f = F·u", wrap(components.NewCompliance))
	r.Register("quadratic", "implicit root of a·x² + b·x + c", wrap(components.NewQuadratic))

	return r
}

// wrap adapts a typed constructor to a Factory.
func wrap[C component.Component](fn func(component.Options) (C, error)) Factory {
	return func(opts component.Options) (component.Component, error) {
		return fn(opts)
	}
}

// Register adds or replaces a component type.
func (r *Registry) Register(name, summary string, f Factory) {
	r.types[name] = entry{factory: f, summary: summary}
}

func (r *Registry) Build(name string, opts component.Options) (component.Component, error) {
	e, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("unknown component type: %s", name)
	}
	c, err := e.factory(opts)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return c, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.types[name]
	return ok
}

func (r *Registry) Summary(name string) string {
	return r.types[name].summary
}

// List returns the registered type names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
