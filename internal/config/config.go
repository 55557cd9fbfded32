// Package config loads problem files: the components of a model, their
// options, initial values and the derivatives or optimization to run.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/go-logr/logr"
	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/model"
	"github.com/san-kum/mdao/internal/registry"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTolerance = 1e-10
	DefaultStep      = 0.1
	DefaultMaxIter   = 100
	DefaultOptTol    = 1e-6

	OrderRegistration = "registration"
	OrderDependency   = "dependency"

	// IndepsName is the subsystem holding the design variables.
	IndepsName = "indeps"
)

var ErrInvalid = errors.New("config: invalid problem")

type Config struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Tolerance   float64           `yaml:"tolerance"`
	Order       string            `yaml:"order"`
	DesignVars  []VariableConfig  `yaml:"design_vars"`
	Components  []ComponentConfig `yaml:"components"`
	DependsOn   [][]string        `yaml:"depends_on,omitempty"`
	Values      []VariableConfig  `yaml:"values,omitempty"`
	Totals      TotalsConfig      `yaml:"totals"`
	Adjoint     *AdjointConfig    `yaml:"adjoint,omitempty"`
	Optimize    *OptimizeConfig   `yaml:"optimize,omitempty"`
}

type VariableConfig struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

type ComponentConfig struct {
	Name    string         `yaml:"name"`
	Type    string         `yaml:"type"`
	Options map[string]any `yaml:"options,omitempty"`
}

type TotalsConfig struct {
	Of  []string `yaml:"of"`
	Wrt []string `yaml:"wrt"`
}

// AdjointConfig names the blocks of a single-state adjoint solve.
type AdjointConfig struct {
	State        string   `yaml:"state"`
	Objective    string   `yaml:"objective"`
	Constraints  []string `yaml:"constraints,omitempty"`
	Intermediate string   `yaml:"intermediate"`
	Design       []string `yaml:"design"`
}

type OptimizeConfig struct {
	Objective string  `yaml:"objective"`
	Step      float64 `yaml:"step"`
	MaxIter   int     `yaml:"max_iter"`
	Tol       float64 `yaml:"tol"`
	Lower     float64 `yaml:"lower"`
	Upper     float64 `yaml:"upper"`
}

func DefaultConfig() *Config {
	return &Config{
		Tolerance: DefaultTolerance,
		Order:     OrderRegistration,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a problem file over DefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Optimize != nil {
		cfg.Optimize.applyDefaults()
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (o *OptimizeConfig) applyDefaults() {
	if o.Step == 0 {
		o.Step = DefaultStep
	}
	if o.MaxIter == 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.Tol == 0 {
		o.Tol = DefaultOptTol
	}
}

// Validate checks the problem against the registry without building it.
func (c *Config) Validate(reg *registry.Registry) error {
	var errs []error
	if c.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("tolerance must be positive, got %g", c.Tolerance))
	}
	if c.Order != OrderRegistration && c.Order != OrderDependency {
		errs = append(errs, fmt.Errorf("order must be %q or %q, got %q", OrderRegistration, OrderDependency, c.Order))
	}
	if len(c.Components) == 0 {
		errs = append(errs, fmt.Errorf("no components"))
	}
	seen := map[string]bool{IndepsName: len(c.DesignVars) > 0}
	for i, cc := range c.Components {
		switch {
		case cc.Name == "":
			errs = append(errs, fmt.Errorf("components[%d]: missing name", i))
		case seen[cc.Name]:
			errs = append(errs, fmt.Errorf("components[%d]: duplicate name %q", i, cc.Name))
		}
		seen[cc.Name] = true
		if !reg.Has(cc.Type) {
			errs = append(errs, fmt.Errorf("components[%d]: unknown type %q", i, cc.Type))
		}
	}
	for i, d := range c.DependsOn {
		if len(d) != 2 {
			errs = append(errs, fmt.Errorf("depends_on[%d]: want [after, before], got %v", i, d))
		}
	}
	for i, v := range slices.Concat(c.DesignVars, c.Values) {
		if v.Name == "" {
			errs = append(errs, fmt.Errorf("variables[%d]: missing name", i))
		}
		if _, err := ToValue(v.Value); err != nil {
			errs = append(errs, fmt.Errorf("variable %q: %w", v.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Build validates the problem and assembles its model. Initial values are
// applied; the model is not set up or run.
func (c *Config) Build(reg *registry.Registry, log logr.Logger) (*model.Model, error) {
	if err := c.Validate(reg); err != nil {
		return nil, err
	}
	opts := []model.Option{model.WithTolerance(c.Tolerance), model.WithLogger(log)}
	if c.Order == OrderDependency {
		opts = append(opts, model.WithDependencyOrder())
	}
	m := model.New(opts...)

	if len(c.DesignVars) > 0 {
		var ivc *component.IndepVarComp
		for _, dv := range c.DesignVars {
			v, _ := ToValue(dv.Value)
			if ivc == nil {
				ivc = component.NewIndepVarComp(dv.Name, v)
			} else {
				ivc.Add(dv.Name, v)
			}
		}
		if err := m.AddSubsystem(IndepsName, ivc); err != nil {
			return nil, err
		}
	}

	for _, cc := range c.Components {
		comp, err := reg.Build(cc.Type, component.Options(cc.Options))
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", cc.Name, err)
		}
		if err := m.AddSubsystem(cc.Name, comp); err != nil {
			return nil, err
		}
	}
	for _, d := range c.DependsOn {
		if err := m.DependsOn(d[0], d[1]); err != nil {
			return nil, err
		}
	}
	for _, v := range c.Values {
		val, _ := ToValue(v.Value)
		if err := m.SetVal(v.Name, val); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ToValue converts a decoded YAML value to a core.Value: a number becomes a
// scalar, a list a vector and a list of equal-length lists a matrix.
func ToValue(raw any) (core.Value, error) {
	switch v := raw.(type) {
	case int:
		return core.Scalar(float64(v)), nil
	case float64:
		return core.Scalar(v), nil
	case []any:
		if len(v) == 0 {
			return core.Value{}, fmt.Errorf("empty list")
		}
		if _, nested := v[0].([]any); nested {
			return matrix(v)
		}
		data, err := floatsOf(v)
		if err != nil {
			return core.Value{}, err
		}
		return core.Vector(data...), nil
	case nil:
		return core.Value{}, fmt.Errorf("missing value")
	}
	return core.Value{}, fmt.Errorf("unsupported value %v (%T)", raw, raw)
}

func floatsOf(list []any) ([]float64, error) {
	out := make([]float64, len(list))
	for i, e := range list {
		switch n := e.(type) {
		case int:
			out[i] = float64(n)
		case float64:
			out[i] = n
		default:
			return nil, fmt.Errorf("element %d: not a number: %v", i, e)
		}
	}
	return out, nil
}

func matrix(rows []any) (core.Value, error) {
	var data []float64
	cols := -1
	for i, r := range rows {
		row, ok := r.([]any)
		if !ok {
			return core.Value{}, fmt.Errorf("row %d: not a list", i)
		}
		vals, err := floatsOf(row)
		if err != nil {
			return core.Value{}, fmt.Errorf("row %d: %w", i, err)
		}
		if cols >= 0 && len(vals) != cols {
			return core.Value{}, &core.ShapeError{Op: "parse", Name: fmt.Sprintf("row %d", i), Want: core.Shape{cols}, Got: core.Shape{len(vals)}}
		}
		cols = len(vals)
		data = append(data, vals...)
	}
	return core.NewTensor(core.Shape{len(rows), cols}, data)
}
