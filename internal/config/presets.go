package config

import (
	"slices"

	"gopkg.in/yaml.v3"
)

const springSize = 8

func springDensity() []any {
	out := make([]any, springSize)
	for i := range out {
		out[i] = 0.5
	}
	return out
}

var Presets = map[string]*Config{
	"chain": {
		Name:        "chain",
		Description: "y = 2x, f = y²; df/dx = 16 at x = 2",
		Tolerance:   DefaultTolerance,
		Order:       OrderRegistration,
		DesignVars:  []VariableConfig{{Name: "x", Value: 2.0}},
		Components: []ComponentConfig{
			{Name: "double", Type: "scale", Options: map[string]any{"input": "x", "output": "y", "factor": 2.0}},
			{Name: "obj", Type: "square", Options: map[string]any{"input": "y", "output": "f"}},
		},
		Totals: TotalsConfig{Of: []string{"f", "y"}, Wrt: []string{"x"}},
	},
	"paraboloid": {
		Name:        "paraboloid",
		Description: "unconstrained paraboloid, minimum -27.333 at (6.667, -7.333)",
		Tolerance:   DefaultTolerance,
		Order:       OrderRegistration,
		DesignVars:  []VariableConfig{{Name: "x", Value: 3.0}, {Name: "y", Value: -4.0}},
		Components: []ComponentConfig{
			{Name: "parab", Type: "paraboloid"},
		},
		Totals: TotalsConfig{Of: []string{"f_xy"}, Wrt: []string{"x", "y"}},
		Optimize: &OptimizeConfig{
			Objective: "f_xy", Step: 0.2, MaxIter: 200, Tol: 1e-8, Lower: -50, Upper: 50,
		},
	},
	"quadratic": {
		Name:        "quadratic",
		Description: "implicit root of x² - 3x + 2 from x = 0",
		Tolerance:   DefaultTolerance,
		Order:       OrderRegistration,
		DesignVars: []VariableConfig{
			{Name: "a", Value: 1.0}, {Name: "b", Value: -3.0}, {Name: "c", Value: 2.0},
		},
		Components: []ComponentConfig{
			{Name: "quad", Type: "quadratic"},
		},
		Totals: TotalsConfig{Of: []string{"x"}, Wrt: []string{"a", "b", "c"}},
	},
	"spring": {
		Name:        "spring",
		Description: "filtered SIMP spring chain, compliance and volume fraction",
		Tolerance:   DefaultTolerance,
		Order:       OrderDependency,
		DesignVars:  []VariableConfig{{Name: "density_unfiltered", Value: springDensity()}},
		Components: []ComponentConfig{
			{Name: "filter", Type: "density_filter", Options: map[string]any{"size": springSize, "radius": 2.0}},
			{Name: "springs", Type: "spring_chain", Options: map[string]any{"size": springSize}},
			{Name: "compliance", Type: "compliance", Options: map[string]any{"size": springSize}},
			{Name: "volume", Type: "average", Options: map[string]any{"size": springSize}},
		},
		Totals: TotalsConfig{Of: []string{"compliance", "avg_density"}, Wrt: []string{"density_unfiltered"}},
		Adjoint: &AdjointConfig{
			State:        "displacements",
			Objective:    "compliance",
			Constraints:  []string{"avg_density"},
			Intermediate: "density",
			Design:       []string{"density_unfiltered"},
		},
		Optimize: &OptimizeConfig{
			Objective: "compliance", Step: 0.05, MaxIter: 50, Tol: 1e-6, Lower: 0.05, Upper: 1,
		},
	},
}

// GetPreset returns a copy of a named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
