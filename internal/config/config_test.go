package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/registry"
)

const chainYAML = `
name: chain
tolerance: 1.0e-12
design_vars:
  - name: x
    value: 2
components:
  - name: double
    type: scale
    options: {input: x, output: y, factor: 2}
  - name: obj
    type: square
    options: {input: y, output: f}
totals:
  of: [f]
  wrt: [x]
`

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Tolerance <= 0 {
		t.Error("tolerance should be positive")
	}
	if cfg.Order != OrderRegistration {
		t.Errorf("expected registration order, got %s", cfg.Order)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(chainYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tolerance != 1e-12 {
		t.Errorf("expected tolerance 1e-12, got %g", cfg.Tolerance)
	}
	if cfg.Order != OrderRegistration {
		t.Errorf("default order should survive parsing, got %q", cfg.Order)
	}
	if len(cfg.Components) != 2 || cfg.Components[1].Type != "square" {
		t.Errorf("unexpected components: %+v", cfg.Components)
	}
}

func TestBuildAndRun(t *testing.T) {
	cfg, err := Parse([]byte(chainYAML))
	if err != nil {
		t.Fatal(err)
	}
	m, err := cfg.Build(registry.New(), logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.RunAnalysis(context.Background()); err != nil {
		t.Fatal(err)
	}

	totals, err := m.ComputeTotals(cfg.Totals.Of, cfg.Totals.Wrt)
	if err != nil {
		t.Fatal(err)
	}
	d, _ := totals.Get("f", "x")
	if got := d.At(0, 0); got < 16-1e-9 || got > 16+1e-9 {
		t.Errorf("df/dx = %g, want 16", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no components", func(c *Config) { c.Components = nil }},
		{"unknown type", func(c *Config) { c.Components[0].Type = "flux_capacitor" }},
		{"duplicate name", func(c *Config) { c.Components[1].Name = "double" }},
		{"reserved name", func(c *Config) { c.Components[0].Name = IndepsName }},
		{"bad order", func(c *Config) { c.Order = "random" }},
		{"bad tolerance", func(c *Config) { c.Tolerance = 0 }},
		{"bad value", func(c *Config) { c.DesignVars[0].Value = "two" }},
		{"bad edge", func(c *Config) { c.DependsOn = [][]string{{"obj"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(chainYAML))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(registry.New()); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestToValue(t *testing.T) {
	tests := []struct {
		name  string
		raw   any
		shape core.Shape
		err   bool
	}{
		{"int", 3, nil, false},
		{"float", 2.5, nil, false},
		{"vector", []any{1, 2.5, 3}, core.Shape{3}, false},
		{"matrix", []any{[]any{1, 2}, []any{3, 4}}, core.Shape{2, 2}, false},
		{"ragged", []any{[]any{1, 2}, []any{3}}, nil, true},
		{"empty", []any{}, nil, true},
		{"string", "x", nil, true},
		{"missing", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ToValue(tt.raw)
			if tt.err {
				if err == nil {
					t.Fatalf("expected error, got %v", v)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !v.Shape().Equal(tt.shape) {
				t.Errorf("shape %s, want %s", v.Shape(), tt.shape)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spring.yaml")
	if err := Save(path, GetPreset("spring")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Adjoint == nil || cfg.Adjoint.State != "displacements" {
		t.Errorf("adjoint section lost: %+v", cfg.Adjoint)
	}
	if err := cfg.Validate(registry.New()); err != nil {
		t.Errorf("round-tripped preset invalid: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("chain")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	cfg.Components = nil
	if len(Presets["chain"].Components) == 0 {
		t.Error("GetPreset must return a copy")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsRun(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			m, err := cfg.Build(registry.New(), logr.Discard())
			if err != nil {
				t.Fatal(err)
			}
			if err := m.RunAnalysis(context.Background()); err != nil {
				t.Fatal(err)
			}
			if _, err := m.ComputeTotals(cfg.Totals.Of, cfg.Totals.Wrt); err != nil {
				t.Fatal(err)
			}
		})
	}
}
