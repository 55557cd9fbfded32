package components

import (
	"fmt"

	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
	"gonum.org/v1/gonum/floats"
)

type ComplianceConfig struct {
	Input  string    `mapstructure:"input"`
	Output string    `mapstructure:"output"`
	Size   int       `mapstructure:"size"`
	Load   []float64 `mapstructure:"load"`
}

// Compliance computes the work of the applied load, f = F·u.
type Compliance struct {
	component.Base
	cfg  ComplianceConfig
	load []float64
}

func NewCompliance(opts component.Options) (*Compliance, error) {
	cfg := ComplianceConfig{Input: "displacements", Output: "compliance"}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("compliance: size must be positive, got %d", cfg.Size)
	}
	load, err := resolveLoad(cfg.Load, cfg.Size)
	if err != nil {
		return nil, err
	}
	return &Compliance{Base: component.NewBase(opts), cfg: cfg, load: load}, nil
}

func (c *Compliance) Setup() error {
	if err := c.AddInput(c.cfg.Input, core.Zeros(c.cfg.Size)); err != nil {
		return err
	}
	return c.AddOutput(c.cfg.Output, core.Scalar(0))
}

func (c *Compliance) SetupPartials() error {
	return c.DeclarePartials(c.cfg.Output, c.cfg.Input, component.Val(c.load...))
}

func (c *Compliance) Compute(in component.Inputs, out component.Outputs) error {
	u, err := in.Slice(c.cfg.Input)
	if err != nil {
		return err
	}
	return out.SetFloat(c.cfg.Output, floats.Dot(c.load, u))
}

func (c *Compliance) ComputePartials(component.Inputs, component.Partials) error { return nil }
