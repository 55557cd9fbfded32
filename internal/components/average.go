package components

import (
	"fmt"

	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
	"gonum.org/v1/gonum/floats"
)

type AverageConfig struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
	Size   int    `mapstructure:"size"`
}

// Average computes the mean of a vector.
type Average struct {
	component.Base
	cfg AverageConfig
}

func NewAverage(opts component.Options) (*Average, error) {
	cfg := AverageConfig{Input: "density", Output: "avg_density"}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("average: size must be positive, got %d", cfg.Size)
	}
	return &Average{Base: component.NewBase(opts), cfg: cfg}, nil
}

func (c *Average) Setup() error {
	if err := c.AddInput(c.cfg.Input, core.Zeros(c.cfg.Size)); err != nil {
		return err
	}
	return c.AddOutput(c.cfg.Output, core.Scalar(0))
}

func (c *Average) SetupPartials() error {
	return c.DeclarePartials(c.cfg.Output, c.cfg.Input, component.Val(filled(c.cfg.Size, 1/float64(c.cfg.Size))...))
}

func (c *Average) Compute(in component.Inputs, out component.Outputs) error {
	x, err := in.Slice(c.cfg.Input)
	if err != nil {
		return err
	}
	return out.SetFloat(c.cfg.Output, floats.Sum(x)/float64(len(x)))
}

func (c *Average) ComputePartials(component.Inputs, component.Partials) error { return nil }
