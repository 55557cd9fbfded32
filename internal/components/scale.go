package components

import (
	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
)

type ScaleConfig struct {
	Input  string  `mapstructure:"input"`
	Output string  `mapstructure:"output"`
	Factor float64 `mapstructure:"factor"`
	Size   int     `mapstructure:"size"`
}

// Scale computes y = factor·x elementwise.
type Scale struct {
	component.Base
	cfg ScaleConfig
}

func NewScale(opts component.Options) (*Scale, error) {
	cfg := ScaleConfig{Input: "x", Output: "y", Factor: 1}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	return &Scale{Base: component.NewBase(opts), cfg: cfg}, nil
}

func (c *Scale) Setup() error {
	v := shaped(c.cfg.Size, 0)
	if err := c.AddInput(c.cfg.Input, v); err != nil {
		return err
	}
	return c.AddOutput(c.cfg.Output, v)
}

func (c *Scale) SetupPartials() error {
	n := max(c.cfg.Size, 1)
	if n == 1 {
		return c.DeclarePartials(c.cfg.Output, c.cfg.Input, component.Val(c.cfg.Factor))
	}
	diag := arange(n)
	return c.DeclarePartials(c.cfg.Output, c.cfg.Input,
		component.Rows(diag, diag), component.Val(filled(n, c.cfg.Factor)...))
}

func (c *Scale) Compute(in component.Inputs, out component.Outputs) error {
	x, err := in.Slice(c.cfg.Input)
	if err != nil {
		return err
	}
	for i := range x {
		x[i] *= c.cfg.Factor
	}
	return out.SetSlice(c.cfg.Output, x)
}

// ComputePartials is a no-op: the block is constant and seeded at declaration.
func (c *Scale) ComputePartials(component.Inputs, component.Partials) error { return nil }

// shaped returns a scalar for size 0 and a vector of length size otherwise.
func shaped(size int, fill float64) core.Value {
	if size <= 0 {
		return core.Scalar(fill)
	}
	return core.Vector(filled(size, fill)...)
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func arange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
