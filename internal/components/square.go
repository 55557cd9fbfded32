package components

import "github.com/san-kum/mdao/internal/component"

type SquareConfig struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
	Size   int    `mapstructure:"size"`
}

// Square computes f = y² elementwise.
type Square struct {
	component.Base
	cfg SquareConfig
}

func NewSquare(opts component.Options) (*Square, error) {
	cfg := SquareConfig{Input: "y", Output: "f"}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	return &Square{Base: component.NewBase(opts), cfg: cfg}, nil
}

func (c *Square) Setup() error {
	if err := c.AddInput(c.cfg.Input, shaped(c.cfg.Size, 0)); err != nil {
		return err
	}
	return c.AddOutput(c.cfg.Output, shaped(c.cfg.Size, 0))
}

func (c *Square) SetupPartials() error {
	if c.cfg.Size <= 1 {
		return c.DeclarePartials(c.cfg.Output, c.cfg.Input)
	}
	diag := arange(c.cfg.Size)
	return c.DeclarePartials(c.cfg.Output, c.cfg.Input, component.Rows(diag, diag))
}

func (c *Square) Compute(in component.Inputs, out component.Outputs) error {
	y, err := in.Slice(c.cfg.Input)
	if err != nil {
		return err
	}
	for i := range y {
		y[i] *= y[i]
	}
	return out.SetSlice(c.cfg.Output, y)
}

func (c *Square) ComputePartials(in component.Inputs, p component.Partials) error {
	y, err := in.Slice(c.cfg.Input)
	if err != nil {
		return err
	}
	for i := range y {
		y[i] *= 2
	}
	return p.Set(c.cfg.Output, c.cfg.Input, y...)
}
