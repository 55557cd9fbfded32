package components

import (
	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
)

type ParaboloidConfig struct {
	X      string `mapstructure:"x"`
	Y      string `mapstructure:"y"`
	Output string `mapstructure:"output"`
}

// Paraboloid computes f = (x-3)² + x·y + (y+4)² - 3, minimized at
// x = 20/3, y = -22/3.
type Paraboloid struct {
	component.Base
	cfg ParaboloidConfig
}

func NewParaboloid(opts component.Options) (*Paraboloid, error) {
	cfg := ParaboloidConfig{X: "x", Y: "y", Output: "f_xy"}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	return &Paraboloid{Base: component.NewBase(opts), cfg: cfg}, nil
}

func (c *Paraboloid) Setup() error {
	if err := c.AddInput(c.cfg.X, core.Scalar(0)); err != nil {
		return err
	}
	if err := c.AddInput(c.cfg.Y, core.Scalar(0)); err != nil {
		return err
	}
	return c.AddOutput(c.cfg.Output, core.Scalar(0))
}

func (c *Paraboloid) SetupPartials() error {
	return c.DeclarePartials(c.cfg.Output, core.Wildcard)
}

func (c *Paraboloid) Compute(in component.Inputs, out component.Outputs) error {
	x, err := in.Float(c.cfg.X)
	if err != nil {
		return err
	}
	y, err := in.Float(c.cfg.Y)
	if err != nil {
		return err
	}
	return out.SetFloat(c.cfg.Output, (x-3)*(x-3)+x*y+(y+4)*(y+4)-3)
}

func (c *Paraboloid) ComputePartials(in component.Inputs, p component.Partials) error {
	x, err := in.Float(c.cfg.X)
	if err != nil {
		return err
	}
	y, err := in.Float(c.cfg.Y)
	if err != nil {
		return err
	}
	if err := p.Set(c.cfg.Output, c.cfg.X, 2*x-6+y); err != nil {
		return err
	}
	return p.Set(c.cfg.Output, c.cfg.Y, 2*y+8+x)
}
