package components

import (
	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/solvers"
	"gonum.org/v1/gonum/mat"
)

type QuadraticConfig struct {
	Output  string `mapstructure:"output"`
	MaxIter int    `mapstructure:"max_iter"`
}

// Quadratic finds a root of a·x² + b·x + c = 0 by Newton iteration from
// the current value of x.
type Quadratic struct {
	component.ImplicitBase
	cfg QuadraticConfig
}

func NewQuadratic(opts component.Options) (*Quadratic, error) {
	cfg := QuadraticConfig{Output: "x", MaxIter: 50}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	c := &Quadratic{cfg: cfg}
	c.Base = component.NewBase(opts)
	return c, nil
}

func (c *Quadratic) Setup() error {
	for _, name := range []string{"a", "b", "c"} {
		if err := c.AddInput(name, core.Scalar(1)); err != nil {
			return err
		}
	}
	return c.AddOutput(c.cfg.Output, core.Scalar(0))
}

func (c *Quadratic) SetupPartials() error {
	if err := c.DeclarePartials(c.cfg.Output, "a"); err != nil {
		return err
	}
	if err := c.DeclarePartials(c.cfg.Output, "b"); err != nil {
		return err
	}
	if err := c.DeclarePartials(c.cfg.Output, "c", component.Val(1)); err != nil {
		return err
	}
	return c.DeclarePartials(c.cfg.Output, c.cfg.Output)
}

func coefficients(in component.Inputs) (a, b, cc float64, err error) {
	if a, err = in.Float("a"); err != nil {
		return
	}
	if b, err = in.Float("b"); err != nil {
		return
	}
	cc, err = in.Float("c")
	return
}

func (c *Quadratic) ApplyNonlinear(in component.Inputs, out component.Outputs, res component.Residuals) error {
	a, b, cc, err := coefficients(in)
	if err != nil {
		return err
	}
	x, err := out.Float(c.cfg.Output)
	if err != nil {
		return err
	}
	return res.SetFloat(c.cfg.Output, a*x*x+b*x+cc)
}

func (c *Quadratic) SolveNonlinear(in component.Inputs, out component.Outputs, tol float64) error {
	a, b, cc, err := coefficients(in)
	if err != nil {
		return err
	}
	x, err := out.Float(c.cfg.Output)
	if err != nil {
		return err
	}
	n := solvers.NewNewton(c.Name(), tol)
	n.MaxIter = c.cfg.MaxIter
	state := []float64{x}
	_, err = n.Solve(state,
		func(x, r []float64) error {
			r[0] = a*x[0]*x[0] + b*x[0] + cc
			return nil
		},
		func(x []float64, j *mat.Dense) error {
			j.Set(0, 0, 2*a*x[0]+b)
			return nil
		},
	)
	if err != nil {
		return err
	}
	return out.SetFloat(c.cfg.Output, state[0])
}

func (c *Quadratic) Linearize(in component.Inputs, out component.Outputs, p component.Partials) error {
	a, b, _, err := coefficients(in)
	if err != nil {
		return err
	}
	x, err := out.Float(c.cfg.Output)
	if err != nil {
		return err
	}
	if err := p.Set(c.cfg.Output, "a", x*x); err != nil {
		return err
	}
	if err := p.Set(c.cfg.Output, "b", x); err != nil {
		return err
	}
	return p.Set(c.cfg.Output, c.cfg.Output, 2*a*x+b)
}
