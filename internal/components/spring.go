package components

import (
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/solvers"
	"gonum.org/v1/gonum/mat"
)

type SpringConfig struct {
	Input     string    `mapstructure:"input"`
	Output    string    `mapstructure:"output"`
	Size      int       `mapstructure:"size"`
	Stiffness float64   `mapstructure:"stiffness"`
	Penal     float64   `mapstructure:"penal"`
	MinRatio  float64   `mapstructure:"min_ratio"`
	Load      []float64 `mapstructure:"load"`
	MaxIter   int       `mapstructure:"max_iter"`
}

func defaultSpringConfig() SpringConfig {
	return SpringConfig{
		Input:     "density",
		Output:    "displacements",
		Stiffness: 1,
		Penal:     3,
		MinRatio:  1e-3,
		MaxIter:   20,
	}
}

// resolveLoad returns cfg.Load, defaulting to a unit load on the last node.
func resolveLoad(load []float64, n int) ([]float64, error) {
	if load == nil {
		load = make([]float64, n)
		load[n-1] = 1
	}
	if len(load) != n {
		return nil, &core.ShapeError{Op: "load", Name: "load", Want: core.Shape{n}, Got: core.Shape{len(load)}}
	}
	return slices.Clone(load), nil
}

// SpringChain is a 1-D chain of n springs fixed at the left end. Spring e
// joins node e-1 and node e and has the SIMP stiffness
//
//	kₑ = E·(εₘᵢₙ + (1−εₘᵢₙ)·ρₑᵖ)
//
// The state is the node displacement vector u with residual R = K(ρ)·u − F.
type SpringChain struct {
	component.ImplicitBase
	cfg    SpringConfig
	load   []float64
	newton *solvers.Newton
}

func NewSpringChain(opts component.Options) (*SpringChain, error) {
	cfg := defaultSpringConfig()
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("spring chain: size must be positive, got %d", cfg.Size)
	}
	load, err := resolveLoad(cfg.Load, cfg.Size)
	if err != nil {
		return nil, err
	}
	c := &SpringChain{cfg: cfg, load: load}
	c.Base = component.NewBase(opts)
	return c, nil
}

func (c *SpringChain) Setup() error {
	if err := c.AddInput(c.cfg.Input, core.Zeros(c.cfg.Size)); err != nil {
		return err
	}
	return c.AddOutput(c.cfg.Output, core.Zeros(c.cfg.Size))
}

func (c *SpringChain) SetupPartials() error {
	if err := c.DeclarePartials(c.cfg.Output, c.cfg.Output); err != nil {
		return err
	}
	// spring e touches residual rows e-1 and e
	var rows, cols []int
	for e := 0; e < c.cfg.Size; e++ {
		if e > 0 {
			rows = append(rows, e-1)
			cols = append(cols, e)
		}
		rows = append(rows, e)
		cols = append(cols, e)
	}
	return c.DeclarePartials(c.cfg.Output, c.cfg.Input, component.Rows(rows, cols))
}

func (c *SpringChain) stiffness(rho float64) float64 {
	eps := c.cfg.MinRatio
	return c.cfg.Stiffness * (eps + (1-eps)*math.Pow(rho, c.cfg.Penal))
}

func (c *SpringChain) dStiffness(rho float64) float64 {
	return c.cfg.Stiffness * (1 - c.cfg.MinRatio) * c.cfg.Penal * math.Pow(rho, c.cfg.Penal-1)
}

func (c *SpringChain) assemble(rho []float64, k *mat.Dense) {
	for e, r := range rho {
		ke := c.stiffness(r)
		k.Set(e, e, k.At(e, e)+ke)
		if e > 0 {
			k.Set(e-1, e-1, k.At(e-1, e-1)+ke)
			k.Set(e-1, e, k.At(e-1, e)-ke)
			k.Set(e, e-1, k.At(e, e-1)-ke)
		}
	}
}

func (c *SpringChain) residual(rho, u, r []float64) {
	for i := range r {
		r[i] = -c.load[i]
	}
	for e, p := range rho {
		elong := u[e]
		if e > 0 {
			elong -= u[e-1]
		}
		f := c.stiffness(p) * elong
		r[e] += f
		if e > 0 {
			r[e-1] -= f
		}
	}
}

func (c *SpringChain) ApplyNonlinear(in component.Inputs, out component.Outputs, res component.Residuals) error {
	rho, err := in.Slice(c.cfg.Input)
	if err != nil {
		return err
	}
	u, err := out.Slice(c.cfg.Output)
	if err != nil {
		return err
	}
	r := make([]float64, len(u))
	c.residual(rho, u, r)
	return res.SetSlice(c.cfg.Output, r)
}

func (c *SpringChain) SolveNonlinear(in component.Inputs, out component.Outputs, tol float64) error {
	rho, err := in.Slice(c.cfg.Input)
	if err != nil {
		return err
	}
	u, err := out.Slice(c.cfg.Output)
	if err != nil {
		return err
	}
	c.newton = solvers.NewNewton(c.Name(), tol)
	c.newton.MaxIter = c.cfg.MaxIter
	_, err = c.newton.Solve(u,
		func(u, r []float64) error {
			c.residual(rho, u, r)
			return nil
		},
		func(_ []float64, j *mat.Dense) error {
			c.assemble(rho, j)
			return nil
		},
	)
	if err != nil {
		return err
	}
	return out.SetSlice(c.cfg.Output, u)
}

func (c *SpringChain) Linearize(in component.Inputs, out component.Outputs, p component.Partials) error {
	rho, err := in.Slice(c.cfg.Input)
	if err != nil {
		return err
	}
	u, err := out.Slice(c.cfg.Output)
	if err != nil {
		return err
	}
	n := c.cfg.Size
	k := mat.NewDense(n, n, nil)
	c.assemble(rho, k)
	if err := p.SetDense(c.cfg.Output, c.cfg.Output, k); err != nil {
		return err
	}

	vals := make([]float64, 0, 2*n-1)
	for e := 0; e < n; e++ {
		elong := u[e]
		if e > 0 {
			elong -= u[e-1]
		}
		d := c.dStiffness(rho[e]) * elong
		if e > 0 {
			vals = append(vals, -d)
		}
		vals = append(vals, d)
	}
	return p.Set(c.cfg.Output, c.cfg.Input, vals...)
}

// History returns the residual norms of the last nonlinear solve.
func (c *SpringChain) History() []float64 {
	if c.newton == nil {
		return nil
	}
	return slices.Clone(c.newton.History)
}
