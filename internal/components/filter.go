package components

import (
	"fmt"
	"math"

	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
)

type FilterConfig struct {
	Input  string  `mapstructure:"input"`
	Output string  `mapstructure:"output"`
	Size   int     `mapstructure:"size"`
	Radius float64 `mapstructure:"radius"`
}

// DensityFilter smooths a 1-D density field with a linear hat kernel:
//
//	ρᵢ = Σⱼ wᵢⱼ xⱼ / Σⱼ wᵢⱼ,  wᵢⱼ = max(0, radius − |i−j|)
//
// The Jacobian is the constant normalized weight matrix, declared in
// coordinate form over the kernel footprint.
type DensityFilter struct {
	component.Base
	cfg        FilterConfig
	rows, cols []int
	vals       []float64
}

func NewDensityFilter(opts component.Options) (*DensityFilter, error) {
	cfg := FilterConfig{Input: "density_unfiltered", Output: "density", Radius: 2}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("density filter: size must be positive, got %d", cfg.Size)
	}
	if cfg.Radius <= 0 {
		return nil, fmt.Errorf("density filter: radius must be positive, got %g", cfg.Radius)
	}
	c := &DensityFilter{Base: component.NewBase(opts), cfg: cfg}
	c.weights()
	return c, nil
}

func (c *DensityFilter) weights() {
	n := c.cfg.Size
	reach := int(math.Ceil(c.cfg.Radius))
	for i := 0; i < n; i++ {
		start := len(c.vals)
		total := 0.0
		for j := max(0, i-reach); j <= min(n-1, i+reach); j++ {
			w := c.cfg.Radius - math.Abs(float64(i-j))
			if w <= 0 {
				continue
			}
			c.rows = append(c.rows, i)
			c.cols = append(c.cols, j)
			c.vals = append(c.vals, w)
			total += w
		}
		for k := start; k < len(c.vals); k++ {
			c.vals[k] /= total
		}
	}
}

func (c *DensityFilter) Setup() error {
	if err := c.AddInput(c.cfg.Input, core.Zeros(c.cfg.Size)); err != nil {
		return err
	}
	return c.AddOutput(c.cfg.Output, core.Zeros(c.cfg.Size))
}

func (c *DensityFilter) SetupPartials() error {
	return c.DeclarePartials(c.cfg.Output, c.cfg.Input, component.Rows(c.rows, c.cols), component.Val(c.vals...))
}

func (c *DensityFilter) Compute(in component.Inputs, out component.Outputs) error {
	x, err := in.Slice(c.cfg.Input)
	if err != nil {
		return err
	}
	rho := make([]float64, c.cfg.Size)
	for k, v := range c.vals {
		rho[c.rows[k]] += v * x[c.cols[k]]
	}
	return out.SetSlice(c.cfg.Output, rho)
}

func (c *DensityFilter) ComputePartials(component.Inputs, component.Partials) error { return nil }
