package components

import (
	"fmt"

	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/core"
	"gonum.org/v1/gonum/mat"
)

type LinearConfig struct {
	Input  string      `mapstructure:"input"`
	Output string      `mapstructure:"output"`
	A      [][]float64 `mapstructure:"a"`
	B      []float64   `mapstructure:"b"`
}

// Linear computes y = A·x + b with a constant dense Jacobian A.
type Linear struct {
	component.Base
	cfg  LinearConfig
	a    *mat.Dense
	b    []float64
	m, n int
}

func NewLinear(opts component.Options) (*Linear, error) {
	cfg := LinearConfig{Input: "x", Output: "y"}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.A) == 0 || len(cfg.A[0]) == 0 {
		return nil, fmt.Errorf("linear: option a must be a non-empty matrix")
	}
	m, n := len(cfg.A), len(cfg.A[0])
	data := make([]float64, 0, m*n)
	for i, row := range cfg.A {
		if len(row) != n {
			return nil, &core.ShapeError{Op: "linear", Name: fmt.Sprintf("a[%d]", i), Want: core.Shape{n}, Got: core.Shape{len(row)}}
		}
		data = append(data, row...)
	}
	b := cfg.B
	if b == nil {
		b = make([]float64, m)
	}
	if len(b) != m {
		return nil, &core.ShapeError{Op: "linear", Name: "b", Want: core.Shape{m}, Got: core.Shape{len(b)}}
	}
	return &Linear{Base: component.NewBase(opts), cfg: cfg, a: mat.NewDense(m, n, data), b: b, m: m, n: n}, nil
}

func (c *Linear) Setup() error {
	if err := c.AddInput(c.cfg.Input, core.Zeros(c.n)); err != nil {
		return err
	}
	return c.AddOutput(c.cfg.Output, core.Zeros(c.m))
}

func (c *Linear) SetupPartials() error {
	return c.DeclarePartials(c.cfg.Output, c.cfg.Input, component.DenseVal(c.a))
}

func (c *Linear) Compute(in component.Inputs, out component.Outputs) error {
	x, err := in.Slice(c.cfg.Input)
	if err != nil {
		return err
	}
	y := mat.NewVecDense(c.m, nil)
	y.MulVec(c.a, mat.NewVecDense(c.n, x))
	y.AddVec(y, mat.NewVecDense(c.m, c.b))
	return out.SetSlice(c.cfg.Output, y.RawVector().Data)
}

func (c *Linear) ComputePartials(component.Inputs, component.Partials) error { return nil }
