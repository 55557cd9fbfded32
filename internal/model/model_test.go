package model

import (
	"bytes"
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mdao/internal/adjoint"
	"github.com/san-kum/mdao/internal/component"
	"github.com/san-kum/mdao/internal/components"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/logging"
)

func scale(in, out string, k float64) component.Component {
	c, err := components.NewScale(component.Options{"input": in, "output": out, "factor": k})
	Expect(err).NotTo(HaveOccurred())
	return c
}

func square(in, out string) component.Component {
	c, err := components.NewSquare(component.Options{"input": in, "output": out})
	Expect(err).NotTo(HaveOccurred())
	return c
}

func scalar(m *Model, name string) float64 {
	v, err := m.GetVal(name)
	Expect(err).NotTo(HaveOccurred())
	return v.Float()
}

// halfBuilt declares its variables and then fails its setup.
type halfBuilt struct {
	component.Base
}

func (c *halfBuilt) Setup() error {
	if err := c.AddInput("x", core.Scalar(0)); err != nil {
		return err
	}
	if err := c.AddOutput("y", core.Scalar(0)); err != nil {
		return err
	}
	return errors.New("half built")
}
func (c *halfBuilt) SetupPartials() error                                       { return nil }
func (c *halfBuilt) Compute(component.Inputs, component.Outputs) error          { return nil }
func (c *halfBuilt) ComputePartials(component.Inputs, component.Partials) error { return nil }

// flaky declares its block and then fails SetupPartials the first time only.
type flaky struct {
	component.Base
	failed bool
}

func (c *flaky) Setup() error {
	if err := c.AddInput("p", core.Scalar(3)); err != nil {
		return err
	}
	return c.AddOutput("q", core.Scalar(0))
}

func (c *flaky) SetupPartials() error {
	if err := c.DeclarePartials("q", "p", component.Val(1)); err != nil {
		return err
	}
	if !c.failed {
		c.failed = true
		return errors.New("not yet")
	}
	return nil
}

func (c *flaky) Compute(in component.Inputs, out component.Outputs) error {
	p, err := in.Float("p")
	if err != nil {
		return err
	}
	return out.SetFloat("q", p)
}
func (c *flaky) ComputePartials(component.Inputs, component.Partials) error { return nil }

var _ = Describe("Model", func() {
	var (
		ctx context.Context
		m   *Model
	)

	BeforeEach(func() {
		ctx = context.Background()
		m = New(WithLogger(logging.NewTestLogger()))
	})

	Context("with an explicit chain", func() {
		BeforeEach(func() {
			Expect(m.AddSubsystem("ivc", component.NewIndepVarComp("x", core.Scalar(2)))).To(Succeed())
			Expect(m.AddSubsystem("double", scale("x", "y", 2))).To(Succeed())
			Expect(m.AddSubsystem("obj", square("y", "f"))).To(Succeed())
		})

		It("runs the forward pass", func() {
			Expect(m.RunAnalysis(ctx)).To(Succeed())
			Expect(scalar(m, "y")).To(Equal(4.0))
			Expect(scalar(m, "f")).To(Equal(16.0))

			dfdy, err := m.Table().Dense("f", "y")
			Expect(err).NotTo(HaveOccurred())
			Expect(dfdy.At(0, 0)).To(Equal(8.0))
		})

		It("computes totals through the chain", func() {
			Expect(m.RunAnalysis(ctx)).To(Succeed())

			totals, err := m.ComputeTotals([]string{"f", "y"}, []string{"x"})
			Expect(err).NotTo(HaveOccurred())
			dfdx, ok := totals.Get("f", "x")
			Expect(ok).To(BeTrue())
			Expect(dfdx.At(0, 0)).To(BeNumerically("~", 16, 1e-12))
			dydx, _ := totals.Get("y", "x")
			Expect(dydx.At(0, 0)).To(BeNumerically("~", 2, 1e-12))
		})

		It("refuses totals before linearization", func() {
			_, err := m.ComputeTotals([]string{"f"}, []string{"x"})
			Expect(err).To(MatchError(core.ErrPrematureLinearize))
		})

		It("invalidates the linearization on SetVal", func() {
			Expect(m.RunAnalysis(ctx)).To(Succeed())
			Expect(m.SetVal("x", core.Scalar(3))).To(Succeed())
			Expect(m.Linearized()).To(BeFalse())

			_, err := m.ComputeTotals([]string{"f"}, []string{"x"})
			Expect(err).To(MatchError(core.ErrPrematureLinearize))

			Expect(m.RunAnalysis(ctx)).To(Succeed())
			Expect(scalar(m, "f")).To(Equal(36.0))
			totals, err := m.ComputeTotals([]string{"f"}, []string{"x"})
			Expect(err).NotTo(HaveOccurred())
			d, _ := totals.Get("f", "x")
			Expect(d.At(0, 0)).To(BeNumerically("~", 24, 1e-12))
		})

		It("routes SetVal to every namespace holding the name", func() {
			Expect(m.SetVal("x", core.Scalar(5))).To(Succeed())
			out, _ := m.Store().Get(core.Output, "x")
			in, _ := m.Store().Get(core.Input, "x")
			Expect(out.Float()).To(Equal(5.0))
			Expect(in.Float()).To(Equal(5.0))

			Expect(m.SetVal("nope", core.Scalar(1))).To(MatchError(core.ErrUnknownVariable))
			Expect(m.SetVal("x", core.Vector(1))).To(MatchError(core.ErrShapeMismatch))
		})

		It("only differentiates with respect to independent variables", func() {
			Expect(m.RunAnalysis(ctx)).To(Succeed())
			_, err := m.ComputeTotals([]string{"f"}, []string{"y"})
			Expect(err).To(MatchError(ErrNotIndependent))
			_, err = m.ComputeTotals([]string{"g"}, []string{"x"})
			Expect(err).To(MatchError(core.ErrUnknownVariable))
		})

		It("rejects a second owner of an output", func() {
			err := m.AddSubsystem("again", scale("x", "y", 3))
			Expect(err).To(MatchError(core.ErrDuplicateName))
			owner, _ := m.Owner("y")
			Expect(owner).To(Equal("double"))
		})

		It("rejects a duplicate subsystem name", func() {
			Expect(m.AddSubsystem("obj", square("f", "g"))).To(MatchError(core.ErrDuplicateName))
		})

		It("is sealed after setup", func() {
			Expect(m.Setup()).To(Succeed())
			Expect(m.AddSubsystem("late", square("f", "g"))).To(MatchError(ErrSealed))
		})

		It("stops on a cancelled context", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			Expect(m.RunAnalysis(cancelled)).To(MatchError(context.Canceled))
		})

		It("lists design variables", func() {
			Expect(m.DesignVariables()).To(Equal([]string{"x"}))
			Expect(m.Independent("x")).To(BeTrue())
			Expect(m.Independent("y")).To(BeFalse())
		})
	})

	Context("evaluation order", func() {
		register := func(m *Model) {
			Expect(m.AddSubsystem("obj", square("y", "f"))).To(Succeed())
			Expect(m.AddSubsystem("double", scale("x", "y", 2))).To(Succeed())
			Expect(m.AddSubsystem("ivc", component.NewIndepVarComp("x", core.Scalar(2)))).To(Succeed())
		}

		It("defaults to registration order", func() {
			register(m)
			Expect(m.RunAnalysis(ctx)).To(Succeed())
			Expect(m.Order()).To(Equal([]string{"obj", "double", "ivc"}))
			// obj ran before y was produced
			Expect(scalar(m, "f")).To(Equal(0.0))
		})

		It("follows data dependencies when asked", func() {
			m = New(WithDependencyOrder())
			register(m)
			Expect(m.RunAnalysis(ctx)).To(Succeed())
			Expect(m.Order()).To(Equal([]string{"ivc", "double", "obj"}))
			Expect(scalar(m, "f")).To(Equal(16.0))
		})

		It("honours explicit edges and keeps registration order for ties", func() {
			Expect(m.AddSubsystem("a", scale("p", "q", 1))).To(Succeed())
			Expect(m.AddSubsystem("b", scale("r", "s", 1))).To(Succeed())
			Expect(m.AddSubsystem("c", scale("t", "u", 1))).To(Succeed())
			Expect(m.DependsOn("a", "c")).To(Succeed())
			Expect(m.Setup()).To(Succeed())
			Expect(m.Order()).To(Equal([]string{"b", "c", "a"}))
		})

		It("rejects edges to unknown subsystems", func() {
			Expect(m.DependsOn("a", "b")).To(MatchError(core.ErrUnknownVariable))
		})

		It("detects cycles", func() {
			m = New(WithDependencyOrder())
			Expect(m.AddSubsystem("fwd", scale("a", "b", 1))).To(Succeed())
			Expect(m.AddSubsystem("back", scale("b", "a", 1))).To(Succeed())
			err := m.Setup()
			Expect(err).To(MatchError(core.ErrDependencyCycle))
			Expect(err.Error()).To(ContainSubstring("back fwd"))
		})
	})

	Context("after a failure", func() {
		It("forgets a subsystem whose setup failed", func() {
			Expect(m.AddSubsystem("broken", &halfBuilt{})).NotTo(Succeed())
			Expect(m.Subsystems()).To(BeEmpty())
			Expect(m.Store().Names(core.Output)).To(BeEmpty())
			Expect(m.Store().Names(core.Input)).To(BeEmpty())
			_, owned := m.Owner("y")
			Expect(owned).To(BeFalse())
			Expect(m.SetVal("y", core.Scalar(1))).To(MatchError(core.ErrUnknownVariable))

			wide, err := components.NewScale(component.Options{"input": "u", "output": "y", "factor": 2.0, "size": 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.AddSubsystem("wide", wide)).To(Succeed())
			v, err := m.GetVal("y")
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Size()).To(Equal(2))
		})

		It("reports the same cycle when setup is retried", func() {
			m = New(WithDependencyOrder())
			Expect(m.AddSubsystem("fwd", scale("a", "b", 1))).To(Succeed())
			Expect(m.AddSubsystem("back", scale("b", "a", 1))).To(Succeed())
			Expect(m.Setup()).To(MatchError(core.ErrDependencyCycle))
			Expect(m.Setup()).To(MatchError(core.ErrDependencyCycle))
			Expect(m.Table().Len()).To(Equal(2))
		})

		It("retries partial declarations that failed", func() {
			Expect(m.AddSubsystem("flaky", &flaky{})).To(Succeed())
			Expect(m.RunAnalysis(ctx)).NotTo(Succeed())
			Expect(m.Table().Len()).To(BeZero())

			Expect(m.RunAnalysis(ctx)).To(Succeed())
			Expect(scalar(m, "q")).To(Equal(3.0))
			Expect(m.Table().Keys()).To(Equal([]core.Key{{Of: "q", Wrt: "p"}}))
		})
	})

	It("logs through the logger carried by the context", func() {
		Expect(m.AddSubsystem("double", scale("x", "y", 2))).To(Succeed())
		var buf bytes.Buffer
		ctx = logging.IntoContext(ctx, logging.NewWriter(&buf, logging.DEBUG))
		Expect(m.RunAnalysis(ctx)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("evaluated"))
		Expect(buf.String()).To(ContainSubstring("double"))
	})

	Context("with an implicit component", func() {
		BeforeEach(func() {
			ivc := component.NewIndepVarComp("a", core.Scalar(1)).
				Add("b", core.Scalar(-3)).
				Add("c", core.Scalar(2))
			quad, err := components.NewQuadratic(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.AddSubsystem("coeffs", ivc)).To(Succeed())
			Expect(m.AddSubsystem("quad", quad)).To(Succeed())
		})

		It("converges and differentiates the root", func() {
			Expect(m.RunAnalysis(ctx)).To(Succeed())
			Expect(scalar(m, "x")).To(BeNumerically("~", 1, 1e-9))

			totals, err := m.ComputeTotals([]string{"x"}, []string{"a", "b", "c"})
			Expect(err).NotTo(HaveOccurred())
			// dx/dp = -(∂R/∂p)/(∂R/∂x) with ∂R/∂x = 2ax+b = -1
			for wrt, want := range map[string]float64{"a": 1, "b": 1, "c": 1} {
				d, _ := totals.Get("x", wrt)
				Expect(d.At(0, 0)).To(BeNumerically("~", want, 1e-8), wrt)
			}
		})

		It("reports a singular global jacobian", func() {
			// a=1, b=-2, c=1 has a double root where ∂R/∂x vanishes
			Expect(m.SetVal("b", core.Scalar(-2))).To(Succeed())
			Expect(m.SetVal("c", core.Scalar(1))).To(Succeed())
			Expect(m.SetVal("x", core.Scalar(1))).To(Succeed())
			Expect(m.RunAnalysis(ctx)).To(Succeed())

			_, err := m.ComputeTotals([]string{"x"}, []string{"a"})
			Expect(err).To(MatchError(core.ErrSingularJacobian))
		})
	})

	Context("spring compliance problem", func() {
		const n = 6

		BeforeEach(func() {
			x := make([]float64, n)
			for i := range x {
				x[i] = 0.3 + 0.1*float64(i)
			}
			opts := component.Options{"size": n}
			filter, err := components.NewDensityFilter(opts)
			Expect(err).NotTo(HaveOccurred())
			avg, err := components.NewAverage(opts)
			Expect(err).NotTo(HaveOccurred())
			springs, err := components.NewSpringChain(opts)
			Expect(err).NotTo(HaveOccurred())
			compliance, err := components.NewCompliance(opts)
			Expect(err).NotTo(HaveOccurred())

			Expect(m.AddSubsystem("x", component.NewIndepVarComp("density_unfiltered", core.Vector(x...)))).To(Succeed())
			Expect(m.AddSubsystem("filter", filter)).To(Succeed())
			Expect(m.AddSubsystem("avg", avg)).To(Succeed())
			Expect(m.AddSubsystem("springs", springs)).To(Succeed())
			Expect(m.AddSubsystem("compliance", compliance)).To(Succeed())
			Expect(m.RunAnalysis(ctx)).To(Succeed())
		})

		It("agrees with the single-state adjoint solver", func() {
			solver := &adjoint.Solver{
				State:        "displacements",
				Objective:    "compliance",
				Constraints:  []string{"avg_density"},
				Intermediate: "density",
				Design:       []string{"density_unfiltered"},
			}
			partial, err := solver.Solve(m.Table())
			Expect(err).NotTo(HaveOccurred())
			want, err := solver.Combined(partial, "density_unfiltered")
			Expect(err).NotTo(HaveOccurred())

			totals, err := m.ComputeTotals([]string{"compliance", "avg_density"}, []string{"density_unfiltered"})
			Expect(err).NotTo(HaveOccurred())
			got, _ := totals.Get("compliance", "density_unfiltered")
			Expect(got.RawMatrix().Data).To(HaveLen(n))
			for j := 0; j < n; j++ {
				Expect(got.At(0, j)).To(BeNumerically("~", want.At(0, j), 1e-9))
				// more material never increases compliance
				Expect(got.At(0, j)).To(BeNumerically("<=", 0))
			}

			avg, _ := totals.Get("avg_density", "density_unfiltered")
			wantAvg, _ := partial.Get("avg_density", "density_unfiltered")
			for j := 0; j < n; j++ {
				Expect(avg.At(0, j)).To(BeNumerically("~", wantAvg.At(0, j), 1e-12))
			}
		})
	})
})
