package adjoint

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/logging"
)

func declare(t *core.Table, of, wrt string, rows, cols int, vals ...float64) {
	Expect(t.DeclareDense(of, wrt, rows, cols, mat.NewDense(rows, cols, vals))).To(Succeed())
}

var _ = Describe("SolveAdjoint", func() {
	It("solves the transposed state system", func() {
		j := mat.NewDense(2, 2, []float64{2, 0, 0, 4})
		df := mat.NewDense(1, 2, []float64{1, 1})

		psi, err := SolveAdjoint(j, df)
		Expect(err).NotTo(HaveOccurred())
		Expect(psi.At(0, 0)).To(BeNumerically("~", 0.5, 1e-14))
		Expect(psi.At(1, 0)).To(BeNumerically("~", 0.25, 1e-14))

		sens, err := StateSensitivity(psi, mat.NewDense(2, 1, []float64{1, 1}))
		Expect(err).NotTo(HaveOccurred())
		Expect(sens.At(0, 0)).To(BeNumerically("~", 0.75, 1e-14))
	})

	It("uses the transpose of a non-symmetric jacobian", func() {
		j := mat.NewDense(2, 2, []float64{1, 1, 0, 1})
		psi, err := SolveAdjoint(j, mat.NewDense(1, 2, []float64{1, 0}))
		Expect(err).NotTo(HaveOccurred())
		// Jᵀ = [[1,0],[1,1]] so ψ = [1,-1]
		Expect(psi.At(0, 0)).To(BeNumerically("~", 1, 1e-14))
		Expect(psi.At(1, 0)).To(BeNumerically("~", -1, 1e-14))
	})

	It("rejects a singular jacobian", func() {
		j := mat.NewDense(2, 2, []float64{1, 2, 2, 4})
		_, err := SolveAdjoint(j, mat.NewDense(1, 2, []float64{1, 1}))
		Expect(err).To(MatchError(core.ErrSingularJacobian))

		var serr *core.SingularError
		Expect(err).To(BeAssignableToTypeOf(serr))
	})

	It("rejects a gradient of the wrong width", func() {
		_, err := SolveAdjoint(mat.NewDense(2, 2, []float64{1, 0, 0, 1}), mat.NewDense(1, 3, nil))
		Expect(err).To(MatchError(core.ErrShapeMismatch))
	})
})

var _ = Describe("Solver", func() {
	var (
		table  *core.Table
		solver *Solver
	)

	BeforeEach(func() {
		table = core.NewTable()
		declare(table, "u", "u", 2, 2, 2, 0, 0, 4)
		declare(table, "f", "u", 1, 2, 1, 1)
		declare(table, "u", "rho", 2, 1, 1, 1)
		declare(table, "rho", "x", 1, 1, 1)
		declare(table, "f", "rho", 1, 1, 3)
		declare(table, "c", "rho", 1, 1, 0.5)

		solver = &Solver{
			State:        "u",
			Objective:    "f",
			Constraints:  []string{"c"},
			Intermediate: "rho",
			Design:       []string{"x"},
			Logger:       logging.NewTestLogger(),
		}
	})

	It("composes every requested total from one solve", func() {
		totals, err := solver.Solve(table)
		Expect(err).NotTo(HaveOccurred())
		Expect(totals.Pairs()).To(Equal([]Pair{{"c", "x"}, {"f", "x"}, {"u", "x"}}))

		state, _ := totals.Get("u", "x")
		Expect(state.At(0, 0)).To(BeNumerically("~", 0.75, 1e-14))

		obj, _ := totals.Get("f", "x")
		Expect(obj.At(0, 0)).To(BeNumerically("~", 3, 1e-14))

		con, _ := totals.Get("c", "x")
		Expect(con.At(0, 0)).To(BeNumerically("~", 0.5, 1e-14))

		Expect(solver.Psi().RawMatrix().Data).To(HaveLen(2))
	})

	It("combines direct and coupled terms", func() {
		totals, err := solver.Solve(table)
		Expect(err).NotTo(HaveOccurred())

		full, err := solver.Combined(totals, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(full.At(0, 0)).To(BeNumerically("~", 2.25, 1e-14))
	})

	It("treats an undeclared objective-to-intermediate block as zero", func() {
		t2 := core.NewTable()
		declare(t2, "u", "u", 2, 2, 2, 0, 0, 4)
		declare(t2, "f", "u", 1, 2, 1, 1)
		declare(t2, "u", "rho", 2, 1, 1, 1)
		declare(t2, "rho", "x", 1, 1, 2)
		solver.Constraints = nil

		totals, err := solver.Solve(t2)
		Expect(err).NotTo(HaveOccurred())
		obj, _ := totals.Get("f", "x")
		Expect(obj.At(0, 0)).To(BeZero())
		state, _ := totals.Get("u", "x")
		Expect(state.At(0, 0)).To(BeNumerically("~", 1.5, 1e-14))
	})

	It("reports a missing state jacobian", func() {
		_, err := solver.Solve(core.NewTable())
		Expect(err).To(MatchError(core.ErrUnknownBlock))
	})

	It("reports a missing response block", func() {
		solver.Constraints = []string{"g"}
		_, err := solver.Solve(table)
		Expect(err).To(MatchError(core.ErrUnknownBlock))
	})
})
