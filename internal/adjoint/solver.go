package adjoint

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/logging"
	"github.com/san-kum/mdao/internal/solvers"
	"gonum.org/v1/gonum/mat"
)

// Blocks is the read side of a partials table.
type Blocks interface {
	Has(of, wrt string) bool
	Dense(of, wrt string) (*mat.Dense, error)
}

// SolveAdjoint solves ∂Rᵀ/∂u · ψ = ∂fᵀ/∂u. dRdState is the square n×n state
// Jacobian and dFdState is m×n, one row per response; ψ is returned as n×m.
func SolveAdjoint(dRdState, dFdState mat.Matrix) (*mat.Dense, error) {
	n, _ := dRdState.Dims()
	m, c := dFdState.Dims()
	if c != n {
		return nil, &core.ShapeError{Op: "adjoint", Name: "df/dstate", Want: core.Shape{m, n}, Got: core.Shape{m, c}}
	}
	f, err := solvers.Factorize("adjoint", dRdState)
	if err != nil {
		return nil, err
	}
	return f.SolveTranspose(dFdState.T())
}

// StateSensitivity returns ψᵀ · dRdX for an adjoint ψ (n×m) and a
// right-hand side dRdX (n×k).
func StateSensitivity(psi, dRdX mat.Matrix) (*mat.Dense, error) {
	n, m := psi.Dims()
	r, k := dRdX.Dims()
	if r != n {
		return nil, &core.ShapeError{Op: "state sensitivity", Name: "dR/dx", Want: core.Shape{n, k}, Got: core.Shape{r, k}}
	}
	out := mat.NewDense(m, k, nil)
	out.Mul(psi.T(), dRdX)
	return out, nil
}

// Solver composes totals for a single coupled state. The state variable is
// the output (and residual) of an implicit component; Objective depends on
// it. Constraints are responses computed directly from Intermediate, which
// in turn is computed from each entry of Design.
type Solver struct {
	State        string
	Objective    string
	Constraints  []string
	Intermediate string
	Design       []string

	Logger logr.Logger

	psi *mat.Dense
}

// Psi returns the adjoint vector of the last Solve.
func (s *Solver) Psi() *mat.Dense { return s.psi }

// Solve performs the single adjoint solve and returns the totals
//
//	(Objective, x), (c, x) for every constraint: ∂r/∂I · dI/dx
//	(State, x): ψᵀ · ∂R/∂I · dI/dx
//
// for every design variable x. A block the table does not hold is zero.
func (s *Solver) Solve(p Blocks) (Totals, error) {
	log := s.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	dRdU, err := p.Dense(s.State, s.State)
	if err != nil {
		return nil, fmt.Errorf("adjoint: state jacobian: %w", err)
	}
	n, _ := dRdU.Dims()
	dFdU, err := p.Dense(s.Objective, s.State)
	if err != nil {
		return nil, fmt.Errorf("adjoint: objective gradient: %w", err)
	}
	psi, err := SolveAdjoint(dRdU, dFdU)
	if err != nil {
		return nil, err
	}
	s.psi = psi
	log.V(logging.DEBUG).Info("adjoint solved", "state", s.State, "objective", s.Objective, "size", n)

	dRdI, err := p.Dense(s.State, s.Intermediate)
	if err != nil {
		return nil, fmt.Errorf("adjoint: coupling block: %w", err)
	}
	_, nI := dRdI.Dims()

	totals := make(Totals)
	for _, x := range s.Design {
		dIdX, err := p.Dense(s.Intermediate, x)
		if err != nil {
			return nil, fmt.Errorf("adjoint: design block: %w", err)
		}
		_, nx := dIdX.Dims()

		pRpX := mat.NewDense(n, nx, nil)
		pRpX.Mul(dRdI, dIdX)
		sens, err := StateSensitivity(psi, pRpX)
		if err != nil {
			return nil, err
		}
		totals[Pair{s.State, x}] = sens

		for _, r := range append([]string{s.Objective}, s.Constraints...) {
			if _, ok := totals[Pair{r, x}]; ok {
				continue
			}
			rows, err := s.responseSize(p, r)
			if err != nil {
				return nil, err
			}
			dRespdI, err := s.block(p, r, s.Intermediate, rows, nI)
			if err != nil {
				return nil, err
			}
			d := mat.NewDense(rows, nx, nil)
			d.Mul(dRespdI, dIdX)
			totals[Pair{r, x}] = d
		}
	}
	return totals, nil
}

// Combined returns the full total of the objective with respect to x,
// ∂f/∂I·dI/dx − ψᵀ·∂R/∂I·dI/dx, from the totals of a previous Solve.
func (s *Solver) Combined(t Totals, x string) (*mat.Dense, error) {
	direct, ok := t.Get(s.Objective, x)
	if !ok {
		return nil, &core.BlockError{Op: "combine", Key: core.Key{Of: s.Objective, Wrt: x}, Err: core.ErrUnknownBlock}
	}
	coupled, ok := t.Get(s.State, x)
	if !ok {
		return nil, &core.BlockError{Op: "combine", Key: core.Key{Of: s.State, Wrt: x}, Err: core.ErrUnknownBlock}
	}
	var out mat.Dense
	out.Sub(direct, coupled)
	return &out, nil
}

// block fetches d(of)/d(wrt), or a rows×cols zero block when undeclared.
func (s *Solver) block(p Blocks, of, wrt string, rows, cols int) (*mat.Dense, error) {
	if p.Has(of, wrt) {
		return p.Dense(of, wrt)
	}
	return mat.NewDense(rows, cols, nil), nil
}

// responseSize infers the row count of a response from any block it owns.
func (s *Solver) responseSize(p Blocks, r string) (int, error) {
	for _, wrt := range []string{s.Intermediate, s.State} {
		if p.Has(r, wrt) {
			d, err := p.Dense(r, wrt)
			if err != nil {
				return 0, err
			}
			rows, _ := d.Dims()
			return rows, nil
		}
	}
	return 0, &core.BlockError{Op: "adjoint", Key: core.Key{Of: r, Wrt: s.Intermediate}, Err: core.ErrUnknownBlock}
}
