// Package component defines the units of computation that make up a model.
//
// A component owns a slice of the shared variable namespace and the partial
// blocks relating its outputs to its inputs. Two variants exist:
//
//   - [Explicit]: outputs are a direct function of inputs
//   - [Implicit]: outputs satisfy a residual equation R(inputs, outputs) = 0
//
// Concrete components embed [Base] (or [ImplicitBase]) and are driven through
// [Attach], [SetupPartials], [Evaluate] and [Linearize], which enforce the
// lifecycle Uninitialized → Setup → PartialsDeclared → Evaluated → Linearized.
package component

// Component is implemented by every concrete component through an embedded Base.
type Component interface {
	// Setup declares inputs and outputs.
	Setup() error
	// SetupPartials declares the partial blocks the component fills.
	SetupPartials() error
	// Meta returns the embedded bookkeeping.
	Meta() *Base
}

type Explicit interface {
	Component
	Compute(in Inputs, out Outputs) error
	ComputePartials(in Inputs, p Partials) error
}

type Implicit interface {
	Component
	ApplyNonlinear(in Inputs, out Outputs, res Residuals) error
	SolveNonlinear(in Inputs, out Outputs, tol float64) error
	Linearize(in Inputs, out Outputs, p Partials) error
	GuessNonlinear(in Inputs, out Outputs, res Residuals) error
	ApplyLinear(in Inputs, out Outputs) error
	SolveLinear(in Inputs, out Outputs) error
}

// ImplicitBase supplies the no-op hooks used only by Newton/Krylov style solvers.
type ImplicitBase struct {
	Base
}

func (ImplicitBase) GuessNonlinear(Inputs, Outputs, Residuals) error { return nil }
func (ImplicitBase) ApplyLinear(Inputs, Outputs) error               { return nil }
func (ImplicitBase) SolveLinear(Inputs, Outputs) error               { return nil }

// State is the lifecycle position of a component instance.
type State int

const (
	Uninitialized State = iota
	SetupDone
	PartialsDeclared
	Evaluated
	Linearized
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "UNINITIALIZED"
	case SetupDone:
		return "SETUP"
	case PartialsDeclared:
		return "PARTIALS_DECLARED"
	case Evaluated:
		return "EVALUATED"
	case Linearized:
		return "LINEARIZED"
	}
	return "UNKNOWN"
}

func isImplicit(c Component) bool {
	_, ok := c.(Implicit)
	return ok
}
