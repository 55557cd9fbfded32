package core

import (
	"errors"
	"fmt"
)

// Domain errors for analysis operations.
var (
	// ErrUnknownVariable indicates a name that was never registered.
	ErrUnknownVariable = errors.New("mdao: unknown variable")

	// ErrDuplicateName indicates a name collision on declaration.
	ErrDuplicateName = errors.New("mdao: duplicate name")

	// ErrShapeMismatch indicates a value or block inconsistent with its declaration.
	ErrShapeMismatch = errors.New("mdao: shape mismatch")

	// ErrUnknownBlock indicates partial access before declaration.
	ErrUnknownBlock = errors.New("mdao: unknown partial block")

	// ErrPrematureLinearize indicates linearization before a converged evaluation.
	ErrPrematureLinearize = errors.New("mdao: linearize called before evaluation")

	// ErrConvergence indicates a nonlinear solve exceeded its iteration budget.
	ErrConvergence = errors.New("mdao: nonlinear solve did not converge")

	// ErrSingularJacobian indicates a numerically singular linear system.
	ErrSingularJacobian = errors.New("mdao: singular jacobian")

	// ErrDependencyCycle indicates components whose data dependencies form a cycle.
	ErrDependencyCycle = errors.New("mdao: dependency cycle")
)

// VariableError wraps an error with the variable it concerns.
type VariableError struct {
	Op   string
	Kind Kind
	Name string
	Err  error
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Op, e.Kind, e.Name, e.Err)
}

func (e *VariableError) Unwrap() error {
	return e.Err
}

// ShapeError reports a declared shape against the one that was supplied.
type ShapeError struct {
	Op   string
	Name string
	Want Shape
	Got  Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s %q: %v: want %s, got %s", e.Op, e.Name, ErrShapeMismatch, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// BlockError wraps an error with the partial block it concerns.
type BlockError struct {
	Op  string
	Key Key
	Err error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// LifecycleError reports an operation invoked out of order.
type LifecycleError struct {
	Op        string
	Component string
	State     string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s %q in state %s: %v", e.Op, e.Component, e.State, ErrPrematureLinearize)
}

func (e *LifecycleError) Unwrap() error {
	return ErrPrematureLinearize
}

// ConvergenceError reports an exhausted nonlinear iteration budget.
type ConvergenceError struct {
	Component  string
	Iterations int
	Norm       float64
	Tol        float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: %v after %d iterations (|R|=%.3e, tol=%.1e)",
		e.Component, ErrConvergence, e.Iterations, e.Norm, e.Tol)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}

// SingularError reports a linear solve on an ill-conditioned matrix.
type SingularError struct {
	Op   string
	Cond float64
}

func (e *SingularError) Error() string {
	return fmt.Sprintf("%s: %v (cond=%.3e)", e.Op, ErrSingularJacobian, e.Cond)
}

func (e *SingularError) Unwrap() error {
	return ErrSingularJacobian
}
