// Package adjoint computes total derivatives from assembled partial blocks.
//
// One transposed solve against the square state Jacobian ∂R/∂u yields the
// adjoint vector ψ; every design variable then costs only matrix products:
//
//	∂Rᵀ/∂u · ψ = ∂fᵀ/∂u
//	d(response)/dx = ∂(response)/∂I · dI/dx
//	d(state)/dx    = ψᵀ · ∂R/∂I · dI/dx
//
// where I is the intermediate quantity between the design variables and the
// coupled state.
package adjoint
