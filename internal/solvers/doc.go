// Package solvers provides the dense linear algebra and Newton iteration
// used by implicit components and the adjoint solve.
package solvers
