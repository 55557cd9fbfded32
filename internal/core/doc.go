// Package core provides the shared bookkeeping of a multidisciplinary analysis.
//
// Every component of a model reads and writes the same arenas:
//
//   - [Store]: variable name → [Value], split into input, output and residual namespaces
//   - [Table]: partial-derivative blocks keyed by ([Key].Of, [Key].Wrt)
//
// Components hold names, never copies; whatever one component writes is what the
// next one reads.
//
// # Example
//
//	st := core.NewStore()
//	_ = st.Declare(core.Output, "y", core.Scalar(0))
//	tab := core.NewTable()
//	_ = tab.DeclareDense("y", "x", 1, 1, nil)
//	_ = tab.Fill("y", "x", []float64{2})
//
// # Thread Safety
//
// Store and Table are NOT thread-safe. Analyses are evaluated on a single goroutine.
package core
