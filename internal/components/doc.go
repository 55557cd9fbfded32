// Package components holds ready-made physics and algebra components.
//
// Every constructor takes component.Options, decoded into a typed config,
// so components can be built from problem files through the registry.
// Variable names are configurable; the defaults chain into the spring
// compliance problem:
//
//	density_unfiltered → DensityFilter → density → SpringChain → displacements → Compliance → compliance
//	                                      density → Average → avg_density
package components
