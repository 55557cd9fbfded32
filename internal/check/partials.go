package check

import (
	"fmt"

	"github.com/san-kum/mdao/internal/component"
)

// Partials checks every declared block of a linearized component against
// finite differences of its outputs (explicit) or residuals (implicit). The
// shared store is restored afterwards.
func Partials(c component.Component, o Options) ([]Result, error) {
	b := c.Meta()
	if b.State() < component.Linearized {
		return nil, fmt.Errorf("check partials %s: component is %s, run it first", b.Name(), b.State())
	}
	store, table := b.Arena()
	snap := store.Snapshot()
	defer store.Restore(snap)

	var results []Result
	for _, k := range b.Keys() {
		analytic, err := table.Dense(k.Of, k.Wrt)
		if err != nil {
			return nil, err
		}
		kind := b.WrtKind(k.Wrt)
		base, err := store.Get(kind, k.Wrt)
		if err != nil {
			return nil, err
		}
		rows, _ := analytic.Dims()

		approx, err := difference(o, base.Data(), rows,
			func(x []float64) error { return store.SetData(kind, k.Wrt, x) },
			func() ([]float64, error) {
				resp, err := component.Respond(c)
				if err != nil {
					return nil, err
				}
				return resp[k.Of], nil
			},
		)
		if err != nil {
			return nil, fmt.Errorf("check partials %s %s: %w", b.Name(), k, err)
		}
		results = append(results, newResult(k.Of, k.Wrt, analytic, approx))
	}
	return results, nil
}
