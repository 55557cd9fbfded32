package check

import (
	"context"
	"fmt"

	"github.com/san-kum/mdao/internal/logging"
	"github.com/san-kum/mdao/internal/model"
)

// Totals compares Model.ComputeTotals with finite differences of complete
// analyses. Each perturbation reruns the model; the base point is restored
// and relinearized before returning.
func Totals(ctx context.Context, m *model.Model, of, wrt []string, o Options) ([]Result, error) {
	log := logging.FromContext(ctx)
	if err := m.RunAnalysis(ctx); err != nil {
		return nil, err
	}
	analytic, err := m.ComputeTotals(of, wrt)
	if err != nil {
		return nil, err
	}

	store := m.Store()
	snap := store.Snapshot()
	restore := func() error {
		store.Restore(snap)
		return m.RunAnalysis(ctx)
	}

	var results []Result
	for _, x := range wrt {
		base, err := m.GetVal(x)
		if err != nil {
			return nil, err
		}
		for _, f := range of {
			d, _ := analytic.Get(f, x)
			rows, _ := d.Dims()
			approx, err := difference(o, base.Data(), rows,
				func(v []float64) error {
					val, err := base.WithData(v)
					if err != nil {
						return err
					}
					store.Restore(snap)
					return m.SetVal(x, val)
				},
				func() ([]float64, error) {
					if err := m.RunAnalysis(ctx); err != nil {
						return nil, err
					}
					val, err := m.GetVal(f)
					if err != nil {
						return nil, err
					}
					return val.Data(), nil
				},
			)
			if err != nil {
				if rerr := restore(); rerr != nil {
					return nil, rerr
				}
				return nil, fmt.Errorf("check totals d%s/d%s: %w", f, x, err)
			}
			r := newResult(f, x, d, approx)
			log.V(logging.DEBUG).Info("total checked", "of", f, "wrt", x, "abs", r.AbsErr, "rel", r.RelErr)
			results = append(results, r)
		}
	}
	return results, restore()
}
