package optim

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/san-kum/mdao/internal/config"
	"github.com/san-kum/mdao/internal/model"
	"github.com/san-kum/mdao/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preset(t *testing.T, name string) (*model.Model, *config.Config) {
	t.Helper()
	cfg := config.GetPreset(name)
	require.NotNil(t, cfg)
	m, err := cfg.Build(registry.New(), logr.Discard())
	require.NoError(t, err)
	return m, cfg
}

func TestSteepestDescentParaboloid(t *testing.T) {
	m, _ := preset(t, "paraboloid")
	var calls int
	sd := &SteepestDescent{Step: 0.2, MaxIter: 500, Tol: 1e-10, OnIterate: func(int, float64, float64) { calls++ }}

	res, err := sd.Minimize(context.Background(), Problem{Model: m, Objective: "f_xy", Design: []string{"x", "y"}})
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDelta(t, 20.0/3, res.Design["x"][0], 1e-3)
	assert.InDelta(t, -22.0/3, res.Design["y"][0], 1e-3)
	assert.InDelta(t, -82.0/3, res.Objective, 1e-6)
	assert.Equal(t, res.Iterations, calls)
	assert.IsNonIncreasing(t, res.History)

	// the model is left at the optimum
	x, _ := m.GetVal("x")
	assert.Equal(t, res.Design["x"][0], x.Float())
	assert.True(t, m.Linearized())
}

func TestSteepestDescentBounds(t *testing.T) {
	m, _ := preset(t, "paraboloid")
	sd := &SteepestDescent{Step: 0.2, MaxIter: 500, Tol: 1e-10, Lower: -10, Upper: 5}

	res, err := sd.Minimize(context.Background(), Problem{Model: m, Objective: "f_xy", Design: []string{"x", "y"}})
	require.NoError(t, err)

	// x hits the upper bound, y then minimizes 2y + 8 + x = 0
	assert.InDelta(t, 5, res.Design["x"][0], 1e-9)
	assert.InDelta(t, -6.5, res.Design["y"][0], 1e-3)
}

func TestSteepestDescentSpring(t *testing.T) {
	m, cfg := preset(t, "spring")
	o := cfg.Optimize
	sd := &SteepestDescent{Step: o.Step, MaxIter: o.MaxIter, Tol: o.Tol, Lower: o.Lower, Upper: o.Upper}

	res, err := sd.Minimize(context.Background(), Problem{Model: m, Objective: o.Objective, Design: cfg.Totals.Wrt})
	require.NoError(t, err)

	assert.Less(t, res.Objective, res.History[0])
	assert.IsNonIncreasing(t, res.History)
	for _, rho := range res.Design["density_unfiltered"] {
		assert.LessOrEqual(t, rho, 1.0)
		assert.GreaterOrEqual(t, rho, 0.05)
	}
}

func TestSteepestDescentRejectsComputedDesign(t *testing.T) {
	m, _ := preset(t, "chain")
	sd := &SteepestDescent{Step: 0.1, MaxIter: 10, Tol: 1e-6}
	_, err := sd.Minimize(context.Background(), Problem{Model: m, Objective: "f", Design: []string{"y"}})
	assert.ErrorIs(t, err, model.ErrNotIndependent)
}

func TestGridSearch(t *testing.T) {
	m, _ := preset(t, "paraboloid")
	g := NewGridSearch([]string{"x", "y"}, [][]float64{Linspace(0, 10, 11), Linspace(-10, 0, 11)})

	best, val, err := g.Search(context.Background(), Problem{Model: m, Objective: "f_xy"})
	require.NoError(t, err)
	assert.Equal(t, -27.0, val)
	assert.Len(t, best, 2)
}

func TestGridSearchMismatchedRanges(t *testing.T) {
	m, _ := preset(t, "paraboloid")
	g := NewGridSearch([]string{"x", "y"}, [][]float64{{1}})
	_, _, err := g.Search(context.Background(), Problem{Model: m, Objective: "f_xy"})
	assert.Error(t, err)
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3))
	assert.Equal(t, []float64{2}, Linspace(2, 3, 1))
}
