package optim

import (
	"context"
	"fmt"
	"maps"
	"math"

	"github.com/san-kum/mdao/internal/core"
)

// GridSearch evaluates every combination of candidate values for scalar
// design variables. It needs no derivatives and serves as a baseline for
// the gradient drivers on small problems.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// Search returns the best combination and its objective. The model is left
// at the last evaluated point.
func (g *GridSearch) Search(ctx context.Context, p Problem) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid search: %d names for %d ranges", len(g.paramNames), len(g.ranges))
	}
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, p, 0, make(map[string]float64), &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	p Problem,
	depth int,
	current map[string]float64,
	best *float64,
	bestParams *map[string]float64,
) error {
	if depth == len(g.paramNames) {
		for name, v := range current {
			if err := p.Model.SetVal(name, core.Scalar(v)); err != nil {
				return err
			}
		}
		val, err := p.evaluate(ctx)
		if err != nil {
			return err
		}
		if val < *best {
			*best = val
			*bestParams = maps.Clone(current)
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, p, depth+1, newParams, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
