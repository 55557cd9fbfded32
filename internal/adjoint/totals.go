package adjoint

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Pair identifies the total derivative d(Of)/d(Wrt).
type Pair struct {
	Of  string
	Wrt string
}

func (p Pair) String() string {
	return fmt.Sprintf("d%s/d%s", p.Of, p.Wrt)
}

// Totals maps (response, design variable) pairs to dense derivative matrices
// of shape (size(response), size(design variable)).
type Totals map[Pair]*mat.Dense

func (t Totals) Get(of, wrt string) (*mat.Dense, bool) {
	d, ok := t[Pair{of, wrt}]
	return d, ok
}

// Pairs returns the keys sorted by response, then design variable.
func (t Totals) Pairs() []Pair {
	out := make([]Pair, 0, len(t))
	for p := range t {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Pair) int {
		if c := cmp.Compare(a.Of, b.Of); c != 0 {
			return c
		}
		return cmp.Compare(a.Wrt, b.Wrt)
	})
	return out
}

func (t Totals) String() string {
	var sb strings.Builder
	for _, p := range t.Pairs() {
		fmt.Fprintf(&sb, "%s = %v\n", p, mat.Formatted(t[p], mat.Squeeze()))
	}
	return sb.String()
}
