package viz

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mdao/internal/adjoint"
	"github.com/san-kum/mdao/internal/check"
	"gonum.org/v1/gonum/mat"
)

// FormatMatrix prints scalars bare and matrices row by row.
func FormatMatrix(m mat.Matrix) string {
	r, c := m.Dims()
	if r == 1 && c == 1 {
		return fmt.Sprintf("%.6g", m.At(0, 0))
	}
	rows := make([]string, r)
	for i := range r {
		cells := make([]string, c)
		for j := range c {
			cells[j] = fmt.Sprintf("%.6g", m.At(i, j))
		}
		rows[i] = "[" + strings.Join(cells, " ") + "]"
	}
	return strings.Join(rows, "\n")
}

// table lays out cells in padded columns. Padding happens before styling so
// ANSI sequences never disturb the alignment.
func (s Styles) table(header []string, rows [][]string, style func(row, col int, cell string) string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			for _, line := range strings.Split(cell, "\n") {
				widths[i] = max(widths[i], len([]rune(line)))
			}
		}
	}
	pad := func(cell string, w int) string {
		return cell + strings.Repeat(" ", w-len([]rune(cell)))
	}

	var sb strings.Builder
	for i, h := range header {
		sb.WriteString(s.Label.Render(pad(h, widths[i])))
		if i < len(header)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteString("\n")
	for r, row := range rows {
		// multi-line cells (matrix rows) expand into several output lines
		lines := 1
		split := make([][]string, len(row))
		for i, cell := range row {
			split[i] = strings.Split(cell, "\n")
			lines = max(lines, len(split[i]))
		}
		for l := range lines {
			for i := range row {
				cell := ""
				if l < len(split[i]) {
					cell = split[i][l]
				}
				out := pad(cell, widths[i])
				if style != nil && cell != "" {
					out = style(r, i, out)
				}
				sb.WriteString(out)
				if i < len(row)-1 {
					sb.WriteString("  ")
				}
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Totals renders one row per derivative pair, sorted.
func (s Styles) Totals(t adjoint.Totals) string {
	var rows [][]string
	for _, p := range t.Pairs() {
		d := t[p]
		r, c := d.Dims()
		rows = append(rows, []string{p.Of, p.Wrt, fmt.Sprintf("%dx%d", r, c), FormatMatrix(d)})
	}
	return s.table([]string{"OF", "WRT", "SHAPE", "VALUE"}, rows, func(_, col int, cell string) string {
		if col == 3 {
			return s.Value.Render(cell)
		}
		return cell
	})
}

// Checks renders derivative check results against the tolerances in o.
func (s Styles) Checks(results []check.Result, o check.Options) string {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.Of, r.Wrt,
			FormatMatrix(r.Analytic), FormatMatrix(r.Approx),
			fmt.Sprintf("%.3e", r.AbsErr), fmt.Sprintf("%.3e", r.RelErr),
			s.statusText(r.OK(o)),
		}
	}
	return s.table([]string{"OF", "WRT", "ANALYTIC", o.Form.String(), "ABS ERR", "REL ERR", ""}, rows,
		func(row, col int, cell string) string {
			if col == 6 {
				if results[row].OK(o) {
					return s.Pass.Render(cell)
				}
				return s.Fail.Render(cell)
			}
			return cell
		})
}

func (s Styles) statusText(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}

// Values renders named flattened values in name order.
func (s Styles) Values(vals map[string][]float64) string {
	var rows [][]string
	for _, name := range slices.Sorted(maps.Keys(vals)) {
		rows = append(rows, []string{name, fmt.Sprintf("%.6g", vals[name])})
	}
	return s.table([]string{"NAME", "VALUE"}, rows, func(_, col int, cell string) string {
		if col == 1 {
			return s.Value.Render(cell)
		}
		return cell
	})
}

// Plot draws a history as an ASCII chart. Series shorter than two points
// have nothing to draw and return an empty string.
func Plot(data []float64, caption string, width, height int) string {
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
