package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Panel   lipgloss.Style
	Title   lipgloss.Style
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Subtle  lipgloss.Style
	KeyHint lipgloss.Style
	Pass    lipgloss.Style
	Warn    lipgloss.Style
	Fail    lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Border),
		Label:   lipgloss.NewStyle().Foreground(t.Muted),
		Value:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Subtle:  lipgloss.NewStyle().Foreground(t.Muted),
		KeyHint: lipgloss.NewStyle().Italic(true).Foreground(t.Muted),
		Pass:    lipgloss.NewStyle().Bold(true).Foreground(t.Pass),
		Warn:    lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
		Fail:    lipgloss.NewStyle().Bold(true).Foreground(t.Fail),
	}
}

// Default is used by the package-level renderers.
var Default = NewStyles(ThemeSlate)

// Separator draws a horizontal rule with a centered marker.
func (s Styles) Separator(width int) string {
	if width < 8 {
		width = 8
	}
	mid := width / 2
	return s.Subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}

// Box renders content in a panel headed by title.
func (s Styles) Box(title, content string) string {
	return s.Panel.Render(s.Title.Render(title) + "\n" + content)
}

// Status renders a pass/fail marker.
func (s Styles) Status(ok bool) string {
	if ok {
		return s.Pass.Render("ok")
	}
	return s.Fail.Render("FAIL")
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline compresses values into width cells, sampling evenly.
func (s Styles) Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}
	step := max(len(values)/width, 1)

	var sb strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := min(max(int(norm*float64(len(sparkChars)-1)), 0), len(sparkChars)-1)
		c := string(sparkChars[idx])
		switch {
		case norm > 0.7:
			sb.WriteString(s.Fail.Render(c))
		case norm > 0.3:
			sb.WriteString(s.Warn.Render(c))
		default:
			sb.WriteString(s.Pass.Render(c))
		}
	}
	return sb.String()
}
