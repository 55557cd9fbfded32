// Package tui is an interactive design explorer: it edits the design
// variables of a model, reruns the analysis and shows the responses and
// their total derivatives as they change.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/mdao/internal/adjoint"
	"github.com/san-kum/mdao/internal/core"
	"github.com/san-kum/mdao/internal/model"
	"github.com/san-kum/mdao/internal/viz"
)

// entry is one editable scalar: a design variable, or one element of it.
type entry struct {
	name  string
	index int
	size  int
}

func (e entry) label() string {
	if e.size == 1 {
		return e.name
	}
	return fmt.Sprintf("%s[%d]", e.name, e.index)
}

type Explorer struct {
	ctx   context.Context
	model *model.Model
	of    []string
	wrt   []string

	entries []entry
	cursor  int
	step    float64

	editing bool
	editBuf string

	totals  adjoint.Totals
	history []float64
	err     error

	theme  viz.Theme
	styles viz.Styles
	width  int
}

// NewExplorer prepares an explorer over the responses of and design
// variables wrt. The model is analyzed once up front.
func NewExplorer(ctx context.Context, m *model.Model, of, wrt []string) (*Explorer, error) {
	e := &Explorer{
		ctx:    ctx,
		model:  m,
		of:     of,
		wrt:    wrt,
		step:   0.1,
		theme:  viz.ThemeSlate,
		styles: viz.NewStyles(viz.ThemeSlate),
		width:  80,
	}
	for _, name := range wrt {
		v, err := m.GetVal(name)
		if err != nil {
			return nil, err
		}
		for i := range v.Size() {
			e.entries = append(e.entries, entry{name: name, index: i, size: v.Size()})
		}
	}
	if len(e.entries) == 0 {
		return nil, fmt.Errorf("tui: no design variables to explore")
	}
	e.refresh()
	if e.err != nil {
		return nil, e.err
	}
	return e, nil
}

func (e *Explorer) Init() tea.Cmd { return nil }

func (e *Explorer) SetTheme(t viz.Theme) {
	e.theme = t
	e.styles = viz.NewStyles(t)
}

// Err is the failure of the last analysis, if any.
func (e *Explorer) Err() error { return e.err }

func (e *Explorer) Totals() adjoint.Totals { return e.totals }

func (e *Explorer) History() []float64 { return e.history }

func (e *Explorer) value(en entry) float64 {
	v, err := e.model.GetVal(en.name)
	if err != nil {
		return 0
	}
	return v.At(en.index)
}

func (e *Explorer) set(en entry, x float64) {
	v, err := e.model.GetVal(en.name)
	if err != nil {
		e.err = err
		return
	}
	data := v.Data()
	data[en.index] = x
	v, err = v.WithData(data)
	if err != nil {
		e.err = err
		return
	}
	if err := e.model.SetVal(en.name, v); err != nil {
		e.err = err
		return
	}
	e.refresh()
}

// refresh reruns the analysis and the totals. The first response's value is
// appended to the history.
func (e *Explorer) refresh() {
	e.err = nil
	if err := e.model.RunAnalysis(e.ctx); err != nil {
		e.err = err
		return
	}
	totals, err := e.model.ComputeTotals(e.of, e.wrt)
	if err != nil {
		e.err = err
		return
	}
	e.totals = totals
	if len(e.of) > 0 {
		if v, err := e.model.GetVal(e.of[0]); err == nil && v.Size() == 1 {
			e.history = append(e.history, v.Data()[0])
		}
	}
}

func (e *Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.width = msg.Width
	case tea.KeyMsg:
		if e.editing {
			e.editKey(msg)
			return e, nil
		}
		return e, e.navKey(msg)
	}
	return e, nil
}

func (e *Explorer) editKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		if x, err := strconv.ParseFloat(e.editBuf, 64); err == nil {
			e.set(e.entries[e.cursor], x)
		} else {
			e.err = fmt.Errorf("tui: %q is not a number", e.editBuf)
		}
		e.editing = false
		e.editBuf = ""
	case tea.KeyEsc:
		e.editing = false
		e.editBuf = ""
	case tea.KeyBackspace:
		if len(e.editBuf) > 0 {
			e.editBuf = e.editBuf[:len(e.editBuf)-1]
		}
	case tea.KeyRunes:
		for _, c := range msg.Runes {
			if (c >= '0' && c <= '9') || strings.ContainsRune(".-+eE", c) {
				e.editBuf += string(c)
			}
		}
	}
}

func (e *Explorer) navKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < len(e.entries)-1 {
			e.cursor++
		}
	case "left", "h":
		en := e.entries[e.cursor]
		e.set(en, e.value(en)-e.step)
	case "right", "l":
		en := e.entries[e.cursor]
		e.set(en, e.value(en)+e.step)
	case "+", "=":
		e.step *= 10
	case "-", "_":
		e.step /= 10
	case "enter", " ":
		e.editing = true
		e.editBuf = strconv.FormatFloat(e.value(e.entries[e.cursor]), 'g', -1, 64)
	case "t":
		e.SetTheme(viz.NextTheme(e.theme))
	}
	return nil
}

func (e *Explorer) View() string {
	s := e.styles
	var design strings.Builder
	for i, en := range e.entries {
		marker := "  "
		if i == e.cursor {
			marker = s.Value.Render("▸ ")
		}
		val := fmt.Sprintf("%.6g", e.value(en))
		if i == e.cursor && e.editing {
			val = e.editBuf + "▏"
		}
		fmt.Fprintf(&design, "%s%-12s %s\n", marker, s.Label.Render(en.label()), s.Value.Render(val))
	}
	fmt.Fprintf(&design, "\n%s %g", s.Label.Render("step"), e.step)

	var resp strings.Builder
	for _, name := range e.of {
		v, err := e.model.GetVal(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(&resp, "%-12s %s\n", s.Label.Render(name), s.Value.Render(formatValue(v)))
	}
	if len(e.history) > 1 {
		resp.WriteString("\n" + s.Sparkline(e.history, min(40, e.width/2)))
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		s.Box("design", design.String()),
		" ",
		s.Box("responses", strings.TrimRight(resp.String(), "\n")),
	)

	var sb strings.Builder
	sb.WriteString(s.Title.Render("mdao explorer") + "  " + s.Subtle.Render(e.theme.Name) + "\n\n")
	sb.WriteString(panels + "\n\n")
	if e.totals != nil {
		sb.WriteString(s.Box("totals", strings.TrimRight(s.Totals(e.totals), "\n")) + "\n")
	}
	if e.err != nil {
		sb.WriteString(s.Fail.Render(e.err.Error()) + "\n")
	}
	sb.WriteString(s.KeyHint.Render("↑/↓ select  ←/→ nudge  +/- step  enter edit  t theme  q quit"))
	return sb.String()
}

func formatValue(v core.Value) string {
	if v.Size() == 1 {
		return fmt.Sprintf("%.6g", v.Data()[0])
	}
	return fmt.Sprintf("%.6g", v.Data())
}

// Run starts the explorer on the terminal.
func Run(e *Explorer) error {
	_, err := tea.NewProgram(e, tea.WithAltScreen()).Run()
	return err
}
