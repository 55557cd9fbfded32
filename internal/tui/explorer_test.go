package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/san-kum/mdao/internal/config"
	"github.com/san-kum/mdao/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T) *Explorer {
	t.Helper()
	m, err := config.GetPreset("chain").Build(registry.New(), logr.Discard())
	require.NoError(t, err)
	e, err := NewExplorer(context.Background(), m, []string{"f"}, []string{"x"})
	require.NoError(t, err)
	return e
}

func press(e *Explorer, keys ...tea.KeyMsg) {
	for _, k := range keys {
		e.Update(k)
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestExplorerInitialTotals(t *testing.T) {
	e := chain(t)
	d, ok := e.Totals().Get("f", "x")
	require.True(t, ok)
	assert.InDelta(t, 16, d.At(0, 0), 1e-12)
	assert.Equal(t, []float64{16}, e.History())
}

func TestExplorerNudge(t *testing.T) {
	e := chain(t)
	press(e, runes("+"), tea.KeyMsg{Type: tea.KeyRight})

	assert.InDelta(t, 1.0, e.step, 1e-12)
	assert.InDelta(t, 3, e.value(e.entries[0]), 1e-12)
	d, _ := e.Totals().Get("f", "x")
	assert.InDelta(t, 24, d.At(0, 0), 1e-12)
	assert.Len(t, e.History(), 2)
}

func TestExplorerEdit(t *testing.T) {
	e := chain(t)
	press(e, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, e.editing)
	assert.Equal(t, "2", e.editBuf)

	press(e, tea.KeyMsg{Type: tea.KeyBackspace}, runes("0.5"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, e.editing)
	assert.NoError(t, e.Err())
	d, _ := e.Totals().Get("f", "x")
	assert.InDelta(t, 4, d.At(0, 0), 1e-12)
}

func TestExplorerRejectsGarbage(t *testing.T) {
	e := chain(t)
	press(e, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyBackspace}, runes("-"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Error(t, e.Err())
	assert.InDelta(t, 2, e.value(e.entries[0]), 1e-12)
}

func TestExplorerQuit(t *testing.T) {
	e := chain(t)
	_, cmd := e.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestExplorerView(t *testing.T) {
	e := chain(t)
	press(e, runes("t"))
	out := e.View()
	assert.Contains(t, out, "phosphor")
	assert.Contains(t, out, "totals")
	assert.Contains(t, out, "16")
}

func TestExplorerNoDesign(t *testing.T) {
	m, err := config.GetPreset("chain").Build(registry.New(), logr.Discard())
	require.NoError(t, err)
	_, err = NewExplorer(context.Background(), m, []string{"f"}, nil)
	assert.Error(t, err)
}
