// Package viz renders analysis results for the terminal: tables of total
// derivatives and derivative checks, design variable listings and ASCII
// plots of convergence histories.
//
// Output is styled with lipgloss. When stdout is not a terminal the styles
// degrade to plain text, so the renderers are safe to pipe.
package viz
