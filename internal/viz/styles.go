package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles holds the lipgloss styles derived from one theme.
type styles struct {
	panel   lipgloss.Style
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	graph   lipgloss.Style
	help    lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	divider lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 2),
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary).MarginBottom(1),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:   lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		graph:   lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 0),
		help:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		good:    lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		warn:    lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		bad:     lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		divider: lipgloss.NewStyle().Foreground(t.Muted),
	}
}

// progressBar renders frac of width as filled cells.
func (s styles) progressBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case frac >= 1:
		return s.good.Render(bar)
	case frac > 0.4:
		return s.warn.Render(bar)
	}
	return s.bad.Render(bar)
}

// sparkline renders the last width values scaled to their own range.
func (s styles) sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(chars)-1))
		b.WriteRune(chars[idx])
	}
	return s.value.Render(b.String())
}

func (s styles) separator(width int) string {
	mid := width / 2
	return s.divider.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}
