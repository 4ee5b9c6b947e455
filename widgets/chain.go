package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-daw/theme"
)

// Block is the column range of one rendered item, relative to the start
// of the line.
type Block struct {
	X, Width int
}

// ChainView is what RenderChain draws: instrument, then effects in order.
type ChainView struct {
	Instrument string // "" = empty slot
	Effects    []string
	Hover      int // insertion index highlighted during a drag, -1 = none
}

// RenderChain draws "[Synth] → [Reverb] → out" and returns the blocks
// covered by each effect, for drop-target resolution.
func RenderChain(th *theme.Theme, v ChainView) (string, []Block) {
	inst := lipgloss.NewStyle().Foreground(th.Accent())
	fx := lipgloss.NewStyle().Foreground(th.FG())
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	mark := lipgloss.NewStyle().Foreground(th.Warning())
	arrow := " " + string(th.Symbols.Arrow) + " "

	var out strings.Builder
	col := 0
	write := func(s string, style lipgloss.Style) {
		out.WriteString(style.Render(s))
		col += lipgloss.Width(s)
	}

	if v.Instrument == "" {
		write(string(th.Symbols.Slot)+" instrument", dim)
	} else {
		write("["+v.Instrument+"]", inst)
	}

	blocks := make([]Block, 0, len(v.Effects))
	for i, name := range v.Effects {
		if v.Hover == i {
			write(" |", mark)
		}
		write(arrow, dim)
		label := "[" + name + "]"
		blocks = append(blocks, Block{X: col, Width: lipgloss.Width(label)})
		write(label, fx)
	}
	if v.Hover >= 0 && v.Hover == len(v.Effects) {
		write(" |", mark)
	}
	write(arrow+"out", dim)
	return out.String(), blocks
}

// RenderList draws a vertical list with a cursor marker.
func RenderList(th *theme.Theme, title string, items []string, cursor int) string {
	head := lipgloss.NewStyle().Foreground(th.Accent())
	sel := lipgloss.NewStyle().Foreground(th.Cursor())
	dim := lipgloss.NewStyle().Foreground(th.Muted())

	lines := []string{head.Render(title)}
	for i, it := range items {
		if i == cursor {
			lines = append(lines, sel.Render("> "+it))
		} else {
			lines = append(lines, dim.Render("  "+it))
		}
	}
	return strings.Join(lines, "\n")
}
