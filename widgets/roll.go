package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-daw/theme"
)

// LabelWidth is the width of the pitch column left of the grid.
const LabelWidth = 5

var pitchNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchName returns e.g. "C4" for 60.
func PitchName(p int) string {
	if p < 0 || p > 127 {
		return "?"
	}
	return fmt.Sprintf("%s%d", pitchNames[p%12], p/12-1)
}

// RollNote is one note as the grid draws it.
type RollNote struct {
	Pitch, Start, Length int
}

// RollView is a window onto a pattern: Rows pitches counting down from
// TopPitch, Steps steps from FirstStep, CellWidth characters per step.
type RollView struct {
	Notes     []RollNote
	TopPitch  int
	Rows      int
	FirstStep int
	Steps     int
	CellWidth int
	BeatSteps int // steps per beat line
	Playhead  int // step, -1 = stopped
}

// RenderRoll draws the piano-roll grid, one line per pitch.
func RenderRoll(th *theme.Theme, v RollView) string {
	noteStyle := lipgloss.NewStyle().Foreground(th.Active())
	gridStyle := lipgloss.NewStyle().Foreground(th.Muted())
	labelStyle := lipgloss.NewStyle().Foreground(th.FG())
	headStyle := lipgloss.NewStyle().Foreground(th.Success())
	sym := th.Symbols
	cw := v.CellWidth
	if cw < 1 {
		cw = 1
	}

	var lines []string
	if v.Playhead >= v.FirstStep && v.Playhead < v.FirstStep+v.Steps {
		pad := strings.Repeat(" ", LabelWidth+(v.Playhead-v.FirstStep)*cw)
		lines = append(lines, pad+headStyle.Render(string(sym.Playhead)))
	} else {
		lines = append(lines, "")
	}

	for r := 0; r < v.Rows; r++ {
		pitch := v.TopPitch - r
		cells := make([]rune, v.Steps*cw)
		isNote := make([]bool, len(cells))
		for i := range cells {
			step := v.FirstStep + i/cw
			cells[i] = sym.GridEmpty
			if v.BeatSteps > 0 && step%v.BeatSteps == 0 && i%cw == 0 {
				cells[i] = sym.GridBeat
			}
		}
		for _, n := range v.Notes {
			if n.Pitch != pitch {
				continue
			}
			from := (n.Start - v.FirstStep) * cw
			to := (n.Start + n.Length - v.FirstStep) * cw
			for i := max(from, 0); i < min(to, len(cells)); i++ {
				cells[i] = sym.NoteBody
				if i == to-1 {
					cells[i] = sym.NoteEdge
				}
				isNote[i] = true
			}
		}

		var line strings.Builder
		line.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", LabelWidth, PitchName(pitch))))
		for i, c := range cells {
			if isNote[i] {
				line.WriteString(noteStyle.Render(string(c)))
			} else {
				line.WriteString(gridStyle.Render(string(c)))
			}
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
