package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"go-daw/theme"
)

func TestRenderChainBlocks(t *testing.T) {
	th := theme.Default()
	out, blocks := RenderChain(th, ChainView{Instrument: "Synth", Effects: []string{"Reverb", "Tremolo"}, Hover: -1})

	plain := ansi.Strip(out)
	if plain != "[Synth] → [Reverb] → [Tremolo] → out" {
		t.Fatalf("chain = %q", plain)
	}
	want := []Block{{X: 10, Width: 8}, {X: 21, Width: 9}}
	for i, b := range want {
		if blocks[i] != b {
			t.Errorf("block %d = %+v, want %+v", i, blocks[i], b)
		}
	}
}

func TestRenderChainEmpty(t *testing.T) {
	out, blocks := RenderChain(theme.Default(), ChainView{Hover: 0})
	if len(blocks) != 0 {
		t.Fatalf("blocks = %v", blocks)
	}
	if !strings.Contains(ansi.Strip(out), "instrument |") {
		t.Fatalf("hover marker missing: %q", ansi.Strip(out))
	}
}

func TestRenderRoll(t *testing.T) {
	out := RenderRoll(theme.Default(), RollView{
		Notes:     []RollNote{{Pitch: 60, Start: 1, Length: 2}},
		TopPitch:  61,
		Rows:      2,
		Steps:     4,
		CellWidth: 2,
		BeatSteps: 16,
		Playhead:  -1,
	})
	lines := strings.Split(ansi.Strip(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d", len(lines))
	}
	if lines[2] != "C4   ┊·███▐··" {
		t.Fatalf("row = %q", lines[2])
	}
	if !strings.HasPrefix(lines[1], "C#4") {
		t.Fatalf("label = %q", lines[1])
	}
}

func TestPitchName(t *testing.T) {
	for p, want := range map[int]string{60: "C4", 69: "A4", 0: "C-1", 127: "G9", 200: "?"} {
		if got := PitchName(p); got != want {
			t.Errorf("PitchName(%d) = %q, want %q", p, got, want)
		}
	}
}
