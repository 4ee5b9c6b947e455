package theme

import (
	"strings"
	"testing"
)

func TestPlasma(t *testing.T) {
	p := Plasma()
	if p.Name != "plasma" || len(p.Colors) != 11 {
		t.Fatalf("palette = %s with %d colors", p.Name, len(p.Colors))
	}
	if got := p.Lookup(0); got != (RGB{13, 8, 135}) {
		t.Fatalf("Lookup(0) = %v", got)
	}
	if got := p.Lookup(1); got != (RGB{240, 249, 33}) {
		t.Fatalf("Lookup(1) = %v", got)
	}
}

func TestParseGPLErrors(t *testing.T) {
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n# nothing\n"), "empty"); err == nil {
		t.Fatal("expected error for empty palette")
	}
}

func TestThemeColors(t *testing.T) {
	th := Default()
	if th.Accent() == th.BG() {
		t.Fatal("accent equals background")
	}
	if !strings.HasPrefix(string(th.Color(0.5)), "#") {
		t.Fatalf("color = %q", th.Color(0.5))
	}
}
