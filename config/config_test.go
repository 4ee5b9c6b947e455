package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tempo != 120 || cfg.PianoRoll.GridSize != 16 || cfg.PianoRoll.EdgeThreshold != 8 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Hold() != 300*time.Millisecond {
		t.Fatalf("hold = %v", cfg.Hold())
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Tempo = 90
	cfg.MIDIInputPrefix = "Keystep"
	cfg.FixedVelocity = true
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tempo != 90 || got.MIDIInputPrefix != "Keystep" || !got.FixedVelocity {
		t.Fatalf("got %+v", got)
	}
}

func TestPartialFileFilled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"tempo": 140, "keyboard": {"velocity": 400}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tempo != 140 {
		t.Errorf("tempo = %v", cfg.Tempo)
	}
	if cfg.Keyboard.Velocity != 127 || cfg.Keyboard.Octave != 5 {
		t.Errorf("keyboard = %+v", cfg.Keyboard)
	}
	if cfg.PianoRoll.PatternLength != 64 || cfg.Audio.SampleRate != 44100 {
		t.Errorf("defaults not filled: %+v", cfg)
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte("{"), 0644)
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}
