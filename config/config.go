package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// KeyboardConfig controls the computer-keyboard instrument
type KeyboardConfig struct {
	Octave   int `json:"octave"`
	Velocity int `json:"velocity"`
	HoldMS   int `json:"holdMs"` // synthesized key-up delay
}

// PianoRollConfig holds the editor geometry
type PianoRollConfig struct {
	GridSize      int  `json:"gridSize"`
	EdgeThreshold int  `json:"edgeThreshold"`
	PatternLength int  `json:"patternLength"` // steps per pattern loop
	Invert        bool `json:"invert,omitempty"`
}

// AudioConfig holds the output device settings
type AudioConfig struct {
	SampleRate int  `json:"sampleRate"`
	BufferMS   int  `json:"bufferMs"`
	Disabled   bool `json:"disabled,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Tempo           float64         `json:"tempo"`
	MIDIInputPrefix string          `json:"midiInputPrefix,omitempty"`
	FixedVelocity   bool            `json:"fixedVelocity,omitempty"`
	Keyboard        KeyboardConfig  `json:"keyboard"`
	PianoRoll       PianoRollConfig `json:"pianoRoll"`
	Audio           AudioConfig     `json:"audio"`
	Debug           bool            `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tempo:    120,
		Keyboard: KeyboardConfig{Octave: 5, Velocity: 127, HoldMS: 300},
		PianoRoll: PianoRollConfig{
			GridSize:      16,
			EdgeThreshold: 8,
			PatternLength: 64,
		},
		Audio: AudioConfig{SampleRate: 44100, BufferMS: 50},
	}
}

// Hold returns the keyboard hold time as a duration
func (c *Config) Hold() time.Duration {
	return time.Duration(c.Keyboard.HoldMS) * time.Millisecond
}

// fill replaces zero values left by a partial file with defaults.
func (c *Config) fill() {
	d := DefaultConfig()
	if c.Tempo == 0 {
		c.Tempo = d.Tempo
	}
	if c.Keyboard.Octave == 0 {
		c.Keyboard.Octave = d.Keyboard.Octave
	}
	if c.Keyboard.Velocity <= 0 || c.Keyboard.Velocity > 127 {
		c.Keyboard.Velocity = d.Keyboard.Velocity
	}
	if c.Keyboard.HoldMS <= 0 {
		c.Keyboard.HoldMS = d.Keyboard.HoldMS
	}
	if c.PianoRoll.GridSize <= 0 {
		c.PianoRoll.GridSize = d.PianoRoll.GridSize
	}
	if c.PianoRoll.EdgeThreshold <= 0 {
		c.PianoRoll.EdgeThreshold = d.PianoRoll.EdgeThreshold
	}
	if c.PianoRoll.PatternLength <= 0 {
		c.PianoRoll.PatternLength = d.PianoRoll.PatternLength
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = d.Audio.SampleRate
	}
	if c.Audio.BufferMS <= 0 {
		c.Audio.BufferMS = d.Audio.BufferMS
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-daw"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.fill()
	return &cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating the directory if needed
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
