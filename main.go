package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-daw/config"
	"go-daw/debug"
	"go-daw/engine"
	"go-daw/library"
	"go-daw/midi"
	"go-daw/sequencer"
	"go-daw/theme"
	"go-daw/transport"
	"go-daw/tui"
)

var flags struct {
	config  string
	debug   bool
	input   string
	noAudio bool
	tempo   float64
}

var rootCmd = &cobra.Command{
	Use:   "go-daw",
	Short: "A terminal DAW: tracks, signal chains and a piano roll",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "",
		"config file (default ~/.config/go-daw/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false,
		"write a debug log to ~/.config/go-daw/debug.log")
	rootCmd.PersistentFlags().StringVarP(&flags.input, "midi-input", "i", "",
		"only open MIDI inputs whose name starts with this prefix")
	rootCmd.PersistentFlags().BoolVar(&flags.noAudio, "no-audio", false,
		"run without opening the sound device")
	rootCmd.PersistentFlags().Float64VarP(&flags.tempo, "tempo", "t", 0,
		"initial tempo in bpm")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := flags.config
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = flags.debug
	}
	if flags.input != "" {
		cfg.MIDIInputPrefix = flags.input
	}
	if flags.noAudio {
		cfg.Audio.Disabled = true
	}
	if flags.tempo > 0 {
		cfg.Tempo = flags.tempo
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Debug {
		if err := debug.Enable(""); err != nil {
			return err
		}
		defer debug.Disable()
	}

	catalog, err := library.Default()
	if err != nil {
		return err
	}

	eng := engine.New(cfg.Audio.SampleRate)
	if !cfg.Audio.Disabled {
		out, err := engine.Open(eng, time.Duration(cfg.Audio.BufferMS)*time.Millisecond)
		if err != nil {
			// keep running silent; MIDI out still works
			fmt.Fprintln(os.Stderr, "audio disabled:", err)
			debug.Log("audio", "open failed: %v", err)
		} else {
			defer out.Close()
		}
	}

	relay := &tui.Relay{}
	tr := transport.New(cfg.Tempo, transport.WithDispatcher(relay.Dispatch))

	var devOpts []midi.Option
	if cfg.MIDIInputPrefix != "" {
		devOpts = append(devOpts, midi.WithInputPrefix(cfg.MIDIInputPrefix))
	}
	// devices.Run closes the driver when ctx is cancelled
	driver := midi.NewRTMIDIDriver()
	devices := midi.NewDeviceManager(driver, relay.Note, devOpts...)

	geom := sequencer.DefaultGeometry()
	geom.GridSize = cfg.PianoRoll.GridSize
	geom.Threshold = cfg.PianoRoll.EdgeThreshold
	geom.Invert = cfg.PianoRoll.Invert
	mgr := sequencer.NewManager(eng, tr,
		sequencer.WithGeometry(geom),
		sequencer.WithPatternLength(cfg.PianoRoll.PatternLength),
		sequencer.WithFixedVelocity(cfg.FixedVelocity),
		sequencer.WithSender(devices.Send),
	)
	mgr.Update(sequencer.AddTrack{})
	mgr.Update(sequencer.Drop{Payload: library.Payload{Item: library.Item{Type: library.TypeInstrument, ID: "synth", Name: "Synth"}}})
	mgr.Update(sequencer.AddPattern{})

	kb := midi.Keyboard{Octave: cfg.Keyboard.Octave, Velocity: uint8(cfg.Keyboard.Velocity), Hold: cfg.Hold()}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := tui.NewModel(mgr, tr, devices, theme.Default(), kb, catalog)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	relay.Attach(p)

	go tr.Run(ctx)
	go devices.Run(ctx)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
