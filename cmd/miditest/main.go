// Command miditest lists MIDI ports, prints note and hot-plug events as the
// DAW sees them, and sends test notes to an output.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"go-daw/audio"
	"go-daw/debug"
	"go-daw/midi"
)

var (
	prefix  string
	verbose bool
	mute    []string
	note    uint8
	hold    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "miditest",
	Short: "MIDI test scripts",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all MIDI ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		d := midi.NewRTMIDIDriver()
		defer d.Close()

		ins, outs, err := d.Ports()
		if err != nil {
			return err
		}
		fmt.Println("=== MIDI Input Ports ===")
		for _, p := range ins {
			fmt.Printf("  %-24s %s\n", p.ID, p.Name)
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for _, p := range outs {
			fmt.Printf("  %-24s %s\n", p.ID, p.Name)
		}
		return nil
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print held notes and port changes. Ctrl+C to exit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if verbose {
			debug.EnableWriter(os.Stderr)
			for _, c := range mute {
				debug.Mute(c, true)
			}
		}

		// dm.Run closes the driver on exit
		d := midi.NewRTMIDIDriver()

		notes := make(chan midi.Event, 64)
		var opts []midi.Option
		if prefix != "" {
			opts = append(opts, midi.WithInputPrefix(prefix))
		}
		dm := midi.NewDeviceManager(d, func(e midi.Event) { notes <- e }, opts...)
		go dm.Run(ctx)

		active := midi.ActiveNotes{}
		for {
			select {
			case <-ctx.Done():
				return nil
			case pe, ok := <-dm.Events():
				if !ok {
					return nil
				}
				fmt.Printf("%-12s %-6s %s\n", pe.State, pe.Port.Kind, pe.Port.Name)
				if pe.State == midi.Disconnected {
					active = active.Without(pe.Port.ID)
				}
			case e := <-notes:
				active = active.With(e)
				state := "off"
				if e.On() {
					state = "on"
				}
				fmt.Printf("%-24s %3d %-3s vel %3d  %7.2fHz  held %d\n",
					e.Source, e.Note, state, e.Velocity, audio.Frequency(int(e.Note)), len(active[e.Source]))
			}
		}
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <port-id>",
	Short: "Send one note to an output port",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := midi.NewRTMIDIDriver()
		defer d.Close()

		send, err := d.Sender(args[0])
		if err != nil {
			return err
		}
		on := midi.Event{Type: midi.NoteOn, Note: note, Velocity: 127}
		if err := send(midi.Encode(on)); err != nil {
			return fmt.Errorf("note on: %w", err)
		}
		time.Sleep(hold)
		off := midi.Event{Type: midi.NoteOff, Note: note}
		if err := send(midi.Encode(off)); err != nil {
			return fmt.Errorf("note off: %w", err)
		}
		fmt.Printf("sent %d to %s\n", note, args[0])
		return nil
	},
}

func init() {
	monitorCmd.Flags().StringVarP(&prefix, "prefix", "p", "", "only open inputs whose name starts with this")
	monitorCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "write the debug log to stderr")
	monitorCmd.Flags().StringSliceVar(&mute, "mute", nil, "debug categories to silence with --verbose")
	sendCmd.Flags().Uint8VarP(&note, "note", "n", 60, "MIDI note number")
	sendCmd.Flags().DurationVar(&hold, "hold", 500*time.Millisecond, "time between note on and off")
	rootCmd.AddCommand(listCmd, monitorCmd, sendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
