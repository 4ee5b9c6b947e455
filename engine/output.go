package engine

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Output streams an Engine to the default sound device.
type Output struct {
	ctx    *oto.Context
	player *oto.Player
}

// Open creates the device context and starts playing e. Only one Output
// may exist per process.
func Open(e *Engine, buffer time.Duration) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   e.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready

	p := ctx.NewPlayer(e)
	p.Play()
	return &Output{ctx: ctx, player: p}, nil
}

// Close stops playback
func (o *Output) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
