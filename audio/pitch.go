package audio

import "math"

// A4 is the tuning reference at MIDI pitch 69.
const A4 = 440.0

// Frequency converts a MIDI pitch to Hz in twelve-tone equal temperament.
func Frequency(pitch int) float64 {
	return math.Pow(2, float64(pitch-69)/12) * A4
}

// Gain maps a 0..127 velocity onto 0..1.
func Gain(velocity uint8) float64 {
	return float64(velocity) / 127
}
