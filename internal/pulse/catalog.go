// Package pulse holds the built-in waveform catalog.
//
// Frames are opaque to the rest of the core: the controller selects a mode
// by index and forwards the scaled frames to the device. What a pattern
// feels like is the catalog's business alone.
package pulse

import (
	"github.com/stim-control/scc/internal/device"
)

// mode pairs a display name with its frame envelope.
type mode struct {
	name   string
	frames []device.Pulse
}

// catalog index order is the pulse-mode index used across the core.
var catalog = []mode{
	{"Steady", []device.Pulse{
		{60, 60, 60, 60},
		{60, 60, 60, 60},
	}},
	{"Breath", []device.Pulse{
		{10, 20, 30, 40},
		{50, 60, 70, 80},
		{70, 60, 50, 40},
		{30, 20, 10, 0},
	}},
	{"Tide", []device.Pulse{
		{20, 40, 60, 80},
		{100, 80, 60, 40},
		{20, 40, 60, 80},
	}},
	{"Heartbeat", []device.Pulse{
		{100, 100, 0, 0},
		{80, 80, 0, 0},
		{0, 0, 0, 0},
	}},
	{"Ramp", []device.Pulse{
		{10, 25, 40, 55},
		{70, 85, 100, 100},
	}},
}

// Count returns the number of catalog modes.
func Count() int {
	return len(catalog)
}

// Valid reports whether mode is a known catalog index.
func Valid(mode int) bool {
	return mode >= 0 && mode < len(catalog)
}

// Name returns the display name of a mode, or "unknown".
func Name(mode int) string {
	if !Valid(mode) {
		return "unknown"
	}
	return catalog[mode].name
}

// Build returns the frames of a mode with every sample scaled by the
// amplitude factor and clamped to [0, 100]. Unknown modes yield nil.
func Build(modeIndex int, amplitudeFactor float64) []device.Pulse {
	if !Valid(modeIndex) {
		return nil
	}

	src := catalog[modeIndex].frames
	out := make([]device.Pulse, len(src))
	for i, frame := range src {
		scaled := make(device.Pulse, len(frame))
		for j, sample := range frame {
			v := int(float64(sample) * amplitudeFactor)
			if v < 0 {
				v = 0
			}
			if v > 100 {
				v = 100
			}
			scaled[j] = v
		}
		out[i] = scaled
	}
	return out
}
