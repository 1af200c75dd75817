// Package device defines the southbound client contract for the two-channel
// stimulation device.
//
// The wire protocol lives behind the Client interface; this package only
// fixes the vocabulary (channels, strength snapshots, pulse frames, button
// feedback) and the normalized error codes the rest of the core relies on.
package device

import (
	"context"
)

// Channel identifies one of the two independent stimulation outputs.
type Channel int

const (
	ChannelA Channel = iota
	ChannelB
)

// Channels lists both outputs in a stable order.
var Channels = [2]Channel{ChannelA, ChannelB}

// String returns the channel letter.
func (c Channel) String() string {
	switch c {
	case ChannelA:
		return "A"
	case ChannelB:
		return "B"
	default:
		return "?"
	}
}

// StrengthData is the strength snapshot the device reports: current value and
// hard limit per channel. Limits are device-authoritative.
type StrengthData struct {
	A      int `json:"a"`
	B      int `json:"b"`
	LimitA int `json:"aLimit"`
	LimitB int `json:"bLimit"`
}

// Strength returns the current strength for the given channel.
func (s StrengthData) Strength(c Channel) int {
	if c == ChannelB {
		return s.B
	}
	return s.A
}

// Limit returns the strength limit for the given channel.
func (s StrengthData) Limit(c Channel) int {
	if c == ChannelB {
		return s.LimitB
	}
	return s.LimitA
}

// Pulse is one opaque waveform frame: a short sequence of intensity samples
// in [0, 100]. The core never interprets frames, it only scales and forwards
// them.
type Pulse []int

// FeedbackButton identifies a physical panel button reported by the device.
// Buttons 0-4 belong to channel A, 5-9 to channel B.
type FeedbackButton int

const (
	ButtonADecrease FeedbackButton = iota
	ButtonAIncrease
	ButtonAFire
	ButtonAModePress
	ButtonAModeRelease
	ButtonBDecrease
	ButtonBIncrease
	ButtonBFire
	ButtonBModePress
	ButtonBModeRelease
)

// Channel returns the channel a button belongs to.
func (b FeedbackButton) Channel() Channel {
	if b >= ButtonBDecrease {
		return ChannelB
	}
	return ChannelA
}

// Client is the stable southbound contract to the device transport.
type Client interface {
	// SetStrength sets the absolute strength for a channel. The caller is
	// responsible for clamping; the transport rejects out-of-range values.
	SetStrength(ctx context.Context, channel Channel, value int) error

	// AddPulses appends waveform frames to a channel's playback buffer.
	AddPulses(ctx context.Context, channel Channel, pulses ...Pulse) error
}
