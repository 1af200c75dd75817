// Package fake provides a fake device client implementation for testing.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/stim-control/scc/internal/device"
)

// Call records a single write the fake received.
type Call struct {
	Op      string // "setStrength" or "addPulses"
	Channel device.Channel
	Value   int
	Frames  int
	At      time.Time
}

// FakeClient implements device.Client and records every write for
// inspection. It is safe for concurrent use; the core drives it from the
// executor, the timed effects and the maintenance loop at once.
type FakeClient struct {
	mu sync.Mutex

	strength   map[device.Channel]int
	pulseSends map[device.Channel]int
	calls      []Call

	// Error injection
	strengthErr error
	pulseErr    error
}

var _ device.Client = (*FakeClient)(nil)

// NewFakeClient creates a fake client with both channels at strength zero.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		strength:   make(map[device.Channel]int),
		pulseSends: make(map[device.Channel]int),
	}
}

// SetStrength records the strength write.
func (f *FakeClient) SetStrength(ctx context.Context, channel device.Channel, value int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.strengthErr != nil {
		return f.strengthErr
	}

	f.strength[channel] = value
	f.calls = append(f.calls, Call{Op: "setStrength", Channel: channel, Value: value, At: time.Now()})
	return nil
}

// AddPulses records the waveform send.
func (f *FakeClient) AddPulses(ctx context.Context, channel device.Channel, pulses ...device.Pulse) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pulseErr != nil {
		return f.pulseErr
	}

	f.pulseSends[channel]++
	f.calls = append(f.calls, Call{Op: "addPulses", Channel: channel, Frames: len(pulses), At: time.Now()})
	return nil
}

// Strength returns the last strength written to a channel.
func (f *FakeClient) Strength(channel device.Channel) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.strength[channel]
}

// PulseSends returns how many waveform sends a channel has received.
func (f *FakeClient) PulseSends(channel device.Channel) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulseSends[channel]
}

// Calls returns a copy of all recorded writes in order.
func (f *FakeClient) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// StrengthCalls returns only the strength writes, in order.
func (f *FakeClient) StrengthCalls() []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == "setStrength" {
			out = append(out, c)
		}
	}
	return out
}

// SetStrengthError makes subsequent SetStrength calls fail with err.
func (f *FakeClient) SetStrengthError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strengthErr = err
}

// SetPulseError makes subsequent AddPulses calls fail with err.
func (f *FakeClient) SetPulseError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulseErr = err
}
