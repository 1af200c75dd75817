package device

import (
	"context"
	"log"
)

// LogClient is a Client that only logs what it would send. It stands in for
// a real transport when the process runs without a bound device.
type LogClient struct{}

var _ Client = (*LogClient)(nil)

// SetStrength logs the strength write.
func (LogClient) SetStrength(ctx context.Context, channel Channel, value int) error {
	log.Printf("device: setStrength channel=%s value=%d", channel, value)
	return nil
}

// AddPulses logs the waveform send.
func (LogClient) AddPulses(ctx context.Context, channel Channel, pulses ...Pulse) error {
	log.Printf("device: addPulses channel=%s frames=%d", channel, len(pulses))
	return nil
}
