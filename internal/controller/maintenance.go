package controller

import (
	"context"
	"log"
	"time"

	"github.com/stim-control/scc/internal/device"
	"github.com/stim-control/scc/internal/pulse"
)

// runMaintenance keeps waveforms fresh: once per interval it re-sends any
// channel whose waveform has gone stale. It writes to the device directly,
// bypassing the command queue, since this is system upkeep rather than a
// user command.
// Individual send failures are logged and the loop continues.
func (c *Controller) runMaintenance(ctx context.Context) {
	defer c.wg.Done()

	for {
		// A fresh timer each round so interval changes apply immediately.
		timer := time.NewTimer(c.settings.PulseInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("controller: maintenance loop stopping: %v", ctx.Err())
			return
		case <-timer.C:
		}

		if !c.Online() {
			continue
		}

		stale := c.settings.PulseStaleAfter()
		now := time.Now()
		for _, ch := range device.Channels {
			c.pulseMu.Lock()
			last := c.lastPulseSent[ch]
			c.pulseMu.Unlock()

			// A channel that has never been sent is seeded by the first
			// pulse-mode change, not by the maintenance loop.
			if last.IsZero() || now.Sub(last) <= stale {
				continue
			}
			if err := c.SendPulse(ctx, ch); err != nil {
				log.Printf("controller: maintenance resend failed on channel %s: %v", ch, err)
			}
		}
	}
}

// SendPulse builds the channel's current waveform, scaled by the amplitude
// factor, and sends it to the device. It is the single write point for the
// staleness clock: every send path, manual or maintenance, lands here so
// the loop never re-sends a just-sent waveform.
func (c *Controller) SendPulse(ctx context.Context, channel device.Channel) error {
	c.pulseMu.Lock()
	defer c.pulseMu.Unlock()

	mode := c.PulseMode(channel)
	frames := pulse.Build(mode, c.settings.PulseAmplitudeFactor())
	if len(frames) == 0 {
		return nil
	}

	if err := c.client.AddPulses(ctx, channel, frames...); err != nil {
		err = device.NormalizeError(err)
		c.auditAction("sendPulse", channel, mode, "ERROR", err)
		return err
	}

	c.lastPulseSent[channel] = time.Now()
	c.auditAction("sendPulse", channel, mode, "SUCCESS", nil)
	return nil
}

// markPulseSent seeds or refreshes the staleness clock without a device
// write. Used by tests and by transports that push waveforms on bind.
func (c *Controller) markPulseSent(channel device.Channel, at time.Time) {
	c.pulseMu.Lock()
	defer c.pulseMu.Unlock()
	c.lastPulseSent[channel] = at
}

// lastPulseSentAt returns the staleness clock reading for a channel.
func (c *Controller) lastPulseSentAt(channel device.Channel) time.Time {
	c.pulseMu.Lock()
	defer c.pulseMu.Unlock()
	return c.lastPulseSent[channel]
}
