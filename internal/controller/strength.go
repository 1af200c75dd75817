package controller

import (
	"context"
	"log"

	"github.com/stim-control/scc/internal/device"
)

// SetStrength sets a channel's strength to value, clamped to the channel's
// limit. A device write failure is logged and reported but the command
// counts as executed: local state still moves, no retry.
func (c *Controller) SetStrength(ctx context.Context, channel device.Channel, value int) error {
	return c.applyStrength(ctx, channel, func(current int) int { return value })
}

// AdjustStrength shifts a channel's strength by delta (negative to lower),
// clamped to [0, limit]. Clamping is silent at both ends.
func (c *Controller) AdjustStrength(ctx context.Context, channel device.Channel, delta int) error {
	return c.applyStrength(ctx, channel, func(current int) int { return current + delta })
}

// applyStrength performs the clamp-write-update cycle. The device write
// happens under the state lock so concurrent writers cannot reorder the
// device against local state; after every call 0 <= current <= limit.
func (c *Controller) applyStrength(ctx context.Context, channel device.Channel, target func(current int) int) error {
	c.mu.Lock()
	cs := c.channels[channel]
	prev := cs.current
	clamped := clamp(target(cs.current), 0, cs.limit)
	err := c.client.SetStrength(ctx, channel, clamped)
	cs.current = clamped
	c.mu.Unlock()

	if err != nil {
		err = device.NormalizeError(err)
		log.Printf("controller: strength write failed channel=%s value=%d: %v", channel, clamped, err)
	} else if clamped != prev {
		log.Printf("controller: channel %s strength %d -> %d", channel, prev, clamped)
	}

	c.publish("strengthChanged", map[string]interface{}{
		"channel":  channel.String(),
		"strength": clamped,
	})
	return err
}

// CurrentStrength returns a channel's last known strength.
func (c *Controller) CurrentStrength(channel device.Channel) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[channel].current
}

// StrengthLimit returns a channel's effective strength limit.
func (c *Controller) StrengthLimit(channel device.Channel) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[channel].limit
}

// MapValue linearly interpolates value into [min, max]. The caller is
// responsible for pre-scaling value into [0, 1]; results are clamped later
// by the strength engine anyway.
func MapValue(value, min, max float64) float64 {
	return min + value*(max-min)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
