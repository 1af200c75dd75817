package controller

import (
	"context"
	"log"
	"time"

	"github.com/stim-control/scc/internal/command"
	"github.com/stim-control/scc/internal/device"
)

// FireMode spikes a channel to fireStrength and schedules a revert to the
// pre-fire strength after the configured fire duration.
//
// Re-triggering while a revert is pending cancels the pending timer and
// starts a fresh one, keeping the original captured when the burst began.
// Rapid re-fires never revert to an intermediate fired value.
func (c *Controller) FireMode(ctx context.Context, channel device.Channel, fireStrength int) error {
	fs := c.fire[channel]

	fs.mu.Lock()
	if !fs.pending {
		fs.original = c.CurrentStrength(channel)
		fs.pending = true
	}
	fs.gen++
	gen := fs.gen
	fs.mu.Unlock()

	err := c.SetStrength(ctx, channel, fireStrength)
	if err != nil {
		log.Printf("controller: fire mode write failed on channel %s: %v", channel, err)
	}
	c.auditAction("fireMode", channel, fireStrength, outcomeOf(err), err)
	c.publish("fireModeStarted", map[string]interface{}{
		"channel":  channel.String(),
		"strength": fireStrength,
	})

	go c.fireRevert(channel, gen)
	return err
}

// fireRevert restores the pre-fire strength unless the effect was cancelled
// or superseded in the meantime.
func (c *Controller) fireRevert(channel device.Channel, gen uint64) {
	timer := time.NewTimer(c.settings.FireDuration())
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-c.done():
		return
	}

	fs := c.fire[channel]
	fs.mu.Lock()
	if fs.gen != gen || !fs.pending {
		fs.mu.Unlock()
		return
	}
	fs.pending = false
	original := fs.original
	fs.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	err := c.SetStrength(ctx, channel, original)
	c.auditAction("fireModeRevert", channel, original, outcomeOf(err), err)
	c.publish("fireModeEnded", map[string]interface{}{
		"channel":  channel.String(),
		"strength": original,
	})
}

// HandleDeath applies the death penalty to every interaction-enabled
// channel, or channel A when none is enabled.
func (c *Controller) HandleDeath(penaltyStrength int, penaltyDuration time.Duration) {
	for _, ch := range c.interactionTargets() {
		c.applyDeathPenalty(ch, penaltyStrength, penaltyDuration)
	}
}

// applyDeathPenalty drives the penalty through the command queue so it
// obeys the same ordering and enable-flag discipline as user commands: the
// spike and the delayed revert are both queued game-category commands.
func (c *Controller) applyDeathPenalty(channel device.Channel, penaltyStrength int, penaltyDuration time.Duration) {
	ps := c.penalty[channel]

	ps.mu.Lock()
	if !ps.pending {
		ps.original = c.CurrentStrength(channel)
		ps.pending = true
	}
	ps.gen++
	gen := ps.gen
	ps.mu.Unlock()

	c.enqueueDirect(command.New(command.CategoryGame, command.KindSetStrength, channel, command.OpSetTo, penaltyStrength, "death_penalty"))
	log.Printf("controller: death penalty on channel %s, strength %d for %s", channel, penaltyStrength, penaltyDuration)
	c.publish("deathPenaltyStarted", map[string]interface{}{
		"channel":  channel.String(),
		"strength": penaltyStrength,
		"duration": penaltyDuration.String(),
	})

	go c.penaltyRevert(channel, gen, penaltyDuration)
}

// penaltyRevert enqueues the restore command after the penalty elapses,
// unless a newer penalty on the channel superseded this one.
func (c *Controller) penaltyRevert(channel device.Channel, gen uint64, penaltyDuration time.Duration) {
	timer := time.NewTimer(penaltyDuration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-c.done():
		return
	}

	ps := c.penalty[channel]
	ps.mu.Lock()
	if ps.gen != gen || !ps.pending {
		ps.mu.Unlock()
		return
	}
	ps.pending = false
	original := ps.original
	ps.mu.Unlock()

	c.enqueueDirect(command.New(command.CategoryGame, command.KindSetStrength, channel, command.OpSetTo, original, "death_penalty"))
	c.publish("deathPenaltyEnded", map[string]interface{}{
		"channel":  channel.String(),
		"strength": original,
	})
}

// ModePress starts (or restarts) the long-press timer for a channel's
// interaction-mode toggle.
func (c *Controller) ModePress(channel device.Channel) {
	st := c.press[channel]

	st.mu.Lock()
	st.gen++
	st.pending = true
	gen := st.gen
	st.mu.Unlock()

	go c.pressExpire(channel, gen)
}

// ModeRelease cancels a pending long-press timer. Releasing before the
// threshold leaves all state untouched.
func (c *Controller) ModeRelease(channel device.Channel) {
	st := c.press[channel]

	st.mu.Lock()
	st.gen++
	st.pending = false
	st.mu.Unlock()
}

func (c *Controller) pressExpire(channel device.Channel, gen uint64) {
	timer := time.NewTimer(c.settings.LongPressDuration())
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-c.done():
		return
	}

	st := c.press[channel]
	st.mu.Lock()
	if st.gen != gen || !st.pending {
		st.mu.Unlock()
		return
	}
	st.pending = false
	st.mu.Unlock()

	c.toggleInteractionMode(channel)
}

// toggleInteractionMode flips a channel's interaction flag and recomputes
// the controller-wide interaction category as the OR across channels.
func (c *Controller) toggleInteractionMode(channel device.Channel) {
	c.mu.Lock()
	cs := c.channels[channel]
	cs.interaction = !cs.interaction
	enabled := cs.interaction
	anyEnabled := false
	for _, ch := range device.Channels {
		if c.channels[ch].interaction {
			anyEnabled = true
		}
	}
	c.mu.Unlock()

	c.settings.SetCategoryEnabled(command.CategoryInteraction, anyEnabled)

	log.Printf("controller: channel %s interaction mode enabled=%v", channel, enabled)
	c.publish("interactionModeChanged", map[string]interface{}{
		"channel":    channel.String(),
		"enabled":    enabled,
		"anyEnabled": anyEnabled,
	})
}

func outcomeOf(err error) string {
	if err != nil {
		return "ERROR"
	}
	return "SUCCESS"
}
