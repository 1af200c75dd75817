// Package config holds the controller settings: category enable flags,
// cooldown windows, channel limits, effect timings and pulse parameters.
//
// Every value is readable and writable at runtime; components read the live
// value on each operation rather than caching it at startup, so a change
// takes effect on the next command.
package config

import (
	"sync"
	"time"

	"github.com/stim-control/scc/internal/command"
	"github.com/stim-control/scc/internal/device"
)

// Settings is the mutable configuration surface. All accessors are safe for
// concurrent use.
type Settings struct {
	mu sync.RWMutex

	categoryEnabled map[command.Category]bool
	cooldowns       map[command.Category]time.Duration
	channelLimits   map[device.Channel]int

	fireStrengthStep   int
	adjustStrengthStep int
	fireDuration       time.Duration
	longPressDuration  time.Duration

	pulseInterval        time.Duration
	pulseStaleAfter      time.Duration
	pulseFrequency       int
	pulseAmplitudeFactor float64

	damageMultiplier     float64
	damageStrengthCap    int
	deathPenaltyStrength int
	deathPenaltyDuration time.Duration

	queueCapacity   int
	eventBufferSize int
}

// Defaults returns the baseline settings: GUI commands uncooled, panel and
// interaction sources throttled tightly, game integration loosest to absorb
// damage bursts.
func Defaults() *Settings {
	return &Settings{
		categoryEnabled: map[command.Category]bool{
			command.CategoryGUI:         true,
			command.CategoryPanel:       true,
			command.CategoryInteraction: false,
			command.CategoryGame:        true,
		},
		cooldowns: map[command.Category]time.Duration{
			command.CategoryGUI:         0,
			command.CategoryPanel:       100 * time.Millisecond,
			command.CategoryInteraction: 50 * time.Millisecond,
			command.CategoryGame:        200 * time.Millisecond,
		},
		channelLimits: map[device.Channel]int{
			device.ChannelA: 100,
			device.ChannelB: 100,
		},

		fireStrengthStep:   30,
		adjustStrengthStep: 5,
		fireDuration:       2 * time.Second,
		longPressDuration:  time.Second,

		pulseInterval:        time.Second,
		pulseStaleAfter:      3 * time.Second,
		pulseFrequency:       10,
		pulseAmplitudeFactor: 1.0,

		damageMultiplier:     1.0,
		damageStrengthCap:    30,
		deathPenaltyStrength: 30,
		deathPenaltyDuration: 5 * time.Second,

		queueCapacity:   command.DefaultCapacity,
		eventBufferSize: 50,
	}
}

// CategoryEnabled reports whether commands of a category are executed.
func (s *Settings) CategoryEnabled(c command.Category) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categoryEnabled[c]
}

// SetCategoryEnabled enables or disables a command category.
func (s *Settings) SetCategoryEnabled(c command.Category, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryEnabled[c] = enabled
}

// Cooldown returns the per-source cooldown window of a category.
func (s *Settings) Cooldown(c command.Category) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cooldowns[c]
}

// SetCooldown sets the per-source cooldown window of a category.
func (s *Settings) SetCooldown(c command.Category, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[c] = d
}

// ChannelLimit returns the configured strength limit for a channel, used
// until the device reports its own.
func (s *Settings) ChannelLimit(c device.Channel) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelLimits[c]
}

// SetChannelLimit sets the configured strength limit for a channel.
func (s *Settings) SetChannelLimit(c device.Channel, limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelLimits[c] = limit
}

// FireStrengthStep returns the fire-mode strength.
func (s *Settings) FireStrengthStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fireStrengthStep
}

// SetFireStrengthStep sets the fire-mode strength.
func (s *Settings) SetFireStrengthStep(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fireStrengthStep = v
}

// AdjustStrengthStep returns the step used by increment/decrement buttons.
func (s *Settings) AdjustStrengthStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adjustStrengthStep
}

// SetAdjustStrengthStep sets the button adjustment step.
func (s *Settings) SetAdjustStrengthStep(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjustStrengthStep = v
}

// FireDuration returns how long a fire pulse holds before reverting.
func (s *Settings) FireDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fireDuration
}

// SetFireDuration sets the fire pulse duration.
func (s *Settings) SetFireDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fireDuration = d
}

// LongPressDuration returns how long the mode button must be held to toggle
// interaction mode.
func (s *Settings) LongPressDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.longPressDuration
}

// SetLongPressDuration sets the long-press threshold.
func (s *Settings) SetLongPressDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.longPressDuration = d
}

// PulseInterval returns the maintenance loop check interval.
func (s *Settings) PulseInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pulseInterval
}

// SetPulseInterval sets the maintenance loop check interval.
func (s *Settings) SetPulseInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulseInterval = d
}

// PulseStaleAfter returns the age after which a channel's waveform is
// re-sent.
func (s *Settings) PulseStaleAfter() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pulseStaleAfter
}

// SetPulseStaleAfter sets the waveform staleness threshold.
func (s *Settings) SetPulseStaleAfter(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulseStaleAfter = d
}

// PulseFrequency returns the waveform playback frequency in Hz.
func (s *Settings) PulseFrequency() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pulseFrequency
}

// SetPulseFrequency sets the waveform playback frequency in Hz.
func (s *Settings) SetPulseFrequency(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulseFrequency = v
}

// PulseAmplitudeFactor returns the global waveform amplitude scale.
func (s *Settings) PulseAmplitudeFactor() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pulseAmplitudeFactor
}

// SetPulseAmplitudeFactor sets the global waveform amplitude scale.
func (s *Settings) SetPulseAmplitudeFactor(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulseAmplitudeFactor = v
}

// DamageMultiplier returns the multiplier applied to raw damage amounts.
func (s *Settings) DamageMultiplier() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.damageMultiplier
}

// SetDamageMultiplier sets the damage multiplier.
func (s *Settings) SetDamageMultiplier(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.damageMultiplier = v
}

// DamageStrengthCap returns the largest strength delta one damage event may
// produce.
func (s *Settings) DamageStrengthCap() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.damageStrengthCap
}

// SetDamageStrengthCap sets the damage delta cap.
func (s *Settings) SetDamageStrengthCap(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.damageStrengthCap = v
}

// DeathPenaltyStrength returns the strength applied on a death event.
func (s *Settings) DeathPenaltyStrength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deathPenaltyStrength
}

// SetDeathPenaltyStrength sets the death penalty strength.
func (s *Settings) SetDeathPenaltyStrength(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deathPenaltyStrength = v
}

// DeathPenaltyDuration returns how long a death penalty holds.
func (s *Settings) DeathPenaltyDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deathPenaltyDuration
}

// SetDeathPenaltyDuration sets the death penalty duration.
func (s *Settings) SetDeathPenaltyDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deathPenaltyDuration = d
}

// QueueCapacity returns the command queue bound.
func (s *Settings) QueueCapacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queueCapacity
}

// EventBufferSize returns the telemetry replay buffer size.
func (s *Settings) EventBufferSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventBufferSize
}
