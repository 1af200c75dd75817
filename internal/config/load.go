package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/stim-control/scc/internal/command"
	"github.com/stim-control/scc/internal/device"
)

// Load merges Defaults() + optional .env file + SCC_* env overrides +
// optional config.json, then validates the result.
func Load(envFile string) (*Settings, error) {
	// A missing default .env is fine; an explicitly named file must exist.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	settings := Defaults()

	applyEnvOverrides(settings)

	if _, err := os.Stat("config.json"); err == nil {
		if err := applyFile(settings, "config.json"); err != nil {
			return nil, fmt.Errorf("failed to load config.json: %w", err)
		}
	}

	if err := Validate(settings); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// applyEnvOverrides applies SCC_* environment variables to the settings.
func applyEnvOverrides(s *Settings) {
	envDuration := func(key string, set func(time.Duration)) {
		if val := os.Getenv(key); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				set(d)
			}
		}
	}
	envInt := func(key string, set func(int)) {
		if val := os.Getenv(key); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				set(n)
			}
		}
	}
	envFloat := func(key string, set func(float64)) {
		if val := os.Getenv(key); val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				set(f)
			}
		}
	}
	envBool := func(key string, set func(bool)) {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				set(b)
			}
		}
	}

	envDuration("SCC_COOLDOWN_GUI", func(d time.Duration) { s.SetCooldown(command.CategoryGUI, d) })
	envDuration("SCC_COOLDOWN_PANEL", func(d time.Duration) { s.SetCooldown(command.CategoryPanel, d) })
	envDuration("SCC_COOLDOWN_INTERACTION", func(d time.Duration) { s.SetCooldown(command.CategoryInteraction, d) })
	envDuration("SCC_COOLDOWN_GAME", func(d time.Duration) { s.SetCooldown(command.CategoryGame, d) })

	envBool("SCC_ENABLE_GUI", func(b bool) { s.SetCategoryEnabled(command.CategoryGUI, b) })
	envBool("SCC_ENABLE_PANEL", func(b bool) { s.SetCategoryEnabled(command.CategoryPanel, b) })
	envBool("SCC_ENABLE_INTERACTION", func(b bool) { s.SetCategoryEnabled(command.CategoryInteraction, b) })
	envBool("SCC_ENABLE_GAME", func(b bool) { s.SetCategoryEnabled(command.CategoryGame, b) })

	envInt("SCC_LIMIT_A", func(n int) { s.SetChannelLimit(device.ChannelA, n) })
	envInt("SCC_LIMIT_B", func(n int) { s.SetChannelLimit(device.ChannelB, n) })

	envInt("SCC_FIRE_STRENGTH_STEP", s.SetFireStrengthStep)
	envInt("SCC_ADJUST_STRENGTH_STEP", s.SetAdjustStrengthStep)
	envDuration("SCC_FIRE_DURATION", s.SetFireDuration)
	envDuration("SCC_LONG_PRESS_DURATION", s.SetLongPressDuration)

	envDuration("SCC_PULSE_INTERVAL", s.SetPulseInterval)
	envDuration("SCC_PULSE_STALE_AFTER", s.SetPulseStaleAfter)
	envInt("SCC_PULSE_FREQUENCY", s.SetPulseFrequency)
	envFloat("SCC_PULSE_AMPLITUDE_FACTOR", s.SetPulseAmplitudeFactor)

	envFloat("SCC_DAMAGE_MULTIPLIER", s.SetDamageMultiplier)
	envInt("SCC_DAMAGE_STRENGTH_CAP", s.SetDamageStrengthCap)
	envInt("SCC_DEATH_PENALTY_STRENGTH", s.SetDeathPenaltyStrength)
	envDuration("SCC_DEATH_PENALTY_DURATION", s.SetDeathPenaltyDuration)
}

// fileSettings mirrors the config.json schema; absent fields keep the value
// already in place.
type fileSettings struct {
	Cooldowns map[string]string `json:"cooldowns"`
	Enabled   map[string]bool   `json:"enabled"`
	Limits    map[string]int    `json:"limits"`

	FireStrengthStep   *int    `json:"fireStrengthStep"`
	AdjustStrengthStep *int    `json:"adjustStrengthStep"`
	FireDuration       *string `json:"fireDuration"`
	LongPressDuration  *string `json:"longPressDuration"`

	PulseInterval        *string  `json:"pulseInterval"`
	PulseStaleAfter      *string  `json:"pulseStaleAfter"`
	PulseFrequency       *int     `json:"pulseFrequency"`
	PulseAmplitudeFactor *float64 `json:"pulseAmplitudeFactor"`

	DamageMultiplier     *float64 `json:"damageMultiplier"`
	DamageStrengthCap    *int     `json:"damageStrengthCap"`
	DeathPenaltyStrength *int     `json:"deathPenaltyStrength"`
	DeathPenaltyDuration *string  `json:"deathPenaltyDuration"`
}

var categoryNames = map[string]command.Category{
	"gui":         command.CategoryGUI,
	"panel":       command.CategoryPanel,
	"interaction": command.CategoryInteraction,
	"game":        command.CategoryGame,
}

var channelNames = map[string]device.Channel{
	"a": device.ChannelA,
	"b": device.ChannelB,
	"A": device.ChannelA,
	"B": device.ChannelB,
}

// applyFile merges a JSON settings file on top of the current settings.
func applyFile(s *Settings, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var fs fileSettings
	if err := json.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	for name, raw := range fs.Cooldowns {
		cat, ok := categoryNames[name]
		if !ok {
			return fmt.Errorf("unknown cooldown category %q", name)
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid cooldown for %q: %w", name, err)
		}
		s.SetCooldown(cat, d)
	}

	for name, enabled := range fs.Enabled {
		cat, ok := categoryNames[name]
		if !ok {
			return fmt.Errorf("unknown enable category %q", name)
		}
		s.SetCategoryEnabled(cat, enabled)
	}

	for name, limit := range fs.Limits {
		ch, ok := channelNames[name]
		if !ok {
			return fmt.Errorf("unknown channel %q", name)
		}
		s.SetChannelLimit(ch, limit)
	}

	if fs.FireStrengthStep != nil {
		s.SetFireStrengthStep(*fs.FireStrengthStep)
	}
	if fs.AdjustStrengthStep != nil {
		s.SetAdjustStrengthStep(*fs.AdjustStrengthStep)
	}
	if err := mergeDuration(fs.FireDuration, "fireDuration", s.SetFireDuration); err != nil {
		return err
	}
	if err := mergeDuration(fs.LongPressDuration, "longPressDuration", s.SetLongPressDuration); err != nil {
		return err
	}
	if err := mergeDuration(fs.PulseInterval, "pulseInterval", s.SetPulseInterval); err != nil {
		return err
	}
	if err := mergeDuration(fs.PulseStaleAfter, "pulseStaleAfter", s.SetPulseStaleAfter); err != nil {
		return err
	}
	if fs.PulseFrequency != nil {
		s.SetPulseFrequency(*fs.PulseFrequency)
	}
	if fs.PulseAmplitudeFactor != nil {
		s.SetPulseAmplitudeFactor(*fs.PulseAmplitudeFactor)
	}
	if fs.DamageMultiplier != nil {
		s.SetDamageMultiplier(*fs.DamageMultiplier)
	}
	if fs.DamageStrengthCap != nil {
		s.SetDamageStrengthCap(*fs.DamageStrengthCap)
	}
	if fs.DeathPenaltyStrength != nil {
		s.SetDeathPenaltyStrength(*fs.DeathPenaltyStrength)
	}
	if err := mergeDuration(fs.DeathPenaltyDuration, "deathPenaltyDuration", s.SetDeathPenaltyDuration); err != nil {
		return err
	}

	return nil
}

func mergeDuration(raw *string, field string, set func(time.Duration)) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	set(d)
	return nil
}

// Validate checks the invariants the rest of the core depends on.
func Validate(s *Settings) error {
	for _, cat := range command.Categories {
		if s.Cooldown(cat) < 0 {
			return fmt.Errorf("cooldown for %s must not be negative", cat)
		}
	}
	for _, ch := range device.Channels {
		if s.ChannelLimit(ch) <= 0 {
			return fmt.Errorf("strength limit for channel %s must be positive", ch)
		}
	}
	if s.FireStrengthStep() < 0 {
		return fmt.Errorf("fire strength step must not be negative")
	}
	if s.AdjustStrengthStep() <= 0 {
		return fmt.Errorf("adjust strength step must be positive")
	}
	if s.FireDuration() <= 0 {
		return fmt.Errorf("fire duration must be positive")
	}
	if s.LongPressDuration() <= 0 {
		return fmt.Errorf("long press duration must be positive")
	}
	if s.PulseInterval() <= 0 {
		return fmt.Errorf("pulse interval must be positive")
	}
	if s.PulseStaleAfter() <= 0 {
		return fmt.Errorf("pulse staleness threshold must be positive")
	}
	if s.PulseFrequency() <= 0 {
		return fmt.Errorf("pulse frequency must be positive")
	}
	if s.PulseAmplitudeFactor() < 0 {
		return fmt.Errorf("pulse amplitude factor must not be negative")
	}
	if s.DamageMultiplier() < 0 {
		return fmt.Errorf("damage multiplier must not be negative")
	}
	if s.DamageStrengthCap() < 0 {
		return fmt.Errorf("damage strength cap must not be negative")
	}
	if s.DeathPenaltyStrength() < 0 {
		return fmt.Errorf("death penalty strength must not be negative")
	}
	if s.DeathPenaltyDuration() <= 0 {
		return fmt.Errorf("death penalty duration must be positive")
	}
	if s.QueueCapacity() <= 0 {
		return fmt.Errorf("queue capacity must be positive")
	}
	if s.EventBufferSize() <= 0 {
		return fmt.Errorf("event buffer size must be positive")
	}
	return nil
}
