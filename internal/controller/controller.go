// Package controller implements the command coordination core: the single
// executor draining the priority queue, the clamped strength engine, the
// timed fire/penalty/long-press effects and the waveform maintenance loop.
//
// LOCK ORDERING:
//  1. effect locks (fire/penalty/press, per channel)
//  2. c.pulseMu (waveform sends, sole guard of lastPulseSent)
//  3. c.mu (channel state, selection, online flag)
//
// A holder of a later lock never acquires an earlier one.
package controller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/stim-control/scc/internal/command"
	"github.com/stim-control/scc/internal/config"
	"github.com/stim-control/scc/internal/cooldown"
	"github.com/stim-control/scc/internal/device"
	"github.com/stim-control/scc/internal/pulse"
	"github.com/stim-control/scc/internal/telemetry"
)

// commandTimeout bounds a single device write issued by the executor or a
// timed effect.
const commandTimeout = 5 * time.Second

// AuditLogger records executed commands and controller actions.
type AuditLogger interface {
	LogCommand(cmd command.Command, outcome string, err error)
	LogAction(action string, channel device.Channel, value int, outcome string, err error)
}

// channelState is the per-channel actuator state. Mutated only under c.mu,
// and only through the strength engine for the strength field.
type channelState struct {
	current     int
	limit       int
	pulseMode   int
	interaction bool
}

// effectState backs one cancellable timed effect on one channel. The
// generation counter makes cancellation observable: a scheduled revert only
// fires if the generation it captured is still current, checked under the
// same lock that cancels.
type effectState struct {
	mu       sync.Mutex
	pending  bool
	original int
	gen      uint64
}

// Controller mediates between command producers and the device client.
type Controller struct {
	client   device.Client
	settings *config.Settings
	hub      *telemetry.Hub
	audit    AuditLogger

	queue *command.Queue
	gate  *cooldown.Gate

	mu           sync.Mutex
	channels     map[device.Channel]*channelState
	selected     device.Channel
	online       bool
	lastSnapshot device.StrengthData

	// pulseMu serializes waveform sends; lastPulseSent has no other writer
	// so manual sends and the maintenance loop share one staleness clock.
	pulseMu       sync.Mutex
	lastPulseSent map[device.Channel]time.Time

	fire    map[device.Channel]*effectState
	penalty map[device.Channel]*effectState
	press   map[device.Channel]*effectState

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
	cleanupOnce sync.Once
}

// New creates a controller. The hub and audit logger may be nil; Start must
// be called before producing commands.
func New(client device.Client, settings *config.Settings, hub *telemetry.Hub, auditLogger AuditLogger) *Controller {
	c := &Controller{
		client:        client,
		settings:      settings,
		hub:           hub,
		audit:         auditLogger,
		queue:         command.NewQueue(settings.QueueCapacity()),
		channels:      make(map[device.Channel]*channelState),
		lastPulseSent: make(map[device.Channel]time.Time),
		fire:          make(map[device.Channel]*effectState),
		penalty:       make(map[device.Channel]*effectState),
		press:         make(map[device.Channel]*effectState),
		selected:      device.ChannelA,
	}
	c.gate = cooldown.NewGate(settings.Cooldown)

	for _, ch := range device.Channels {
		c.channels[ch] = &channelState{limit: settings.ChannelLimit(ch)}
		c.fire[ch] = &effectState{}
		c.penalty[ch] = &effectState{}
		c.press[ch] = &effectState{}
	}
	return c
}

// Start launches the two long-lived background tasks: the queue executor and
// the pulse maintenance loop.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("controller already started")
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.wg.Add(2)
	go c.runExecutor(c.ctx)
	go c.runMaintenance(c.ctx)

	log.Printf("controller: started")
	return nil
}

// Cleanup stops the background tasks and cancels every pending timed
// effect. It is safe to call more than once; only the first call acts.
func (c *Controller) Cleanup() {
	c.cleanupOnce.Do(func() {
		c.mu.Lock()
		cancel := c.cancel
		c.mu.Unlock()

		if cancel != nil {
			cancel()
			c.wg.Wait()
		}

		// Invalidate pending effects so no stale revert can fire.
		for _, effects := range []map[device.Channel]*effectState{c.fire, c.penalty, c.press} {
			for _, st := range effects {
				st.mu.Lock()
				st.gen++
				st.pending = false
				st.mu.Unlock()
			}
		}

		log.Printf("controller: cleaned up")
	})
}

// done returns the cancellation channel of the controller lifetime. Before
// Start it returns nil, which blocks forever in a select.
func (c *Controller) done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return nil
	}
	return c.ctx.Done()
}

// AddCommand submits a strength command through the cooldown gate into the
// queue. It never blocks and reports whether the command was admitted.
func (c *Controller) AddCommand(category command.Category, channel device.Channel, op command.Op, value int, sourceID string) bool {
	cmd := command.New(category, command.KindSetStrength, channel, op, value, sourceID)
	return c.submit(cmd)
}

// AddPulseModeCommand submits a pulse-mode change through the queue.
func (c *Controller) AddPulseModeCommand(category command.Category, channel device.Channel, mode int, sourceID string) bool {
	cmd := command.New(category, command.KindSetPulseMode, channel, command.OpSetTo, mode, sourceID)
	return c.submit(cmd)
}

func (c *Controller) submit(cmd command.Command) bool {
	if !c.gate.Allow(cmd.SourceID, cmd.Category, time.Now()) {
		log.Printf("controller: command from %s rejected by cooldown", cmd.SourceID)
		return false
	}
	if !c.queue.Enqueue(cmd) {
		log.Printf("controller: command from %s dropped, queue full", cmd.SourceID)
		return false
	}
	return true
}

// enqueueDirect bypasses the cooldown gate for internally generated
// commands; penalty reverts must never be throttled away.
func (c *Controller) enqueueDirect(cmd command.Command) {
	if !c.queue.Enqueue(cmd) {
		log.Printf("controller: internal command dropped, queue full")
	}
}

// SetChannel selects the channel the panel controls: pages 0-1 map to
// channel A, higher pages to channel B. Local state only, never queued.
func (c *Controller) SetChannel(selector int) {
	if selector < 0 {
		return
	}

	ch := device.ChannelA
	if selector > 1 {
		ch = device.ChannelB
	}

	c.mu.Lock()
	c.selected = ch
	c.mu.Unlock()

	log.Printf("controller: selected channel %s", ch)
	c.publish("channelSelected", map[string]interface{}{"channel": ch.String()})
}

// SelectedChannel returns the channel the panel currently controls.
func (c *Controller) SelectedChannel() device.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SetPanelControl enables or disables the panel command category.
func (c *Controller) SetPanelControl(enabled bool) {
	c.settings.SetCategoryEnabled(command.CategoryPanel, enabled)
	log.Printf("controller: panel control enabled=%v", enabled)
	c.publish("panelControlChanged", map[string]interface{}{"enabled": enabled})
}

// SetPulseMode changes a channel's waveform mode and resends the waveform
// immediately so the device never plays a stale pattern after a switch.
func (c *Controller) SetPulseMode(ctx context.Context, channel device.Channel, mode int) error {
	if !pulse.Valid(mode) {
		return device.ErrInvalidRange
	}

	c.mu.Lock()
	c.channels[channel].pulseMode = mode
	c.mu.Unlock()

	log.Printf("controller: channel %s pulse mode set to %s", channel, pulse.Name(mode))
	c.publish("pulseModeChanged", map[string]interface{}{
		"channel": channel.String(),
		"mode":    mode,
		"name":    pulse.Name(mode),
	})

	return c.SendPulse(ctx, channel)
}

// PulseMode returns a channel's current waveform mode index.
func (c *Controller) PulseMode(channel device.Channel) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[channel].pulseMode
}

// InteractionEnabled reports whether a channel accepts interaction commands.
func (c *Controller) InteractionEnabled(channel device.Channel) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[channel].interaction
}

// Online reports whether the device has sent a strength snapshot yet.
func (c *Controller) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// LastSnapshot returns the most recent device strength snapshot.
func (c *Controller) LastSnapshot() device.StrengthData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSnapshot
}

// OnStrengthUpdate ingests a strength snapshot from the device. The device
// is authoritative for both current values and limits.
func (c *Controller) OnStrengthUpdate(data device.StrengthData) {
	c.mu.Lock()
	c.lastSnapshot = data
	c.online = true
	for _, ch := range device.Channels {
		cs := c.channels[ch]
		if limit := data.Limit(ch); limit > 0 {
			cs.limit = limit
		}
		cs.current = clamp(data.Strength(ch), 0, cs.limit)
	}
	c.mu.Unlock()

	c.publish("strengthUpdate", map[string]interface{}{
		"a": data.A, "b": data.B,
		"aLimit": data.LimitA, "bLimit": data.LimitB,
	})
}

// OnButtonFeedback routes a physical panel button into the core: the adjust
// buttons become panel-category strength commands, the fire buttons trigger
// fire mode on the button's channel, and the mode button press/release pair
// drives the long-press interaction toggle.
func (c *Controller) OnButtonFeedback(button device.FeedbackButton) {
	log.Printf("controller: button feedback %d", button)
	c.publish("buttonFeedback", map[string]interface{}{"button": int(button)})

	ch := button.Channel()
	step := c.settings.AdjustStrengthStep()

	switch button {
	case device.ButtonADecrease, device.ButtonBDecrease:
		c.AddCommand(command.CategoryPanel, ch, command.OpDecrease, step, "panel_button")
	case device.ButtonAIncrease, device.ButtonBIncrease:
		c.AddCommand(command.CategoryPanel, ch, command.OpIncrease, step, "panel_button")
	case device.ButtonAFire, device.ButtonBFire:
		ctx, cancelTimeout := context.WithTimeout(context.Background(), commandTimeout)
		defer cancelTimeout()
		c.FireMode(ctx, ch, c.settings.FireStrengthStep())
	case device.ButtonAModePress, device.ButtonBModePress:
		c.ModePress(ch)
	case device.ButtonAModeRelease, device.ButtonBModeRelease:
		c.ModeRelease(ch)
	}
}

// HandleDamage converts a raw damage amount into a queued strength increase
// on every interaction-enabled channel (channel A when none is enabled).
func (c *Controller) HandleDamage(amount, multiplier float64) {
	if amount <= 0 {
		return
	}

	norm := amount * multiplier / 100
	if norm > 1 {
		norm = 1
	}
	delta := int(MapValue(norm, 0, float64(c.settings.DamageStrengthCap())) + 0.5)
	if delta <= 0 {
		return
	}

	for _, ch := range c.interactionTargets() {
		c.AddCommand(command.CategoryGame, ch, command.OpIncrease, delta, "game_damage")
	}
	c.publish("damage", map[string]interface{}{"amount": amount, "delta": delta})
}

// interactionTargets returns the channels with interaction mode enabled,
// defaulting to channel A when none is.
func (c *Controller) interactionTargets() []device.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()

	var targets []device.Channel
	for _, ch := range device.Channels {
		if c.channels[ch].interaction {
			targets = append(targets, ch)
		}
	}
	if len(targets) == 0 {
		targets = []device.Channel{device.ChannelA}
	}
	return targets
}

// publish emits a state event when a hub is attached.
func (c *Controller) publish(eventType string, data map[string]interface{}) {
	if c.hub == nil {
		return
	}
	c.hub.Emit(eventType, data)
}

// auditCommand records a command outcome when an audit logger is attached.
func (c *Controller) auditCommand(cmd command.Command, outcome string, err error) {
	if c.audit != nil {
		c.audit.LogCommand(cmd, outcome, err)
	}
}

// auditAction records a controller action when an audit logger is attached.
func (c *Controller) auditAction(action string, channel device.Channel, value int, outcome string, err error) {
	if c.audit != nil {
		c.audit.LogAction(action, channel, value, outcome, err)
	}
}
