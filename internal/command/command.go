// Package command defines the command value type flowing from producers to
// the single executor, and the bounded priority queue that serializes it.
package command

import (
	"time"

	"github.com/rs/xid"

	"github.com/stim-control/scc/internal/device"
)

// Category identifies where a command came from. The numeric value doubles
// as the queue priority band: lower dequeues first.
type Category int

const (
	CategoryGUI Category = iota
	CategoryPanel
	CategoryInteraction
	CategoryGame
)

// Categories lists all bands in priority order.
var Categories = [4]Category{CategoryGUI, CategoryPanel, CategoryInteraction, CategoryGame}

func (c Category) String() string {
	switch c {
	case CategoryGUI:
		return "GUI"
	case CategoryPanel:
		return "PANEL"
	case CategoryInteraction:
		return "INTERACTION"
	case CategoryGame:
		return "GAME"
	default:
		return "UNKNOWN"
	}
}

// Priority returns the queue priority band for the category.
func (c Category) Priority() int {
	return int(c)
}

// Kind selects the operation family a command dispatches into.
type Kind int

const (
	KindSetStrength Kind = iota
	KindSetPulseMode
)

func (k Kind) String() string {
	switch k {
	case KindSetStrength:
		return "setStrength"
	case KindSetPulseMode:
		return "setPulseMode"
	default:
		return "unknown"
	}
}

// Op is the strength operation carried by a KindSetStrength command.
type Op int

const (
	OpSetTo Op = iota
	OpIncrease
	OpDecrease
)

func (o Op) String() string {
	switch o {
	case OpSetTo:
		return "setTo"
	case OpIncrease:
		return "increase"
	case OpDecrease:
		return "decrease"
	default:
		return "unknown"
	}
}

// Command is immutable once created. Queue ordering key: (priority band
// ascending, enqueue sequence ascending), so equal-priority commands stay
// FIFO even when their timestamps collide.
type Command struct {
	Kind       Kind
	Category   Category
	Channel    device.Channel
	Op         Op
	Value      int
	SourceID   string
	EnqueuedAt time.Time

	seq uint64
}

// New creates a command. An empty sourceID gets a generated identifier so
// the cooldown ledger still has a distinct key to track.
func New(category Category, kind Kind, channel device.Channel, op Op, value int, sourceID string) Command {
	if sourceID == "" {
		sourceID = xid.New().String()
	}
	return Command{
		Kind:       kind,
		Category:   category,
		Channel:    channel,
		Op:         op,
		Value:      value,
		SourceID:   sourceID,
		EnqueuedAt: time.Now(),
	}
}

// Delta returns the signed strength delta for adjust operations.
func (c Command) Delta() int {
	if c.Op == OpDecrease {
		return -c.Value
	}
	return c.Value
}
