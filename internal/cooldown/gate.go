// Package cooldown implements the per-source anti-flood gate.
//
// The gate is best effort: a rejected submission is silently dropped before
// it ever reaches the queue. Acceptance and ledger update happen under one
// lock so two concurrent checks on the same key can never both pass on a
// stale last-accept time.
package cooldown

import (
	"sync"
	"time"

	"github.com/stim-control/scc/internal/command"
)

// WindowFunc returns the live cooldown window for a category. It is called
// on every check so runtime configuration changes apply immediately.
type WindowFunc func(command.Category) time.Duration

// Gate tracks the last accepted submission per (category, source) pair.
type Gate struct {
	mu         sync.Mutex
	lastAccept map[string]time.Time
	window     WindowFunc
}

// NewGate creates a gate using window to resolve per-category cooldowns.
func NewGate(window WindowFunc) *Gate {
	return &Gate{
		lastAccept: make(map[string]time.Time),
		window:     window,
	}
}

// Allow reports whether a source may submit now for the given category. On
// acceptance the ledger atomically records now as the new last-accept time.
// A source with no prior entry is always allowed.
func (g *Gate) Allow(sourceID string, category command.Category, now time.Time) bool {
	key := category.String() + "_" + sourceID

	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.lastAccept[key]; ok {
		if now.Sub(last) < g.window(category) {
			return false
		}
	}

	g.lastAccept[key] = now
	return true
}

// Forget drops the ledger entry for a (category, source) pair.
func (g *Gate) Forget(sourceID string, category command.Category) {
	key := category.String() + "_" + sourceID

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.lastAccept, key)
}

// Reset clears the whole ledger.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastAccept = make(map[string]time.Time)
}
