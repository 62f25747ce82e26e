// Package debounce implements the cooldown gate between accepted file
// changes and build triggers.
//
// The gate is a rate limiter, not a batching queue: a burst of accepted
// changes inside one cooldown window produces at most one trigger, the rest
// are dropped silently and do not extend the window. The boundary is
// inclusive, so a change arriving exactly cooldown after the previous
// trigger fires.
package debounce

import (
	"sync"
	"time"
)

// Gate holds the time of the last accepted trigger and decides whether a
// newly accepted change starts a build or is swallowed by the cooldown.
type Gate struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     time.Time
	now      func() time.Time
}

// NewGate returns a gate with the given cooldown.
func NewGate(cooldown time.Duration) *Gate {
	return &Gate{cooldown: cooldown, now: time.Now}
}

// ShouldTrigger reports whether a change arriving now may trigger a build.
func (g *Gate) ShouldTrigger() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allowed(g.now())
}

// Record stores the current time as the last accepted trigger.
func (g *Gate) Record() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = g.now()
}

// TryTrigger combines ShouldTrigger and Record atomically: it reports
// whether the change fires and, when it does, records it.
func (g *Gate) TryTrigger() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.allowed(now) {
		return false
	}
	g.last = now
	return true
}

func (g *Gate) allowed(now time.Time) bool {
	if g.last.IsZero() {
		return true
	}
	return now.Sub(g.last) >= g.cooldown
}

// LastTrigger returns the time of the most recent accepted trigger, zero
// when none has fired yet.
func (g *Gate) LastTrigger() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// SetCooldown replaces the cooldown. Used on config reload.
func (g *Gate) SetCooldown(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cooldown = d
}
