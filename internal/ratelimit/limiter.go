// Package ratelimit implements a per-caller sliding-window request limiter.
package ratelimit

import (
	"sync"
	"time"

	"github.com/careerpilot/jobscout/internal/jobs"
)

// Config holds limiter configuration.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// Result reports the outcome of one admission check.
type Result struct {
	Success   bool
	Limit     int
	Remaining int
}

// Limiter admits up to MaxRequests per identity within a trailing Window.
// Bursts straddling a window boundary can admit up to twice the limit; that
// approximation is accepted. Identities with no recent requests are pruned
// on access so the key set stays bounded by active callers.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	clock   jobs.Clock
	history map[string][]time.Time
}

// New creates a Limiter. The clock is injectable for deterministic tests.
func New(cfg Config, clock jobs.Clock) *Limiter {
	window := cfg.Window
	if window <= 0 {
		window = 10 * time.Second
	}
	maxReq := cfg.MaxRequests
	if maxReq <= 0 {
		maxReq = 5
	}
	return &Limiter{
		window:  window,
		max:     maxReq,
		clock:   clock,
		history: make(map[string][]time.Time),
	}
}

// Limit records an admission attempt for the given identity. It returns
// success with the remaining budget, or failure with zero remaining once the
// window is full. The attempt is only recorded when admitted.
func (l *Limiter) Limit(identity string) Result {
	now := l.clock.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.history[identity][:0]
	for _, ts := range l.history[identity] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.max {
		l.history[identity] = recent
		return Result{Success: false, Limit: l.max, Remaining: 0}
	}

	recent = append(recent, now)
	l.history[identity] = recent
	return Result{Success: true, Limit: l.max, Remaining: l.max - len(recent)}
}

// Prune drops identities whose every recorded request has aged out of the
// window. Intended for a periodic housekeeping goroutine.
func (l *Limiter) Prune() {
	cutoff := l.clock.Now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for identity, stamps := range l.history {
		live := false
		for _, ts := range stamps {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.history, identity)
		}
	}
}

// Size reports the number of tracked identities.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}
