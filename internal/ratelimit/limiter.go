// Package ratelimit bounds outbound AI calls with a sliding-window counter:
// admission is decided by the number of calls strictly within the trailing
// window, recomputed lazily on every query. No background timers, no drift.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

const (
	DefaultMaxCalls = 5
	DefaultWindow   = time.Hour
)

// Limiter tracks a rolling window of call timestamps. The mutex serializes
// every read-modify-write so a concurrent check-then-record cannot
// over-admit calls.
type Limiter struct {
	mu       sync.Mutex
	calls    []time.Time
	maxCalls int
	window   time.Duration
	now      func() time.Time
}

// NewLimiter creates a limiter admitting at most maxCalls per rolling
// window. Non-positive arguments fall back to the defaults.
func NewLimiter(maxCalls int, window time.Duration) *Limiter {
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		maxCalls: maxCalls,
		window:   window,
		now:      time.Now,
	}
}

// CanMakeCall reports whether a new call would be admitted right now
func (l *Limiter) CanMakeCall() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	return len(l.calls) < l.maxCalls
}

// RecordCall appends the current time to the record. Call it only after a
// request was actually dispatched and accepted; checking and recording are
// separate steps so an aborted call never consumes quota. Recording itself
// is unconditional: enforcement is the caller's check-then-act protocol.
func (l *Limiter) RecordCall() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	l.calls = append(l.calls, l.now())
}

// RemainingCalls returns how many calls are still admissible in the window
func (l *Limiter) RemainingCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	remaining := l.maxCalls - len(l.calls)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// TimeUntilNextCall returns how long until the next call is admissible.
// The second return value is false when calls are allowed immediately.
func (l *Limiter) TimeUntilNextCall() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune()
	if len(l.calls) < l.maxCalls {
		return 0, false
	}

	wait := l.calls[0].Add(l.window).Sub(l.now())
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

// Reset clears all recorded timestamps unconditionally
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = nil
}

// StatusMessage returns a user-friendly description of the limit status
func (l *Limiter) StatusMessage() string {
	remaining := l.RemainingCalls()
	if remaining > 0 {
		plural := "s"
		if remaining == 1 {
			plural = ""
		}
		return fmt.Sprintf("You have %d AI message%s remaining this hour.", remaining, plural)
	}

	wait, limited := l.TimeUntilNextCall()
	if limited {
		minutes := int(wait.Minutes())
		seconds := int(wait.Seconds()) % 60
		if minutes > 0 {
			return fmt.Sprintf("Rate limit reached. Try again in %dm %ds.", minutes, seconds)
		}
		return fmt.Sprintf("Rate limit reached. Try again in %d seconds.", seconds)
	}
	return "Rate limit reached. Please try again later."
}

// prune drops timestamps that fell out of the trailing window. Callers must
// hold the mutex.
func (l *Limiter) prune() {
	cutoff := l.now().Add(-l.window)
	kept := l.calls[:0]
	for _, t := range l.calls {
		if !t.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	l.calls = kept
}
