// Package ratelimit implements a fixed-window request counter keyed by
// (operation, identifier). Windows reset lazily on the first check after
// expiry, so a burst straddling a window boundary can admit up to twice
// the cap. State lives for the lifetime of the limiter only.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultLimit is the number of requests admitted per window.
	DefaultLimit = 10
	// DefaultWindow is the length of a counting window.
	DefaultWindow = time.Minute
)

type record struct {
	count     int
	windowEnd time.Time
}

// Limiter is a fixed-window counter. The zero value is not usable;
// construct one with New or NewWithClock.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	ops    map[string]map[string]*record
}

// New creates a limiter with the given cap and window.
func New(limit int, window time.Duration) *Limiter {
	return NewWithClock(limit, window, time.Now)
}

// NewWithClock creates a limiter with an injected clock so tests can
// control time.
func NewWithClock(limit int, window time.Duration, now func() time.Time) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		now:    now,
		ops:    make(map[string]map[string]*record),
	}
}

// Allow reports whether another request for the given operation and
// identifier fits in the current window, counting it if it does.
func (l *Limiter) Allow(operation, identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	byID, ok := l.ops[operation]
	if !ok {
		byID = make(map[string]*record)
		l.ops[operation] = byID
	}

	now := l.now()
	rec, ok := byID[identifier]
	if !ok {
		rec = &record{windowEnd: now.Add(l.window)}
		byID[identifier] = rec
	}

	if now.After(rec.windowEnd) {
		rec.count = 0
		rec.windowEnd = now.Add(l.window)
	}

	if rec.count >= l.limit {
		return false
	}
	rec.count++
	return true
}

// Reset forgets all bookkeeping for an identifier under an operation.
func (l *Limiter) Reset(operation, identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if byID, ok := l.ops[operation]; ok {
		delete(byID, identifier)
	}
}
