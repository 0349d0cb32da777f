package ratelimit

import (
	"context"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
)

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is a fixed-window limiter local to one process
type MemoryLimiter struct {
	limit        int
	period       time.Duration
	timeProvider coreport.TimeProvider

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

// NewMemoryLimiter allows limit calls per key in each period
func NewMemoryLimiter(limit int, period time.Duration, timeProvider coreport.TimeProvider) *MemoryLimiter {
	return &MemoryLimiter{
		limit:        limit,
		period:       period,
		timeProvider: timeProvider,
		windows:      make(map[string]*window),
		lastSweep:    timeProvider.Now(),
	}
}

// Allow counts one call for key and reports whether it fits the current window
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.timeProvider.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++
	return w.count <= l.limit, nil
}

// sweep drops expired windows at most once per period
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.period {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, key)
		}
	}
	l.lastSweep = now
}

// Len returns the number of tracked keys
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
