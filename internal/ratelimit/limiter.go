package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Config carries the admission-control limits. A zero PerSecond or PerMinute
// falls back to the defaults.
type Config struct {
	Enabled   bool
	PerSecond int
	PerMinute int
}

const (
	defaultPerSecond = 2
	defaultPerMinute = 60
)

// Stats is a read-only snapshot of one bot's window.
type Stats struct {
	RequestsLastSecond int  `json:"requests_last_second"`
	RequestsLastMinute int  `json:"requests_last_minute"`
	LimitPerSecond     int  `json:"limit_per_second"`
	LimitPerMinute     int  `json:"limit_per_minute"`
	Enabled            bool `json:"enabled"`
}

// Limiter applies sliding-window admission control with one independent
// window per bot. Windows for different bots never contend on the same lock.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	windows map[uint]*window
}

type window struct {
	mu         sync.Mutex
	timestamps []time.Time
}

func NewLimiter(cfg Config) *Limiter {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = defaultPerSecond
	}
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = defaultPerMinute
	}
	return &Limiter{
		cfg:     cfg,
		windows: make(map[uint]*window),
	}
}

// Admit decides whether a request for the bot may proceed at the given
// instant. The timestamp is recorded only on an allowed request. Rejection
// is an ordinary result, not an error: the reason string is empty when
// allowed.
func (l *Limiter) Admit(botID uint, now time.Time) (bool, string) {
	if !l.cfg.Enabled {
		return true, ""
	}

	w := l.window(botID)
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)

	if w.countSince(now.Add(-time.Second)) >= l.cfg.PerSecond {
		return false, fmt.Sprintf("rate limit exceeded: %d messages per second", l.cfg.PerSecond)
	}
	if len(w.timestamps) >= l.cfg.PerMinute {
		return false, fmt.Sprintf("rate limit exceeded: %d messages per minute", l.cfg.PerMinute)
	}

	w.timestamps = append(w.timestamps, now)
	return true, ""
}

// Stats reports the current window occupancy for a bot without recording
// anything.
func (l *Limiter) Stats(botID uint, now time.Time) Stats {
	stats := Stats{
		LimitPerSecond: l.cfg.PerSecond,
		LimitPerMinute: l.cfg.PerMinute,
		Enabled:        l.cfg.Enabled,
	}
	if !l.cfg.Enabled {
		return stats
	}

	w := l.window(botID)
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)
	stats.RequestsLastSecond = w.countSince(now.Add(-time.Second))
	stats.RequestsLastMinute = len(w.timestamps)
	return stats
}

func (l *Limiter) window(botID uint) *window {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[botID]
	if !ok {
		w = &window{}
		l.windows[botID] = w
	}
	return w
}

// prune drops entries older than one minute. Timestamps are appended in
// order, so the window is always sorted.
func (w *window) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	drop := 0
	for drop < len(w.timestamps) && w.timestamps[drop].Before(cutoff) {
		drop++
	}
	if drop > 0 {
		w.timestamps = append([]time.Time(nil), w.timestamps[drop:]...)
	}
}

func (w *window) countSince(cutoff time.Time) int {
	count := 0
	for i := len(w.timestamps) - 1; i >= 0; i-- {
		if w.timestamps[i].Before(cutoff) {
			break
		}
		count++
	}
	return count
}
