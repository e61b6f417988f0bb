// Package usage tracks per-provider request counts against sliding quota
// windows so the router can answer "can I call this backend right now".
package usage

import (
	"fmt"
	"sync"
	"time"
)

// Limits holds a provider's quota. Zero means unlimited for that window.
type Limits struct {
	PerMinute int
	PerDay    int
}

// Stats is a point-in-time snapshot of one provider's usage.
type Stats struct {
	Provider    string
	MinuteCount int
	DayCount    int
	Limits      Limits
}

type providerState struct {
	mu         sync.Mutex
	limits     Limits
	timestamps []time.Time
}

// Tracker is safe for concurrent use. Each provider has its own lock so
// unrelated providers never serialize against each other.
type Tracker struct {
	mu        sync.RWMutex
	providers map[string]*providerState
	metrics   *Metrics
	now       func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMetrics attaches Prometheus counters to the tracker.
func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker builds an empty tracker. Providers without registered limits
// are treated as unlimited.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		providers: make(map[string]*providerState),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetLimits registers or replaces the quota for a provider.
func (t *Tracker) SetLimits(provider string, limits Limits) {
	t.state(provider).setLimits(limits)
}

func (t *Tracker) state(provider string) *providerState {
	t.mu.RLock()
	s, ok := t.providers[provider]
	t.mu.RUnlock()
	if ok {
		return s
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok = t.providers[provider]; ok {
		return s
	}
	s = &providerState{}
	t.providers[provider] = s
	return s
}

func (s *providerState) setLimits(limits Limits) {
	s.mu.Lock()
	s.limits = limits
	s.mu.Unlock()
}

// Allow reports whether a request may be made now. It has no side effects:
// repeated calls without an intervening Record return the same answer.
func (t *Tracker) Allow(provider string) bool {
	s := t.state(provider)
	now := t.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	minute, day := s.counts(now)
	if s.limits.PerMinute > 0 && minute >= s.limits.PerMinute {
		return false
	}
	if s.limits.PerDay > 0 && day >= s.limits.PerDay {
		return false
	}
	return true
}

// Record appends the current timestamp and prunes entries older than 24h.
func (t *Tracker) Record(provider string) {
	s := t.state(provider)
	now := t.now()
	s.mu.Lock()
	s.prune(now)
	s.timestamps = append(s.timestamps, now)
	s.mu.Unlock()
	t.metrics.observeRequest(provider)
}

// RecordThrottled counts a request the tracker turned away.
func (t *Tracker) RecordThrottled(provider string) {
	t.metrics.observeThrottled(provider)
}

// Stats returns the current in-window counts for a provider.
func (t *Tracker) Stats(provider string) Stats {
	s := t.state(provider)
	now := t.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	minute, day := s.counts(now)
	return Stats{Provider: provider, MinuteCount: minute, DayCount: day, Limits: s.limits}
}

// WaitTime returns how long until the next request would be allowed, or
// zero when one is allowed right now.
func (t *Tracker) WaitTime(provider string) time.Duration {
	s := t.state(provider)
	now := t.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	minute, day := s.counts(now)

	var wait time.Duration
	if s.limits.PerMinute > 0 && minute >= s.limits.PerMinute {
		if d := s.windowExpiry(now, time.Minute); d > wait {
			wait = d
		}
	}
	if s.limits.PerDay > 0 && day >= s.limits.PerDay {
		if d := s.windowExpiry(now, 24*time.Hour); d > wait {
			wait = d
		}
	}
	return wait
}

// Reset drops all recorded requests for one provider.
func (t *Tracker) Reset(provider string) {
	s := t.state(provider)
	s.mu.Lock()
	s.timestamps = nil
	s.mu.Unlock()
}

// ResetAll drops all recorded requests for every provider.
func (t *Tracker) ResetAll() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.providers {
		s.mu.Lock()
		s.timestamps = nil
		s.mu.Unlock()
	}
}

// counts must be called with s.mu held.
func (s *providerState) counts(now time.Time) (minute, day int) {
	minuteCutoff := now.Add(-time.Minute)
	dayCutoff := now.Add(-24 * time.Hour)
	for _, ts := range s.timestamps {
		if ts.After(dayCutoff) {
			day++
			if ts.After(minuteCutoff) {
				minute++
			}
		}
	}
	return minute, day
}

// windowExpiry returns the time until the oldest in-window timestamp falls
// out of the window. Must be called with s.mu held.
func (s *providerState) windowExpiry(now time.Time, window time.Duration) time.Duration {
	cutoff := now.Add(-window)
	for _, ts := range s.timestamps {
		if ts.After(cutoff) {
			return ts.Add(window).Sub(now)
		}
	}
	return 0
}

// prune must be called with s.mu held.
func (s *providerState) prune(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	kept := s.timestamps[:0]
	for _, ts := range s.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	s.timestamps = kept
}

// FormatWait renders a wait duration as a human-readable hint, matching the
// copy shown to users when a provider is throttled.
func FormatWait(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("Try again in %dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("Try again in %dm %ds", m, sec)
	default:
		return fmt.Sprintf("Try again in %ds", sec)
	}
}
