package sources

import (
	"sync"
	"time"
)

// retention is how long call timestamps are kept so daily budgets can be
// enforced.
const retention = 24 * time.Hour

// Budget is a per-key call allowance. Zero fields fall back to the
// limiter's default for the minute window and to unlimited for the longer
// windows.
type Budget struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// Limiter enforces a sliding-window call budget per key. Keys are
// provider:user pairs; the window is strict, so a burst that used the whole
// budget blocks until the oldest call ages out of the window.
type Limiter struct {
	mu     sync.Mutex
	budget int
	window time.Duration
	calls  map[string][]time.Time
	now    func() time.Time
}

// NewLimiter creates a limiter allowing budget calls per window by default.
func NewLimiter(budget int, window time.Duration) *Limiter {
	return &Limiter{
		budget: budget,
		window: window,
		calls:  make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records one call for key under the default budget and reports
// whether it was admitted.
func (l *Limiter) Allow(key string) bool {
	return l.AllowBudget(key, Budget{})
}

// AllowBudget records one call for key if every window of the budget
// permits and reports whether it was admitted.
func (l *Limiter) AllowBudget(key string, budget Budget) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(key, now)

	perWindow := budget.PerMinute
	if perWindow <= 0 {
		perWindow = l.budget
	}
	blocked := countSince(recent, now.Add(-l.window)) >= perWindow ||
		(budget.PerHour > 0 && countSince(recent, now.Add(-time.Hour)) >= budget.PerHour) ||
		(budget.PerDay > 0 && len(recent) >= budget.PerDay)
	if blocked {
		l.calls[key] = recent
		return false
	}
	l.calls[key] = append(recent, now)
	return true
}

// Remaining reports how many calls key has left in the current default
// window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(key, now)
	l.calls[key] = recent
	left := l.budget - countSince(recent, now.Add(-l.window))
	if left < 0 {
		return 0
	}
	return left
}

// Reset clears the recorded calls for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.calls, key)
}

// prune drops timestamps past retention. Caller holds the lock.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-retention)
	recorded := l.calls[key]
	kept := recorded[:0]
	for _, ts := range recorded {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}

func countSince(recorded []time.Time, cutoff time.Time) int {
	count := 0
	for _, ts := range recorded {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}
