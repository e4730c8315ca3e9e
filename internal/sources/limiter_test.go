package sources

import (
	"testing"
	"time"
)

func TestLimiterEnforcesBudget(t *testing.T) {
	limiter := NewLimiter(3, time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !limiter.Allow("apollo:user1") {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}
	if limiter.Allow("apollo:user1") {
		t.Fatal("fourth call within the window should be rejected")
	}
	if limiter.Remaining("apollo:user1") != 0 {
		t.Fatalf("expected 0 remaining, got %d", limiter.Remaining("apollo:user1"))
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)
	if !limiter.Allow("apollo:user1") {
		t.Fatal("first key should be admitted")
	}
	if !limiter.Allow("apollo:user2") {
		t.Fatal("second key has its own budget")
	}
	if !limiter.Allow("hunter:user1") {
		t.Fatal("same user on another provider has its own budget")
	}
	if limiter.Allow("apollo:user1") {
		t.Fatal("exhausted key should be rejected")
	}
}

func TestLimiterSlidingWindowExpiry(t *testing.T) {
	limiter := NewLimiter(2, time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("k")
	now = now.Add(40 * time.Second)
	limiter.Allow("k")
	if limiter.Allow("k") {
		t.Fatal("budget exhausted, expected rejection")
	}

	// first call ages out of the window, second one does not
	now = now.Add(25 * time.Second)
	if !limiter.Allow("k") {
		t.Fatal("expected admission after oldest call expired")
	}
	if limiter.Allow("k") {
		t.Fatal("window should still hold two calls")
	}
}

func TestLimiterBudgetOverridesDefault(t *testing.T) {
	limiter := NewLimiter(100, time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	budget := Budget{PerMinute: 2}
	if !limiter.AllowBudget("apollo:user1", budget) || !limiter.AllowBudget("apollo:user1", budget) {
		t.Fatal("calls within the override budget should be admitted")
	}
	if limiter.AllowBudget("apollo:user1", budget) {
		t.Fatal("override budget of 2 per minute must reject the third call")
	}
	// the default budget still applies to keys without an override
	if !limiter.Allow("apollo:user2") {
		t.Fatal("default budget should admit an untouched key")
	}
}

func TestLimiterHourAndDayBudgets(t *testing.T) {
	limiter := NewLimiter(100, time.Minute)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	budget := Budget{PerHour: 2, PerDay: 3}
	limiter.AllowBudget("k", budget)
	now = now.Add(10 * time.Minute)
	limiter.AllowBudget("k", budget)
	if limiter.AllowBudget("k", budget) {
		t.Fatal("hourly budget of 2 must reject the third call")
	}

	// the first call ages out of the hour but still counts for the day
	now = now.Add(55 * time.Minute)
	if !limiter.AllowBudget("k", budget) {
		t.Fatal("expected admission once the hour window freed up")
	}
	now = now.Add(61 * time.Minute)
	if limiter.AllowBudget("k", budget) {
		t.Fatal("daily budget of 3 must reject the fourth call")
	}
}

func TestLimiterReset(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)
	limiter.Allow("k")
	limiter.Reset("k")
	if !limiter.Allow("k") {
		t.Fatal("reset should restore the full budget")
	}
}
