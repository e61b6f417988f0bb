package usage

import (
	"testing"
	"time"
)

func testClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestAllowUnlimitedByDefault(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 1000; i++ {
		if !tr.Allow("openai") {
			t.Fatal("provider without limits must always be allowed")
		}
		tr.Record("openai")
	}
}

func TestMinuteLimit(t *testing.T) {
	now, clock := testClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC))
	tr := NewTracker(WithClock(clock))
	tr.SetLimits("groq", Limits{PerMinute: 30})

	for i := 0; i < 30; i++ {
		if !tr.Allow("groq") {
			t.Fatalf("request %d should be allowed", i)
		}
		tr.Record("groq")
	}
	if tr.Allow("groq") {
		t.Fatal("31st request within the minute must be denied")
	}

	// The window slides: a minute later everything has expired.
	*now = now.Add(61 * time.Second)
	if !tr.Allow("groq") {
		t.Fatal("requests should be allowed after the window slides")
	}
}

func TestDayLimit(t *testing.T) {
	now, clock := testClock(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	tr := NewTracker(WithClock(clock))
	tr.SetLimits("gemini", Limits{PerMinute: 15, PerDay: 40})

	// Spread recordings so the minute limit never trips.
	for i := 0; i < 40; i++ {
		if !tr.Allow("gemini") {
			t.Fatalf("request %d should be allowed", i)
		}
		tr.Record("gemini")
		*now = now.Add(5 * time.Minute)
	}
	if tr.Allow("gemini") {
		t.Fatal("41st request of the day must be denied")
	}

	stats := tr.Stats("gemini")
	if stats.DayCount != 40 {
		t.Fatalf("DayCount = %d, want 40", stats.DayCount)
	}
	if stats.MinuteCount != 0 {
		t.Fatalf("MinuteCount = %d, want 0", stats.MinuteCount)
	}
}

func TestAllowHasNoSideEffects(t *testing.T) {
	now, clock := testClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC))
	_ = now
	tr := NewTracker(WithClock(clock))
	tr.SetLimits("gemini", Limits{PerMinute: 2})

	for i := 0; i < 50; i++ {
		if !tr.Allow("gemini") {
			t.Fatal("Allow must not consume quota")
		}
	}
	if tr.Stats("gemini").MinuteCount != 0 {
		t.Fatal("Allow recorded usage")
	}
}

func TestWaitTime(t *testing.T) {
	now, clock := testClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC))
	tr := NewTracker(WithClock(clock))
	tr.SetLimits("gemini", Limits{PerMinute: 2})

	if tr.WaitTime("gemini") != 0 {
		t.Fatal("wait should be zero when under quota")
	}

	tr.Record("gemini")
	*now = now.Add(10 * time.Second)
	tr.Record("gemini")
	*now = now.Add(5 * time.Second)

	// Oldest recording was 15s ago; the window frees up in 45s.
	if got := tr.WaitTime("gemini"); got != 45*time.Second {
		t.Fatalf("WaitTime = %v, want 45s", got)
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	tr.SetLimits("groq", Limits{PerMinute: 1})
	tr.Record("groq")
	if tr.Allow("groq") {
		t.Fatal("should be throttled")
	}
	tr.Reset("groq")
	if !tr.Allow("groq") {
		t.Fatal("reset should clear recorded usage")
	}
}

func TestResetAll(t *testing.T) {
	tr := NewTracker()
	tr.SetLimits("a", Limits{PerMinute: 1})
	tr.SetLimits("b", Limits{PerMinute: 1})
	tr.Record("a")
	tr.Record("b")
	tr.ResetAll()
	if !tr.Allow("a") || !tr.Allow("b") {
		t.Fatal("ResetAll should clear every provider")
	}
}

func TestRecordPrunesOldEntries(t *testing.T) {
	now, clock := testClock(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	tr := NewTracker(WithClock(clock))
	tr.Record("gemini")
	*now = now.Add(25 * time.Hour)
	tr.Record("gemini")

	if got := tr.Stats("gemini").DayCount; got != 1 {
		t.Fatalf("DayCount = %d, want 1 after pruning", got)
	}
}

func TestFormatWait(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "now"},
		{-5 * time.Second, "now"},
		{45 * time.Second, "Try again in 45s"},
		{2*time.Minute + 30*time.Second, "Try again in 2m 30s"},
		{3*time.Hour + 12*time.Minute, "Try again in 3h 12m"},
	}
	for _, tc := range cases {
		if got := FormatWait(tc.d); got != tc.want {
			t.Errorf("FormatWait(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
