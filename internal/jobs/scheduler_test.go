package jobs

import (
	"testing"
	"time"
)

func TestIntervalScheduleNext(t *testing.T) {
	s := Every(15 * time.Minute)
	from := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if got := s.Next(from); !got.Equal(from.Add(15 * time.Minute)) {
		t.Fatalf("next = %v", got)
	}
}

func TestDailyScheduleNext(t *testing.T) {
	s := Daily(6, 30)

	before := time.Date(2026, 8, 1, 5, 0, 0, 0, time.UTC)
	if got := s.Next(before); got.Hour() != 6 || got.Minute() != 30 || got.Day() != 1 {
		t.Fatalf("next before today's slot = %v", got)
	}

	after := time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC)
	if got := s.Next(after); got.Day() != 2 {
		t.Fatalf("next after today's slot = %v, want tomorrow", got)
	}

	// Exactly on the slot rolls to the next day, never fires twice.
	exact := time.Date(2026, 8, 1, 6, 30, 0, 0, time.UTC)
	if got := s.Next(exact); got.Day() != 2 {
		t.Fatalf("next at exact slot = %v, want tomorrow", got)
	}
}

func TestMonthlyScheduleNext(t *testing.T) {
	s := Monthly(1, 2, 0)

	mid := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	got := s.Next(mid)
	if got.Month() != time.September || got.Day() != 1 || got.Hour() != 2 {
		t.Fatalf("next from mid-month = %v, want Sep 1 02:00", got)
	}

	// December rolls over the year boundary.
	dec := time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)
	got = s.Next(dec)
	if got.Year() != 2027 || got.Month() != time.January {
		t.Fatalf("next from December = %v, want Jan 2027", got)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	prev := Backoff(1)
	for attempt := 2; attempt <= 20; attempt++ {
		cur := Backoff(attempt)
		if cur < prev {
			t.Fatalf("backoff shrank at attempt %d: %v -> %v", attempt, prev, cur)
		}
		if cur > time.Hour {
			t.Fatalf("backoff at attempt %d exceeds cap: %v", attempt, cur)
		}
		prev = cur
	}
}
