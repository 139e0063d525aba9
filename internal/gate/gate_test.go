package gate

import (
	"testing"
	"time"
)

func TestAllows(t *testing.T) {
	t.Parallel()

	g := Gate{
		Weekday: Window{StartHour: 8, EndHour: 23},
		Weekend: Window{StartHour: 10, EndHour: 23},
	}

	// 2026-03-03 is a Tuesday, 2026-03-07 a Saturday.
	tuesday := func(hour, minute int) time.Time {
		return time.Date(2026, time.March, 3, hour, minute, 0, 0, time.UTC)
	}
	saturday := func(hour, minute int) time.Time {
		return time.Date(2026, time.March, 7, hour, minute, 0, 0, time.UTC)
	}

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday before start", tuesday(7, 59), false},
		{"weekday at start", tuesday(8, 0), true},
		{"weekday midday", tuesday(14, 30), true},
		{"weekday last allowed minute", tuesday(22, 59), true},
		{"weekday at cutoff", tuesday(23, 0), false},
		{"weekday late evening", tuesday(23, 50), false},
		{"weekend before start", saturday(9, 30), false},
		{"weekend at start", saturday(10, 0), true},
		{"weekend weekday-only hour", saturday(8, 30), false},
		{"weekend at cutoff", saturday(23, 10), false},
	}

	for _, tc := range cases {
		if got := g.Allows(tc.at); got != tc.want {
			t.Fatalf("%s: Allows(%v) = %v, want %v", tc.name, tc.at, got, tc.want)
		}
	}
}

func TestSundayUsesWeekendWindow(t *testing.T) {
	t.Parallel()

	g := Gate{
		Weekday: Window{StartHour: 0, EndHour: 24},
		Weekend: Window{StartHour: 12, EndHour: 13},
	}

	sunday := time.Date(2026, time.March, 8, 9, 0, 0, 0, time.UTC)
	if g.Allows(sunday) {
		t.Fatalf("sunday 09:00 should use the weekend window")
	}
	if !g.Allows(sunday.Add(3 * time.Hour)) {
		t.Fatalf("sunday 12:00 should be allowed")
	}
}
