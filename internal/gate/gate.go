// Package gate implements the time-window check that defers non-urgent
// notifications to an allowed hour range.
package gate

import "time"

// Window is an hour range within one day. StartHour is inclusive; EndHour
// is the cutoff: a time at the end hour or later is outside the window, so
// a window of [8, 23] allows 08:00 up to 22:59.
type Window struct {
	StartHour int
	EndHour   int
}

// Contains reports whether the given hour falls inside the window.
func (w Window) Contains(hour int) bool {
	return hour >= w.StartHour && hour < w.EndHour
}

// Gate evaluates local time against two day-type windows.
type Gate struct {
	Weekday Window
	Weekend Window
}

// Allows reports whether normal notifications may be delivered at t.
// Saturday and Sunday use the weekend window, all other days the weekday
// window. Urgent notifications bypass the gate entirely; that decision is
// the caller's.
func (g Gate) Allows(t time.Time) bool {
	w := g.Weekday
	if d := t.Weekday(); d == time.Saturday || d == time.Sunday {
		w = g.Weekend
	}
	return w.Contains(t.Hour())
}
