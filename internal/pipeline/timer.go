package pipeline

import "time"

// Timer is the subset of time.Timer the queue needs. It exists so tests can
// drive timer expiry as a discrete event instead of waiting on the wall clock.
type Timer interface {
	// Stop prevents the timer from firing. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// TimerFactory creates a timer that invokes fn once after d elapses.
type TimerFactory func(d time.Duration, fn func()) Timer

// realTimerFactory backs timers with time.AfterFunc. *time.Timer satisfies
// the Timer interface directly.
func realTimerFactory(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
