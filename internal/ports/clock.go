package ports

import "time"

// Timer is a pending callback scheduled by a Clock.
type Timer interface {
	// Stop prevents the callback from running. It reports false if the callback
	// already ran or was stopped.
	Stop() bool
}

// Clock schedules callbacks. Production code uses SystemClock; tests inject a fake.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is a Clock backed by time.AfterFunc.
type SystemClock struct{}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
