package engine

import (
	"sync"
	"time"
)

// Timer is a cancellable one-shot timer.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so the engine can be driven deterministically in
// tests. The real implementation delegates to the time package.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewRealClock returns a Clock backed by the time package.
func NewRealClock() Clock {
	return realClock{}
}

// ClockReconciler derives a trusted current time from an optional
// server-supplied time sample. Devices with skewed local clocks would
// otherwise schedule and expire entries at the wrong wall-clock instant
// relative to server-recorded creation times.
type ClockReconciler struct {
	clk Clock

	mu     sync.Mutex
	offset time.Duration
	synced bool
}

// NewClockReconciler creates a reconciler with zero offset until the first
// server sample arrives.
func NewClockReconciler(clk Clock) *ClockReconciler {
	return &ClockReconciler{clk: clk}
}

// Observe records a fresh server time sample together with the local clock
// reading taken at the same moment.
func (c *ClockReconciler) Observe(serverTime, localAtSample time.Time) {
	if serverTime.IsZero() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = serverTime.Sub(localAtSample)
	c.synced = true
}

// TrustedNow returns the local time adjusted by the last observed server
// offset, or plain local time if no sample was ever obtained.
func (c *ClockReconciler) TrustedNow() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clk.Now().Add(c.offset)
}

// Offset returns the current server-minus-local offset and whether any
// sample has been observed.
func (c *ClockReconciler) Offset() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset, c.synced
}
