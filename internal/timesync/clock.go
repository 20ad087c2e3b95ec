package timesync

import "time"

// Clock supplies the two independent time readings the engine reconciles.
// Injected so tests can simulate the system clock moving backwards.
type Clock interface {
	// Monotonic returns seconds since a fixed per-process origin. Never
	// goes backwards.
	Monotonic() float64
	// System returns the wall-clock reading as unix seconds. May jump in
	// either direction (NTP corrections, manual changes).
	System() float64
}

// SystemClock reads the real process clocks.
type SystemClock struct {
	origin time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{origin: time.Now()}
}

func (c *SystemClock) Monotonic() float64 {
	return time.Since(c.origin).Seconds()
}

func (c *SystemClock) System() float64 {
	now := time.Now()
	return float64(now.Unix()) + float64(now.Nanosecond())/1e9
}
