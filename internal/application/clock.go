package application

import "time"

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Sleeper abstracts the blocking pause used by synchronous execution so
// tests can record delays instead of waiting them out.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SystemSleeper blocks with time.Sleep.
type SystemSleeper struct{}

func (SystemSleeper) Sleep(d time.Duration) { time.Sleep(d) }
