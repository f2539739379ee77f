package clock

import "time"

// Clock abstracts time to keep controllers deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Millis returns the clock's current instant as epoch milliseconds.
func Millis(c Clock) int64 {
	return c.Now().UnixMilli()
}

// FromMillis converts epoch milliseconds back to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
