package durfmt

import "fmt"

// Clock renders milliseconds as HH:MM:SS, or HH:MM:SS.cc when centis is
// set. Negative input renders as zero.
func Clock(ms int64, centis bool) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	if centis {
		return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s, (ms%1000)/10)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Countdown renders remaining time rounded up to the next whole second so
// a display never shows 00:00:00 before the phase actually expires.
func Countdown(ms int64) string {
	if ms <= 0 {
		return Clock(0, false)
	}
	return Clock(((ms+999)/1000)*1000, false)
}
