package domain

// Elapsed is the only way elapsed time is derived: the accumulation from
// earlier runs plus the wall-clock distance from the last resume. A
// startedAt later than now (clock moved backwards) contributes nothing.
func Elapsed(startedAt *int64, accumulatedMs, now int64) int64 {
	if startedAt == nil {
		return accumulatedMs
	}
	delta := now - *startedAt
	if delta < 0 {
		delta = 0
	}
	return accumulatedMs + delta
}

// Remaining clamps at zero; it never goes negative.
func Remaining(durationMs, elapsedMs int64) int64 {
	left := durationMs - elapsedMs
	if left < 0 {
		return 0
	}
	return left
}
