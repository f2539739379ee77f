package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "timekit/internal/platform/errors"
)

// Alarm fires at a wall-clock time of day in a zone, optionally only on
// some weekdays.
type Alarm struct {
	Hour     int
	Minute   int
	Location *time.Location
	Weekdays []time.Weekday
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func ParseAlarm(hhmm, zone string, weekdays []string) (Alarm, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return Alarm{}, fmt.Errorf("alarm time %q must be HH:MM: %w", hhmm, apperrors.ErrInvalidInput)
	}
	loc := time.Local
	if zone != "" {
		loc, err = time.LoadLocation(zone)
		if err != nil {
			return Alarm{}, fmt.Errorf("unknown zone %q: %w", zone, apperrors.ErrInvalidInput)
		}
	}
	a := Alarm{Hour: t.Hour(), Minute: t.Minute(), Location: loc}
	for _, raw := range weekdays {
		name := strings.ToLower(strings.TrimSpace(raw))
		if len(name) > 3 {
			name = name[:3]
		}
		wd, ok := weekdayNames[name]
		if !ok {
			return Alarm{}, fmt.Errorf("unknown weekday %q: %w", raw, apperrors.ErrInvalidInput)
		}
		a.Weekdays = append(a.Weekdays, wd)
	}
	return a, nil
}

func (a Alarm) Key() string {
	return fmt.Sprintf("alarm-%02d%02d", a.Hour, a.Minute)
}

func (a Alarm) allows(wd time.Weekday) bool {
	if len(a.Weekdays) == 0 {
		return true
	}
	for _, d := range a.Weekdays {
		if d == wd {
			return true
		}
	}
	return false
}

// Next returns the first occurrence strictly after the given instant. A
// time of day skipped by a DST jump resolves to the instant time.Date
// normalizes it to.
func (a Alarm) Next(after time.Time) time.Time {
	local := after.In(a.Location)
	for day := 0; ; day++ {
		candidate := time.Date(local.Year(), local.Month(), local.Day()+day, a.Hour, a.Minute, 0, 0, a.Location)
		if candidate.After(after) && a.allows(candidate.Weekday()) {
			return candidate
		}
	}
}
