package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "timekit/internal/platform/errors"
)

type ZoneTime struct {
	Zone   string
	Local  time.Time
	Abbrev string
	Offset time.Duration
}

// LookupZone resolves a zone through the timezone database. Offsets come
// from the database rules at the given instant.
func LookupZone(name string, at time.Time) (ZoneTime, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ZoneTime{}, fmt.Errorf("zone name is required: %w", apperrors.ErrInvalidInput)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return ZoneTime{}, fmt.Errorf("unknown zone %q: %w", name, apperrors.ErrInvalidInput)
	}
	local := at.In(loc)
	abbrev, offset := local.Zone()
	return ZoneTime{Zone: name, Local: local, Abbrev: abbrev, Offset: time.Duration(offset) * time.Second}, nil
}

// OffsetBetween is how far to's wall clock is ahead of from's at the instant.
func OffsetBetween(from, to string, at time.Time) (time.Duration, error) {
	a, err := LookupZone(from, at)
	if err != nil {
		return 0, err
	}
	b, err := LookupZone(to, at)
	if err != nil {
		return 0, err
	}
	return b.Offset - a.Offset, nil
}
