package service

import (
	"fmt"
	"time"

	_ "time/tzdata"
)

// Localize converts between a user's wall clock and the canonical naive-UTC instant.
//
// With no timezone it returns (nil, instant). For a UTC source, the canonical instant is
// unchanged and the local value is the wall clock in tz. For a wall-clock source, the
// instant is interpreted in tz and its UTC equivalent becomes canonical. Both returned
// values are expressed in time.UTC so they compare as naive instants.
func Localize(tz string, instant time.Time, fromUTC bool) (*time.Time, time.Time, error) {
	if tz == "" {
		return nil, instant, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, instant, newActivityError(ErrInvalidInput, fmt.Sprintf("unknown timezone %q", tz), err)
	}

	if fromUTC {
		local := naive(instant.In(loc))
		return &local, instant.UTC(), nil
	}

	wall := naive(instant)
	canonical := time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), loc).UTC()
	return &wall, canonical, nil
}

// naive drops the zone of t and keeps its wall clock, expressed in UTC
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
