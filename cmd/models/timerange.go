package models

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("start time must be before end time")

// TimeRange is a half-open interval [Start, End) on a single civil date.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func NewTimeRange(start, end time.Time) (TimeRange, error) {
	tr := TimeRange{Start: start, End: end}
	if err := tr.Validate(); err != nil {
		return TimeRange{}, err
	}
	return tr, nil
}

func (tr TimeRange) Validate() error {
	if !tr.Start.Before(tr.End) {
		return ErrInvalidRange
	}
	return nil
}

// Overlaps reports whether two half-open ranges share any instant.
// Adjacent ranges (a.End == b.Start) do not overlap, and a zero-length
// range never overlaps anything, itself included.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

func (tr TimeRange) DurationMinutes() int {
	return int(tr.End.Sub(tr.Start).Minutes())
}

// ParseDate parses a YYYY-MM-DD civil date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS. The result is anchored on a
// fixed civil date so parsed times stay mutually comparable and storable.
func ParseTimeOfDay(s string) (time.Time, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(2000, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

// CombineDateTime anchors a time of day on the given date.
func CombineDateTime(date, tod time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC)
}
