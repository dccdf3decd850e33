package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var timeLayouts = []string{"15:04", "15:04:05"}

// ParseDateTime combines a date ("2006-01-02") and a wall-clock time
// ("15:04" or "15:04:05") in the given location.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	clock = strings.TrimSpace(clock)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, clock)
		if err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time %q", clock)
}

// ResolveAsOf builds the reference instant for a quote. A missing date means
// today and a missing time means midnight. Both missing returns now.
func ResolveAsOf(date, clock string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	if date == "" && clock == "" {
		return now, nil
	}
	if date == "" {
		date = now.Format(DateLayout)
	}
	if clock == "" {
		clock = "00:00"
	}

	return ParseDateTime(date, clock, loc)
}

// AddHours moves t forward by a whole number of hours.
func AddHours(t time.Time, hours int) time.Time {
	return t.Add(time.Duration(hours) * time.Hour)
}

// FloorHours returns the whole hours elapsed between start and end, never
// negative.
func FloorHours(start, end time.Time) int {
	diff := end.Sub(start)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Hour)
}

// MaxTime returns the later of two instants.
func MaxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
