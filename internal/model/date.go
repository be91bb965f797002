package model

import (
	"fmt"
	"time"
)

const (
	// DateLayoutISO is the canonical date format for public API inputs.
	DateLayoutISO = "2006-01-02"
	// DateLayoutVN is the day-first format used by one of the upstream providers.
	DateLayoutVN = "02/01/2006"
)

// ParseDate parses an ISO date, falling back to the day-first provider format.
// The result is normalized to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayoutISO, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(DateLayoutVN, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want %s or %s)", s, DateLayoutISO, DateLayoutVN)
}

// Midnight truncates t to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from start to end inclusive.
// Providers size their single-request pagination with this.
func DaysBetween(start, end time.Time) int {
	s := Midnight(start)
	e := Midnight(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}
