package domain

import (
	"fmt"
	"time"
)

// ResetClock locates the daily free-credit reset instant in a fixed time zone.
type ResetClock struct {
	Hour     int
	Location *time.Location
}

func NewResetClock(loc *time.Location) ResetClock {
	return ResetClock{Hour: ResetHour, Location: loc}
}

func (c ResetClock) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// NextReset returns the first reset instant strictly after now.
func (c ResetClock) NextReset(now time.Time) time.Time {
	local := now.In(c.location())
	y, m, d := local.Date()
	next := time.Date(y, m, d, c.Hour, 0, 0, 0, c.location())
	if !local.Before(next) {
		next = time.Date(y, m, d+1, c.Hour, 0, 0, 0, c.location())
	}
	return next
}

func (c ResetClock) TimeUntilReset(now time.Time) time.Duration {
	return c.NextReset(now).Sub(now)
}

// IsPastResetBoundary compares the reset days of both instants: the calendar date, shifted
// back one day when the wall-clock hour is before the reset hour. Using dates rather than
// elapsed hours keeps DST days from skipping or doubling a reset.
func (c ResetClock) IsPastResetBoundary(lastReset, now time.Time) bool {
	if lastReset.IsZero() {
		return true
	}
	return c.resetDay(now).After(c.resetDay(lastReset))
}

func (c ResetClock) resetDay(t time.Time) time.Time {
	local := t.In(c.location())
	y, m, d := local.Date()
	if local.Hour() < c.Hour {
		d--
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthKey formats t as YYYY-MM in the clock's zone.
func (c ResetClock) MonthKey(t time.Time) string {
	return t.In(c.location()).Format("2006-01")
}

func FormatWait(d time.Duration) string {
	if d <= 0 {
		return "now"
	}

	d = d.Round(time.Minute)
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", max(minutes, 1))
	case minutes == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}
