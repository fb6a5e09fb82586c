package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayClock maps instants to service dates. An instant before the daily
// reset time-of-day belongs to the previous calendar date. All components
// that stamp or look up by day must share one DayClock; day-boundary math
// lives here and nowhere else.
type DayClock struct {
	resetHour   int
	resetMinute int
	loc         *time.Location
}

// NewDayClock parses a reset time like "09:00" and an IANA zone name.
func NewDayClock(resetAt, timezone string) (DayClock, error) {
	parts := strings.SplitN(resetAt, ":", 2)
	if len(parts) != 2 {
		return DayClock{}, fmt.Errorf("parse reset time %q: want HH:MM", resetAt)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return DayClock{}, fmt.Errorf("parse reset hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return DayClock{}, fmt.Errorf("parse reset minute %q", parts[1])
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return DayClock{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return DayClock{resetHour: hour, resetMinute: minute, loc: loc}, nil
}

// ServiceDate returns the service date of t as "2006-01-02".
func (c DayClock) ServiceDate(t time.Time) string {
	local := t.In(c.loc)
	reset := time.Date(local.Year(), local.Month(), local.Day(), c.resetHour, c.resetMinute, 0, 0, c.loc)
	if local.Before(reset) {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format("2006-01-02")
}

// NextReset returns the first reset instant strictly after t. Used by the
// daily cleanup job to schedule itself.
func (c DayClock) NextReset(t time.Time) time.Time {
	local := t.In(c.loc)
	reset := time.Date(local.Year(), local.Month(), local.Day(), c.resetHour, c.resetMinute, 0, 0, c.loc)
	if !reset.After(local) {
		reset = reset.AddDate(0, 0, 1)
	}
	return reset
}
