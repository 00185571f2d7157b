package sla

import (
	"errors"
	"fmt"
	"time"
)

// Calendar defines the working-time model used for SLA accounting: which
// weekdays count as work days and the daily work-hour window. A Calendar is
// immutable once constructed.
type Calendar struct {
	workDays  map[time.Weekday]bool
	startHour int
	endHour   int
}

// NewCalendar validates and builds a calendar. The window is the half-open
// interval [startHour:00, endHour:00) applied to every work day.
func NewCalendar(workDays []time.Weekday, startHour, endHour int) (Calendar, error) {
	if len(workDays) == 0 {
		return Calendar{}, errors.New("calendar requires at least one work day")
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return Calendar{}, fmt.Errorf("invalid work window %02d:00-%02d:00", startHour, endHour)
	}
	days := make(map[time.Weekday]bool, len(workDays))
	for _, d := range workDays {
		days[d] = true
	}
	return Calendar{workDays: days, startHour: startHour, endHour: endHour}, nil
}

// DefaultCalendar is Monday through Friday, 08:00-17:00.
func DefaultCalendar() Calendar {
	cal, err := NewCalendar([]time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}, 8, 17)
	if err != nil {
		panic(err)
	}
	return cal
}

// IsWorkDay reports whether t falls on a configured work day.
func (c Calendar) IsWorkDay(t time.Time) bool {
	return c.workDays[t.Weekday()]
}

// WindowStart returns the start-of-work instant on t's date, regardless of
// whether that date is a work day.
func (c Calendar) WindowStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.startHour, 0, 0, 0, t.Location())
}

// WindowEnd returns the end-of-work instant on t's date.
func (c Calendar) WindowEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.endHour, 0, 0, 0, t.Location())
}

// nextWindowStart advances to the start of the next work day's window,
// always strictly after t's date.
func (c Calendar) nextWindowStart(t time.Time) time.Time {
	day := t.AddDate(0, 0, 1)
	for !c.IsWorkDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return c.WindowStart(day)
}

// ClampForward normalizes an instant onto the working window: a non-work day
// or an instant at/after window end moves to the next work day's window
// start; an instant before window start moves to window start; anything
// already inside the window is returned unchanged. Every other calendar
// operation relies on this invariant, and the function is idempotent.
func (c Calendar) ClampForward(t time.Time) time.Time {
	if !c.IsWorkDay(t) {
		return c.nextWindowStart(t)
	}
	start := c.WindowStart(t)
	end := c.WindowEnd(t)
	if t.Before(start) {
		return start
	}
	if !t.Before(end) {
		return c.nextWindowStart(t)
	}
	return t
}

// AddBusinessMinutes returns the instant reached after advancing the given
// number of business minutes from "from". Negative input counts as zero, so
// the result of a zero advance is simply the clamped start.
func (c Calendar) AddBusinessMinutes(from time.Time, minutes int) time.Time {
	remaining := minutes
	if remaining < 0 {
		remaining = 0
	}
	cur := c.ClampForward(from)
	for remaining > 0 {
		// whole minutes left in the current day's window
		available := int(c.WindowEnd(cur).Sub(cur) / time.Minute)
		if remaining <= available {
			return cur.Add(time.Duration(remaining) * time.Minute)
		}
		remaining -= available
		cur = c.nextWindowStart(cur)
	}
	return cur
}

// MinutesBetween returns the business minutes elapsed between a and b,
// rounded up to the next whole minute. Any partial minute counts as a full
// minute so paused time is never silently forgiven. Returns 0 when b <= a.
func (c Calendar) MinutesBetween(a, b time.Time) int {
	if !b.After(a) {
		return 0
	}
	cur := c.ClampForward(a)
	var total time.Duration
	for cur.Before(b) {
		segmentEnd := c.WindowEnd(cur)
		if b.Before(segmentEnd) {
			segmentEnd = b
		}
		if segmentEnd.After(cur) {
			total += segmentEnd.Sub(cur)
		}
		if !segmentEnd.Before(b) {
			break
		}
		cur = c.nextWindowStart(cur)
	}
	return int((total + time.Minute - 1) / time.Minute)
}
