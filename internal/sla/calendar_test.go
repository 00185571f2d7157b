package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2024-01-08 is the anchor work week used across these tests.
func monday(hour, min int) time.Time {
	return time.Date(2024, time.January, 8, hour, min, 0, 0, time.UTC)
}

func friday(hour, min int) time.Time {
	return time.Date(2024, time.January, 12, hour, min, 0, 0, time.UTC)
}

func TestNewCalendarValidation(t *testing.T) {
	_, err := NewCalendar(nil, 8, 17)
	assert.Error(t, err)

	_, err = NewCalendar([]time.Weekday{time.Monday}, 17, 8)
	assert.Error(t, err)

	_, err = NewCalendar([]time.Weekday{time.Monday}, 9, 9)
	assert.Error(t, err)

	_, err = NewCalendar([]time.Weekday{time.Monday}, 0, 24)
	assert.NoError(t, err)
}

func TestClampForwardInsideWindow(t *testing.T) {
	cal := DefaultCalendar()
	for _, instant := range []time.Time{monday(8, 0), monday(12, 30), monday(16, 59)} {
		assert.Equal(t, instant, cal.ClampForward(instant))
	}
}

func TestClampForwardBeforeWindow(t *testing.T) {
	cal := DefaultCalendar()
	assert.Equal(t, monday(8, 0), cal.ClampForward(monday(6, 15)))
}

func TestClampForwardAfterWindowEnd(t *testing.T) {
	cal := DefaultCalendar()
	tuesday := monday(8, 0).AddDate(0, 0, 1)
	assert.Equal(t, tuesday, cal.ClampForward(monday(17, 0)))
	assert.Equal(t, tuesday, cal.ClampForward(monday(21, 40)))
}

func TestClampForwardWeekend(t *testing.T) {
	cal := DefaultCalendar()
	saturday := time.Date(2024, time.January, 6, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, monday(8, 0), cal.ClampForward(saturday))
}

func TestClampForwardIdempotent(t *testing.T) {
	cal := DefaultCalendar()
	instants := []time.Time{
		monday(3, 0),
		monday(12, 0),
		monday(18, 45),
		friday(23, 59),
		time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC), // Sunday
	}
	for _, instant := range instants {
		once := cal.ClampForward(instant)
		assert.Equal(t, once, cal.ClampForward(once))
	}
}

func TestAddBusinessMinutesZeroAndNegative(t *testing.T) {
	cal := DefaultCalendar()
	assert.Equal(t, cal.ClampForward(monday(10, 0)), cal.AddBusinessMinutes(monday(10, 0), 0))
	assert.Equal(t, cal.ClampForward(monday(18, 0)), cal.AddBusinessMinutes(monday(18, 0), 0))
	assert.Equal(t, cal.ClampForward(monday(10, 0)), cal.AddBusinessMinutes(monday(10, 0), -30))
}

func TestAddBusinessMinutesSameDay(t *testing.T) {
	cal := DefaultCalendar()
	assert.Equal(t, monday(10, 45), cal.AddBusinessMinutes(monday(9, 0), 105))
}

func TestAddBusinessMinutesCrossesWeekend(t *testing.T) {
	cal := DefaultCalendar()
	// 30 minutes consumed on Friday, the remaining 60 from Monday 08:00.
	nextMonday := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, nextMonday, cal.AddBusinessMinutes(friday(16, 30), 90))
}

func TestAddBusinessMinutesMultiDay(t *testing.T) {
	cal := DefaultCalendar()
	// 480 minutes from Monday 16:50: 10 on Monday, 470 into Tuesday's window.
	tuesday := time.Date(2024, time.January, 9, 15, 50, 0, 0, time.UTC)
	assert.Equal(t, tuesday, cal.AddBusinessMinutes(monday(16, 50), 480))
}

func TestMinutesBetweenZeroCases(t *testing.T) {
	cal := DefaultCalendar()
	at := monday(10, 0)
	assert.Equal(t, 0, cal.MinutesBetween(at, at))
	assert.Equal(t, 0, cal.MinutesBetween(at, at.Add(-time.Hour)))
}

func TestMinutesBetweenRoundTrip(t *testing.T) {
	cal := DefaultCalendar()
	from := monday(9, 30)
	for _, m := range []int{0, 1, 15, 60, 240, 449} {
		got := cal.MinutesBetween(from, cal.AddBusinessMinutes(from, m))
		assert.Equal(t, m, got, "round trip of %d minutes", m)
	}
}

func TestMinutesBetweenSkipsNonWorkTime(t *testing.T) {
	cal := DefaultCalendar()
	// Friday 16:00 to next Monday 09:00: one hour Friday plus one hour Monday.
	nextMonday := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 120, cal.MinutesBetween(friday(16, 0), nextMonday))

	// An interval entirely outside the window counts for nothing.
	saturday := time.Date(2024, time.January, 6, 9, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, time.January, 7, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, cal.MinutesBetween(saturday, sunday))
}

func TestMinutesBetweenFullWorkDay(t *testing.T) {
	cal := DefaultCalendar()
	assert.Equal(t, 540, cal.MinutesBetween(monday(8, 0), monday(17, 0)))
}

func TestMinutesBetweenRoundsUp(t *testing.T) {
	cal := DefaultCalendar()
	// Any partial minute of elapsed business time counts as a full minute.
	assert.Equal(t, 1, cal.MinutesBetween(monday(10, 0), monday(10, 0).Add(10*time.Second)))
	assert.Equal(t, 6, cal.MinutesBetween(monday(10, 0), monday(10, 5).Add(30*time.Second)))
}

func TestCustomCalendarWindow(t *testing.T) {
	cal, err := NewCalendar([]time.Weekday{time.Saturday, time.Sunday}, 10, 14)
	require.NoError(t, err)

	saturday := time.Date(2024, time.January, 6, 10, 0, 0, 0, time.UTC)
	assert.True(t, cal.IsWorkDay(saturday))
	assert.False(t, cal.IsWorkDay(monday(10, 0)))

	// 240 minutes consumes Saturday's whole window; one more spills into Sunday.
	assert.Equal(t, saturday.Add(4*time.Hour), cal.AddBusinessMinutes(saturday, 240))
	sunday := time.Date(2024, time.January, 7, 10, 1, 0, 0, time.UTC)
	assert.Equal(t, sunday, cal.AddBusinessMinutes(saturday, 241))
}
