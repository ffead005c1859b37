// Package clock holds the canonical time-of-day and calendar-date conversions.
// All schedule arithmetic is done on minutes since midnight; "HH:MM" strings
// are only a storage and display format.
package clock

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MinutesPerDay is the exclusive upper bound for a start time and the
// inclusive upper bound for an end time ("24:00").
const MinutesPerDay = 24 * 60

const dateLayout = "2006-01-02"

var (
	ErrInvalidTime = errors.New("invalid time")
	ErrInvalidDate = errors.New("invalid date")
)

// TimeToMinutes converts a zero-padded 24h "HH:MM" string to minutes since
// midnight. "24:00" is accepted as the end of the day.
func TimeToMinutes(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q, expected HH:MM", ErrInvalidTime, s)
	}

	hour, err := strconv.Atoi(s[:2])
	if err != nil || !isDigits(s[:2]) {
		return 0, fmt.Errorf("%w: %q: bad hour", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(s[3:])
	if err != nil || !isDigits(s[3:]) {
		return 0, fmt.Errorf("%w: %q: bad minute", ErrInvalidTime, s)
	}

	if hour == 24 && minute == 0 {
		return MinutesPerDay, nil
	}
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q: out of range", ErrInvalidTime, s)
	}
	return hour*60 + minute, nil
}

// MinutesToTime formats minutes since midnight as "HH:MM".
// Values outside [0, MinutesPerDay] are clamped.
func MinutesToTime(m int) string {
	if m < 0 {
		m = 0
	}
	if m > MinutesPerDay {
		m = MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AddMinutes returns start+delta as "HH:MM".
func AddMinutes(start string, delta int) (string, error) {
	m, err := TimeToMinutes(start)
	if err != nil {
		return "", err
	}
	end := m + delta
	if end < 0 || end > MinutesPerDay {
		return "", fmt.Errorf("%w: %s%+d min leaves the day", ErrInvalidTime, start, delta)
	}
	return MinutesToTime(end), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Date is a plain calendar date with no time-of-day and no zone.
// Exception lookup and appointment grouping compare Dates, never instants.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q, expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current date in loc.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Midnight returns 00:00 of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At returns the instant minutes after midnight of d in loc.
func (d Date) At(minutes int, loc *time.Location) time.Time {
	return d.Midnight(loc).Add(time.Duration(minutes) * time.Minute)
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	return d.Midnight(time.UTC).Weekday()
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Midnight(time.UTC).AddDate(0, 0, n))
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Midnight(time.UTC).Before(o.Midnight(time.UTC))
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return o.Before(d)
}

// DaysUntil returns the number of calendar days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.Midnight(time.UTC).Sub(d.Midnight(time.UTC)).Hours() / 24)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
