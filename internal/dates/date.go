package dates

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the ISO calendar-date format used everywhere dates cross a
// boundary (storage, CLI flags, config).
const Layout = "2006-01-02"

var (
	// ErrInvalidDateFormat is returned when a caller-supplied string does not
	// parse as a calendar date, or a custom range is out of order.
	ErrInvalidDateFormat = errors.New("invalid calendar date")

	// ErrInvalidRange is returned when an interval's end precedes its start.
	ErrInvalidRange = errors.New("end date precedes start date")
)

// Date is a calendar date with no time-of-day component. All dates are
// normalized to midnight UTC; UTC is the single reference timezone for every
// date comparison in the application, so entries logged near midnight compare
// the same way regardless of the machine's local zone.
type Date struct {
	t time.Time
}

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date, as observed in the
// instant's own location, then normalizes to UTC midnight.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return DateOf(t), nil
}

// MinDate and MaxDate bound the unbounded "all time" interval so downstream
// filtering never has to special-case a missing bound.
var (
	MinDate = NewDate(1, time.January, 1)
	MaxDate = NewDate(9999, time.December, 31)
)

func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

// Time returns the underlying instant (midnight UTC).
func (d Date) Time() time.Time { return d.t }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{d.t.AddDate(0, 0, n)}
}

// AddMonths returns the date n months later, with Go's usual day
// normalization (Jan 31 + 1 month = Mar 2 or 3).
func (d Date) AddMonths(n int) Date {
	return Date{d.t.AddDate(0, n, 0)}
}

// StartOfWeek returns the Monday of the week containing d.
func (d Date) StartOfWeek() Date {
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	return d.AddDays(-offset)
}

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// EndOfMonth returns the last day of d's month.
func (d Date) EndOfMonth() Date {
	return d.StartOfMonth().AddMonths(1).AddDays(-1)
}

// StartOfQuarter returns the first day of d's calendar quarter.
func (d Date) StartOfQuarter() Date {
	q := (int(d.Month()) - 1) / 3
	return NewDate(d.Year(), time.Month(q*3+1), 1)
}

// EndOfQuarter returns the last day of d's calendar quarter.
func (d Date) EndOfQuarter() Date {
	return d.StartOfQuarter().AddMonths(3).AddDays(-1)
}

// StartOfYear returns January 1 of d's year.
func (d Date) StartOfYear() Date {
	return NewDate(d.Year(), time.January, 1)
}

// EndOfYear returns December 31 of d's year.
func (d Date) EndOfYear() Date {
	return NewDate(d.Year(), time.December, 31)
}

func (d Date) String() string {
	return d.t.Format(Layout)
}
