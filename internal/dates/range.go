package dates

import (
	"fmt"
)

// Interval is a closed calendar-date range: both Start and End are included.
type Interval struct {
	Start Date
	End   Date
}

// NewInterval validates start <= end.
func NewInterval(start, end Date) (Interval, error) {
	if end.Before(start) {
		return Interval{}, fmt.Errorf("%w: %s before %s", ErrInvalidRange, end, start)
	}
	return Interval{Start: start, End: end}, nil
}

// Contains reports whether d falls within the interval, inclusive.
func (iv Interval) Contains(d Date) bool {
	return !d.Before(iv.Start) && !d.After(iv.End)
}

// IsUnbounded reports whether the interval is the all-time sentinel.
func (iv Interval) IsUnbounded() bool {
	return iv.Start.Equal(MinDate) && iv.End.Equal(MaxDate)
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s to %s", iv.Start, iv.End)
}

// Overlaps reports whether two intervals share at least one calendar day.
// This is inclusive overlap, not containment: an engagement that merely
// straddles a filter window is included.
func Overlaps(a, b Interval) bool {
	return !a.End.Before(b.Start) && !a.Start.After(b.End)
}

// RangeKey names a predefined reporting window.
type RangeKey string

const (
	RangeToday           RangeKey = "today"
	RangeThisWeek        RangeKey = "thisWeek"
	RangeThisMonth       RangeKey = "thisMonth"
	RangeThisQuarter     RangeKey = "thisQuarter"
	RangeThisYear        RangeKey = "thisYear"
	RangeLastYear        RangeKey = "lastYear"
	RangeTrailing3Months RangeKey = "trailing3Months"
	RangeTrailing6Months RangeKey = "trailing6Months"
	RangeTrailing12Mths  RangeKey = "trailing12Months"
	RangeAllTime         RangeKey = "allTime"
	RangeCustom          RangeKey = "custom"
)

// RangeKeys lists every keyword accepted by ResolveNamedRange, in display order.
var RangeKeys = []RangeKey{
	RangeToday, RangeThisWeek, RangeThisMonth, RangeThisQuarter, RangeThisYear,
	RangeLastYear, RangeTrailing3Months, RangeTrailing6Months, RangeTrailing12Mths,
	RangeAllTime,
}

// ResolveNamedRange maps a range keyword to a concrete closed interval
// relative to ref. Weeks start on Monday; month, quarter and year windows are
// calendar-aligned. Trailing windows end on ref and start the day after the
// same calendar day N months back, so trailing3Months on 2025-04-15 is
// 2025-01-16 through 2025-04-15. allTime yields the unbounded sentinel
// interval. The custom keyword carries caller-supplied bounds and must go
// through ResolveCustomRange instead.
func ResolveNamedRange(key RangeKey, ref Date) (Interval, error) {
	switch key {
	case RangeToday:
		return Interval{Start: ref, End: ref}, nil
	case RangeThisWeek:
		start := ref.StartOfWeek()
		return Interval{Start: start, End: start.AddDays(6)}, nil
	case RangeThisMonth:
		return Interval{Start: ref.StartOfMonth(), End: ref.EndOfMonth()}, nil
	case RangeThisQuarter:
		return Interval{Start: ref.StartOfQuarter(), End: ref.EndOfQuarter()}, nil
	case RangeThisYear:
		return Interval{Start: ref.StartOfYear(), End: ref.EndOfYear()}, nil
	case RangeLastYear:
		prev := NewDate(ref.Year()-1, ref.Month(), ref.Day())
		return Interval{Start: prev.StartOfYear(), End: prev.EndOfYear()}, nil
	case RangeTrailing3Months:
		return trailing(ref, 3), nil
	case RangeTrailing6Months:
		return trailing(ref, 6), nil
	case RangeTrailing12Mths:
		return trailing(ref, 12), nil
	case RangeAllTime:
		return Interval{Start: MinDate, End: MaxDate}, nil
	case RangeCustom:
		return Interval{}, fmt.Errorf("custom range requires explicit bounds")
	default:
		return Interval{}, fmt.Errorf("unknown range keyword %q", key)
	}
}

func trailing(ref Date, months int) Interval {
	return Interval{Start: ref.AddMonths(-months).AddDays(1), End: ref}
}

// ResolveCustomRange parses explicit bounds for the custom range keyword.
// Both bounds must parse as calendar dates and start must not follow end;
// either failure is reported as ErrInvalidDateFormat.
func ResolveCustomRange(startStr, endStr string) (Interval, error) {
	start, err := ParseDate(startStr)
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseDate(endStr)
	if err != nil {
		return Interval{}, err
	}
	if end.Before(start) {
		return Interval{}, fmt.Errorf("%w: range %s to %s is out of order", ErrInvalidDateFormat, startStr, endStr)
	}
	return Interval{Start: start, End: end}, nil
}
