package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-04-15")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, time.April, d.Month())
	assert.Equal(t, 15, d.Day())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []string{"", "2025-13-01", "2025-02-30", "15/04/2025", "yesterday"} {
		_, err := ParseDate(input)
		require.ErrorIs(t, err, ErrInvalidDateFormat, "input %q", input)
	}
}

func TestDateOf_NormalizesToUTCMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 23:30 local on April 15 stays April 15, not the UTC calendar day
	instant := time.Date(2025, time.April, 15, 23, 30, 0, 0, loc)
	d := DateOf(instant)

	assert.Equal(t, "2025-04-15", d.String())
	assert.Equal(t, time.UTC, d.Time().Location())
	assert.Equal(t, 0, d.Time().Hour())
}

func TestAddMonths_DayNormalization(t *testing.T) {
	// Go's AddDate rolls Jan 31 + 1 month into March
	d := NewDate(2025, time.January, 31).AddMonths(1)
	assert.Equal(t, "2025-03-03", d.String())
}

func TestStartOfWeek_Monday(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-04-14", "2025-04-14"}, // Monday maps to itself
		{"2025-04-16", "2025-04-14"}, // Wednesday
		{"2025-04-20", "2025-04-14"}, // Sunday belongs to the preceding Monday
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.StartOfWeek().String(), "input %s", tt.in)
	}
}

func TestQuarterAlignment(t *testing.T) {
	tests := []struct {
		in, start, end string
	}{
		{"2025-01-01", "2025-01-01", "2025-03-31"},
		{"2025-05-20", "2025-04-01", "2025-06-30"},
		{"2025-08-01", "2025-07-01", "2025-09-30"},
		{"2025-12-31", "2025-10-01", "2025-12-31"},
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.start, d.StartOfQuarter().String(), "input %s", tt.in)
		assert.Equal(t, tt.end, d.EndOfQuarter().String(), "input %s", tt.in)
	}
}

func TestEndOfMonth_LeapYear(t *testing.T) {
	assert.Equal(t, "2024-02-29", NewDate(2024, time.February, 10).EndOfMonth().String())
	assert.Equal(t, "2025-02-28", NewDate(2025, time.February, 10).EndOfMonth().String())
}

func TestComparisons(t *testing.T) {
	a := NewDate(2025, time.April, 15)
	b := NewDate(2025, time.April, 16)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(NewDate(2025, time.April, 15)))
	assert.False(t, a.Equal(b))
}
