package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

func TestResolveStatus(t *testing.T) {
	start := dates.NewDate(2025, time.March, 1)
	end := dates.NewDate(2025, time.June, 30)

	tests := []struct {
		name string
		now  dates.Date
		want domain.EngagementStatus
	}{
		{"well before start", dates.NewDate(2025, time.January, 10), domain.EngagementStatusUpcoming},
		{"day before start", dates.NewDate(2025, time.February, 28), domain.EngagementStatusUpcoming},
		{"start date is active", start, domain.EngagementStatusActive},
		{"mid range", dates.NewDate(2025, time.May, 1), domain.EngagementStatusActive},
		{"end date is active", end, domain.EngagementStatusActive},
		{"day after end", dates.NewDate(2025, time.July, 1), domain.EngagementStatusCompleted},
		{"well after end", dates.NewDate(2026, time.January, 1), domain.EngagementStatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveStatus(start, end, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveStatus_SingleDayEngagement(t *testing.T) {
	day := dates.NewDate(2025, time.April, 15)

	got, err := ResolveStatus(day, day, day)
	require.NoError(t, err)
	assert.Equal(t, domain.EngagementStatusActive, got)

	got, err = ResolveStatus(day, day, day.AddDays(-1))
	require.NoError(t, err)
	assert.Equal(t, domain.EngagementStatusUpcoming, got)

	got, err = ResolveStatus(day, day, day.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, domain.EngagementStatusCompleted, got)
}

func TestResolveStatus_ReversedRange(t *testing.T) {
	_, err := ResolveStatus(
		dates.NewDate(2025, time.June, 30),
		dates.NewDate(2025, time.March, 1),
		dates.NewDate(2025, time.April, 15),
	)
	require.ErrorIs(t, err, dates.ErrInvalidRange)
}
