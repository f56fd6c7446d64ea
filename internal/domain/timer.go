package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/dates"
)

type TimerState string

const (
	TimerStateIdle    TimerState = "idle"
	TimerStateRunning TimerState = "running"
	TimerStatePaused  TimerState = "paused"
)

// quarterHour is the billing granularity timers round up to on stop.
var quarterHour = decimal.NewFromFloat(0.25)

// ActiveTimer is the singleton running timer. Stopping it materializes a
// TimeEntry for the day the timer started.
type ActiveTimer struct {
	EngagementID       int64
	Description        string
	StartTime          time.Time
	PausedAt           *time.Time
	TotalPausedSeconds int64
}

// NewActiveTimer creates a new running timer
func NewActiveTimer(engagementID int64, description string) *ActiveTimer {
	return &ActiveTimer{
		EngagementID: engagementID,
		Description:  description,
		StartTime:    time.Now(),
	}
}

// State returns the current timer state
func (t *ActiveTimer) State() TimerState {
	if t.PausedAt != nil {
		return TimerStatePaused
	}
	return TimerStateRunning
}

// Elapsed returns the active duration (excluding paused time)
func (t *ActiveTimer) Elapsed() time.Duration {
	totalElapsed := time.Since(t.StartTime)
	pausedDuration := time.Duration(t.TotalPausedSeconds) * time.Second

	// If currently paused, add current pause duration
	if t.PausedAt != nil {
		pausedDuration += time.Since(*t.PausedAt)
	}

	return totalElapsed - pausedDuration
}

// Pause pauses the timer
func (t *ActiveTimer) Pause() {
	if t.PausedAt == nil {
		now := time.Now()
		t.PausedAt = &now
	}
}

// Resume resumes a paused timer
func (t *ActiveTimer) Resume() {
	if t.PausedAt != nil {
		pauseDuration := time.Since(*t.PausedAt)
		t.TotalPausedSeconds += int64(pauseDuration.Seconds())
		t.PausedAt = nil
	}
}

// ToTimeEntry converts the timer to a day's time entry when stopped. The
// elapsed time is rounded up to the nearest quarter hour and capped at the
// per-entry maximum.
func (t *ActiveTimer) ToTimeEntry() *TimeEntry {
	// If paused, finalize the pause duration
	if t.PausedAt != nil {
		t.Resume()
	}

	hours := decimal.NewFromFloat(t.Elapsed().Hours())
	hours = hours.Div(quarterHour).Ceil().Mul(quarterHour)
	if hours.LessThan(quarterHour) {
		hours = quarterHour
	}
	if hours.GreaterThan(MaxEntryHours) {
		hours = MaxEntryHours
	}

	return NewTimeEntry(t.EngagementID, dates.DateOf(t.StartTime), hours, t.Description)
}
