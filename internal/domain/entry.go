package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/dates"
)

// MaxEntryHours is a data-entry sanity bound on a single day's entry, not a
// law of physics.
var MaxEntryHours = decimal.NewFromInt(8)

// TimeEntry is one day's billable work against an engagement.
type TimeEntry struct {
	ID           int64
	EngagementID int64
	Date         dates.Date
	Hours        decimal.Decimal
	Description  string
	IsDeleted    bool   // soft delete
	InvoiceID    *int64 // nil = unbilled, non-nil = frozen
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewTimeEntry creates a new time entry
func NewTimeEntry(engagementID int64, date dates.Date, hours decimal.Decimal, description string) *TimeEntry {
	now := time.Now()
	return &TimeEntry{
		EngagementID: engagementID,
		Date:         date,
		Hours:        hours,
		Description:  description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsLocked returns true if the entry is attached to an invoice. Locked
// entries are frozen: editing or deleting them would silently change a
// historical invoice's basis.
func (e *TimeEntry) IsLocked() bool {
	return e.InvoiceID != nil
}

// Validate returns an error if the entry is invalid
func (e *TimeEntry) Validate() error {
	if e.EngagementID <= 0 {
		return errors.New("engagement ID is required")
	}
	if e.Date.IsZero() {
		return errors.New("entry date is required")
	}
	if e.Hours.LessThanOrEqual(decimal.Zero) {
		return errors.New("hours must be positive")
	}
	if e.Hours.GreaterThan(MaxEntryHours) {
		return errors.New("hours cannot exceed 8 per entry")
	}
	return nil
}
