package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/dates"
)

type BillingMode string

const (
	BillingModeHourly   BillingMode = "hourly"
	BillingModeFixedFee BillingMode = "fixed_fee"
)

type EngagementStatus string

const (
	EngagementStatusUpcoming  EngagementStatus = "upcoming"
	EngagementStatusActive    EngagementStatus = "active"
	EngagementStatusCompleted EngagementStatus = "completed"
)

// DefaultNetTermsDays is the payment window applied when an engagement does
// not specify one.
const DefaultNetTermsDays = 30

// Engagement is a client contract with a date range and a billing mode.
// Exactly one of HourlyRate/FixedFee is set, matching the mode. Status is a
// persisted cache recomputed from the date range on every read; it is never
// an input to business logic.
type Engagement struct {
	ID           int64
	ClientID     int64
	Project      string
	StartDate    dates.Date
	EndDate      dates.Date
	BillingMode  BillingMode
	HourlyRate   decimal.Decimal
	FixedFee     decimal.Decimal
	NetTermsDays int
	Status       EngagementStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Related data (populated by repository)
	Client *Client
}

// NewHourlyEngagement creates an hourly engagement
func NewHourlyEngagement(clientID int64, project string, start, end dates.Date, rate decimal.Decimal) *Engagement {
	now := time.Now()
	return &Engagement{
		ClientID:     clientID,
		Project:      strings.TrimSpace(project),
		StartDate:    start,
		EndDate:      end,
		BillingMode:  BillingModeHourly,
		HourlyRate:   rate,
		NetTermsDays: DefaultNetTermsDays,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewFixedFeeEngagement creates a fixed-fee engagement
func NewFixedFeeEngagement(clientID int64, project string, start, end dates.Date, fee decimal.Decimal) *Engagement {
	now := time.Now()
	return &Engagement{
		ClientID:     clientID,
		Project:      strings.TrimSpace(project),
		StartDate:    start,
		EndDate:      end,
		BillingMode:  BillingModeFixedFee,
		FixedFee:     fee,
		NetTermsDays: DefaultNetTermsDays,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Period returns the engagement's date range as a closed interval.
func (e *Engagement) Period() dates.Interval {
	return dates.Interval{Start: e.StartDate, End: e.EndDate}
}

// Validate returns an error if the engagement is invalid
func (e *Engagement) Validate() error {
	if e.ClientID <= 0 {
		return errors.New("client ID is required")
	}
	if strings.TrimSpace(e.Project) == "" {
		return errors.New("project name is required")
	}
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return errors.New("start and end dates are required")
	}
	if e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("%w: %s before %s", dates.ErrInvalidRange, e.EndDate, e.StartDate)
	}
	if e.NetTermsDays <= 0 {
		return errors.New("net payment terms must be positive")
	}
	switch e.BillingMode {
	case BillingModeHourly:
		if e.HourlyRate.LessThanOrEqual(decimal.Zero) {
			return errors.New("hourly engagement requires a positive hourly rate")
		}
		if !e.FixedFee.IsZero() {
			return errors.New("hourly engagement cannot carry a fixed fee")
		}
	case BillingModeFixedFee:
		if e.FixedFee.LessThanOrEqual(decimal.Zero) {
			return errors.New("fixed-fee engagement requires a positive fee")
		}
		if !e.HourlyRate.IsZero() {
			return errors.New("fixed-fee engagement cannot carry an hourly rate")
		}
	default:
		return fmt.Errorf("unknown billing mode %q", e.BillingMode)
	}
	return nil
}
