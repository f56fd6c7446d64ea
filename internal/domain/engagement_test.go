package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/dates"
)

func validHourlyEngagement() *Engagement {
	return NewHourlyEngagement(1, "Platform Migration",
		dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.June, 30),
		decimal.RequireFromString("150"))
}

func validFixedFeeEngagement() *Engagement {
	return NewFixedFeeEngagement(1, "Quarterly Retainer",
		dates.NewDate(2025, time.January, 1), dates.NewDate(2025, time.March, 31),
		decimal.RequireFromString("7500"))
}

func TestEngagementValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *Engagement)
		wantErr bool
	}{
		{"valid hourly", func(e *Engagement) {}, false},
		{"missing client", func(e *Engagement) { e.ClientID = 0 }, true},
		{"blank project", func(e *Engagement) { e.Project = "   " }, true},
		{"missing start date", func(e *Engagement) { e.StartDate = dates.Date{} }, true},
		{"missing end date", func(e *Engagement) { e.EndDate = dates.Date{} }, true},
		{"end before start", func(e *Engagement) {
			e.StartDate, e.EndDate = e.EndDate, e.StartDate
		}, true},
		{"zero net terms", func(e *Engagement) { e.NetTermsDays = 0 }, true},
		{"negative net terms", func(e *Engagement) { e.NetTermsDays = -15 }, true},
		{"zero rate", func(e *Engagement) { e.HourlyRate = decimal.Zero }, true},
		{"negative rate", func(e *Engagement) { e.HourlyRate = decimal.RequireFromString("-150") }, true},
		{"hourly carrying a fee", func(e *Engagement) {
			e.FixedFee = decimal.RequireFromString("5000")
		}, true},
		{"unknown billing mode", func(e *Engagement) { e.BillingMode = "retainer" }, true},
	}
	for _, tt := range tests {
		eng := validHourlyEngagement()
		tt.mutate(eng)
		err := eng.Validate()
		if tt.wantErr && err == nil {
			t.Errorf("%s: Validate accepted an invalid engagement", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: Validate failed: %v", tt.name, err)
		}
	}
}

func TestEngagementValidate_FixedFee(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *Engagement)
		wantErr bool
	}{
		{"valid fixed fee", func(e *Engagement) {}, false},
		{"zero fee", func(e *Engagement) { e.FixedFee = decimal.Zero }, true},
		{"negative fee", func(e *Engagement) { e.FixedFee = decimal.RequireFromString("-7500") }, true},
		{"fixed fee carrying a rate", func(e *Engagement) {
			e.HourlyRate = decimal.RequireFromString("150")
		}, true},
	}
	for _, tt := range tests {
		eng := validFixedFeeEngagement()
		tt.mutate(eng)
		err := eng.Validate()
		if tt.wantErr && err == nil {
			t.Errorf("%s: Validate accepted an invalid engagement", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: Validate failed: %v", tt.name, err)
		}
	}
}

func TestEngagementValidate_ReversedDatesError(t *testing.T) {
	eng := validHourlyEngagement()
	eng.StartDate, eng.EndDate = eng.EndDate, eng.StartDate

	err := eng.Validate()
	if err == nil {
		t.Fatal("Validate accepted reversed dates")
	}
	if !errors.Is(err, dates.ErrInvalidRange) {
		t.Errorf("error = %v, want ErrInvalidRange", err)
	}
}
