package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/dates"
)

type InvoiceStatus string

const (
	InvoiceStatusSubmitted InvoiceStatus = "submitted"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
)

// Invoice is a billing document generated once from one engagement over a
// period. Totals are never recomputed after creation; only the status moves.
type Invoice struct {
	ID            int64
	InvoiceNumber string
	EngagementID  int64
	IssueDate     dates.Date
	DueDate       dates.Date
	PeriodStart   dates.Date
	PeriodEnd     dates.Date
	Status        InvoiceStatus
	TotalAmount   decimal.Decimal
	TotalHours    decimal.Decimal
	PaidDate      *dates.Date
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Related data (populated by repository)
	LineItems  []*InvoiceLineItem
	Engagement *Engagement
}

// InvoiceLineItem is one billed item. EntryID is a weak back-reference to the
// originating time entry: lookup only, never ownership, so deleting an entry
// does not cascade into historical invoices.
type InvoiceLineItem struct {
	ID          int64
	InvoiceID   int64
	EntryID     *int64
	Description string
	Hours       decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}

// MarkPaid transitions the invoice to paid. Paid is terminal; an overdue
// invoice may still be paid.
func (i *Invoice) MarkPaid(paidDate dates.Date) error {
	if i.Status == InvoiceStatusPaid {
		return errors.New("invoice is already paid")
	}
	i.Status = InvoiceStatusPaid
	i.PaidDate = &paidDate
	i.UpdatedAt = time.Now()
	return nil
}

// IsOutstanding returns true if the invoice has not been paid
func (i *Invoice) IsOutstanding() bool {
	return i.Status != InvoiceStatusPaid
}

// Validate returns an error if the invoice is invalid. Reconciliation of
// totals against line items is checked when line items are loaded.
func (i *Invoice) Validate() error {
	if i.InvoiceNumber == "" {
		return errors.New("invoice number is required")
	}
	if i.EngagementID <= 0 {
		return errors.New("engagement ID is required")
	}
	if i.IssueDate.IsZero() {
		return errors.New("issue date is required")
	}
	if i.DueDate.Before(i.IssueDate) {
		return errors.New("due date must not precede issue date")
	}
	if i.PeriodStart.IsZero() || i.PeriodEnd.IsZero() {
		return errors.New("billing period is required")
	}
	if i.PeriodEnd.Before(i.PeriodStart) {
		return fmt.Errorf("%w: period %s before %s", dates.ErrInvalidRange, i.PeriodEnd, i.PeriodStart)
	}
	if i.TotalAmount.IsNegative() {
		return errors.New("total amount cannot be negative")
	}
	if len(i.LineItems) > 0 {
		sum := decimal.Zero
		hours := decimal.Zero
		for _, li := range i.LineItems {
			sum = sum.Add(li.Amount)
			hours = hours.Add(li.Hours)
		}
		if !sum.Equal(i.TotalAmount) {
			return fmt.Errorf("line items sum to %s but total is %s", sum, i.TotalAmount)
		}
		if !hours.Equal(i.TotalHours) {
			return fmt.Errorf("line items carry %s hours but total is %s", hours, i.TotalHours)
		}
	}
	return nil
}
