package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

// BuildOptions controls invoice aggregation.
type BuildOptions struct {
	// Itemized emits one line per time entry instead of a single summary
	// line for the period.
	Itemized bool

	// AllowEmpty permits a zero-amount placeholder invoice.
	AllowEmpty bool
}

// BuildInvoice aggregates a fixed snapshot of time entries (or the
// engagement's flat fee) into an invoice for the given period.
//
// The entries slice is the complete billing basis: BuildInvoice never
// re-queries anything, so calling it twice with the same snapshot produces
// identical totals. Callers own snapshot semantics and the
// one-invoice-per-engagement-per-period guard.
//
// Per-line amounts are rounded half-up to the cent; totals are exact sums of
// the rounded lines and are never re-rounded, so an invoice's total is always
// reproducible from its own line items.
func BuildInvoice(eng *domain.Engagement, entries []*domain.TimeEntry, period dates.Interval, now dates.Date, opts BuildOptions) (*domain.Invoice, error) {
	if err := eng.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engagement: %w", err)
	}
	if period.End.Before(period.Start) {
		return nil, fmt.Errorf("%w: period %s before %s", dates.ErrInvalidRange, period.End, period.Start)
	}

	inv := &domain.Invoice{
		EngagementID: eng.ID,
		IssueDate:    now,
		DueDate:      now.AddDays(eng.NetTermsDays),
		PeriodStart:  period.Start,
		PeriodEnd:    period.End,
		Status:       domain.InvoiceStatusSubmitted,
		TotalAmount:  decimal.Zero,
		TotalHours:   decimal.Zero,
		CreatedAt:    now.Time(),
		UpdatedAt:    now.Time(),
	}

	switch eng.BillingMode {
	case domain.BillingModeFixedFee:
		buildFixedFeeLines(inv, eng, period)
	case domain.BillingModeHourly:
		if err := buildHourlyLines(inv, eng, entries, period, opts.Itemized); err != nil {
			return nil, err
		}
	}

	if inv.TotalAmount.IsZero() && !opts.AllowEmpty {
		return nil, fmt.Errorf("%w: engagement %q over %s", ErrEmptyInvoice, eng.Project, period)
	}

	if err := reconcile(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func buildFixedFeeLines(inv *domain.Invoice, eng *domain.Engagement, period dates.Interval) {
	amount := roundCents(eng.FixedFee)
	inv.LineItems = []*domain.InvoiceLineItem{{
		Description: fmt.Sprintf("%s: fixed fee for %s", eng.Project, period),
		Hours:       decimal.Zero,
		Rate:        amount,
		Amount:      amount,
	}}
	inv.TotalAmount = amount
}

func buildHourlyLines(inv *domain.Invoice, eng *domain.Engagement, entries []*domain.TimeEntry, period dates.Interval, itemized bool) error {
	if len(entries) == 0 {
		return nil
	}

	// The invoice period narrows to the span of the billed entries.
	first, last := entries[0].Date, entries[0].Date
	totalHours := decimal.Zero
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("invalid time entry %d: %w", entry.ID, err)
		}
		if entry.Date.Before(first) {
			first = entry.Date
		}
		if entry.Date.After(last) {
			last = entry.Date
		}
		totalHours = totalHours.Add(entry.Hours)
	}
	inv.PeriodStart, inv.PeriodEnd = first, last

	if itemized {
		for _, entry := range entries {
			entryID := entry.ID
			desc := entry.Description
			if desc == "" {
				desc = fmt.Sprintf("%s: work on %s", eng.Project, entry.Date)
			}
			line := &domain.InvoiceLineItem{
				EntryID:     &entryID,
				Description: desc,
				Hours:       entry.Hours,
				Rate:        eng.HourlyRate,
				Amount:      roundCents(entry.Hours.Mul(eng.HourlyRate)),
			}
			inv.LineItems = append(inv.LineItems, line)
			inv.TotalAmount = inv.TotalAmount.Add(line.Amount)
			inv.TotalHours = inv.TotalHours.Add(line.Hours)
		}
		return nil
	}

	line := &domain.InvoiceLineItem{
		Description: fmt.Sprintf("Consulting services for %s (%s to %s)", eng.Project, first, last),
		Hours:       totalHours,
		Rate:        eng.HourlyRate,
		Amount:      roundCents(totalHours.Mul(eng.HourlyRate)),
	}
	inv.LineItems = []*domain.InvoiceLineItem{line}
	inv.TotalAmount = line.Amount
	inv.TotalHours = line.Hours
	return nil
}

// reconcile re-checks that totals equal the sum of the lines to the cent.
func reconcile(inv *domain.Invoice) error {
	sum := decimal.Zero
	hours := decimal.Zero
	for _, li := range inv.LineItems {
		sum = sum.Add(li.Amount)
		hours = hours.Add(li.Hours)
	}
	if !sum.Equal(inv.TotalAmount) {
		return fmt.Errorf("%w: lines sum to %s, total is %s", ErrRoundingMismatch, sum, inv.TotalAmount)
	}
	if !hours.Equal(inv.TotalHours) {
		return fmt.Errorf("%w: lines carry %s hours, total is %s", ErrRoundingMismatch, hours, inv.TotalHours)
	}
	return nil
}

// roundCents rounds to the minor currency unit, half away from zero (half-up
// for the positive amounts billed here).
func roundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
