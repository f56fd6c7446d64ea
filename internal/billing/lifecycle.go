package billing

import (
	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

// Transition is one invoice status change produced by the overdue sweep. The
// caller applies and persists it.
type Transition struct {
	InvoiceID int64
	Status    domain.InvoiceStatus
}

// SweepOverdue examines submitted invoices and returns an overdue transition
// for each one whose due date is strictly before now. Paid and
// already-overdue invoices are never touched, which makes the sweep
// idempotent and safe to run concurrently from multiple callers: re-checking
// an invoice that has already moved is a no-op.
func SweepOverdue(invoices []*domain.Invoice, now dates.Date) []Transition {
	var transitions []Transition
	for _, inv := range invoices {
		if inv.Status != domain.InvoiceStatusSubmitted {
			continue
		}
		if inv.DueDate.Before(now) {
			transitions = append(transitions, Transition{
				InvoiceID: inv.ID,
				Status:    domain.InvoiceStatusOverdue,
			})
		}
	}
	return transitions
}
