package billing

import "errors"

var (
	// ErrEmptyInvoice is returned when an invoice would carry no billable
	// content and the caller did not explicitly allow a placeholder.
	ErrEmptyInvoice = errors.New("invoice has no billable content")

	// ErrRoundingMismatch means the computed total does not reconcile with
	// the line items. This is a programming error, never adjusted away.
	ErrRoundingMismatch = errors.New("invoice total does not match line items")
)
