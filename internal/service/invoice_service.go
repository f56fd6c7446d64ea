package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/erin/retainer/internal/billing"
	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
	"github.com/erin/retainer/internal/repository"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// InvoiceService generates invoices and drives their lifecycle. Generation
// snapshots the unbilled entries once, hands the snapshot to the aggregator,
// and persists the result together with the entry locks; an invoice is
// immutable after that except for its status.
type InvoiceService interface {
	// Generate builds and persists an invoice for an engagement over a period,
	// locking the billed entries
	Generate(ctx context.Context, engagementID int64, period dates.Interval, opts billing.BuildOptions) (*domain.Invoice, error)

	// MarkPaid transitions an invoice to paid
	MarkPaid(ctx context.Context, invoiceID int64, paidDate dates.Date) error

	// SweepOverdue flips submitted invoices past their due date to overdue and
	// returns the applied transitions
	SweepOverdue(ctx context.Context) ([]billing.Transition, error)

	// GetInvoice retrieves an invoice with its line items
	GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error)

	// GetByNumber retrieves an invoice by its number
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)

	// ListInvoices lists invoices with optional filters
	ListInvoices(ctx context.Context, engagementID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error)
}

type invoiceService struct {
	invoiceRepo    repository.InvoiceRepository
	entryRepo      repository.TimeEntryRepository
	engagementRepo repository.EngagementRepository
	clock          dates.Clock
	numberPrefix   string
	log            zerolog.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	entryRepo repository.TimeEntryRepository,
	engagementRepo repository.EngagementRepository,
	clock dates.Clock,
	numberPrefix string,
	log zerolog.Logger,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:    invoiceRepo,
		entryRepo:      entryRepo,
		engagementRepo: engagementRepo,
		clock:          clock,
		numberPrefix:   numberPrefix,
		log:            log,
	}
}

func (s *invoiceService) Generate(ctx context.Context, engagementID int64, period dates.Interval, opts billing.BuildOptions) (*domain.Invoice, error) {
	eng, err := s.engagementRepo.GetByID(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, ErrEngagementNotFound
	}

	// The clock is read once; everything downstream sees the same date
	now := dates.DateOf(s.clock.Now())

	// Snapshot the billing basis before building anything
	var entries []*domain.TimeEntry
	if eng.BillingMode == domain.BillingModeHourly {
		entries, err = s.entryRepo.GetUnbilled(ctx, engagementID, period)
		if err != nil {
			return nil, err
		}
	}

	invoice, err := billing.BuildInvoice(eng, entries, period, now, opts)
	if err != nil {
		return nil, err
	}

	number, err := s.invoiceRepo.GetNextInvoiceNumber(ctx, s.numberPrefix, now.Year())
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice number: %w", err)
	}
	invoice.InvoiceNumber = number

	if err := invoice.Validate(); err != nil {
		return nil, err
	}

	entryIDs := make([]int64, len(entries))
	for i, entry := range entries {
		entryIDs[i] = entry.ID
	}

	// One transaction persists the invoice and freezes the billed entries, and
	// the unique (engagement, period) index rejects a second invoice for the
	// same window
	if err := s.invoiceRepo.Create(ctx, invoice, entryIDs); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.log.Info().
		Str("invoice", invoice.InvoiceNumber).
		Int64("engagement_id", engagementID).
		Str("total", invoice.TotalAmount.String()).
		Int("entries", len(entries)).
		Msg("invoice generated")

	return invoice, nil
}

func (s *invoiceService) MarkPaid(ctx context.Context, invoiceID int64, paidDate dates.Date) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return ErrInvoiceNotFound
	}

	if err := invoice.MarkPaid(paidDate); err != nil {
		return err
	}

	s.log.Info().
		Str("invoice", invoice.InvoiceNumber).
		Str("paid_date", paidDate.String()).
		Msg("invoice paid")

	return s.invoiceRepo.Update(ctx, invoice)
}

func (s *invoiceService) SweepOverdue(ctx context.Context) ([]billing.Transition, error) {
	submitted := domain.InvoiceStatusSubmitted
	invoices, err := s.invoiceRepo.List(ctx, nil, &submitted)
	if err != nil {
		return nil, err
	}

	now := dates.DateOf(s.clock.Now())
	transitions := billing.SweepOverdue(invoices, now)

	for _, tr := range transitions {
		if err := s.invoiceRepo.UpdateStatus(ctx, tr.InvoiceID, tr.Status); err != nil {
			return nil, fmt.Errorf("failed to apply transition for invoice %d: %w", tr.InvoiceID, err)
		}
		s.log.Info().
			Int64("invoice_id", tr.InvoiceID).
			Str("status", string(tr.Status)).
			Msg("invoice overdue")
	}

	return transitions, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}

	lineItems, err := s.invoiceRepo.GetLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.LineItems = lineItems

	return invoice, nil
}

func (s *invoiceService) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return s.GetInvoice(ctx, invoice.ID)
}

func (s *invoiceService) ListInvoices(ctx context.Context, engagementID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	return s.invoiceRepo.List(ctx, engagementID, status)
}
