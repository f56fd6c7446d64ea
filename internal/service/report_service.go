package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
	"github.com/erin/retainer/internal/repository"
)

// EngagementSummary aggregates one engagement's activity over a range.
// Unbilled covers hourly value not yet attached to an invoice; fixed-fee
// engagements accrue hours but no incremental value.
type EngagementSummary struct {
	EngagementID int64
	Project      string
	Hours        decimal.Decimal
	Value        decimal.Decimal
	Unbilled     decimal.Decimal
	Entries      int
}

// RangeSummary aggregates activity over a resolved date range.
type RangeSummary struct {
	Period       dates.Interval
	TotalHours   decimal.Decimal
	TotalValue   decimal.Decimal
	ByEngagement []*EngagementSummary
}

// ReportService provides aggregations and analytics
type ReportService interface {
	// GetRangeSummary aggregates hours and value over a named range
	GetRangeSummary(ctx context.Context, key dates.RangeKey) (*RangeSummary, error)

	// GetIntervalSummary aggregates hours and value over an explicit interval
	GetIntervalSummary(ctx context.Context, period dates.Interval) (*RangeSummary, error)

	// GetOutstandingTotal sums unpaid (submitted + overdue) invoices
	GetOutstandingTotal(ctx context.Context) (decimal.Decimal, error)

	// GetUnbilledTotal sums hourly work not yet invoiced
	GetUnbilledTotal(ctx context.Context) (decimal.Decimal, error)

	// GetRevenueByMonth breaks paid invoice totals down by payment month
	GetRevenueByMonth(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error)
}

type reportService struct {
	entryRepo      repository.TimeEntryRepository
	engagementRepo repository.EngagementRepository
	invoiceRepo    repository.InvoiceRepository
	clock          dates.Clock
}

// NewReportService creates a new report service
func NewReportService(
	entryRepo repository.TimeEntryRepository,
	engagementRepo repository.EngagementRepository,
	invoiceRepo repository.InvoiceRepository,
	clock dates.Clock,
) ReportService {
	return &reportService{
		entryRepo:      entryRepo,
		engagementRepo: engagementRepo,
		invoiceRepo:    invoiceRepo,
		clock:          clock,
	}
}

func (s *reportService) GetRangeSummary(ctx context.Context, key dates.RangeKey) (*RangeSummary, error) {
	period, err := dates.ResolveNamedRange(key, dates.DateOf(s.clock.Now()))
	if err != nil {
		return nil, err
	}
	return s.GetIntervalSummary(ctx, period)
}

func (s *reportService) GetIntervalSummary(ctx context.Context, period dates.Interval) (*RangeSummary, error) {
	entries, err := s.entryRepo.List(ctx, nil, &period, true)
	if err != nil {
		return nil, err
	}

	engagements, err := s.engagementRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Engagement, len(engagements))
	for _, eng := range engagements {
		byID[eng.ID] = eng
	}

	summary := &RangeSummary{
		Period:     period,
		TotalHours: decimal.Zero,
		TotalValue: decimal.Zero,
	}
	perEngagement := make(map[int64]*EngagementSummary)

	for _, entry := range entries {
		eng := byID[entry.EngagementID]
		if eng == nil {
			continue
		}

		es := perEngagement[eng.ID]
		if es == nil {
			es = &EngagementSummary{
				EngagementID: eng.ID,
				Project:      eng.Project,
				Hours:        decimal.Zero,
				Value:        decimal.Zero,
				Unbilled:     decimal.Zero,
			}
			perEngagement[eng.ID] = es
			summary.ByEngagement = append(summary.ByEngagement, es)
		}

		es.Hours = es.Hours.Add(entry.Hours)
		es.Entries++
		summary.TotalHours = summary.TotalHours.Add(entry.Hours)

		if eng.BillingMode == domain.BillingModeHourly {
			value := entry.Hours.Mul(eng.HourlyRate)
			es.Value = es.Value.Add(value)
			summary.TotalValue = summary.TotalValue.Add(value)
			if !entry.IsLocked() {
				es.Unbilled = es.Unbilled.Add(value)
			}
		}
	}

	return summary, nil
}

func (s *reportService) GetOutstandingTotal(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero

	for _, status := range []domain.InvoiceStatus{domain.InvoiceStatusSubmitted, domain.InvoiceStatusOverdue} {
		invoices, err := s.invoiceRepo.List(ctx, nil, &status)
		if err != nil {
			return decimal.Zero, err
		}
		for _, invoice := range invoices {
			total = total.Add(invoice.TotalAmount)
		}
	}

	return total, nil
}

func (s *reportService) GetUnbilledTotal(ctx context.Context) (decimal.Decimal, error) {
	entries, err := s.entryRepo.List(ctx, nil, nil, false)
	if err != nil {
		return decimal.Zero, err
	}

	engagements, err := s.engagementRepo.List(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	byID := make(map[int64]*domain.Engagement, len(engagements))
	for _, eng := range engagements {
		byID[eng.ID] = eng
	}

	total := decimal.Zero
	for _, entry := range entries {
		eng := byID[entry.EngagementID]
		if eng == nil || eng.BillingMode != domain.BillingModeHourly {
			continue
		}
		total = total.Add(entry.Hours.Mul(eng.HourlyRate))
	}

	return total, nil
}

func (s *reportService) GetRevenueByMonth(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error) {
	paid := domain.InvoiceStatusPaid
	invoices, err := s.invoiceRepo.List(ctx, nil, &paid)
	if err != nil {
		return nil, err
	}

	revenue := make(map[time.Month]decimal.Decimal)
	for m := time.January; m <= time.December; m++ {
		revenue[m] = decimal.Zero
	}

	for _, invoice := range invoices {
		// Paid invoices always carry a paid date; fall back to the issue date
		// for rows imported without one
		paidOn := invoice.IssueDate
		if invoice.PaidDate != nil {
			paidOn = *invoice.PaidDate
		}

		if paidOn.Year() == year {
			month := paidOn.Month()
			revenue[month] = revenue[month].Add(invoice.TotalAmount)
		}
	}

	return revenue, nil
}
