package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

func newTestReportService(entryRepo *mockEntryRepo, engagementRepo *mockEngagementRepo, invoiceRepo *mockInvoiceRepo, clock dates.Clock) *reportService {
	return &reportService{
		entryRepo:      entryRepo,
		engagementRepo: engagementRepo,
		invoiceRepo:    invoiceRepo,
		clock:          clock,
	}
}

func TestGetRangeSummary(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	entryRepo := newMockEntryRepo()

	hourly := seedHourlyEngagement(t, engagementRepo)
	fixed := domain.NewFixedFeeEngagement(1, "Retainer",
		dates.NewDate(2025, time.January, 1), dates.NewDate(2025, time.December, 31),
		decimal.RequireFromString("5000"))
	if err := engagementRepo.Create(ctx, fixed); err != nil {
		t.Fatalf("seed engagement: %v", err)
	}

	// two April entries in range, one March entry outside it
	seedEntry(t, entryRepo, hourly.ID, dates.NewDate(2025, time.April, 2), "4")
	seedEntry(t, entryRepo, hourly.ID, dates.NewDate(2025, time.April, 10), "6")
	seedEntry(t, entryRepo, hourly.ID, dates.NewDate(2025, time.March, 20), "8")
	// fixed-fee work accrues hours but no incremental value
	seedEntry(t, entryRepo, fixed.ID, dates.NewDate(2025, time.April, 5), "3")
	locked := seedEntry(t, entryRepo, hourly.ID, dates.NewDate(2025, time.April, 20), "2")
	lockedInvoice := int64(1)
	locked.InvoiceID = &lockedInvoice

	svc := newTestReportService(entryRepo, engagementRepo, newMockInvoiceRepo(), fixedClock(2025, time.April, 15))

	summary, err := svc.GetRangeSummary(ctx, dates.RangeThisMonth)
	if err != nil {
		t.Fatalf("GetRangeSummary failed: %v", err)
	}

	if summary.Period.Start.String() != "2025-04-01" || summary.Period.End.String() != "2025-04-30" {
		t.Errorf("period = %s, want April 2025", summary.Period)
	}
	// 4 + 6 + 3 + 2 inside April; the March entry is excluded
	if summary.TotalHours.String() != "15" {
		t.Errorf("total hours = %s, want 15", summary.TotalHours)
	}
	// hourly value only: (4 + 6 + 2) * 150
	if summary.TotalValue.String() != "1800" {
		t.Errorf("total value = %s, want 1800", summary.TotalValue)
	}

	if len(summary.ByEngagement) != 2 {
		t.Fatalf("got %d engagement summaries, want 2", len(summary.ByEngagement))
	}
	for _, es := range summary.ByEngagement {
		switch es.EngagementID {
		case hourly.ID:
			if es.Hours.String() != "12" {
				t.Errorf("hourly hours = %s, want 12", es.Hours)
			}
			// locked entry counts toward value but not unbilled
			if es.Unbilled.String() != "1500" {
				t.Errorf("hourly unbilled = %s, want 1500", es.Unbilled)
			}
		case fixed.ID:
			if !es.Value.IsZero() {
				t.Errorf("fixed-fee value = %s, want 0", es.Value)
			}
			if es.Entries != 1 {
				t.Errorf("fixed-fee entries = %d, want 1", es.Entries)
			}
		default:
			t.Errorf("unexpected engagement %d in summary", es.EngagementID)
		}
	}
}

func TestGetOutstandingTotal(t *testing.T) {
	ctx := context.Background()
	invoiceRepo := newMockInvoiceRepo()

	mk := func(status domain.InvoiceStatus, amount string, periodStart dates.Date) {
		inv := &domain.Invoice{
			InvoiceNumber: "x",
			EngagementID:  1,
			IssueDate:     periodStart,
			DueDate:       periodStart.AddDays(30),
			PeriodStart:   periodStart,
			PeriodEnd:     periodStart.AddDays(27),
			Status:        status,
			TotalAmount:   decimal.RequireFromString(amount),
		}
		if err := invoiceRepo.Create(ctx, inv, nil); err != nil {
			t.Fatalf("seed invoice: %v", err)
		}
	}

	mk(domain.InvoiceStatusSubmitted, "1000", dates.NewDate(2025, time.January, 1))
	mk(domain.InvoiceStatusOverdue, "250.50", dates.NewDate(2025, time.February, 1))
	mk(domain.InvoiceStatusPaid, "9999", dates.NewDate(2025, time.March, 1))

	svc := newTestReportService(newMockEntryRepo(), newMockEngagementRepo(), invoiceRepo, fixedClock(2025, time.April, 15))

	total, err := svc.GetOutstandingTotal(ctx)
	if err != nil {
		t.Fatalf("GetOutstandingTotal failed: %v", err)
	}
	if total.String() != "1250.5" {
		t.Errorf("outstanding = %s, want 1250.5", total)
	}
}

func TestGetRevenueByMonth(t *testing.T) {
	ctx := context.Background()
	invoiceRepo := newMockInvoiceRepo()

	mk := func(amount string, periodStart dates.Date, paidOn dates.Date) {
		inv := &domain.Invoice{
			InvoiceNumber: "x",
			EngagementID:  1,
			IssueDate:     periodStart,
			DueDate:       periodStart.AddDays(30),
			PeriodStart:   periodStart,
			PeriodEnd:     periodStart.AddDays(27),
			Status:        domain.InvoiceStatusPaid,
			TotalAmount:   decimal.RequireFromString(amount),
			PaidDate:      &paidOn,
		}
		if err := invoiceRepo.Create(ctx, inv, nil); err != nil {
			t.Fatalf("seed invoice: %v", err)
		}
	}

	mk("1000", dates.NewDate(2025, time.January, 1), dates.NewDate(2025, time.February, 10))
	mk("500", dates.NewDate(2025, time.February, 1), dates.NewDate(2025, time.February, 25))
	mk("750", dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.April, 3))
	mk("9999", dates.NewDate(2024, time.November, 1), dates.NewDate(2024, time.December, 5)) // prior year

	svc := newTestReportService(newMockEntryRepo(), newMockEngagementRepo(), invoiceRepo, fixedClock(2025, time.April, 15))

	revenue, err := svc.GetRevenueByMonth(ctx, 2025)
	if err != nil {
		t.Fatalf("GetRevenueByMonth failed: %v", err)
	}

	if revenue[time.February].String() != "1500" {
		t.Errorf("February = %s, want 1500", revenue[time.February])
	}
	if revenue[time.April].String() != "750" {
		t.Errorf("April = %s, want 750", revenue[time.April])
	}
	if !revenue[time.December].IsZero() {
		t.Errorf("December = %s, want 0", revenue[time.December])
	}
}
