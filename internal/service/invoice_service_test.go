package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/billing"
	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

func fixedClock(year int, month time.Month, day int) dates.FixedClock {
	return dates.FixedClock{Instant: time.Date(year, month, day, 10, 30, 0, 0, time.UTC)}
}

func newTestInvoiceService(engagementRepo *mockEngagementRepo, entryRepo *mockEntryRepo, invoiceRepo *mockInvoiceRepo, clock dates.Clock) *invoiceService {
	invoiceRepo.entryRepo = entryRepo
	return &invoiceService{
		invoiceRepo:    invoiceRepo,
		entryRepo:      entryRepo,
		engagementRepo: engagementRepo,
		clock:          clock,
		numberPrefix:   "INV",
		log:            zerolog.Nop(),
	}
}

func seedHourlyEngagement(t *testing.T, repo *mockEngagementRepo) *domain.Engagement {
	t.Helper()
	eng := domain.NewHourlyEngagement(1, "Platform Migration",
		dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.June, 30),
		decimal.RequireFromString("150"))
	eng.Status = domain.EngagementStatusActive
	if err := repo.Create(context.Background(), eng); err != nil {
		t.Fatalf("seed engagement: %v", err)
	}
	return eng
}

func seedEntry(t *testing.T, repo *mockEntryRepo, engagementID int64, date dates.Date, hours string) *domain.TimeEntry {
	t.Helper()
	entry := domain.NewTimeEntry(engagementID, date, decimal.RequireFromString(hours), "work")
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return entry
}

func marchInterval() dates.Interval {
	return dates.Interval{
		Start: dates.NewDate(2025, time.March, 1),
		End:   dates.NewDate(2025, time.March, 31),
	}
}

func TestInvoiceGenerate_LocksEntries(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	entryRepo := newMockEntryRepo()
	invoiceRepo := newMockInvoiceRepo()

	eng := seedHourlyEngagement(t, engagementRepo)
	e1 := seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.March, 3), "4")
	e2 := seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.March, 10), "6")
	// outside the period, must stay unbilled
	e3 := seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.April, 2), "2")

	svc := newTestInvoiceService(engagementRepo, entryRepo, invoiceRepo, fixedClock(2025, time.April, 15))

	invoice, err := svc.Generate(ctx, eng.ID, marchInterval(), billing.BuildOptions{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if invoice.TotalAmount.String() != "1500" {
		t.Errorf("total = %s, want 1500", invoice.TotalAmount)
	}
	if !strings.HasPrefix(invoice.InvoiceNumber, "INV-2025-") {
		t.Errorf("invoice number = %q, want INV-2025 prefix", invoice.InvoiceNumber)
	}
	if !invoice.IssueDate.Equal(dates.NewDate(2025, time.April, 15)) {
		t.Errorf("issue date = %s, want 2025-04-15", invoice.IssueDate)
	}
	if !invoice.DueDate.Equal(dates.NewDate(2025, time.May, 15)) {
		t.Errorf("due date = %s, want 2025-05-15", invoice.DueDate)
	}

	for _, entry := range []*domain.TimeEntry{e1, e2} {
		if !entry.IsLocked() {
			t.Errorf("entry %d not locked after invoicing", entry.ID)
		} else if *entry.InvoiceID != invoice.ID {
			t.Errorf("entry %d locked to invoice %d, want %d", entry.ID, *entry.InvoiceID, invoice.ID)
		}
	}
	if e3.IsLocked() {
		t.Errorf("entry outside period was locked")
	}
}

func TestInvoiceGenerate_DuplicatePeriodRejected(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	entryRepo := newMockEntryRepo()
	invoiceRepo := newMockInvoiceRepo()

	eng := seedHourlyEngagement(t, engagementRepo)
	// entries spanning the full window, so the invoice period is the window itself
	seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.March, 1), "4")
	seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.March, 31), "6")

	svc := newTestInvoiceService(engagementRepo, entryRepo, invoiceRepo, fixedClock(2025, time.April, 15))

	if _, err := svc.Generate(ctx, eng.ID, marchInterval(), billing.BuildOptions{}); err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}

	// Second run finds no unbilled entries, so generation refuses outright
	_, err := svc.Generate(ctx, eng.ID, marchInterval(), billing.BuildOptions{})
	if !errors.Is(err, billing.ErrEmptyInvoice) {
		t.Fatalf("second Generate error = %v, want ErrEmptyInvoice", err)
	}

	// Even with AllowEmpty, the unique (engagement, period) index rejects a
	// second invoice for the same window
	_, err = svc.Generate(ctx, eng.ID, marchInterval(), billing.BuildOptions{AllowEmpty: true})
	if err == nil {
		t.Fatalf("duplicate period Generate succeeded, want unique constraint error")
	}
}

func TestInvoiceGenerate_FailedCreateLeavesEntriesBillable(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	entryRepo := newMockEntryRepo()
	invoiceRepo := newMockInvoiceRepo()

	eng := seedHourlyEngagement(t, engagementRepo)
	e1 := seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.March, 1), "4")
	e2 := seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.March, 31), "6")

	svc := newTestInvoiceService(engagementRepo, entryRepo, invoiceRepo, fixedClock(2025, time.April, 15))

	// an invoice already covers the window, so persisting a new one fails
	existing := &domain.Invoice{
		InvoiceNumber: "INV-2025-900",
		EngagementID:  eng.ID,
		IssueDate:     dates.NewDate(2025, time.April, 1),
		DueDate:       dates.NewDate(2025, time.May, 1),
		PeriodStart:   dates.NewDate(2025, time.March, 1),
		PeriodEnd:     dates.NewDate(2025, time.March, 31),
		Status:        domain.InvoiceStatusSubmitted,
		TotalAmount:   decimal.RequireFromString("1500"),
	}
	if err := invoiceRepo.Create(ctx, existing, nil); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	if _, err := svc.Generate(ctx, eng.ID, marchInterval(), billing.BuildOptions{}); err == nil {
		t.Fatalf("Generate succeeded over an existing invoice, want error")
	}

	// the invoice and the locks land together or not at all, so the entries
	// stay billable after the failure
	for _, entry := range []*domain.TimeEntry{e1, e2} {
		if entry.IsLocked() {
			t.Errorf("entry %d locked after failed invoice creation", entry.ID)
		}
	}
	unbilled, err := entryRepo.GetUnbilled(ctx, eng.ID, marchInterval())
	if err != nil {
		t.Fatalf("GetUnbilled failed: %v", err)
	}
	if len(unbilled) != 2 {
		t.Errorf("got %d unbilled entries, want 2", len(unbilled))
	}
}

func TestInvoiceGenerate_FixedFeeSkipsEntrySnapshot(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	entryRepo := newMockEntryRepo()
	invoiceRepo := newMockInvoiceRepo()

	eng := domain.NewFixedFeeEngagement(1, "Quarterly Retainer",
		dates.NewDate(2025, time.January, 1), dates.NewDate(2025, time.December, 31),
		decimal.RequireFromString("7500"))
	if err := engagementRepo.Create(ctx, eng); err != nil {
		t.Fatalf("seed engagement: %v", err)
	}
	entry := seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.March, 3), "5")

	svc := newTestInvoiceService(engagementRepo, entryRepo, invoiceRepo, fixedClock(2025, time.April, 1))

	invoice, err := svc.Generate(ctx, eng.ID, marchInterval(), billing.BuildOptions{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if invoice.TotalAmount.String() != "7500" {
		t.Errorf("total = %s, want 7500", invoice.TotalAmount)
	}
	if entry.IsLocked() {
		t.Errorf("fixed-fee invoicing locked a time entry")
	}
}

func TestInvoiceGenerate_EngagementNotFound(t *testing.T) {
	svc := newTestInvoiceService(newMockEngagementRepo(), newMockEntryRepo(), newMockInvoiceRepo(), fixedClock(2025, time.April, 15))

	_, err := svc.Generate(context.Background(), 99, marchInterval(), billing.BuildOptions{})
	if !errors.Is(err, ErrEngagementNotFound) {
		t.Fatalf("error = %v, want ErrEngagementNotFound", err)
	}
}

func TestInvoiceMarkPaid(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	entryRepo := newMockEntryRepo()
	invoiceRepo := newMockInvoiceRepo()

	eng := seedHourlyEngagement(t, engagementRepo)
	seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.March, 3), "4")

	svc := newTestInvoiceService(engagementRepo, entryRepo, invoiceRepo, fixedClock(2025, time.April, 15))
	invoice, err := svc.Generate(ctx, eng.ID, marchInterval(), billing.BuildOptions{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	paidDate := dates.NewDate(2025, time.May, 2)
	if err := svc.MarkPaid(ctx, invoice.ID, paidDate); err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}

	stored, _ := invoiceRepo.GetByID(ctx, invoice.ID)
	if stored.Status != domain.InvoiceStatusPaid {
		t.Errorf("status = %s, want paid", stored.Status)
	}
	if stored.PaidDate == nil || !stored.PaidDate.Equal(paidDate) {
		t.Errorf("paid date not recorded")
	}

	// paying twice is an error
	if err := svc.MarkPaid(ctx, invoice.ID, paidDate); err == nil {
		t.Fatalf("second MarkPaid succeeded, want error")
	}
}

func TestInvoiceSweepOverdue(t *testing.T) {
	ctx := context.Background()
	invoiceRepo := newMockInvoiceRepo()

	mk := func(status domain.InvoiceStatus, due dates.Date) *domain.Invoice {
		inv := &domain.Invoice{
			InvoiceNumber: "x",
			EngagementID:  1,
			IssueDate:     due.AddDays(-30),
			DueDate:       due,
			PeriodStart:   due.AddDays(-60),
			PeriodEnd:     due.AddDays(-30),
			Status:        status,
			TotalAmount:   decimal.RequireFromString("100"),
		}
		if err := invoiceRepo.Create(ctx, inv, nil); err != nil {
			t.Fatalf("seed invoice: %v", err)
		}
		return inv
	}

	pastDue := mk(domain.InvoiceStatusSubmitted, dates.NewDate(2025, time.April, 1))
	dueToday := mk(domain.InvoiceStatusSubmitted, dates.NewDate(2025, time.April, 15))
	paid := mk(domain.InvoiceStatusPaid, dates.NewDate(2025, time.March, 1))

	svc := newTestInvoiceService(newMockEngagementRepo(), newMockEntryRepo(), invoiceRepo, fixedClock(2025, time.April, 15))

	transitions, err := svc.SweepOverdue(ctx)
	if err != nil {
		t.Fatalf("SweepOverdue failed: %v", err)
	}
	if len(transitions) != 1 {
		t.Fatalf("got %d transitions, want 1", len(transitions))
	}
	if transitions[0].InvoiceID != pastDue.ID {
		t.Errorf("transitioned invoice %d, want %d", transitions[0].InvoiceID, pastDue.ID)
	}

	if pastDue.Status != domain.InvoiceStatusOverdue {
		t.Errorf("past-due invoice status = %s, want overdue", pastDue.Status)
	}
	if dueToday.Status != domain.InvoiceStatusSubmitted {
		t.Errorf("due-today invoice status = %s, want submitted", dueToday.Status)
	}
	if paid.Status != domain.InvoiceStatusPaid {
		t.Errorf("paid invoice status = %s, want paid", paid.Status)
	}

	// sweep again: nothing left to move
	transitions, err = svc.SweepOverdue(ctx)
	if err != nil {
		t.Fatalf("second SweepOverdue failed: %v", err)
	}
	if len(transitions) != 0 {
		t.Errorf("second sweep produced %d transitions, want 0", len(transitions))
	}
}

func TestInvoiceGetByNumber(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	entryRepo := newMockEntryRepo()
	invoiceRepo := newMockInvoiceRepo()

	eng := seedHourlyEngagement(t, engagementRepo)
	seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.March, 3), "4")

	svc := newTestInvoiceService(engagementRepo, entryRepo, invoiceRepo, fixedClock(2025, time.April, 15))
	created, err := svc.Generate(ctx, eng.ID, marchInterval(), billing.BuildOptions{Itemized: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	found, err := svc.GetByNumber(ctx, created.InvoiceNumber)
	if err != nil {
		t.Fatalf("GetByNumber failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("found invoice %d, want %d", found.ID, created.ID)
	}
	if len(found.LineItems) != 1 {
		t.Errorf("got %d line items, want 1", len(found.LineItems))
	}

	if _, err := svc.GetByNumber(ctx, "INV-1999-001"); !errors.Is(err, ErrInvoiceNotFound) {
		t.Errorf("missing number error = %v, want ErrInvoiceNotFound", err)
	}
}
