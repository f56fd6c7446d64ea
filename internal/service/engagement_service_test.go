package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/billing"
	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

func newTestEngagementService(engagementRepo *mockEngagementRepo, clientRepo *mockClientRepo, invoiceRepo *mockInvoiceRepo, clock dates.Clock) *engagementService {
	return &engagementService{
		engagementRepo: engagementRepo,
		clientRepo:     clientRepo,
		invoiceRepo:    invoiceRepo,
		clock:          clock,
		log:            zerolog.Nop(),
	}
}

func seedClient(t *testing.T, repo *mockClientRepo, name string) *domain.Client {
	t.Helper()
	client := domain.NewClient(name)
	if err := repo.Create(context.Background(), client); err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return client
}

func TestEngagementCreate_SeedsStatus(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	clientRepo := newMockClientRepo()
	client := seedClient(t, clientRepo, "Acme Corp")

	svc := newTestEngagementService(engagementRepo, clientRepo, newMockInvoiceRepo(), fixedClock(2025, time.April, 15))

	tests := []struct {
		name       string
		start, end dates.Date
		want       domain.EngagementStatus
	}{
		{"future", dates.NewDate(2025, time.June, 1), dates.NewDate(2025, time.August, 31), domain.EngagementStatusUpcoming},
		{"current", dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.June, 30), domain.EngagementStatusActive},
		{"past", dates.NewDate(2024, time.January, 1), dates.NewDate(2024, time.December, 31), domain.EngagementStatusCompleted},
	}
	for _, tt := range tests {
		eng, err := svc.CreateHourly(ctx, client.ID, tt.name, tt.start, tt.end, decimal.RequireFromString("150"))
		if err != nil {
			t.Fatalf("%s: CreateHourly failed: %v", tt.name, err)
		}
		if eng.Status != tt.want {
			t.Errorf("%s: status = %s, want %s", tt.name, eng.Status, tt.want)
		}
	}
}

func TestEngagementCreate_AppliesConfiguredNetTerms(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	clientRepo := newMockClientRepo()
	entryRepo := newMockEntryRepo()
	client := seedClient(t, clientRepo, "Acme Corp")

	svc := newTestEngagementService(engagementRepo, clientRepo, newMockInvoiceRepo(), fixedClock(2025, time.April, 15))
	svc.netTermsDays = 45

	eng, err := svc.CreateHourly(ctx, client.ID, "Custom Terms",
		dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.June, 30),
		decimal.RequireFromString("150"))
	if err != nil {
		t.Fatalf("CreateHourly failed: %v", err)
	}
	if eng.NetTermsDays != 45 {
		t.Errorf("net terms = %d, want 45", eng.NetTermsDays)
	}

	// the configured terms flow through to the invoice due date
	seedEntry(t, entryRepo, eng.ID, dates.NewDate(2025, time.March, 10), "4")
	invSvc := newTestInvoiceService(engagementRepo, entryRepo, newMockInvoiceRepo(), fixedClock(2025, time.April, 15))
	invoice, err := invSvc.Generate(ctx, eng.ID, marchInterval(), billing.BuildOptions{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !invoice.DueDate.Equal(dates.NewDate(2025, time.May, 30)) {
		t.Errorf("due date = %s, want 2025-05-30", invoice.DueDate)
	}

	// a zero configuration leaves the domain default in place
	svc.netTermsDays = 0
	eng, err = svc.CreateHourly(ctx, client.ID, "Default Terms",
		dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.June, 30),
		decimal.RequireFromString("150"))
	if err != nil {
		t.Fatalf("CreateHourly failed: %v", err)
	}
	if eng.NetTermsDays != domain.DefaultNetTermsDays {
		t.Errorf("net terms = %d, want %d", eng.NetTermsDays, domain.DefaultNetTermsDays)
	}
}

func TestEngagementCreate_UnknownClient(t *testing.T) {
	svc := newTestEngagementService(newMockEngagementRepo(), newMockClientRepo(), newMockInvoiceRepo(), fixedClock(2025, time.April, 15))

	_, err := svc.CreateHourly(context.Background(), 99, "Ghost Project",
		dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.June, 30),
		decimal.RequireFromString("150"))
	if !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("error = %v, want ErrClientNotFound", err)
	}
}

func TestEngagementCreate_ReversedDates(t *testing.T) {
	clientRepo := newMockClientRepo()
	client := seedClient(t, clientRepo, "Acme Corp")
	svc := newTestEngagementService(newMockEngagementRepo(), clientRepo, newMockInvoiceRepo(), fixedClock(2025, time.April, 15))

	_, err := svc.CreateHourly(context.Background(), client.ID, "Backwards",
		dates.NewDate(2025, time.June, 30), dates.NewDate(2025, time.March, 1),
		decimal.RequireFromString("150"))
	if !errors.Is(err, dates.ErrInvalidRange) {
		t.Fatalf("error = %v, want ErrInvalidRange", err)
	}
}

func TestEngagementGet_RefreshesStaleStatus(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	clientRepo := newMockClientRepo()
	seedClient(t, clientRepo, "Acme Corp")

	// persisted as active, but the engagement ended months ago
	eng := domain.NewHourlyEngagement(1, "Stale Project",
		dates.NewDate(2025, time.January, 1), dates.NewDate(2025, time.February, 28),
		decimal.RequireFromString("150"))
	eng.Status = domain.EngagementStatusActive
	if err := engagementRepo.Create(ctx, eng); err != nil {
		t.Fatalf("seed engagement: %v", err)
	}

	svc := newTestEngagementService(engagementRepo, clientRepo, newMockInvoiceRepo(), fixedClock(2025, time.April, 15))

	got, err := svc.Get(ctx, eng.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != domain.EngagementStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if len(engagementRepo.statusWrites) != 1 {
		t.Errorf("status written back %d times, want 1", len(engagementRepo.statusWrites))
	}

	// a second read sees the fresh cache and writes nothing
	if _, err := svc.Get(ctx, eng.ID); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if len(engagementRepo.statusWrites) != 1 {
		t.Errorf("fresh status was rewritten, want no extra writes")
	}
}

func TestEngagementListInRange(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	clientRepo := newMockClientRepo()
	client := seedClient(t, clientRepo, "Acme Corp")

	svc := newTestEngagementService(engagementRepo, clientRepo, newMockInvoiceRepo(), fixedClock(2025, time.April, 15))

	mk := func(project string, start, end dates.Date) *domain.Engagement {
		eng, err := svc.CreateHourly(ctx, client.ID, project, start, end, decimal.RequireFromString("150"))
		if err != nil {
			t.Fatalf("create %s: %v", project, err)
		}
		return eng
	}

	q2 := mk("Q2 Work", dates.NewDate(2025, time.April, 1), dates.NewDate(2025, time.June, 30))
	straddle := mk("Straddler", dates.NewDate(2025, time.March, 15), dates.NewDate(2025, time.April, 15))
	mk("Last Year", dates.NewDate(2024, time.June, 1), dates.NewDate(2024, time.August, 31))

	april := dates.Interval{Start: dates.NewDate(2025, time.April, 1), End: dates.NewDate(2025, time.April, 30)}
	got, err := svc.ListInRange(ctx, nil, april)
	if err != nil {
		t.Fatalf("ListInRange failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d engagements, want 2", len(got))
	}
	ids := map[int64]bool{got[0].ID: true, got[1].ID: true}
	if !ids[q2.ID] || !ids[straddle.ID] {
		t.Errorf("wrong engagements in range: got %v", ids)
	}
}

func TestEngagementDelete_RefusedWithInvoices(t *testing.T) {
	ctx := context.Background()
	engagementRepo := newMockEngagementRepo()
	clientRepo := newMockClientRepo()
	invoiceRepo := newMockInvoiceRepo()
	client := seedClient(t, clientRepo, "Acme Corp")

	svc := newTestEngagementService(engagementRepo, clientRepo, invoiceRepo, fixedClock(2025, time.April, 15))

	eng, err := svc.CreateHourly(ctx, client.ID, "Billed Project",
		dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.June, 30),
		decimal.RequireFromString("150"))
	if err != nil {
		t.Fatalf("CreateHourly failed: %v", err)
	}

	inv := &domain.Invoice{
		InvoiceNumber: "INV-2025-001",
		EngagementID:  eng.ID,
		IssueDate:     dates.NewDate(2025, time.April, 1),
		DueDate:       dates.NewDate(2025, time.May, 1),
		PeriodStart:   dates.NewDate(2025, time.March, 1),
		PeriodEnd:     dates.NewDate(2025, time.March, 31),
		Status:        domain.InvoiceStatusSubmitted,
		TotalAmount:   decimal.RequireFromString("1500"),
	}
	if err := invoiceRepo.Create(ctx, inv, nil); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	if err := svc.Delete(ctx, eng.ID); err == nil {
		t.Fatalf("Delete succeeded for engagement with invoices, want error")
	}
	if len(engagementRepo.deletedIDs) != 0 {
		t.Errorf("engagement was deleted despite invoices")
	}
}
