package service

import (
	"context"
	"fmt"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

// Hand-rolled in-memory repositories for service tests.

type mockClientRepo struct {
	clients map[int64]*domain.Client
}

func newMockClientRepo() *mockClientRepo {
	return &mockClientRepo{clients: make(map[int64]*domain.Client)}
}

func (m *mockClientRepo) Create(ctx context.Context, client *domain.Client) error {
	client.ID = int64(len(m.clients) + 1)
	m.clients[client.ID] = client
	return nil
}

func (m *mockClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	return m.clients[id], nil
}

func (m *mockClientRepo) GetByName(ctx context.Context, name string) (*domain.Client, error) {
	for _, c := range m.clients {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockClientRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Client, error) {
	var out []*domain.Client
	for _, c := range m.clients {
		if includeArchived || !c.IsArchived {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockClientRepo) Update(ctx context.Context, client *domain.Client) error {
	m.clients[client.ID] = client
	return nil
}

func (m *mockClientRepo) Archive(ctx context.Context, id int64) error {
	if c, ok := m.clients[id]; ok {
		c.IsArchived = true
	}
	return nil
}

func (m *mockClientRepo) Unarchive(ctx context.Context, id int64) error {
	if c, ok := m.clients[id]; ok {
		c.IsArchived = false
	}
	return nil
}

type mockEngagementRepo struct {
	engagements   map[int64]*domain.Engagement
	statusWrites  []int64
	deletedIDs    []int64
	nextID        int64
	statusUpdates map[int64]domain.EngagementStatus
}

func newMockEngagementRepo() *mockEngagementRepo {
	return &mockEngagementRepo{
		engagements:   make(map[int64]*domain.Engagement),
		statusUpdates: make(map[int64]domain.EngagementStatus),
	}
}

func (m *mockEngagementRepo) Create(ctx context.Context, eng *domain.Engagement) error {
	m.nextID++
	eng.ID = m.nextID
	m.engagements[eng.ID] = eng
	return nil
}

func (m *mockEngagementRepo) GetByID(ctx context.Context, id int64) (*domain.Engagement, error) {
	return m.engagements[id], nil
}

func (m *mockEngagementRepo) List(ctx context.Context, clientID *int64) ([]*domain.Engagement, error) {
	var out []*domain.Engagement
	for id := int64(1); id <= m.nextID; id++ {
		eng, ok := m.engagements[id]
		if !ok {
			continue
		}
		if clientID != nil && eng.ClientID != *clientID {
			continue
		}
		out = append(out, eng)
	}
	return out, nil
}

func (m *mockEngagementRepo) Update(ctx context.Context, eng *domain.Engagement) error {
	m.engagements[eng.ID] = eng
	return nil
}

func (m *mockEngagementRepo) UpdateStatus(ctx context.Context, id int64, status domain.EngagementStatus) error {
	m.statusWrites = append(m.statusWrites, id)
	m.statusUpdates[id] = status
	if eng, ok := m.engagements[id]; ok {
		eng.Status = status
	}
	return nil
}

func (m *mockEngagementRepo) Delete(ctx context.Context, id int64) error {
	delete(m.engagements, id)
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

type mockEntryRepo struct {
	entries map[int64]*domain.TimeEntry
	history map[int64][]*domain.EntryHistory
	nextID  int64
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{
		entries: make(map[int64]*domain.TimeEntry),
		history: make(map[int64][]*domain.EntryHistory),
	}
}

func (m *mockEntryRepo) Create(ctx context.Context, entry *domain.TimeEntry) error {
	m.nextID++
	entry.ID = m.nextID
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockEntryRepo) GetByID(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	return m.entries[id], nil
}

func (m *mockEntryRepo) Update(ctx context.Context, entry *domain.TimeEntry, reason string) error {
	m.entries[entry.ID] = entry
	m.history[entry.ID] = append(m.history[entry.ID], domain.NewEntryHistory(entry.ID, "edit", "", "", reason))
	return nil
}

func (m *mockEntryRepo) SoftDelete(ctx context.Context, id int64, reason string) error {
	if entry, ok := m.entries[id]; ok {
		entry.IsDeleted = true
	}
	m.history[id] = append(m.history[id], domain.NewEntryHistory(id, "deleted", "", "", reason))
	return nil
}

func (m *mockEntryRepo) List(ctx context.Context, engagementID *int64, period *dates.Interval, includeLocked bool) ([]*domain.TimeEntry, error) {
	var out []*domain.TimeEntry
	for id := int64(1); id <= m.nextID; id++ {
		entry, ok := m.entries[id]
		if !ok || entry.IsDeleted {
			continue
		}
		if engagementID != nil && entry.EngagementID != *engagementID {
			continue
		}
		if period != nil && !period.Contains(entry.Date) {
			continue
		}
		if !includeLocked && entry.IsLocked() {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (m *mockEntryRepo) GetUnbilled(ctx context.Context, engagementID int64, period dates.Interval) ([]*domain.TimeEntry, error) {
	return m.List(ctx, &engagementID, &period, false)
}

func (m *mockEntryRepo) IsLocked(ctx context.Context, id int64) (bool, error) {
	entry, ok := m.entries[id]
	if !ok {
		return false, nil
	}
	return entry.IsLocked(), nil
}

func (m *mockEntryRepo) GetHistory(ctx context.Context, entryID int64) ([]*domain.EntryHistory, error) {
	return m.history[entryID], nil
}

type mockInvoiceRepo struct {
	invoices   map[int64]*domain.Invoice
	lineItems  map[int64][]*domain.InvoiceLineItem
	nextID     int64
	nextNumber int

	// entryRepo receives the entry locks; set it for tests billing entries
	entryRepo *mockEntryRepo
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{
		invoices:  make(map[int64]*domain.Invoice),
		lineItems: make(map[int64][]*domain.InvoiceLineItem),
	}
}

// Create mirrors the real repo: invoice, line items, and entry locks land
// together or not at all.
func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice, entryIDs []int64) error {
	for _, existing := range m.invoices {
		if existing.EngagementID == invoice.EngagementID &&
			existing.PeriodStart.Equal(invoice.PeriodStart) &&
			existing.PeriodEnd.Equal(invoice.PeriodEnd) {
			return fmt.Errorf("UNIQUE constraint failed: invoices.engagement_id, invoices.period_start, invoices.period_end")
		}
	}

	for _, id := range entryIDs {
		entry := m.entryRepo.entries[id]
		if entry == nil || entry.IsDeleted || entry.IsLocked() {
			return fmt.Errorf("entry %d not found, already locked, or deleted", id)
		}
	}

	m.nextID++
	invoice.ID = m.nextID
	m.invoices[invoice.ID] = invoice
	m.lineItems[invoice.ID] = invoice.LineItems

	for _, id := range entryIDs {
		invID := invoice.ID
		m.entryRepo.entries[id].InvoiceID = &invID
	}
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return m.invoices[id], nil
}

func (m *mockInvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.InvoiceNumber == number {
			return inv, nil
		}
	}
	return nil, nil
}

func (m *mockInvoiceRepo) List(ctx context.Context, engagementID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	var out []*domain.Invoice
	for id := int64(1); id <= m.nextID; id++ {
		inv, ok := m.invoices[id]
		if !ok {
			continue
		}
		if engagementID != nil && inv.EngagementID != *engagementID {
			continue
		}
		if status != nil && inv.Status != *status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	m.invoices[invoice.ID] = invoice
	return nil
}

func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, id int64, status domain.InvoiceStatus) error {
	if inv, ok := m.invoices[id]; ok {
		inv.Status = status
	}
	return nil
}

func (m *mockInvoiceRepo) GetLineItems(ctx context.Context, invoiceID int64) ([]*domain.InvoiceLineItem, error) {
	return m.lineItems[invoiceID], nil
}

func (m *mockInvoiceRepo) GetNextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error) {
	m.nextNumber++
	return fmt.Sprintf("%s-%d-%03d", prefix, year, m.nextNumber), nil
}

type mockTimerRepo struct {
	timer *domain.ActiveTimer
}

func (m *mockTimerRepo) Get(ctx context.Context) (*domain.ActiveTimer, error) {
	return m.timer, nil
}

func (m *mockTimerRepo) Save(ctx context.Context, timer *domain.ActiveTimer) error {
	m.timer = timer
	return nil
}

func (m *mockTimerRepo) Delete(ctx context.Context) error {
	m.timer = nil
	return nil
}
