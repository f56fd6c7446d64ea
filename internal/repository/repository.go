package repository

import (
	"context"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

// ClientRepository manages client persistence
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	GetByName(ctx context.Context, name string) (*domain.Client, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Archive(ctx context.Context, id int64) error
	Unarchive(ctx context.Context, id int64) error
}

// EngagementRepository manages engagement persistence
type EngagementRepository interface {
	Create(ctx context.Context, eng *domain.Engagement) error
	GetByID(ctx context.Context, id int64) (*domain.Engagement, error)
	List(ctx context.Context, clientID *int64) ([]*domain.Engagement, error)
	Update(ctx context.Context, eng *domain.Engagement) error
	// UpdateStatus writes the cached status column without touching anything else
	UpdateStatus(ctx context.Context, id int64, status domain.EngagementStatus) error
	Delete(ctx context.Context, id int64) error
}

// TimeEntryRepository manages time entry persistence with audit trail
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *domain.TimeEntry) error
	GetByID(ctx context.Context, id int64) (*domain.TimeEntry, error)
	Update(ctx context.Context, entry *domain.TimeEntry, reason string) error // Creates audit record
	SoftDelete(ctx context.Context, id int64, reason string) error
	List(ctx context.Context, engagementID *int64, period *dates.Interval, includeLocked bool) ([]*domain.TimeEntry, error)
	// GetUnbilled returns the unlocked entries for an engagement inside the
	// period, ordered by date. The result is the caller's snapshot for one
	// invoice build.
	GetUnbilled(ctx context.Context, engagementID int64, period dates.Interval) ([]*domain.TimeEntry, error)
	IsLocked(ctx context.Context, id int64) (bool, error)
	GetHistory(ctx context.Context, entryID int64) ([]*domain.EntryHistory, error)
}

// InvoiceRepository manages invoice persistence
type InvoiceRepository interface {
	// Create persists the invoice, its line items, and the locks on the billed
	// entries in one transaction
	Create(ctx context.Context, invoice *domain.Invoice, entryIDs []int64) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	List(ctx context.Context, engagementID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error)
	Update(ctx context.Context, invoice *domain.Invoice) error
	// UpdateStatus applies one lifecycle transition
	UpdateStatus(ctx context.Context, id int64, status domain.InvoiceStatus) error
	GetLineItems(ctx context.Context, invoiceID int64) ([]*domain.InvoiceLineItem, error)
	GetNextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error)
}

// TimerRepository manages the active timer state (singleton)
type TimerRepository interface {
	Get(ctx context.Context) (*domain.ActiveTimer, error) // Returns nil if no active timer
	Save(ctx context.Context, timer *domain.ActiveTimer) error
	Delete(ctx context.Context) error
}
