package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
	"github.com/erin/retainer/internal/repository"
)

var (
	ErrEntryNotFound = errors.New("time entry not found")
	ErrEntryLocked   = errors.New("entry is locked to an invoice")
)

// EntryService manages daily time entries. Entries referenced by an invoice
// are frozen: edits and deletes are refused so a historical invoice's basis
// never changes underneath it.
type EntryService interface {
	// Log records one day's hours against an engagement
	Log(ctx context.Context, engagementID int64, date dates.Date, hours decimal.Decimal, description string) (*domain.TimeEntry, error)

	// Get retrieves an entry by ID
	Get(ctx context.Context, id int64) (*domain.TimeEntry, error)

	// Edit updates an unlocked entry, recording an audit trail entry
	Edit(ctx context.Context, entry *domain.TimeEntry, reason string) error

	// Delete soft-deletes an unlocked entry
	Delete(ctx context.Context, id int64, reason string) error

	// List lists entries with optional engagement and period filters
	List(ctx context.Context, engagementID *int64, period *dates.Interval) ([]*domain.TimeEntry, error)

	// GetHistory returns the audit trail for an entry
	GetHistory(ctx context.Context, entryID int64) ([]*domain.EntryHistory, error)
}

type entryService struct {
	entryRepo      repository.TimeEntryRepository
	engagementRepo repository.EngagementRepository
	log            zerolog.Logger
}

// NewEntryService creates a new entry service
func NewEntryService(
	entryRepo repository.TimeEntryRepository,
	engagementRepo repository.EngagementRepository,
	log zerolog.Logger,
) EntryService {
	return &entryService{
		entryRepo:      entryRepo,
		engagementRepo: engagementRepo,
		log:            log,
	}
}

func (s *entryService) Log(ctx context.Context, engagementID int64, date dates.Date, hours decimal.Decimal, description string) (*domain.TimeEntry, error) {
	eng, err := s.engagementRepo.GetByID(ctx, engagementID)
	if err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, ErrEngagementNotFound
	}
	if !eng.Period().Contains(date) {
		return nil, fmt.Errorf("date %s is outside engagement period %s", date, eng.Period())
	}

	entry := domain.NewTimeEntry(engagementID, date, hours, description)
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Debug().
		Int64("entry_id", entry.ID).
		Int64("engagement_id", engagementID).
		Str("date", date.String()).
		Str("hours", hours.String()).
		Msg("entry logged")

	return entry, nil
}

func (s *entryService) Get(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

func (s *entryService) Edit(ctx context.Context, entry *domain.TimeEntry, reason string) error {
	existing, err := s.entryRepo.GetByID(ctx, entry.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrEntryNotFound
	}
	if existing.IsLocked() {
		return fmt.Errorf("%w: entry %d", ErrEntryLocked, entry.ID)
	}

	if err := entry.Validate(); err != nil {
		return err
	}

	return s.entryRepo.Update(ctx, entry, reason)
}

func (s *entryService) Delete(ctx context.Context, id int64, reason string) error {
	entry, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}
	if entry.IsLocked() {
		return fmt.Errorf("%w: entry %d", ErrEntryLocked, id)
	}

	return s.entryRepo.SoftDelete(ctx, id, reason)
}

func (s *entryService) List(ctx context.Context, engagementID *int64, period *dates.Interval) ([]*domain.TimeEntry, error) {
	return s.entryRepo.List(ctx, engagementID, period, true)
}

func (s *entryService) GetHistory(ctx context.Context, entryID int64) ([]*domain.EntryHistory, error) {
	return s.entryRepo.GetHistory(ctx, entryID)
}
