package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/billing"
	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
	"github.com/erin/retainer/internal/repository"
)

var (
	ErrClientNotFound     = errors.New("client not found")
	ErrEngagementNotFound = errors.New("engagement not found")
)

// EngagementService manages engagement lifecycle. The persisted status column
// is a cache: every read recomputes it from the dates and the clock, and
// writes it back when it drifted.
type EngagementService interface {
	// CreateHourly creates an hourly engagement for a client
	CreateHourly(ctx context.Context, clientID int64, project string, start, end dates.Date, rate decimal.Decimal) (*domain.Engagement, error)

	// CreateFixedFee creates a fixed-fee engagement for a client
	CreateFixedFee(ctx context.Context, clientID int64, project string, start, end dates.Date, fee decimal.Decimal) (*domain.Engagement, error)

	// Get retrieves an engagement with a fresh status
	Get(ctx context.Context, id int64) (*domain.Engagement, error)

	// List lists engagements, optionally filtered by client
	List(ctx context.Context, clientID *int64) ([]*domain.Engagement, error)

	// ListInRange lists engagements whose date range overlaps the interval
	ListInRange(ctx context.Context, clientID *int64, period dates.Interval) ([]*domain.Engagement, error)

	// Update updates the mutable fields of an engagement
	Update(ctx context.Context, eng *domain.Engagement) error

	// Delete removes an engagement that has no invoices
	Delete(ctx context.Context, id int64) error
}

type engagementService struct {
	engagementRepo repository.EngagementRepository
	clientRepo     repository.ClientRepository
	invoiceRepo    repository.InvoiceRepository
	clock          dates.Clock
	netTermsDays   int
	log            zerolog.Logger
}

// NewEngagementService creates a new engagement service. netTermsDays is the
// configured payment window applied to new engagements; zero falls back to
// the domain default.
func NewEngagementService(
	engagementRepo repository.EngagementRepository,
	clientRepo repository.ClientRepository,
	invoiceRepo repository.InvoiceRepository,
	clock dates.Clock,
	netTermsDays int,
	log zerolog.Logger,
) EngagementService {
	return &engagementService{
		engagementRepo: engagementRepo,
		clientRepo:     clientRepo,
		invoiceRepo:    invoiceRepo,
		clock:          clock,
		netTermsDays:   netTermsDays,
		log:            log,
	}
}

func (s *engagementService) CreateHourly(ctx context.Context, clientID int64, project string, start, end dates.Date, rate decimal.Decimal) (*domain.Engagement, error) {
	eng := domain.NewHourlyEngagement(clientID, project, start, end, rate)
	return s.create(ctx, eng)
}

func (s *engagementService) CreateFixedFee(ctx context.Context, clientID int64, project string, start, end dates.Date, fee decimal.Decimal) (*domain.Engagement, error) {
	eng := domain.NewFixedFeeEngagement(clientID, project, start, end, fee)
	return s.create(ctx, eng)
}

func (s *engagementService) create(ctx context.Context, eng *domain.Engagement) (*domain.Engagement, error) {
	client, err := s.clientRepo.GetByID(ctx, eng.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrClientNotFound
	}

	if s.netTermsDays > 0 {
		eng.NetTermsDays = s.netTermsDays
	}

	if err := eng.Validate(); err != nil {
		return nil, err
	}

	// Seed the status cache at creation time
	status, err := billing.ResolveStatus(eng.StartDate, eng.EndDate, dates.DateOf(s.clock.Now()))
	if err != nil {
		return nil, err
	}
	eng.Status = status

	if err := s.engagementRepo.Create(ctx, eng); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("engagement_id", eng.ID).
		Str("project", eng.Project).
		Str("mode", string(eng.BillingMode)).
		Msg("engagement created")

	return eng, nil
}

func (s *engagementService) Get(ctx context.Context, id int64) (*domain.Engagement, error) {
	eng, err := s.engagementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, ErrEngagementNotFound
	}

	if err := s.refreshStatus(ctx, eng); err != nil {
		return nil, err
	}
	return eng, nil
}

func (s *engagementService) List(ctx context.Context, clientID *int64) ([]*domain.Engagement, error) {
	engs, err := s.engagementRepo.List(ctx, clientID)
	if err != nil {
		return nil, err
	}

	for _, eng := range engs {
		if err := s.refreshStatus(ctx, eng); err != nil {
			return nil, err
		}
	}
	return engs, nil
}

func (s *engagementService) ListInRange(ctx context.Context, clientID *int64, period dates.Interval) ([]*domain.Engagement, error) {
	engs, err := s.List(ctx, clientID)
	if err != nil {
		return nil, err
	}

	filtered := make([]*domain.Engagement, 0, len(engs))
	for _, eng := range engs {
		if dates.Overlaps(eng.Period(), period) {
			filtered = append(filtered, eng)
		}
	}
	return filtered, nil
}

func (s *engagementService) Update(ctx context.Context, eng *domain.Engagement) error {
	existing, err := s.engagementRepo.GetByID(ctx, eng.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrEngagementNotFound
	}

	if err := eng.Validate(); err != nil {
		return err
	}

	status, err := billing.ResolveStatus(eng.StartDate, eng.EndDate, dates.DateOf(s.clock.Now()))
	if err != nil {
		return err
	}
	eng.Status = status

	return s.engagementRepo.Update(ctx, eng)
}

func (s *engagementService) Delete(ctx context.Context, id int64) error {
	eng, err := s.engagementRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if eng == nil {
		return ErrEngagementNotFound
	}

	invoices, err := s.invoiceRepo.List(ctx, &id, nil)
	if err != nil {
		return err
	}
	if len(invoices) > 0 {
		return errors.New("cannot delete engagement with invoices")
	}

	return s.engagementRepo.Delete(ctx, id)
}

// refreshStatus recomputes the cached status and persists it when it drifted.
func (s *engagementService) refreshStatus(ctx context.Context, eng *domain.Engagement) error {
	status, err := billing.ResolveStatus(eng.StartDate, eng.EndDate, dates.DateOf(s.clock.Now()))
	if err != nil {
		return err
	}
	if status == eng.Status {
		return nil
	}

	s.log.Debug().
		Int64("engagement_id", eng.ID).
		Str("from", string(eng.Status)).
		Str("to", string(status)).
		Msg("engagement status changed")

	eng.Status = status
	return s.engagementRepo.UpdateStatus(ctx, eng.ID, status)
}
