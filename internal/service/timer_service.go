package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/domain"
	"github.com/erin/retainer/internal/repository"
)

var (
	ErrTimerAlreadyRunning = errors.New("timer is already running")
	ErrTimerNotRunning     = errors.New("timer is not running")
	ErrTimerNotPaused      = errors.New("timer is not paused")
	ErrNoActiveTimer       = errors.New("no active timer")
)

// TimerService manages the timer state machine
type TimerService interface {
	// GetState returns the current timer state (idle, running, paused)
	GetState(ctx context.Context) (domain.TimerState, error)

	// GetActiveTimer returns the current active timer, or nil if idle
	GetActiveTimer(ctx context.Context) (*domain.ActiveTimer, error)

	// Start creates a new timer (only from Idle state)
	Start(ctx context.Context, engagementID int64, description string) error

	// Pause pauses the running timer (only from Running state)
	Pause(ctx context.Context) error

	// Resume resumes a paused timer (only from Paused state)
	Resume(ctx context.Context) error

	// Stop stops the timer and creates the day's time entry (from Running or Paused)
	Stop(ctx context.Context) (*domain.TimeEntry, error)

	// Discard discards the active timer without creating an entry
	Discard(ctx context.Context) error

	// ElapsedDuration returns the elapsed time of the active timer
	ElapsedDuration(ctx context.Context) (time.Duration, error)

	// AccruedValue calculates the current value of the active timer
	AccruedValue(ctx context.Context) (decimal.Decimal, error)

	// RecoverFromCrash checks for an existing timer on startup
	RecoverFromCrash(ctx context.Context) error
}

type timerService struct {
	timerRepo      repository.TimerRepository
	entryRepo      repository.TimeEntryRepository
	engagementRepo repository.EngagementRepository
	log            zerolog.Logger
}

// NewTimerService creates a new timer service
func NewTimerService(
	timerRepo repository.TimerRepository,
	entryRepo repository.TimeEntryRepository,
	engagementRepo repository.EngagementRepository,
	log zerolog.Logger,
) TimerService {
	return &timerService{
		timerRepo:      timerRepo,
		entryRepo:      entryRepo,
		engagementRepo: engagementRepo,
		log:            log,
	}
}

func (s *timerService) GetState(ctx context.Context) (domain.TimerState, error) {
	timer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return "", err
	}
	if timer == nil {
		return domain.TimerStateIdle, nil
	}
	return timer.State(), nil
}

func (s *timerService) GetActiveTimer(ctx context.Context) (*domain.ActiveTimer, error) {
	return s.timerRepo.Get(ctx)
}

func (s *timerService) Start(ctx context.Context, engagementID int64, description string) error {
	// Verify engagement exists
	eng, err := s.engagementRepo.GetByID(ctx, engagementID)
	if err != nil {
		return err
	}
	if eng == nil {
		return ErrEngagementNotFound
	}

	// Check no timer is already running
	existingTimer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return err
	}
	if existingTimer != nil {
		return ErrTimerAlreadyRunning
	}

	// Create and save new timer
	timer := domain.NewActiveTimer(engagementID, description)
	return s.timerRepo.Save(ctx, timer)
}

func (s *timerService) Pause(ctx context.Context) error {
	timer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return err
	}
	if timer == nil {
		return ErrNoActiveTimer
	}

	if timer.State() != domain.TimerStateRunning {
		return ErrTimerNotRunning
	}

	timer.Pause()
	return s.timerRepo.Save(ctx, timer)
}

func (s *timerService) Resume(ctx context.Context) error {
	timer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return err
	}
	if timer == nil {
		return ErrNoActiveTimer
	}

	if timer.State() != domain.TimerStatePaused {
		return ErrTimerNotPaused
	}

	timer.Resume()
	return s.timerRepo.Save(ctx, timer)
}

func (s *timerService) Stop(ctx context.Context) (*domain.TimeEntry, error) {
	timer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if timer == nil {
		return nil, ErrNoActiveTimer
	}

	// Materialize the day's entry
	entry := timer.ToTimeEntry()
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.timerRepo.Delete(ctx); err != nil {
		return nil, err
	}

	s.log.Debug().
		Int64("entry_id", entry.ID).
		Int64("engagement_id", entry.EngagementID).
		Str("hours", entry.Hours.String()).
		Msg("timer stopped")

	return entry, nil
}

func (s *timerService) Discard(ctx context.Context) error {
	timer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return err
	}
	if timer == nil {
		return ErrNoActiveTimer
	}

	return s.timerRepo.Delete(ctx)
}

func (s *timerService) ElapsedDuration(ctx context.Context) (time.Duration, error) {
	timer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return 0, err
	}
	if timer == nil {
		return 0, ErrNoActiveTimer
	}

	return timer.Elapsed(), nil
}

func (s *timerService) AccruedValue(ctx context.Context) (decimal.Decimal, error) {
	timer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if timer == nil {
		return decimal.Zero, ErrNoActiveTimer
	}

	eng, err := s.engagementRepo.GetByID(ctx, timer.EngagementID)
	if err != nil {
		return decimal.Zero, err
	}
	if eng == nil {
		return decimal.Zero, ErrEngagementNotFound
	}

	// Fixed-fee time accrues no incremental value
	if eng.BillingMode != domain.BillingModeHourly {
		return decimal.Zero, nil
	}

	hours := decimal.NewFromFloat(timer.Elapsed().Hours())
	return hours.Mul(eng.HourlyRate), nil
}

func (s *timerService) RecoverFromCrash(ctx context.Context) error {
	timer, err := s.timerRepo.Get(ctx)
	if err != nil {
		return err
	}

	// A persisted timer simply keeps running across restarts
	if timer != nil {
		s.log.Info().
			Int64("engagement_id", timer.EngagementID).
			Time("started", timer.StartTime).
			Msg("recovered running timer")
	}

	return nil
}
