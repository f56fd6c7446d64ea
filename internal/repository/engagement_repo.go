package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erin/retainer/internal/db"
	"github.com/erin/retainer/internal/domain"
)

// EngagementRepo is a SQLite implementation of EngagementRepository
type EngagementRepo struct {
	db *db.DB
}

// NewEngagementRepo creates a new EngagementRepo
func NewEngagementRepo(database *db.DB) *EngagementRepo {
	return &EngagementRepo{db: database}
}

const engagementColumns = `
	id, client_id, project, start_date, end_date, billing_mode,
	hourly_rate, fixed_fee, net_terms_days, status, created_at, updated_at
`

// Create inserts a new engagement into the database
func (r *EngagementRepo) Create(ctx context.Context, eng *domain.Engagement) error {
	if err := eng.Validate(); err != nil {
		return fmt.Errorf("invalid engagement: %w", err)
	}

	query := `
		INSERT INTO engagements (
			client_id, project, start_date, end_date, billing_mode,
			hourly_rate, fixed_fee, net_terms_days, status, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		eng.ClientID,
		eng.Project,
		eng.StartDate.String(),
		eng.EndDate.String(),
		string(eng.BillingMode),
		eng.HourlyRate.String(),
		eng.FixedFee.String(),
		eng.NetTermsDays,
		string(eng.Status),
		eng.CreatedAt.Format(timeLayout),
		eng.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get engagement ID: %w", err)
	}

	eng.ID = id
	return nil
}

// GetByID retrieves an engagement by ID, returning nil if it does not exist
func (r *EngagementRepo) GetByID(ctx context.Context, id int64) (*domain.Engagement, error) {
	query := `SELECT ` + engagementColumns + ` FROM engagements WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	eng, err := scanEngagement(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get engagement: %w", err)
	}
	return eng, nil
}

// List retrieves engagements, optionally filtered by client
func (r *EngagementRepo) List(ctx context.Context, clientID *int64) ([]*domain.Engagement, error) {
	query := `SELECT ` + engagementColumns + ` FROM engagements`
	var args []interface{}
	if clientID != nil {
		query += " WHERE client_id = ?"
		args = append(args, *clientID)
	}
	query += " ORDER BY start_date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list engagements: %w", err)
	}
	defer rows.Close()

	var engagements []*domain.Engagement
	for rows.Next() {
		eng, err := scanEngagement(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan engagement: %w", err)
		}
		engagements = append(engagements, eng)
	}

	return engagements, rows.Err()
}

// Update updates an existing engagement
func (r *EngagementRepo) Update(ctx context.Context, eng *domain.Engagement) error {
	if err := eng.Validate(); err != nil {
		return fmt.Errorf("invalid engagement: %w", err)
	}

	eng.UpdatedAt = time.Now()

	query := `
		UPDATE engagements
		SET client_id = ?, project = ?, start_date = ?, end_date = ?,
		    billing_mode = ?, hourly_rate = ?, fixed_fee = ?,
		    net_terms_days = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		eng.ClientID,
		eng.Project,
		eng.StartDate.String(),
		eng.EndDate.String(),
		string(eng.BillingMode),
		eng.HourlyRate.String(),
		eng.FixedFee.String(),
		eng.NetTermsDays,
		string(eng.Status),
		eng.UpdatedAt.Format(timeLayout),
		eng.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update engagement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("engagement %d not found", eng.ID)
	}

	return nil
}

// UpdateStatus writes only the cached status column
func (r *EngagementRepo) UpdateStatus(ctx context.Context, id int64, status domain.EngagementStatus) error {
	query := `UPDATE engagements SET status = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, string(status), time.Now().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("failed to update engagement status: %w", err)
	}
	return nil
}

// Delete removes an engagement. Engagements with time entries or invoices
// are protected by foreign keys.
func (r *EngagementRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM engagements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete engagement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("engagement %d not found", id)
	}

	return nil
}

// scanEngagement scans one engagement row using the shared column order
func scanEngagement(scan func(dest ...interface{}) error) (*domain.Engagement, error) {
	eng := &domain.Engagement{}
	var startDate, endDate, billingMode, status string
	var hourlyRate, fixedFee sql.NullString
	var createdAt, updatedAt string

	if err := scan(
		&eng.ID,
		&eng.ClientID,
		&eng.Project,
		&startDate,
		&endDate,
		&billingMode,
		&hourlyRate,
		&fixedFee,
		&eng.NetTermsDays,
		&status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if eng.StartDate, err = parseDate(startDate); err != nil {
		return nil, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if eng.EndDate, err = parseDate(endDate); err != nil {
		return nil, fmt.Errorf("failed to parse end_date: %w", err)
	}
	if eng.HourlyRate, err = scanDecimal(hourlyRate); err != nil {
		return nil, fmt.Errorf("failed to parse hourly_rate: %w", err)
	}
	if eng.FixedFee, err = scanDecimal(fixedFee); err != nil {
		return nil, fmt.Errorf("failed to parse fixed_fee: %w", err)
	}
	if eng.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if eng.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	eng.BillingMode = domain.BillingMode(billingMode)
	eng.Status = domain.EngagementStatus(status)
	return eng, nil
}
