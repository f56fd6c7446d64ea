package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/db"
	"github.com/erin/retainer/internal/domain"
)

// EntryRepo is a SQLite implementation of TimeEntryRepository
type EntryRepo struct {
	db *db.DB
}

// NewEntryRepo creates a new EntryRepo
func NewEntryRepo(database *db.DB) *EntryRepo {
	return &EntryRepo{db: database}
}

const entryColumns = `
	id, engagement_id, entry_date, hours, description,
	is_deleted, invoice_id, created_at, updated_at
`

// Create inserts a new time entry into the database
func (r *EntryRepo) Create(ctx context.Context, entry *domain.TimeEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid time entry: %w", err)
	}

	query := `
		INSERT INTO time_entries (
			engagement_id, entry_date, hours, description,
			is_deleted, invoice_id, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.EngagementID,
		entry.Date.String(),
		entry.Hours.String(),
		entry.Description,
		entry.IsDeleted,
		entry.InvoiceID,
		entry.CreatedAt.Format(timeLayout),
		entry.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create time entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get time entry ID: %w", err)
	}

	entry.ID = id
	return nil
}

// GetByID retrieves a time entry by ID, returning nil if it does not exist
func (r *EntryRepo) GetByID(ctx context.Context, id int64) (*domain.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	entry, err := scanTimeEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}
	return entry, nil
}

// Update updates an existing time entry and creates an audit record.
// Entries locked to an invoice are frozen and refuse the update.
func (r *EntryRepo) Update(ctx context.Context, entry *domain.TimeEntry, reason string) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid time entry: %w", err)
	}

	locked, err := r.IsLocked(ctx, entry.ID)
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("cannot update time entry: frozen by invoice")
	}

	// Get current entry for audit trail
	oldEntry, err := r.GetByID(ctx, entry.ID)
	if err != nil {
		return err
	}
	if oldEntry == nil {
		return fmt.Errorf("time entry %d not found", entry.ID)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE time_entries
		SET engagement_id = ?, entry_date = ?, hours = ?, description = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0
	`

	entry.UpdatedAt = time.Now()

	result, err := tx.ExecContext(ctx, query,
		entry.EngagementID,
		entry.Date.String(),
		entry.Hours.String(),
		entry.Description,
		entry.UpdatedAt.Format(timeLayout),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("time entry not found or already deleted")
	}

	if err := createAuditRecords(ctx, tx, oldEntry, entry, reason); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SoftDelete marks a time entry as deleted. Frozen entries refuse deletion.
func (r *EntryRepo) SoftDelete(ctx context.Context, id int64, reason string) error {
	locked, err := r.IsLocked(ctx, id)
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("cannot delete time entry: frozen by invoice")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE time_entries
		SET is_deleted = 1, updated_at = ?
		WHERE id = ?
	`

	result, err := tx.ExecContext(ctx, query, formatTime(), id)
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("time entry not found")
	}

	historyQuery := `
		INSERT INTO entry_history (entry_id, field_name, old_value, new_value, change_reason, changed_at)
		VALUES (?, 'is_deleted', '0', '1', ?, ?)
	`

	_, err = tx.ExecContext(ctx, historyQuery, id, reason, formatTime())
	if err != nil {
		return fmt.Errorf("failed to create audit record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// List retrieves time entries with optional filters
func (r *EntryRepo) List(ctx context.Context, engagementID *int64, period *dates.Interval, includeLocked bool) ([]*domain.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE is_deleted = 0`
	args := make([]interface{}, 0)

	if engagementID != nil {
		query += " AND engagement_id = ?"
		args = append(args, *engagementID)
	}

	if period != nil {
		query += " AND entry_date >= ? AND entry_date <= ?"
		args = append(args, period.Start.String(), period.End.String())
	}

	if !includeLocked {
		query += " AND invoice_id IS NULL"
	}

	query += " ORDER BY entry_date DESC, id DESC"

	return r.queryEntries(ctx, query, args...)
}

// GetUnbilled retrieves unbilled entries for an engagement within a period,
// ordered by date
func (r *EntryRepo) GetUnbilled(ctx context.Context, engagementID int64, period dates.Interval) ([]*domain.TimeEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE engagement_id = ?
		  AND invoice_id IS NULL
		  AND is_deleted = 0
		  AND entry_date >= ?
		  AND entry_date <= ?
		ORDER BY entry_date, id
	`

	return r.queryEntries(ctx, query, engagementID, period.Start.String(), period.End.String())
}

func (r *EntryRepo) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*domain.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.TimeEntry, 0)
	for rows.Next() {
		entry, err := scanTimeEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time entries: %w", err)
	}

	return entries, nil
}

// IsLocked checks if a time entry is frozen (attached to an invoice)
func (r *EntryRepo) IsLocked(ctx context.Context, id int64) (bool, error) {
	var invoiceID sql.NullInt64
	query := "SELECT invoice_id FROM time_entries WHERE id = ?"

	err := r.db.QueryRowContext(ctx, query, id).Scan(&invoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("time entry not found")
		}
		return false, fmt.Errorf("failed to check lock status: %w", err)
	}

	return invoiceID.Valid, nil
}

// GetHistory retrieves the audit trail for a time entry
func (r *EntryRepo) GetHistory(ctx context.Context, entryID int64) ([]*domain.EntryHistory, error) {
	query := `
		SELECT id, entry_id, field_name, old_value, new_value, change_reason, changed_at
		FROM entry_history
		WHERE entry_id = ?
		ORDER BY changed_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry history: %w", err)
	}
	defer rows.Close()

	history := make([]*domain.EntryHistory, 0)
	for rows.Next() {
		h := &domain.EntryHistory{}
		var changedAt string

		err := rows.Scan(
			&h.ID,
			&h.EntryID,
			&h.FieldName,
			&h.OldValue,
			&h.NewValue,
			&h.ChangeReason,
			&changedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}

		if h.ChangedAt, err = parseTime(changedAt); err != nil {
			return nil, fmt.Errorf("failed to parse changed_at: %w", err)
		}

		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return history, nil
}

// createAuditRecords creates history records for changed fields
func createAuditRecords(ctx context.Context, tx *sql.Tx, old, new *domain.TimeEntry, reason string) error {
	changedAt := formatTime()

	insertHistory := func(fieldName, oldVal, newVal string) error {
		if oldVal == newVal {
			return nil
		}
		query := `
			INSERT INTO entry_history (entry_id, field_name, old_value, new_value, change_reason, changed_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query, new.ID, fieldName, oldVal, newVal, reason, changedAt)
		return err
	}

	if old.EngagementID != new.EngagementID {
		if err := insertHistory("engagement_id", strconv.FormatInt(old.EngagementID, 10), strconv.FormatInt(new.EngagementID, 10)); err != nil {
			return fmt.Errorf("failed to audit engagement_id change: %w", err)
		}
	}

	if !old.Date.Equal(new.Date) {
		if err := insertHistory("entry_date", old.Date.String(), new.Date.String()); err != nil {
			return fmt.Errorf("failed to audit entry_date change: %w", err)
		}
	}

	if !old.Hours.Equal(new.Hours) {
		if err := insertHistory("hours", old.Hours.String(), new.Hours.String()); err != nil {
			return fmt.Errorf("failed to audit hours change: %w", err)
		}
	}

	if old.Description != new.Description {
		if err := insertHistory("description", old.Description, new.Description); err != nil {
			return fmt.Errorf("failed to audit description change: %w", err)
		}
	}

	return nil
}

// scanTimeEntry scans one time entry row using the shared column order
func scanTimeEntry(scan func(dest ...interface{}) error) (*domain.TimeEntry, error) {
	entry := &domain.TimeEntry{}
	var entryDate string
	var hours, description, invoiceID sql.NullString
	var createdAt, updatedAt string

	if err := scan(
		&entry.ID,
		&entry.EngagementID,
		&entryDate,
		&hours,
		&description,
		&entry.IsDeleted,
		&invoiceID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if entry.Date, err = parseDate(entryDate); err != nil {
		return nil, fmt.Errorf("failed to parse entry_date: %w", err)
	}
	if entry.Hours, err = scanDecimal(hours); err != nil {
		return nil, fmt.Errorf("failed to parse hours: %w", err)
	}
	entry.Description = description.String

	if invoiceID.Valid {
		val, err := strconv.ParseInt(invoiceID.String, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse invoice_id: %w", err)
		}
		entry.InvoiceID = &val
	}

	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return entry, nil
}
