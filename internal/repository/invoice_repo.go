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

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	db *db.DB
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(database *db.DB) *InvoiceRepo {
	return &InvoiceRepo{db: database}
}

const invoiceColumns = `
	id, invoice_number, engagement_id, issue_date, due_date,
	period_start, period_end, status, total_amount, total_hours,
	paid_date, created_at, updated_at
`

// Create inserts an invoice, its line items, and the locks on the billed
// entries in one transaction, so a crash can never leave an invoice whose
// entries are still billable. The unique index on (engagement_id,
// period_start, period_end) rejects a second invoice for the same engagement
// and period.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice, entryIDs []int64) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO invoices (
			invoice_number, engagement_id, issue_date, due_date,
			period_start, period_end, status, total_amount, total_hours,
			paid_date, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var paidDate interface{}
	if invoice.PaidDate != nil {
		paidDate = invoice.PaidDate.String()
	}

	result, err := tx.ExecContext(ctx, query,
		invoice.InvoiceNumber,
		invoice.EngagementID,
		invoice.IssueDate.String(),
		invoice.DueDate.String(),
		invoice.PeriodStart.String(),
		invoice.PeriodEnd.String(),
		string(invoice.Status),
		invoice.TotalAmount.String(),
		invoice.TotalHours.String(),
		paidDate,
		invoice.CreatedAt.Format(timeLayout),
		invoice.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get invoice ID: %w", err)
	}

	lineQuery := `
		INSERT INTO invoice_line_items (invoice_id, entry_id, description, hours, rate, amount)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, item := range invoice.LineItems {
		lineResult, err := tx.ExecContext(ctx, lineQuery,
			id,
			item.EntryID,
			item.Description,
			item.Hours.String(),
			item.Rate.String(),
			item.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to add line item: %w", err)
		}
		lineID, err := lineResult.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get line item ID: %w", err)
		}
		item.ID = lineID
		item.InvoiceID = id
	}

	if err := lockEntries(ctx, tx, entryIDs, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	invoice.ID = id
	return nil
}

// lockEntries freezes the billed entries inside the invoice's transaction.
// An entry that is missing, deleted, or already on another invoice aborts
// the whole creation.
func lockEntries(ctx context.Context, tx *sql.Tx, entryIDs []int64, invoiceID int64) error {
	if len(entryIDs) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE time_entries
		SET invoice_id = ?, updated_at = ?
		WHERE id = ? AND invoice_id IS NULL AND is_deleted = 0
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	updateTime := formatTime()
	for _, entryID := range entryIDs {
		result, err := stmt.ExecContext(ctx, invoiceID, updateTime, entryID)
		if err != nil {
			return fmt.Errorf("failed to lock entry %d: %w", entryID, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected for entry %d: %w", entryID, err)
		}
		if rows == 0 {
			return fmt.Errorf("entry %d not found, already locked, or deleted", entryID)
		}
	}

	return nil
}

// GetByID retrieves an invoice by ID, returning nil if it does not exist
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return r.getOne(ctx, "WHERE id = ?", id)
}

// GetByNumber retrieves an invoice by its number, returning nil if it does
// not exist
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	return r.getOne(ctx, "WHERE invoice_number = ?", number)
}

func (r *InvoiceRepo) getOne(ctx context.Context, where string, arg interface{}) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ` + where

	row := r.db.QueryRowContext(ctx, query, arg)
	invoice, err := scanInvoice(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// List retrieves invoices with optional engagement and status filters
func (r *InvoiceRepo) List(ctx context.Context, engagementID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := make([]interface{}, 0)

	if engagementID != nil {
		query += " AND engagement_id = ?"
		args = append(args, *engagementID)
	}
	if status != nil {
		query += " AND status = ?"
		args = append(args, string(*status))
	}

	query += " ORDER BY issue_date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	return invoices, rows.Err()
}

// Update updates an existing invoice's mutable fields (status and paid date;
// totals never change after creation)
func (r *InvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	invoice.UpdatedAt = time.Now()

	query := `
		UPDATE invoices
		SET status = ?, paid_date = ?, updated_at = ?
		WHERE id = ?
	`

	var paidDate interface{}
	if invoice.PaidDate != nil {
		paidDate = invoice.PaidDate.String()
	}

	result, err := r.db.ExecContext(ctx, query,
		string(invoice.Status),
		paidDate,
		invoice.UpdatedAt.Format(timeLayout),
		invoice.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("invoice %d not found", invoice.ID)
	}

	return nil
}

// UpdateStatus applies one lifecycle transition
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id int64, status domain.InvoiceStatus) error {
	query := `UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(status), time.Now().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("invoice %d not found", id)
	}

	return nil
}

// GetLineItems retrieves all line items for an invoice
func (r *InvoiceRepo) GetLineItems(ctx context.Context, invoiceID int64) ([]*domain.InvoiceLineItem, error) {
	query := `
		SELECT id, invoice_id, entry_id, description, hours, rate, amount
		FROM invoice_line_items
		WHERE invoice_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.InvoiceLineItem, 0)
	for rows.Next() {
		item := &domain.InvoiceLineItem{}
		var entryID sql.NullInt64
		var hours, rate, amount sql.NullString

		err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&entryID,
			&item.Description,
			&hours,
			&rate,
			&amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}

		if entryID.Valid {
			id := entryID.Int64
			item.EntryID = &id
		}
		if item.Hours, err = scanDecimal(hours); err != nil {
			return nil, fmt.Errorf("failed to parse hours: %w", err)
		}
		if item.Rate, err = scanDecimal(rate); err != nil {
			return nil, fmt.Errorf("failed to parse rate: %w", err)
		}
		if item.Amount, err = scanDecimal(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	return items, nil
}

// GetNextInvoiceNumber generates the next invoice number in format "PREFIX-YEAR-SEQUENCE"
func (r *InvoiceRepo) GetNextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error) {
	// Find the highest sequence number for the given prefix and year
	query := `
		SELECT invoice_number
		FROM invoices
		WHERE invoice_number LIKE ?
		ORDER BY invoice_number DESC
		LIMIT 1
	`

	pattern := fmt.Sprintf("%s-%d-%%", prefix, year)
	var lastNumber string

	err := r.db.QueryRowContext(ctx, query, pattern).Scan(&lastNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No existing invoices for this year, start at 001
			return fmt.Sprintf("%s-%d-001", prefix, year), nil
		}
		return "", fmt.Errorf("failed to get last invoice number: %w", err)
	}

	// Format: PREFIX-YEAR-SEQUENCE (e.g., "INV-2026-005")
	var lastSeq int
	_, err = fmt.Sscanf(lastNumber, prefix+"-%d-%d", &year, &lastSeq)
	if err != nil {
		// Fallback: start at 001 if we can't parse
		return fmt.Sprintf("%s-%d-001", prefix, year), nil
	}

	nextSeq := lastSeq + 1
	return fmt.Sprintf("%s-%d-%03d", prefix, year, nextSeq), nil
}

// scanInvoice scans one invoice row using the shared column order
func scanInvoice(scan func(dest ...interface{}) error) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var issueDate, dueDate, periodStart, periodEnd, status string
	var totalAmount, totalHours, paidDate sql.NullString
	var createdAt, updatedAt string

	if err := scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&invoice.EngagementID,
		&issueDate,
		&dueDate,
		&periodStart,
		&periodEnd,
		&status,
		&totalAmount,
		&totalHours,
		&paidDate,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if invoice.IssueDate, err = parseDate(issueDate); err != nil {
		return nil, fmt.Errorf("failed to parse issue_date: %w", err)
	}
	if invoice.DueDate, err = parseDate(dueDate); err != nil {
		return nil, fmt.Errorf("failed to parse due_date: %w", err)
	}
	if invoice.PeriodStart, err = parseDate(periodStart); err != nil {
		return nil, fmt.Errorf("failed to parse period_start: %w", err)
	}
	if invoice.PeriodEnd, err = parseDate(periodEnd); err != nil {
		return nil, fmt.Errorf("failed to parse period_end: %w", err)
	}
	if invoice.TotalAmount, err = scanDecimal(totalAmount); err != nil {
		return nil, fmt.Errorf("failed to parse total_amount: %w", err)
	}
	if invoice.TotalHours, err = scanDecimal(totalHours); err != nil {
		return nil, fmt.Errorf("failed to parse total_hours: %w", err)
	}
	if paidDate.Valid {
		d, err := parseDate(paidDate.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse paid_date: %w", err)
		}
		invoice.PaidDate = &d
	}
	if invoice.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if invoice.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	invoice.Status = domain.InvoiceStatus(status)
	return invoice, nil
}
