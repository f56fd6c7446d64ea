package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/dates"
)

// timeLayout is the RFC3339 format for storing timestamps in SQLite
const timeLayout = time.RFC3339

// parseTime parses a time string in RFC3339 format
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// formatTime returns the current time formatted as RFC3339
func formatTime() string {
	return time.Now().Format(timeLayout)
}

// parseDate parses a stored YYYY-MM-DD calendar date
func parseDate(s string) (dates.Date, error) {
	return dates.ParseDate(s)
}

// scanDecimal parses a stored decimal string, treating NULL as zero
func scanDecimal(ns sql.NullString) (decimal.Decimal, error) {
	if !ns.Valid || ns.String == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored decimal %q: %w", ns.String, err)
	}
	return d, nil
}
