// Package billing is the temporal billing engine: engagement lifecycle
// resolution, invoice aggregation and invoice aging. Every function here is
// pure; the current instant always arrives as a parameter and persistence is
// the caller's concern.
package billing

import (
	"fmt"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

// ResolveStatus derives an engagement's lifecycle state purely from its date
// range relative to now. All three inputs are calendar dates (midnight UTC),
// so the comparison is timezone-stable. The boundary days are active: an
// engagement is active on both its start and end date.
//
// The persisted status column on an engagement is a cache written back by
// callers; it is never read here.
func ResolveStatus(start, end, now dates.Date) (domain.EngagementStatus, error) {
	if end.Before(start) {
		return "", fmt.Errorf("%w: %s before %s", dates.ErrInvalidRange, end, start)
	}
	switch {
	case now.After(end):
		return domain.EngagementStatusCompleted, nil
	case now.Before(start):
		return domain.EngagementStatusUpcoming, nil
	default:
		return domain.EngagementStatusActive, nil
	}
}
