package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

func hourlyEngagement(rate string) *domain.Engagement {
	eng := domain.NewHourlyEngagement(1, "Platform Migration",
		dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.June, 30),
		decimal.RequireFromString(rate))
	eng.ID = 42
	return eng
}

func fixedFeeEngagement(fee string) *domain.Engagement {
	eng := domain.NewFixedFeeEngagement(1, "Security Audit",
		dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.June, 30),
		decimal.RequireFromString(fee))
	eng.ID = 43
	return eng
}

func entry(id int64, date dates.Date, hours, desc string) *domain.TimeEntry {
	e := domain.NewTimeEntry(42, date, decimal.RequireFromString(hours), desc)
	e.ID = id
	return e
}

func marchPeriod(t *testing.T) dates.Interval {
	t.Helper()
	iv, err := dates.NewInterval(dates.NewDate(2025, time.March, 1), dates.NewDate(2025, time.March, 31))
	require.NoError(t, err)
	return iv
}

func TestBuildInvoice_HourlySummary(t *testing.T) {
	eng := hourlyEngagement("150")
	entries := []*domain.TimeEntry{
		entry(1, dates.NewDate(2025, time.March, 3), "4", "design review"),
		entry(2, dates.NewDate(2025, time.March, 4), "6.5", "implementation"),
		entry(3, dates.NewDate(2025, time.March, 10), "2.25", ""),
	}
	now := dates.NewDate(2025, time.April, 1)

	inv, err := BuildInvoice(eng, entries, marchPeriod(t), now, BuildOptions{})
	require.NoError(t, err)

	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "12.75", inv.TotalHours.String())
	assert.Equal(t, "1912.5", inv.TotalAmount.String())
	assert.Equal(t, inv.TotalAmount.String(), inv.LineItems[0].Amount.String())
	assert.Equal(t, domain.InvoiceStatusSubmitted, inv.Status)
	assert.True(t, inv.IssueDate.Equal(now))
	assert.True(t, inv.DueDate.Equal(now.AddDays(30)))
}

func TestBuildInvoice_HourlyItemized(t *testing.T) {
	eng := hourlyEngagement("150")
	entries := []*domain.TimeEntry{
		entry(1, dates.NewDate(2025, time.March, 3), "4", "design review"),
		entry(2, dates.NewDate(2025, time.March, 4), "6.5", "implementation"),
		entry(3, dates.NewDate(2025, time.March, 10), "2.25", ""),
	}

	inv, err := BuildInvoice(eng, entries, marchPeriod(t), dates.NewDate(2025, time.April, 1), BuildOptions{Itemized: true})
	require.NoError(t, err)

	require.Len(t, inv.LineItems, 3)
	assert.Equal(t, "600", inv.LineItems[0].Amount.String())
	assert.Equal(t, "975", inv.LineItems[1].Amount.String())
	assert.Equal(t, "337.5", inv.LineItems[2].Amount.String())
	assert.Equal(t, "1912.5", inv.TotalAmount.String())

	// entries without a description get a generated one
	require.NotNil(t, inv.LineItems[2].EntryID)
	assert.Equal(t, int64(3), *inv.LineItems[2].EntryID)
	assert.NotEmpty(t, inv.LineItems[2].Description)
}

func TestBuildInvoice_PerLineHalfUpRounding(t *testing.T) {
	// 0.25h at $33.33 is $8.3325, which rounds half-up to $8.33 per line.
	// Summary mode multiplies the summed hours instead, so the two modes can
	// legitimately differ by fractions of a cent in what they bill.
	eng := hourlyEngagement("33.33")
	entries := []*domain.TimeEntry{
		entry(1, dates.NewDate(2025, time.March, 3), "0.25", "a"),
		entry(2, dates.NewDate(2025, time.March, 4), "0.25", "b"),
		entry(3, dates.NewDate(2025, time.March, 5), "0.25", "c"),
	}

	inv, err := BuildInvoice(eng, entries, marchPeriod(t), dates.NewDate(2025, time.April, 1), BuildOptions{Itemized: true})
	require.NoError(t, err)

	for _, li := range inv.LineItems {
		assert.Equal(t, "8.33", li.Amount.String())
	}
	// total is the exact sum of rounded lines, not a re-rounded product
	assert.Equal(t, "24.99", inv.TotalAmount.String())

	summary, err := BuildInvoice(eng, entries, marchPeriod(t), dates.NewDate(2025, time.April, 1), BuildOptions{})
	require.NoError(t, err)
	// 0.75h * 33.33 = 24.9975, rounds to 25.00
	assert.Equal(t, "25", summary.TotalAmount.String())
}

func TestBuildInvoice_HalfCentRoundsUp(t *testing.T) {
	// 0.5h at $100.01 is $50.005: the half cent goes up.
	eng := hourlyEngagement("100.01")
	entries := []*domain.TimeEntry{
		entry(1, dates.NewDate(2025, time.March, 3), "0.5", "call"),
	}

	inv, err := BuildInvoice(eng, entries, marchPeriod(t), dates.NewDate(2025, time.April, 1), BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, "50.01", inv.TotalAmount.String())
}

func TestBuildInvoice_PeriodNarrowsToEntrySpan(t *testing.T) {
	eng := hourlyEngagement("150")
	entries := []*domain.TimeEntry{
		entry(1, dates.NewDate(2025, time.March, 10), "4", "a"),
		entry(2, dates.NewDate(2025, time.March, 5), "2", "b"),
		entry(3, dates.NewDate(2025, time.March, 21), "3", "c"),
	}

	inv, err := BuildInvoice(eng, entries, marchPeriod(t), dates.NewDate(2025, time.April, 1), BuildOptions{})
	require.NoError(t, err)

	assert.Equal(t, "2025-03-05", inv.PeriodStart.String())
	assert.Equal(t, "2025-03-21", inv.PeriodEnd.String())
}

func TestBuildInvoice_FixedFee(t *testing.T) {
	eng := fixedFeeEngagement("5000")
	// fixed-fee billing ignores time entries entirely
	entries := []*domain.TimeEntry{
		entry(1, dates.NewDate(2025, time.March, 3), "8", "ignored"),
	}
	period := marchPeriod(t)

	inv, err := BuildInvoice(eng, entries, period, dates.NewDate(2025, time.April, 1), BuildOptions{})
	require.NoError(t, err)

	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "5000", inv.TotalAmount.String())
	assert.True(t, inv.TotalHours.IsZero())
	// the requested period is kept as-is for fixed fees
	assert.True(t, inv.PeriodStart.Equal(period.Start))
	assert.True(t, inv.PeriodEnd.Equal(period.End))
}

func TestBuildInvoice_Empty(t *testing.T) {
	eng := hourlyEngagement("150")

	_, err := BuildInvoice(eng, nil, marchPeriod(t), dates.NewDate(2025, time.April, 1), BuildOptions{})
	require.ErrorIs(t, err, ErrEmptyInvoice)

	inv, err := BuildInvoice(eng, nil, marchPeriod(t), dates.NewDate(2025, time.April, 1), BuildOptions{AllowEmpty: true})
	require.NoError(t, err)
	assert.True(t, inv.TotalAmount.IsZero())
	assert.Empty(t, inv.LineItems)
}

func TestBuildInvoice_Deterministic(t *testing.T) {
	eng := hourlyEngagement("175.50")
	entries := []*domain.TimeEntry{
		entry(1, dates.NewDate(2025, time.March, 3), "4.75", "a"),
		entry(2, dates.NewDate(2025, time.March, 4), "6.25", "b"),
	}
	now := dates.NewDate(2025, time.April, 1)

	first, err := BuildInvoice(eng, entries, marchPeriod(t), now, BuildOptions{Itemized: true})
	require.NoError(t, err)
	second, err := BuildInvoice(eng, entries, marchPeriod(t), now, BuildOptions{Itemized: true})
	require.NoError(t, err)

	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
	assert.True(t, first.TotalHours.Equal(second.TotalHours))
	require.Equal(t, len(first.LineItems), len(second.LineItems))
	for i := range first.LineItems {
		assert.True(t, first.LineItems[i].Amount.Equal(second.LineItems[i].Amount))
	}
}

func TestBuildInvoice_InvalidInputs(t *testing.T) {
	eng := hourlyEngagement("150")
	now := dates.NewDate(2025, time.April, 1)

	reversed := dates.Interval{
		Start: dates.NewDate(2025, time.March, 31),
		End:   dates.NewDate(2025, time.March, 1),
	}
	_, err := BuildInvoice(eng, nil, reversed, now, BuildOptions{AllowEmpty: true})
	require.ErrorIs(t, err, dates.ErrInvalidRange)

	bad := hourlyEngagement("0")
	_, err = BuildInvoice(bad, nil, marchPeriod(t), now, BuildOptions{AllowEmpty: true})
	require.Error(t, err)

	negative := entry(1, dates.NewDate(2025, time.March, 3), "4", "a")
	negative.Hours = decimal.RequireFromString("-2")
	_, err = BuildInvoice(eng, []*domain.TimeEntry{negative}, marchPeriod(t), now, BuildOptions{})
	require.Error(t, err)
}
