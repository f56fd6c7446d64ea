package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/app"
	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
	"github.com/erin/retainer/internal/service"
)

// DashboardModel represents the dashboard home screen
type DashboardModel struct {
	app *app.App

	// Data
	monthSummary *service.RangeSummary
	outstanding  decimal.Decimal
	unbilled     decimal.Decimal
	activeTimer  *domain.ActiveTimer
	timerProject string
	overdue      []*domain.Invoice

	loading bool
	err     error
}

type dashboardDataMsg struct {
	monthSummary *service.RangeSummary
	outstanding  decimal.Decimal
	unbilled     decimal.Decimal
	activeTimer  *domain.ActiveTimer
	timerProject string
	overdue      []*domain.Invoice
	err          error
}

// TimerTickMsg drives the live elapsed display
type TimerTickMsg time.Time

func tickTimer() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TimerTickMsg(t)
	})
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(a *app.App) tea.Model {
	return &DashboardModel{
		app:     a,
		loading: true,
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *DashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		msg := dashboardDataMsg{}

		// This month's activity
		summary, err := m.app.ReportService.GetRangeSummary(ctx, dates.RangeThisMonth)
		if err != nil {
			msg.err = fmt.Errorf("month summary: %w", err)
			return msg
		}
		msg.monthSummary = summary

		// Financial totals
		msg.outstanding, _ = m.app.ReportService.GetOutstandingTotal(ctx)
		msg.unbilled, _ = m.app.ReportService.GetUnbilledTotal(ctx)

		// Active timer
		activeTimer, err := m.app.TimerService.GetActiveTimer(ctx)
		if err == nil && activeTimer != nil {
			msg.activeTimer = activeTimer
			if eng, err := m.app.EngagementRepo.GetByID(ctx, activeTimer.EngagementID); err == nil && eng != nil {
				msg.timerProject = eng.Project
			}
		}

		// Overdue invoices
		overdueStatus := domain.InvoiceStatusOverdue
		overdue, err := m.app.InvoiceService.ListInvoices(ctx, nil, &overdueStatus)
		if err == nil {
			msg.overdue = overdue
		}

		return msg
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.monthSummary = msg.monthSummary
		m.outstanding = msg.outstanding
		m.unbilled = msg.unbilled
		m.activeTimer = msg.activeTimer
		m.timerProject = msg.timerProject
		m.overdue = msg.overdue
		if m.activeTimer != nil {
			return m, tickTimer()
		}
		return m, nil

	case TimerTickMsg:
		if m.activeTimer != nil {
			return m, tickTimer()
		}
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()
	}

	return m, nil
}

func (m *DashboardModel) View() string {
	if m.loading {
		return "Loading dashboard..."
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	}

	var s string

	// Summary box
	monthHours := decimal.Zero
	monthValue := decimal.Zero
	if m.monthSummary != nil {
		monthHours = m.monthSummary.TotalHours
		monthValue = m.monthSummary.TotalValue
	}
	s += fmt.Sprintf(
		"  This Month:  %-12s  Value:        %s\n  Unbilled:    %-12s  Outstanding:  %s\n",
		formatHours(monthHours),
		formatMoney(monthValue),
		formatMoney(m.unbilled),
		formatMoney(m.outstanding),
	)

	// Active timer
	s += "\n"
	if m.activeTimer != nil {
		s += m.renderActiveTimer()
	} else {
		s += subtitleStyle.Render("  No active timer") + "\n"
	}

	// Overdue invoices
	s += "\n" + m.renderOverdue()

	return s
}

func (m *DashboardModel) renderActiveTimer() string {
	project := m.timerProject
	if project == "" {
		project = fmt.Sprintf("Engagement #%d", m.activeTimer.EngagementID)
	}

	elapsed := m.activeTimer.Elapsed()
	h := int(elapsed.Hours())
	min := int(elapsed.Minutes()) % 60
	sec := int(elapsed.Seconds()) % 60
	timeStr := fmt.Sprintf("%02d:%02d:%02d", h, min, sec)

	stateStyle := statusActiveStyle
	if m.activeTimer.State() == domain.TimerStatePaused {
		stateStyle = lipgloss.NewStyle().Bold(true).Foreground(warningColor)
	}

	return fmt.Sprintf("  Active Timer\n  %s %s - %s  [%s]\n",
		stateStyle.Render("●"),
		project,
		m.activeTimer.Description,
		valueStyle.Render(timeStr),
	)
}

func (m *DashboardModel) renderOverdue() string {
	header := "  Overdue Invoices\n"
	if len(m.overdue) == 0 {
		return header + subtitleStyle.Render("  Nothing overdue") + "\n"
	}

	s := header
	limit := 8
	if len(m.overdue) < limit {
		limit = len(m.overdue)
	}

	for i := 0; i < limit; i++ {
		inv := m.overdue[i]
		s += fmt.Sprintf("  %-15s due %-12s %s\n",
			inv.InvoiceNumber,
			inv.DueDate,
			statusOverdueStyle.Render(formatMoney(inv.TotalAmount)),
		)
	}

	return s
}
