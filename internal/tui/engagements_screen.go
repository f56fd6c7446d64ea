package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/erin/retainer/internal/app"
	"github.com/erin/retainer/internal/domain"
)

type engagementViewMode int

const (
	engagementViewList engagementViewMode = iota
	engagementViewDetail
)

// EngagementsModel displays engagements in list and detail views
type EngagementsModel struct {
	app      *app.App
	mode     engagementViewMode
	rows     []*domain.Engagement
	cursor   int
	selected *domain.Engagement

	// Detail data
	entries       []*domain.TimeEntry
	unbilledValue decimal.Decimal

	loading bool
	err     error
}

type engagementsDataMsg struct {
	rows []*domain.Engagement
	err  error
}

type engagementDetailMsg struct {
	entries       []*domain.TimeEntry
	unbilledValue decimal.Decimal
	err           error
}

// NewEngagementsModel creates a new engagements screen model
func NewEngagementsModel(a *app.App) tea.Model {
	return &EngagementsModel{
		app:     a,
		mode:    engagementViewList,
		loading: true,
	}
}

func (m *EngagementsModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *EngagementsModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		rows, err := m.app.EngagementService.List(ctx, nil)
		if err != nil {
			return engagementsDataMsg{err: err}
		}
		return engagementsDataMsg{rows: rows}
	}
}

func (m *EngagementsModel) loadDetail(eng *domain.Engagement) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		period := eng.Period()
		entries, err := m.app.EntryService.List(ctx, &eng.ID, &period)
		if err != nil {
			return engagementDetailMsg{err: err}
		}

		unbilled := decimal.Zero
		if eng.BillingMode == domain.BillingModeHourly {
			for _, entry := range entries {
				if !entry.IsLocked() {
					unbilled = unbilled.Add(entry.Hours.Mul(eng.HourlyRate))
				}
			}
		}

		return engagementDetailMsg{entries: entries, unbilledValue: unbilled}
	}
}

func (m *EngagementsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case engagementsDataMsg:
		m.loading = false
		m.err = msg.err
		m.rows = msg.rows
		if m.cursor >= len(m.rows) {
			m.cursor = 0
		}
		return m, nil

	case engagementDetailMsg:
		m.loading = false
		m.err = msg.err
		m.entries = msg.entries
		m.unbilledValue = msg.unbilledValue
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		m.mode = engagementViewList
		return m, m.loadData()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.mode == engagementViewList && m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.mode == engagementViewList && m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.Select):
			if m.mode == engagementViewList && len(m.rows) > 0 {
				m.selected = m.rows[m.cursor]
				m.mode = engagementViewDetail
				m.loading = true
				return m, m.loadDetail(m.selected)
			}
		case key.Matches(msg, DefaultKeyMap.Back):
			if m.mode == engagementViewDetail {
				m.mode = engagementViewList
				m.selected = nil
			}
		}
	}

	return m, nil
}

func (m *EngagementsModel) View() string {
	if m.loading {
		return "Loading engagements..."
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	}

	if m.mode == engagementViewDetail && m.selected != nil {
		return m.renderDetail()
	}
	return m.renderList()
}

func (m *EngagementsModel) renderList() string {
	if len(m.rows) == 0 {
		return subtitleStyle.Render("  No engagements yet")
	}

	s := fmt.Sprintf("  %-4s %-25s %-24s %-10s %-10s\n", "ID", "Project", "Period", "Mode", "Status")

	for i, eng := range m.rows {
		line := fmt.Sprintf("  %-4d %-25s %-24s %-10s %-10s",
			eng.ID,
			truncateStr(eng.Project, 25),
			fmt.Sprintf("%s - %s", eng.StartDate, eng.EndDate),
			eng.BillingMode,
			eng.Status,
		)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		} else if eng.Status == domain.EngagementStatusActive {
			line = statusActiveStyle.Render(line)
		}
		s += line + "\n"
	}

	s += "\n" + subtitleStyle.Render("  enter: detail")
	return s
}

func (m *EngagementsModel) renderDetail() string {
	eng := m.selected

	s := titleStyle.Render(fmt.Sprintf("  %s", eng.Project)) + "\n\n"
	s += fmt.Sprintf("  Period: %s to %s   Status: %s\n", eng.StartDate, eng.EndDate, eng.Status)
	if eng.BillingMode == domain.BillingModeHourly {
		s += fmt.Sprintf("  Hourly Rate: %s   Unbilled: %s\n", formatMoney(eng.HourlyRate), valueStyle.Render(formatMoney(m.unbilledValue)))
	} else {
		s += fmt.Sprintf("  Fixed Fee: %s\n", formatMoney(eng.FixedFee))
	}
	s += fmt.Sprintf("  Net Terms: %d days\n\n", eng.NetTermsDays)

	s += "  Entries\n"
	if len(m.entries) == 0 {
		s += subtitleStyle.Render("  No entries logged") + "\n"
	} else {
		totalHours := decimal.Zero
		limit := 10
		if len(m.entries) < limit {
			limit = len(m.entries)
		}
		for i := 0; i < limit; i++ {
			entry := m.entries[i]
			status := ""
			if entry.IsLocked() {
				status = subtitleStyle.Render("invoiced")
			}
			s += fmt.Sprintf("  %-12s %6s  %-30s %s\n",
				entry.Date,
				formatHours(entry.Hours),
				truncateStr(entry.Description, 30),
				status,
			)
		}
		for _, entry := range m.entries {
			totalHours = totalHours.Add(entry.Hours)
		}
		s += fmt.Sprintf("\n  Total: %d entries, %s\n", len(m.entries), formatHours(totalHours))
	}

	s += "\n" + subtitleStyle.Render("  esc: back")
	return s
}
