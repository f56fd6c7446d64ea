package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/erin/retainer/internal/app"
	"github.com/erin/retainer/internal/billing"
	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

type invoiceViewMode int

const (
	invoiceViewList invoiceViewMode = iota
	invoiceViewDetail
)

// InvoicesModel displays invoices in list and detail views
type InvoicesModel struct {
	app      *app.App
	mode     invoiceViewMode
	invoices []*domain.Invoice
	cursor   int
	selected *domain.Invoice

	loading   bool
	err       error
	statusMsg string
}

type invoicesDataMsg struct {
	invoices []*domain.Invoice
	err      error
}

type invoiceDetailMsg struct {
	invoice *domain.Invoice
	err     error
}

type invoicePaidMsg struct {
	invoiceID int64
	err       error
}

type sweepDoneMsg struct {
	transitions []billing.Transition
	err         error
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(a *app.App) tea.Model {
	return &InvoicesModel{
		app:     a,
		mode:    invoiceViewList,
		loading: true,
	}
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		invoices, err := m.app.InvoiceService.ListInvoices(ctx, nil, nil)
		if err != nil {
			return invoicesDataMsg{err: err}
		}
		return invoicesDataMsg{invoices: invoices}
	}
}

func (m *InvoicesModel) loadDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		invoice, err := m.app.InvoiceService.GetInvoice(ctx, id)
		if err != nil {
			return invoiceDetailMsg{err: err}
		}
		return invoiceDetailMsg{invoice: invoice}
	}
}

func (m *InvoicesModel) markPaid(id int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		paidDate := dates.DateOf(m.app.Clock.Now())
		if err := m.app.InvoiceService.MarkPaid(ctx, id, paidDate); err != nil {
			return invoicePaidMsg{invoiceID: id, err: err}
		}
		return invoicePaidMsg{invoiceID: id}
	}
}

func (m *InvoicesModel) sweep() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		transitions, err := m.app.InvoiceService.SweepOverdue(ctx)
		return sweepDoneMsg{transitions: transitions, err: err}
	}
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case invoicesDataMsg:
		m.loading = false
		m.err = msg.err
		m.invoices = msg.invoices
		if m.cursor >= len(m.invoices) {
			m.cursor = 0
		}
		return m, nil

	case invoiceDetailMsg:
		m.loading = false
		m.err = msg.err
		if msg.invoice != nil {
			m.selected = msg.invoice
			m.mode = invoiceViewDetail
		}
		return m, nil

	case invoicePaidMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Invoice #%d marked paid", msg.invoiceID)
		m.loading = true
		m.mode = invoiceViewList
		return m, m.loadInvoices()

	case sweepDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if len(msg.transitions) == 0 {
			m.statusMsg = "No invoices are overdue"
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("%d invoice(s) marked overdue", len(msg.transitions))
		m.loading = true
		return m, m.loadInvoices()

	case RefreshDataMsg:
		m.loading = true
		m.mode = invoiceViewList
		m.statusMsg = ""
		return m, m.loadInvoices()

	case tea.KeyMsg:
		m.statusMsg = ""
		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.mode == invoiceViewList && m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.mode == invoiceViewList && m.cursor < len(m.invoices)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.Select):
			if m.mode == invoiceViewList && len(m.invoices) > 0 {
				m.loading = true
				return m, m.loadDetail(m.invoices[m.cursor].ID)
			}
		case key.Matches(msg, DefaultKeyMap.Paid):
			if m.mode == invoiceViewList && len(m.invoices) > 0 {
				inv := m.invoices[m.cursor]
				if inv.IsOutstanding() {
					return m, m.markPaid(inv.ID)
				}
				m.statusMsg = "Invoice is already paid"
			} else if m.mode == invoiceViewDetail && m.selected != nil && m.selected.IsOutstanding() {
				return m, m.markPaid(m.selected.ID)
			}
		case key.Matches(msg, DefaultKeyMap.Sweep):
			if m.mode == invoiceViewList {
				return m, m.sweep()
			}
		case key.Matches(msg, DefaultKeyMap.Back):
			if m.mode == invoiceViewDetail {
				m.mode = invoiceViewList
				m.selected = nil
			}
		}
	}

	return m, nil
}

func (m *InvoicesModel) View() string {
	if m.loading {
		return "Loading invoices..."
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	}

	if m.mode == invoiceViewDetail && m.selected != nil {
		return m.renderDetail()
	}
	return m.renderList()
}

func (m *InvoicesModel) renderList() string {
	var s string
	if len(m.invoices) == 0 {
		s = subtitleStyle.Render("  No invoices yet")
	} else {
		s = fmt.Sprintf("  %-4s %-15s %-24s %-12s %-12s %-10s\n", "ID", "Number", "Period", "Due", "Total", "Status")

		for i, inv := range m.invoices {
			line := fmt.Sprintf("  %-4d %-15s %-24s %-12s %-12s %-10s",
				inv.ID,
				inv.InvoiceNumber,
				fmt.Sprintf("%s - %s", inv.PeriodStart, inv.PeriodEnd),
				inv.DueDate,
				formatMoney(inv.TotalAmount),
				inv.Status,
			)
			switch {
			case i == m.cursor:
				line = selectedStyle.Render(line)
			case inv.Status == domain.InvoiceStatusOverdue:
				line = statusOverdueStyle.Render(line)
			case inv.Status == domain.InvoiceStatusPaid:
				line = statusPaidStyle.Render(line)
			}
			s += line + "\n"
		}

		s += "\n" + subtitleStyle.Render("  enter: detail   p: mark paid   s: sweep overdue")
	}

	if m.statusMsg != "" {
		s += "\n" + statusPaidStyle.Render("  "+m.statusMsg)
	}
	return s
}

func (m *InvoicesModel) renderDetail() string {
	inv := m.selected

	s := titleStyle.Render(fmt.Sprintf("  Invoice %s", inv.InvoiceNumber)) + "\n\n"
	s += fmt.Sprintf("  Period: %s to %s\n", inv.PeriodStart, inv.PeriodEnd)
	s += fmt.Sprintf("  Issued: %s   Due: %s\n", inv.IssueDate, inv.DueDate)
	s += fmt.Sprintf("  Status: %s\n", inv.Status)
	if inv.PaidDate != nil {
		s += fmt.Sprintf("  Paid: %s\n", *inv.PaidDate)
	}
	s += "\n"

	if len(inv.LineItems) > 0 {
		s += fmt.Sprintf("  %-40s %8s %10s %10s\n", "Description", "Hours", "Rate", "Amount")
		s += "  " + strings.Repeat("-", 72) + "\n"
		for _, item := range inv.LineItems {
			s += fmt.Sprintf("  %-40s %8s %10s %10s\n",
				truncateStr(item.Description, 40),
				item.Hours.String(),
				formatMoney(item.Rate),
				formatMoney(item.Amount),
			)
		}
		s += "  " + strings.Repeat("-", 72) + "\n"
	}

	s += fmt.Sprintf("\n  Total Hours: %s\n", inv.TotalHours.String())
	s += fmt.Sprintf("  Total: %s\n", valueStyle.Render(formatMoney(inv.TotalAmount)))

	s += "\n" + subtitleStyle.Render("  p: mark paid   esc: back")
	return s
}
