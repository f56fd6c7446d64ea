package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erin/retainer/internal/billing"
	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	Long:  `Generate, list, and manage invoices.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Parse filters
		var engagementID *int64
		if cmd.Flags().Changed("engagement") {
			id, _ := cmd.Flags().GetInt64("engagement")
			engagementID = &id
		}

		var status *domain.InvoiceStatus
		if cmd.Flags().Changed("status") {
			statusStr, _ := cmd.Flags().GetString("status")
			s := domain.InvoiceStatus(statusStr)
			status = &s
		}

		invoices, err := appInstance.InvoiceService.ListInvoices(ctx, engagementID, status)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		if len(invoices) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		// Print table header
		fmt.Printf("%-5s %-15s %-23s %-12s %-12s %-10s\n", "ID", "Number", "Period", "Due", "Total", "Status")
		fmt.Println("--------------------------------------------------------------------------------------")

		// Print invoices
		for _, invoice := range invoices {
			period := fmt.Sprintf("%s - %s", invoice.PeriodStart, invoice.PeriodEnd)

			fmt.Printf("%-5d %-15s %-23s %-12s $%-11s %-10s\n",
				invoice.ID,
				invoice.InvoiceNumber,
				truncate(period, 23),
				invoice.DueDate,
				invoice.TotalAmount.StringFixed(2),
				invoice.Status,
			)
		}

		fmt.Printf("\nTotal: %d invoice(s)\n", len(invoices))
		return nil
	},
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create [engagement_id]",
	Short: "Generate an invoice for an engagement",
	Long: `Generate an invoice for an engagement over a billing period.

The period is a named range (--range) or explicit bounds (--start/--end).
Hourly engagements bill their unbilled entries in the period; fixed-fee
engagements bill the flat fee. At most one invoice exists per engagement
and period.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		engagementID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid engagement ID: %w", err)
		}

		var period dates.Interval
		if cmd.Flags().Changed("range") {
			rangeStr, _ := cmd.Flags().GetString("range")
			period, err = resolveRangeFlag(cmd, rangeStr)
		} else {
			startStr, _ := cmd.Flags().GetString("start")
			endStr, _ := cmd.Flags().GetString("end")
			period, err = dates.ResolveCustomRange(startStr, endStr)
		}
		if err != nil {
			return fmt.Errorf("invalid billing period: %w", err)
		}

		opts := billing.BuildOptions{
			Itemized:   appInstance.Config.Invoice.Itemized,
			AllowEmpty: appInstance.Config.Invoice.AllowEmpty,
		}
		if cmd.Flags().Changed("itemized") {
			opts.Itemized, _ = cmd.Flags().GetBool("itemized")
		}
		if cmd.Flags().Changed("allow-empty") {
			opts.AllowEmpty, _ = cmd.Flags().GetBool("allow-empty")
		}

		invoice, err := appInstance.InvoiceService.Generate(ctx, engagementID, period, opts)
		if err != nil {
			return fmt.Errorf("failed to generate invoice: %w", err)
		}

		fmt.Printf("✓ Invoice generated: %s\n", invoice.InvoiceNumber)
		fmt.Printf("  Period: %s to %s\n", invoice.PeriodStart, invoice.PeriodEnd)
		fmt.Printf("  Due: %s\n", invoice.DueDate)
		fmt.Printf("  Total: $%s\n", invoice.TotalAmount.StringFixed(2))

		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id_or_number]",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var invoice *domain.Invoice
		if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			invoice, err = appInstance.InvoiceService.GetInvoice(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get invoice: %w", err)
			}
		} else {
			invoice, err = appInstance.InvoiceService.GetByNumber(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get invoice: %w", err)
			}
		}

		// Resolve the engagement for display
		projectName := fmt.Sprintf("Engagement #%d", invoice.EngagementID)
		if eng, _ := appInstance.EngagementRepo.GetByID(ctx, invoice.EngagementID); eng != nil {
			projectName = eng.Project
		}

		// Print invoice details
		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("Invoice: %s\n", invoice.InvoiceNumber)
		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("Engagement: %s\n", projectName)
		fmt.Printf("Period: %s to %s\n", invoice.PeriodStart, invoice.PeriodEnd)
		fmt.Printf("Issued: %s   Due: %s\n", invoice.IssueDate, invoice.DueDate)
		fmt.Printf("Status: %s\n", invoice.Status)
		if invoice.PaidDate != nil {
			fmt.Printf("Paid: %s\n", *invoice.PaidDate)
		}
		fmt.Println()

		// Print line items
		if len(invoice.LineItems) > 0 {
			fmt.Println("Line Items:")
			fmt.Println(strings.Repeat("-", 80))
			fmt.Printf("%-45s %-8s %-10s %s\n", "Description", "Hours", "Rate", "Amount")
			fmt.Println(strings.Repeat("-", 80))

			for _, item := range invoice.LineItems {
				fmt.Printf("%-45s %8s $%9s $%9s\n",
					truncate(item.Description, 45),
					item.Hours.String(),
					item.Rate.StringFixed(2),
					item.Amount.StringFixed(2),
				)
			}
			fmt.Println(strings.Repeat("-", 80))
		}

		// Print totals
		fmt.Printf("\n")
		fmt.Printf("Total Hours: %s\n", invoice.TotalHours.String())
		fmt.Printf("Total: $%s\n", invoice.TotalAmount.StringFixed(2))
		fmt.Println(strings.Repeat("=", 80))

		return nil
	},
}

var invoicesMarkPaidCmd = &cobra.Command{
	Use:   "mark-paid [id]",
	Short: "Mark an invoice as paid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid invoice ID: %w", err)
		}

		// Parse paid date
		paidDate := dates.DateOf(appInstance.Clock.Now())
		if cmd.Flags().Changed("date") {
			dateStr, _ := cmd.Flags().GetString("date")
			paidDate, err = parseDateArg(dateStr)
			if err != nil {
				return fmt.Errorf("invalid paid date: %w", err)
			}
		}

		if err := appInstance.InvoiceService.MarkPaid(ctx, id, paidDate); err != nil {
			return fmt.Errorf("failed to mark invoice as paid: %w", err)
		}

		fmt.Printf("✓ Invoice #%d marked as paid on %s\n", id, paidDate)
		return nil
	},
}

var invoicesSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Flip submitted invoices past their due date to overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		transitions, err := appInstance.InvoiceService.SweepOverdue(ctx)
		if err != nil {
			return fmt.Errorf("failed to sweep invoices: %w", err)
		}

		if len(transitions) == 0 {
			fmt.Println("No invoices are overdue")
			return nil
		}

		for _, tr := range transitions {
			fmt.Printf("✓ Invoice #%d is now %s\n", tr.InvoiceID, tr.Status)
		}
		fmt.Printf("\nTotal: %d invoice(s) marked overdue\n", len(transitions))

		return nil
	},
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesMarkPaidCmd)
	invoicesCmd.AddCommand(invoicesSweepCmd)

	// List flags
	invoicesListCmd.Flags().Int64("engagement", 0, "Filter by engagement ID")
	invoicesListCmd.Flags().String("status", "", "Filter by status (submitted, paid, overdue)")

	// Create flags
	invoicesCreateCmd.Flags().String("range", "", "Billing period keyword (thisMonth, lastYear, ...)")
	invoicesCreateCmd.Flags().String("start", "", "Period start date")
	invoicesCreateCmd.Flags().String("end", "", "Period end date")
	invoicesCreateCmd.Flags().Bool("itemized", false, "One line item per entry")
	invoicesCreateCmd.Flags().Bool("allow-empty", false, "Permit a zero-amount invoice")

	// Mark paid flags
	invoicesMarkPaidCmd.Flags().String("date", "", "Payment date (defaults to today)")
}
