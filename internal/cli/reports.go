package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/erin/retainer/internal/dates"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Billing reports",
	Long:  `Range summaries, outstanding and unbilled totals, and revenue breakdowns.`,
}

var reportsSummaryCmd = &cobra.Command{
	Use:   "summary [range]",
	Short: "Hours and value over a named range",
	Long: `Summarize logged hours and billable value per engagement over a range.

The range is one of: today, thisWeek, thisMonth, thisQuarter, thisYear,
lastYear, trailing3Months, trailing6Months, trailing12Months, allTime, or
custom (with --start and --end).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		period, err := resolveRangeFlag(cmd, args[0])
		if err != nil {
			return err
		}

		summary, err := appInstance.ReportService.GetIntervalSummary(ctx, period)
		if err != nil {
			return fmt.Errorf("failed to build summary: %w", err)
		}

		if summary.Period.IsUnbounded() {
			fmt.Println("Summary: all time")
		} else {
			fmt.Printf("Summary: %s\n", summary.Period)
		}
		fmt.Println()

		if len(summary.ByEngagement) == 0 {
			fmt.Println("No entries in range")
			return nil
		}

		fmt.Printf("%-5s %-30s %-10s %-12s %-12s\n", "ID", "Project", "Hours", "Value", "Unbilled")
		fmt.Println("---------------------------------------------------------------------------")
		for _, es := range summary.ByEngagement {
			fmt.Printf("%-5d %-30s %-10s $%-11s $%-11s\n",
				es.EngagementID,
				truncate(es.Project, 30),
				es.Hours.String(),
				es.Value.StringFixed(2),
				es.Unbilled.StringFixed(2),
			)
		}
		fmt.Println("---------------------------------------------------------------------------")
		fmt.Printf("Total: %s hours, $%s\n", summary.TotalHours.String(), summary.TotalValue.StringFixed(2))

		return nil
	},
}

var reportsOutstandingCmd = &cobra.Command{
	Use:   "outstanding",
	Short: "Total of unpaid invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		total, err := appInstance.ReportService.GetOutstandingTotal(ctx)
		if err != nil {
			return fmt.Errorf("failed to get outstanding total: %w", err)
		}

		fmt.Printf("Outstanding (submitted + overdue): $%s\n", total.StringFixed(2))
		return nil
	},
}

var reportsUnbilledCmd = &cobra.Command{
	Use:   "unbilled",
	Short: "Value of hourly work not yet invoiced",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		total, err := appInstance.ReportService.GetUnbilledTotal(ctx)
		if err != nil {
			return fmt.Errorf("failed to get unbilled total: %w", err)
		}

		fmt.Printf("Unbilled work: $%s\n", total.StringFixed(2))
		return nil
	},
}

var reportsRevenueCmd = &cobra.Command{
	Use:   "revenue [year]",
	Short: "Paid revenue by month for a year",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		year := dates.DateOf(appInstance.Clock.Now()).Year()
		if len(args) > 0 {
			var err error
			year, err = strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year: %w", err)
			}
		}

		revenue, err := appInstance.ReportService.GetRevenueByMonth(ctx, year)
		if err != nil {
			return fmt.Errorf("failed to get revenue: %w", err)
		}

		fmt.Printf("Revenue for %d:\n\n", year)
		for m := time.January; m <= time.December; m++ {
			fmt.Printf("  %-10s $%s\n", m.String(), revenue[m].StringFixed(2))
		}

		return nil
	},
}

func init() {
	reportsCmd.AddCommand(reportsSummaryCmd)
	reportsCmd.AddCommand(reportsOutstandingCmd)
	reportsCmd.AddCommand(reportsUnbilledCmd)
	reportsCmd.AddCommand(reportsRevenueCmd)

	// Summary flags for the custom range
	reportsSummaryCmd.Flags().String("start", "", "Custom range start (with 'custom')")
	reportsSummaryCmd.Flags().String("end", "", "Custom range end (with 'custom')")
}
