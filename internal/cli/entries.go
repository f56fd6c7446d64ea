package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/erin/retainer/internal/dates"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage time entries",
	Long:  `List, log, edit, and delete daily time entries.`,
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List time entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Parse filters
		var engagementID *int64
		if cmd.Flags().Changed("engagement") {
			id, _ := cmd.Flags().GetInt64("engagement")
			engagementID = &id
		}

		var period *dates.Interval
		if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
			startStr, _ := cmd.Flags().GetString("start")
			endStr, _ := cmd.Flags().GetString("end")
			p, err := dates.ResolveCustomRange(startStr, endStr)
			if err != nil {
				return fmt.Errorf("invalid date filter: %w", err)
			}
			period = &p
		}

		entries, err := appInstance.EntryService.List(ctx, engagementID, period)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries found")
			return nil
		}

		// Print table header
		fmt.Printf("%-5s %-12s %-12s %-8s %-30s %-8s\n", "ID", "Engagement", "Date", "Hours", "Description", "Status")
		fmt.Println("--------------------------------------------------------------------------------")

		totalHours := decimal.Zero

		// Print entries
		for _, entry := range entries {
			status := "Unbilled"
			if entry.IsLocked() {
				status = "Invoiced"
			}

			fmt.Printf("%-5d %-12d %-12s %-8s %-30s %-8s\n",
				entry.ID,
				entry.EngagementID,
				entry.Date,
				entry.Hours.String(),
				truncate(entry.Description, 30),
				status,
			)

			totalHours = totalHours.Add(entry.Hours)
		}

		fmt.Println("--------------------------------------------------------------------------------")
		fmt.Printf("Total: %d entries, %s hours\n", len(entries), totalHours.String())
		return nil
	},
}

var entriesLogCmd = &cobra.Command{
	Use:   "log [engagement_id] [date] [hours] [description]",
	Short: "Log one day's hours against an engagement",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		engagementID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid engagement ID: %w", err)
		}

		date, err := parseDateArg(args[1])
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}

		hours, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("invalid hours: %w", err)
		}

		description := ""
		if len(args) > 3 {
			description = args[3]
		}

		entry, err := appInstance.EntryService.Log(ctx, engagementID, date, hours, description)
		if err != nil {
			return fmt.Errorf("failed to log entry: %w", err)
		}

		fmt.Printf("✓ Time entry logged (ID: %d)\n", entry.ID)
		fmt.Printf("  Date: %s\n", entry.Date)
		fmt.Printf("  Hours: %s\n", entry.Hours.String())

		return nil
	},
}

var entriesEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a time entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry ID: %w", err)
		}

		entry, err := appInstance.EntryService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		// Update fields if flags provided
		if cmd.Flags().Changed("date") {
			dateStr, _ := cmd.Flags().GetString("date")
			date, err := parseDateArg(dateStr)
			if err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
			entry.Date = date
		}
		if cmd.Flags().Changed("hours") {
			hoursStr, _ := cmd.Flags().GetString("hours")
			hours, err := decimal.NewFromString(hoursStr)
			if err != nil {
				return fmt.Errorf("invalid hours: %w", err)
			}
			entry.Hours = hours
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			entry.Description = description
		}

		reason, _ := cmd.Flags().GetString("reason")
		if reason == "" {
			return fmt.Errorf("--reason flag is required for editing entries")
		}

		if err := appInstance.EntryService.Edit(ctx, entry, reason); err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}

		fmt.Printf("✓ Entry updated (ID: %d)\n", entry.ID)
		return nil
	},
}

var entriesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a time entry (soft delete)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry ID: %w", err)
		}

		reason, _ := cmd.Flags().GetString("reason")
		if reason == "" {
			return fmt.Errorf("--reason flag is required for deleting entries")
		}

		if err := appInstance.EntryService.Delete(ctx, id, reason); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		fmt.Printf("✓ Entry deleted (ID: %d)\n", id)
		return nil
	},
}

var entriesHistoryCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show edit history for an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid entry ID: %w", err)
		}

		history, err := appInstance.EntryService.GetHistory(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get history: %w", err)
		}

		if len(history) == 0 {
			fmt.Println("No edit history for this entry")
			return nil
		}

		fmt.Printf("Edit History for Entry #%d:\n\n", id)
		for _, h := range history {
			fmt.Printf("%s - %s\n", h.ChangedAt.Format("2006-01-02 15:04:05"), h.FieldName)
			if h.ChangeReason != "" {
				fmt.Printf("  Reason: %s\n", h.ChangeReason)
			}
			fmt.Println()
		}

		return nil
	},
}

func init() {
	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesLogCmd)
	entriesCmd.AddCommand(entriesEditCmd)
	entriesCmd.AddCommand(entriesDeleteCmd)
	entriesCmd.AddCommand(entriesHistoryCmd)

	// List flags
	entriesListCmd.Flags().Int64("engagement", 0, "Filter by engagement ID")
	entriesListCmd.Flags().String("start", "", "Filter start date (YYYY-MM-DD)")
	entriesListCmd.Flags().String("end", "", "Filter end date (YYYY-MM-DD)")

	// Edit flags
	entriesEditCmd.Flags().String("date", "", "New date")
	entriesEditCmd.Flags().String("hours", "", "New hours")
	entriesEditCmd.Flags().String("description", "", "New description")
	entriesEditCmd.Flags().String("reason", "", "Reason for edit (required)")

	// Delete flags
	entriesDeleteCmd.Flags().String("reason", "", "Reason for deletion (required)")
}

// parseDateArg parses a date argument, accepting YYYY-MM-DD plus the 'today'
// and 'yesterday' shorthands.
func parseDateArg(s string) (dates.Date, error) {
	today := dates.DateOf(appInstance.Clock.Now())
	switch s {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	default:
		return dates.ParseDate(s)
	}
}
