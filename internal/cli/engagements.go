package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/erin/retainer/internal/dates"
	"github.com/erin/retainer/internal/domain"
)

var engagementsCmd = &cobra.Command{
	Use:   "engagements",
	Short: "Manage engagements",
	Long:  `List, add, edit, and delete client engagements.`,
}

var engagementsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List engagements",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Parse filters
		var clientID *int64
		if cmd.Flags().Changed("client") {
			id, _ := cmd.Flags().GetInt64("client")
			clientID = &id
		}

		var engagements []*domain.Engagement
		var err error

		if cmd.Flags().Changed("range") {
			rangeStr, _ := cmd.Flags().GetString("range")
			period, rErr := resolveRangeFlag(cmd, rangeStr)
			if rErr != nil {
				return rErr
			}
			engagements, err = appInstance.EngagementService.ListInRange(ctx, clientID, period)
		} else {
			engagements, err = appInstance.EngagementService.List(ctx, clientID)
		}
		if err != nil {
			return fmt.Errorf("failed to list engagements: %w", err)
		}

		if len(engagements) == 0 {
			fmt.Println("No engagements found")
			return nil
		}

		// Print table header
		fmt.Printf("%-5s %-25s %-23s %-10s %-12s %-10s\n", "ID", "Project", "Period", "Mode", "Rate/Fee", "Status")
		fmt.Println("--------------------------------------------------------------------------------------------")

		// Print engagements
		for _, eng := range engagements {
			rateOrFee := eng.HourlyRate
			if eng.BillingMode == domain.BillingModeFixedFee {
				rateOrFee = eng.FixedFee
			}

			fmt.Printf("%-5d %-25s %-23s %-10s $%-11s %-10s\n",
				eng.ID,
				truncate(eng.Project, 25),
				fmt.Sprintf("%s - %s", eng.StartDate, eng.EndDate),
				eng.BillingMode,
				rateOrFee.StringFixed(2),
				eng.Status,
			)
		}

		fmt.Printf("\nTotal: %d engagement(s)\n", len(engagements))
		return nil
	},
}

var engagementsAddCmd = &cobra.Command{
	Use:   "add [client_id_or_name] [project]",
	Short: "Add a new engagement",
	Long: `Add a new engagement for a client.

Exactly one of --rate (hourly) or --fee (fixed fee) must be given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Resolve client
		clientID, err := resolveClientID(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve client: %w", err)
		}
		project := args[1]

		// Parse dates
		startStr, _ := cmd.Flags().GetString("start")
		endStr, _ := cmd.Flags().GetString("end")

		start, err := dates.ParseDate(startStr)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		end, err := dates.ParseDate(endStr)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}

		hasRate := cmd.Flags().Changed("rate")
		hasFee := cmd.Flags().Changed("fee")
		if hasRate == hasFee {
			return fmt.Errorf("exactly one of --rate or --fee is required")
		}

		var eng *domain.Engagement
		if hasRate {
			rateStr, _ := cmd.Flags().GetString("rate")
			rate, err := decimal.NewFromString(rateStr)
			if err != nil {
				return fmt.Errorf("invalid rate: %w", err)
			}
			eng, err = appInstance.EngagementService.CreateHourly(ctx, clientID, project, start, end, rate)
			if err != nil {
				return fmt.Errorf("failed to create engagement: %w", err)
			}
		} else {
			feeStr, _ := cmd.Flags().GetString("fee")
			fee, err := decimal.NewFromString(feeStr)
			if err != nil {
				return fmt.Errorf("invalid fee: %w", err)
			}
			eng, err = appInstance.EngagementService.CreateFixedFee(ctx, clientID, project, start, end, fee)
			if err != nil {
				return fmt.Errorf("failed to create engagement: %w", err)
			}
		}

		// Per-engagement override of the configured payment window
		if cmd.Flags().Changed("net-terms") {
			netTerms, _ := cmd.Flags().GetInt("net-terms")
			eng.NetTermsDays = netTerms
			if err := appInstance.EngagementService.Update(ctx, eng); err != nil {
				return fmt.Errorf("failed to set net terms: %w", err)
			}
		}

		fmt.Printf("✓ Engagement created: %s (ID: %d)\n", eng.Project, eng.ID)
		fmt.Printf("  Period: %s to %s\n", eng.StartDate, eng.EndDate)
		fmt.Printf("  Net Terms: %d days\n", eng.NetTermsDays)
		fmt.Printf("  Status: %s\n", eng.Status)

		return nil
	},
}

var engagementsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show engagement details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid engagement ID: %w", err)
		}

		eng, err := appInstance.EngagementService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get engagement: %w", err)
		}

		clientName := fmt.Sprintf("Client #%d", eng.ClientID)
		if client, _ := appInstance.ClientRepo.GetByID(ctx, eng.ClientID); client != nil {
			clientName = client.Name
		}

		fmt.Printf("Engagement: %s (ID: %d)\n", eng.Project, eng.ID)
		fmt.Printf("  Client: %s\n", clientName)
		fmt.Printf("  Period: %s to %s\n", eng.StartDate, eng.EndDate)
		fmt.Printf("  Status: %s\n", eng.Status)
		if eng.BillingMode == domain.BillingModeHourly {
			fmt.Printf("  Hourly Rate: $%s\n", eng.HourlyRate.StringFixed(2))
		} else {
			fmt.Printf("  Fixed Fee: $%s\n", eng.FixedFee.StringFixed(2))
		}
		fmt.Printf("  Net Terms: %d days\n", eng.NetTermsDays)

		return nil
	},
}

var engagementsEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit an existing engagement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid engagement ID: %w", err)
		}

		eng, err := appInstance.EngagementService.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get engagement: %w", err)
		}

		// Update fields if flags provided
		if cmd.Flags().Changed("project") {
			project, _ := cmd.Flags().GetString("project")
			eng.Project = project
		}
		if cmd.Flags().Changed("start") {
			startStr, _ := cmd.Flags().GetString("start")
			start, err := dates.ParseDate(startStr)
			if err != nil {
				return fmt.Errorf("invalid start date: %w", err)
			}
			eng.StartDate = start
		}
		if cmd.Flags().Changed("end") {
			endStr, _ := cmd.Flags().GetString("end")
			end, err := dates.ParseDate(endStr)
			if err != nil {
				return fmt.Errorf("invalid end date: %w", err)
			}
			eng.EndDate = end
		}
		if cmd.Flags().Changed("rate") {
			rateStr, _ := cmd.Flags().GetString("rate")
			rate, err := decimal.NewFromString(rateStr)
			if err != nil {
				return fmt.Errorf("invalid rate: %w", err)
			}
			eng.HourlyRate = rate
		}
		if cmd.Flags().Changed("fee") {
			feeStr, _ := cmd.Flags().GetString("fee")
			fee, err := decimal.NewFromString(feeStr)
			if err != nil {
				return fmt.Errorf("invalid fee: %w", err)
			}
			eng.FixedFee = fee
		}
		if cmd.Flags().Changed("net-terms") {
			netTerms, _ := cmd.Flags().GetInt("net-terms")
			eng.NetTermsDays = netTerms
		}

		if err := appInstance.EngagementService.Update(ctx, eng); err != nil {
			return fmt.Errorf("failed to update engagement: %w", err)
		}

		fmt.Printf("✓ Engagement updated: %s\n", eng.Project)
		return nil
	},
}

var engagementsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an engagement without invoices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid engagement ID: %w", err)
		}

		if err := appInstance.EngagementService.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete engagement: %w", err)
		}

		fmt.Printf("✓ Engagement deleted (ID: %d)\n", id)
		return nil
	},
}

func init() {
	engagementsCmd.AddCommand(engagementsListCmd)
	engagementsCmd.AddCommand(engagementsAddCmd)
	engagementsCmd.AddCommand(engagementsShowCmd)
	engagementsCmd.AddCommand(engagementsEditCmd)
	engagementsCmd.AddCommand(engagementsDeleteCmd)

	// List flags
	engagementsListCmd.Flags().Int64("client", 0, "Filter by client ID")
	engagementsListCmd.Flags().String("range", "", "Filter by range keyword (today, thisWeek, thisMonth, ...)")
	engagementsListCmd.Flags().String("start", "", "Custom range start (with --range custom)")
	engagementsListCmd.Flags().String("end", "", "Custom range end (with --range custom)")

	// Add flags
	engagementsAddCmd.Flags().String("start", "", "Start date YYYY-MM-DD (required)")
	engagementsAddCmd.Flags().String("end", "", "End date YYYY-MM-DD (required)")
	engagementsAddCmd.Flags().String("rate", "", "Hourly rate (for hourly engagements)")
	engagementsAddCmd.Flags().String("fee", "", "Fixed fee (for fixed-fee engagements)")
	engagementsAddCmd.Flags().Int("net-terms", 0, "Net payment terms in days (default from config)")
	engagementsAddCmd.MarkFlagRequired("start")
	engagementsAddCmd.MarkFlagRequired("end")

	// Edit flags
	engagementsEditCmd.Flags().String("project", "", "New project name")
	engagementsEditCmd.Flags().String("start", "", "New start date")
	engagementsEditCmd.Flags().String("end", "", "New end date")
	engagementsEditCmd.Flags().String("rate", "", "New hourly rate")
	engagementsEditCmd.Flags().String("fee", "", "New fixed fee")
	engagementsEditCmd.Flags().Int("net-terms", 0, "New net payment terms in days")
}

// resolveRangeFlag turns a --range keyword (plus --start/--end for custom)
// into a concrete interval.
func resolveRangeFlag(cmd *cobra.Command, key string) (dates.Interval, error) {
	if dates.RangeKey(key) == dates.RangeCustom {
		startStr, _ := cmd.Flags().GetString("start")
		endStr, _ := cmd.Flags().GetString("end")
		period, err := dates.ResolveCustomRange(startStr, endStr)
		if err != nil {
			return dates.Interval{}, fmt.Errorf("invalid custom range: %w", err)
		}
		return period, nil
	}

	ref := dates.DateOf(appInstance.Clock.Now())
	period, err := dates.ResolveNamedRange(dates.RangeKey(key), ref)
	if err != nil {
		return dates.Interval{}, fmt.Errorf("invalid range: %w", err)
	}
	return period, nil
}
