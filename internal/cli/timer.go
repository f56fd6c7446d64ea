package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Manage the active timer",
	Long:  `Start, stop, pause, resume, or check the status of the active timer.`,
}

var timerStartCmd = &cobra.Command{
	Use:   "start [engagement_id] [description]",
	Short: "Start a new timer",
	Long:  `Start a new timer against an engagement with an optional description.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		engagementID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid engagement ID: %w", err)
		}

		// Get description (everything after engagement)
		description := ""
		if len(args) > 1 {
			description = args[1]
		}

		// Start timer
		if err := appInstance.TimerService.Start(ctx, engagementID, description); err != nil {
			return fmt.Errorf("failed to start timer: %w", err)
		}

		// Get engagement for display
		projectName := fmt.Sprintf("Engagement #%d", engagementID)
		if eng, _ := appInstance.EngagementRepo.GetByID(ctx, engagementID); eng != nil {
			projectName = eng.Project
		}

		fmt.Printf("✓ Timer started for %s\n", projectName)
		if description != "" {
			fmt.Printf("  Description: %s\n", description)
		}

		return nil
	},
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active timer and save the day's time entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		entry, err := appInstance.TimerService.Stop(ctx)
		if err != nil {
			return fmt.Errorf("failed to stop timer: %w", err)
		}

		fmt.Printf("✓ Timer stopped\n")
		fmt.Printf("  Date: %s\n", entry.Date)
		fmt.Printf("  Hours: %s (rounded up to the quarter hour)\n", entry.Hours.String())

		return nil
	},
}

var timerPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the active timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := appInstance.TimerService.Pause(ctx); err != nil {
			return fmt.Errorf("failed to pause timer: %w", err)
		}

		fmt.Println("✓ Timer paused")
		return nil
	},
}

var timerResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := appInstance.TimerService.Resume(ctx); err != nil {
			return fmt.Errorf("failed to resume timer: %w", err)
		}

		fmt.Println("✓ Timer resumed")
		return nil
	},
}

var timerDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Discard the active timer without saving",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := appInstance.TimerService.Discard(ctx); err != nil {
			return fmt.Errorf("failed to discard timer: %w", err)
		}

		fmt.Println("✓ Timer discarded")
		return nil
	},
}

var timerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of the active timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		state, err := appInstance.TimerService.GetState(ctx)
		if err != nil {
			return fmt.Errorf("failed to get timer state: %w", err)
		}

		if state == "idle" {
			fmt.Println("No active timer")
			return nil
		}

		timer, err := appInstance.TimerService.GetActiveTimer(ctx)
		if err != nil {
			return fmt.Errorf("failed to get active timer: %w", err)
		}

		// Get engagement for display
		projectName := fmt.Sprintf("Engagement #%d", timer.EngagementID)
		if eng, _ := appInstance.EngagementRepo.GetByID(ctx, timer.EngagementID); eng != nil {
			projectName = eng.Project
		}

		value, err := appInstance.TimerService.AccruedValue(ctx)
		if err != nil {
			return fmt.Errorf("failed to get accrued value: %w", err)
		}

		fmt.Printf("Timer Status: %s\n", state)
		fmt.Printf("  Engagement: %s\n", projectName)
		if timer.Description != "" {
			fmt.Printf("  Description: %s\n", timer.Description)
		}
		fmt.Printf("  Started: %s\n", timer.StartTime.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Elapsed: %s\n", formatDuration(timer.Elapsed()))
		fmt.Printf("  Current Value: $%s\n", value.StringFixed(2))

		return nil
	},
}

func init() {
	timerCmd.AddCommand(timerStartCmd)
	timerCmd.AddCommand(timerStopCmd)
	timerCmd.AddCommand(timerPauseCmd)
	timerCmd.AddCommand(timerResumeCmd)
	timerCmd.AddCommand(timerDiscardCmd)
	timerCmd.AddCommand(timerStatusCmd)
}

// resolveClientID resolves a client by ID or name
func resolveClientID(ctx context.Context, idOrName string) (int64, error) {
	// Try to parse as ID first
	if id, err := strconv.ParseInt(idOrName, 10, 64); err == nil {
		// Verify client exists
		client, err := appInstance.ClientRepo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		if client == nil {
			return 0, fmt.Errorf("client with ID %d not found", id)
		}
		return id, nil
	}

	// Try to find by name
	client, err := appInstance.ClientRepo.GetByName(ctx, idOrName)
	if err != nil {
		return 0, err
	}
	if client == nil {
		return 0, fmt.Errorf("client named '%s' not found", idOrName)
	}

	return client.ID, nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	} else if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
