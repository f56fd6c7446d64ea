package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erin/retainer/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the terminal UI",
	Long:  `Launch the interactive terminal user interface for retainer.`,
	RunE:  launchTUI,
}

func launchTUI(cmd *cobra.Command, args []string) error {
	if err := tui.Run(appInstance); err != nil {
		return fmt.Errorf("TUI exited with error: %w", err)
	}
	return nil
}
