package cli

import (
	"fmt"

	"wpmcp/internal/logging"
	"wpmcp/internal/tui/helpers"
	"wpmcp/internal/tui/setupmenu"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-run setup wizard",
		Long: `Collect the WordPress site URL, username and application password,
verify them against the live site and persist them (config file plus OS
keyring). Safe to re-run; existing settings are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup()
		},
	}
}

func runSetup() error {
	logger := logging.NewAppLogger()

	ctx := helpers.NewUIContext(0, 0, logger) // dimensions come from the tea program
	model := setupmenu.NewSetupModel(ctx)

	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	setup := finalModel.(*setupmenu.SetupModel)
	if setup.Cancelled {
		return fmt.Errorf("setup cancelled")
	}
	if !setup.Completed {
		return fmt.Errorf("setup did not complete")
	}

	fmt.Printf("Connected to %s as %s. Run 'wpmcp doctor' to re-check any time.\n",
		setup.SiteURL, setup.Username)
	return nil
}
