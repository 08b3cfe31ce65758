package cli

import (
	"fmt"

	"wpmcp/internal/config"
	"wpmcp/internal/credentials"
	"wpmcp/internal/logging"
	"wpmcp/internal/prompts"

	"github.com/spf13/cobra"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage prompt template packs",
	}
	cmd.AddCommand(newTemplatesSyncCmd(), newTemplatesTokenCmd())
	return cmd
}

func newTemplatesTokenCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "token [token]",
		Short: "Store the git token used for private template packs",
		Long: `Save a git access token in the OS keyring. 'templates sync' presents it
(via HTTP basic auth) when a pack repository rejects anonymous access.
Use --clear to remove a stored token.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := credentials.NewManager()
			out := cmd.OutOrStdout()

			if clear {
				if len(args) != 0 {
					return fmt.Errorf("--clear takes no token argument")
				}
				if err := creds.DeletePackToken(); err != nil {
					return fmt.Errorf("failed to remove pack token: %w", err)
				}
				fmt.Fprintln(out, "Pack token removed from the OS keyring.")
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("expected a token argument (or --clear)")
			}
			if err := creds.StorePackToken(args[0]); err != nil {
				return fmt.Errorf("failed to store pack token: %w", err)
			}
			fmt.Fprintln(out, "Pack token stored in the OS keyring.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "remove the stored pack token")
	return cmd
}

func newTemplatesSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <git-url>",
		Short: "Clone or update a template pack and import its templates",
		Long: `Fetch a git repository of prompt templates (shallow clone, or pull when
already cached) and import every valid markdown template it contains into
the local template directory. Private repositories authenticate with the
pack token stored in the OS keyring.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()

			source, err := prompts.NewPackSource(args[0], config.PackCacheDir())
			if err != nil {
				return err
			}

			if err := source.Sync(logger); err != nil {
				return fmt.Errorf("failed to sync template pack: %w", err)
			}

			imported, err := source.Import(resolveTemplateDir(), logger)
			if err != nil {
				return fmt.Errorf("failed to import templates: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(imported) == 0 {
				fmt.Fprintln(out, "Pack synced; no valid templates found to import.")
				return nil
			}
			fmt.Fprintf(out, "Imported %d template(s):\n", len(imported))
			for _, name := range imported {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}
