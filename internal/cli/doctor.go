package cli

import (
	"context"
	"errors"
	"fmt"

	"wpmcp/internal/config"
	"wpmcp/internal/logging"
	"wpmcp/internal/wordpress"

	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check site connectivity and credentials",
		Long: `Load configuration and authenticate against the WordPress site without
starting the server. Exits non-zero when the site is unreachable or the
credentials are rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd)
		},
	}
}

func runDoctor(cmd *cobra.Command) error {
	logger := logging.NewAppLogger()
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(out, "✗ configuration: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "✓ configuration loaded (site %s, user %s, password from %s)\n",
		cfg.SiteURL, cfg.Username, cfg.PasswordSource)

	client := wordpress.NewClient(wordpress.Config{
		SiteURL:     cfg.SiteURL,
		Username:    cfg.Username,
		AppPassword: cfg.AppPassword,
		Timeout:     cfg.RequestTimeout,
	}, logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	if err := client.VerifyAuth(ctx); err != nil {
		var unreachable *wordpress.UnreachableError
		var remote *wordpress.RemoteError
		switch {
		case errors.As(err, &unreachable):
			fmt.Fprintf(out, "✗ site unreachable: %v\n", unreachable.Err)
		case errors.As(err, &remote) && (remote.StatusCode == 401 || remote.StatusCode == 403):
			fmt.Fprintf(out, "✗ credentials rejected: %v\n", remote)
			fmt.Fprintln(out, "  Check the username and application password (re-run 'wpmcp setup').")
		default:
			fmt.Fprintf(out, "✗ authentication check failed: %v\n", err)
		}
		return err
	}

	fmt.Fprintf(out, "✓ authenticated against %s\n", cfg.SiteURL)
	return nil
}
