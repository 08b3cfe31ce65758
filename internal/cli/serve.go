package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wpmcp/internal/config"
	"wpmcp/internal/logging"
	"wpmcp/internal/mcp"
	"wpmcp/internal/prompts"
	"wpmcp/internal/wordpress"

	"github.com/spf13/cobra"
)

func newServeCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		Long: `Load configuration, connect the WordPress client and serve the Model
Context Protocol over stdin/stdout until the host disconnects or the
process receives SIGINT/SIGTERM.

All diagnostics go to stderr (or the debug log file when DEBUG is set);
stdout carries only the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, version)
		},
	}
}

func runServe(ctx context.Context, version string) error {
	logger := logging.NewAppLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration failed", "error", err)
		return err
	}

	client := wordpress.NewClient(wordpress.Config{
		SiteURL:     cfg.SiteURL,
		Username:    cfg.Username,
		AppPassword: cfg.AppPassword,
		Timeout:     cfg.RequestTimeout,
	}, logger)

	store, err := prompts.NewStore(cfg.TemplateDir, logger)
	if err != nil {
		logger.Error("Prompt store failed", "error", err)
		return err
	}

	srv := mcp.NewServer(cfg, client, store, version, logger)

	start := time.Now()
	err = srv.Serve(ctx)
	logger.Info("Server stopped", "uptime", time.Since(start).Round(time.Second))
	return err
}
