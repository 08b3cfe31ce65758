// Package cli wires the wpmcp subcommands. Every command builds its own
// dependencies from configuration; nothing here holds global state beyond
// the cobra tree itself.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the full command tree. version is stamped by the
// build and surfaced through --version.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "wpmcp",
		Short: "MCP server for WordPress post management",
		Long: `wpmcp exposes WordPress REST API post operations to MCP clients.

It serves tools (create_post, delete_post), resources (post://by-id,
post://by-slug) and prompt templates over stdio. Run 'wpmcp setup' once to
store site credentials, then point your MCP host at 'wpmcp serve'.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(version),
		newSetupCmd(),
		newDoctorCmd(),
		newPromptsCmd(),
		newTemplatesCmd(),
	)

	return root
}
