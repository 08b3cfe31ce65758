package cli

import (
	"fmt"
	"os"
	"time"

	"wpmcp/internal/config"
	"wpmcp/internal/logging"
	"wpmcp/internal/prompts"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

func newPromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect the prompt templates the server registers",
	}
	cmd.AddCommand(newPromptsListCmd(), newPromptsShowCmd())
	return cmd
}

func newPromptsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available prompt templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, tmpl := range store.Templates() {
				fmt.Fprintf(out, "%-24s %-8s %s\n", tmpl.Name, tmpl.Source, tmpl.Description)
			}
			return nil
		},
	}
}

func newPromptsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Render a prompt template to the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			tmpl, ok := store.Get(args[0])
			if !ok {
				return fmt.Errorf("no prompt template named %q (see 'wpmcp prompts list')", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n%s\n", tmpl.Name, tmpl.Source, tmpl.Description)
			for _, arg := range tmpl.Arguments {
				marker := "optional"
				if arg.Required {
					marker = "required"
				} else if arg.Default != "" {
					marker = fmt.Sprintf("default %q", arg.Default)
				}
				fmt.Fprintf(out, "  %-18s %s (%s)\n", arg.Name, arg.Description, marker)
			}

			renderer, err := glamour.NewTermRenderer(
				glamour.WithStandardStyle(detectGlamourStyle(50*time.Millisecond)),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				// Fall back to the raw body if the renderer can't start.
				fmt.Fprintf(out, "\n%s\n", tmpl.Body)
				return nil
			}
			rendered, err := renderer.Render(tmpl.Body)
			if err != nil {
				fmt.Fprintf(out, "\n%s\n", tmpl.Body)
				return nil
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
}

// openStore loads the prompt store from the configured template directory
// without requiring site credentials.
func openStore() (*prompts.Store, error) {
	return prompts.NewStore(resolveTemplateDir(), logging.NewAppLogger())
}

// resolveTemplateDir mirrors the template-dir precedence of config.Load but
// skips the credential requirements, so template commands work pre-setup.
func resolveTemplateDir() string {
	if dir := os.Getenv(config.EnvTemplateDir); dir != "" {
		return dir
	}
	if path, exists := config.FindConfigFile(); exists {
		if fc, err := config.LoadFileFrom(path); err == nil && fc.TemplateDir != "" {
			return fc.TemplateDir
		}
	}
	return config.DefaultTemplateDir()
}

// detectGlamourStyle picks a glamour style from the terminal background,
// bounded by a timeout since termenv's OSC query can hang on terminals that
// never answer.
func detectGlamourStyle(timeout time.Duration) string {
	style := os.Getenv("GLAMOUR_STYLE")
	if style != "" && style != "auto" {
		return style
	}

	ch := make(chan string, 1)
	go func() {
		if termenv.NewOutput(os.Stdout).HasDarkBackground() {
			ch <- "dark"
			return
		}
		ch <- "light"
	}()

	select {
	case s := <-ch:
		return s
	case <-time.After(timeout):
		return "dark"
	}
}
