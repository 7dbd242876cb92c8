// Package cli implements the lightfsm command line tool for working
// with declarative YAML machine definitions.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lightfsm",
		Short: "Validate and export state machine definitions",
		Long: `lightfsm works with declarative YAML state machine definitions:
it validates transition tables (unknown targets, missing guards,
unreachable states) and exports them to XState-compatible JSON for
visualization tools.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
