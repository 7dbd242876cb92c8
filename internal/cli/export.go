package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucasols/light-fsm/export"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
	Pretty bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <definition.yaml>",
		Short: "Export a machine definition to XState JSON",
		Long: `Export a YAML machine definition to XState-compatible JSON for use
with the XState Visualizer and related tools.

Example:
  lightfsm export --pretty ./traffic.yaml
  lightfsm export -o traffic.json ./traffic.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write JSON to file instead of stdout")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "indent the JSON output")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	schema, err := loadSchema(path)
	if err != nil {
		return err
	}

	exportOpts := export.DefaultExportOptions()
	exportOpts.PrettyPrint = opts.Pretty
	exportOpts.Output = cmd.OutOrStdout()

	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		exportOpts.Output = f
	}

	return export.ExportMachine(export.NewXStateExporter(schema), exportOpts)
}
