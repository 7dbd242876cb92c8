package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lightfsm "github.com/lucasols/light-fsm"
	"github.com/lucasols/light-fsm/internal/parser"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	SkipReachability bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <definition.yaml>",
		Short: "Validate a machine definition",
		Long: `Validate a YAML machine definition: structural checks (initial state,
transition targets, named guard references) plus a reachability
traversal from the initial state.

Example:
  lightfsm validate ./traffic.yaml
  lightfsm validate --skip-reachability ./partial.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipReachability, "skip-reachability", false, "skip the reachability check")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	schema, err := loadSchema(path)
	if err != nil {
		return err
	}

	// The document only names actions; bind no-ops so construction can
	// run the full validation pass.
	bindings := lightfsm.Bindings{Actions: make(map[string]lightfsm.ActionFn)}
	for _, name := range schema.ActionNames() {
		bindings.Actions[name] = func(lightfsm.ActionArgs) {}
	}

	cfg, err := lightfsm.ConfigFromSchema(schema, bindings)
	if err != nil {
		return err
	}

	var machineOpts []lightfsm.Option
	if opts.SkipReachability {
		machineOpts = append(machineOpts, lightfsm.WithoutReachabilityCheck())
	}
	if _, err := lightfsm.New(cfg, machineOpts...); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d states)\n", path, len(schema.States))
	return nil
}

func loadSchema(path string) (*parser.MachineSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	schema, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return schema, nil
}
