package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// MachineExporter is implemented by types that can export to XState JSON
// format. XStateExporter implements this interface.
type MachineExporter interface {
	Export() (*XStateMachine, error)
}

// ExportOptions configures the export behavior.
type ExportOptions struct {
	// PrettyPrint enables indented JSON output
	PrettyPrint bool

	// Indent is the string used for indentation (default: "  ")
	Indent string

	// Output is where JSON will be written (default: os.Stdout)
	Output io.Writer
}

// DefaultExportOptions returns options with sensible defaults.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		PrettyPrint: false,
		Indent:      "  ",
		Output:      os.Stdout,
	}
}

// ExportMachine exports a single machine definition to JSON.
func ExportMachine(exporter MachineExporter, opts ExportOptions) error {
	machine, err := exporter.Export()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	return writeJSON(machine, opts)
}

// writeJSON writes a value as JSON to the configured output.
func writeJSON(v any, opts ExportOptions) error {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var data []byte
	var err error
	if opts.PrettyPrint {
		indent := opts.Indent
		if indent == "" {
			indent = "  "
		}
		data, err = json.MarshalIndent(v, "", indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	if _, err := out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}
