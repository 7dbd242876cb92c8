// Package export converts machine definitions to external formats like
// XState JSON.
package export

import (
	"github.com/lucasols/light-fsm/internal/parser"
)

// XStateExporter converts a parsed machine definition to an
// XState-compatible JSON shape. The output can be used with:
// - XState Visualizer (stately.ai/viz)
// - XState Inspector
// - XState v5 compatible tools
type XStateExporter struct {
	schema *parser.MachineSchema
}

// NewXStateExporter creates a new exporter for the given definition
func NewXStateExporter(schema *parser.MachineSchema) *XStateExporter {
	return &XStateExporter{schema: schema}
}

// XStateMachine represents an XState machine configuration
type XStateMachine struct {
	ID      string                        `json:"id"`
	Initial string                        `json:"initial,omitempty"`
	States  map[string]XStateNode         `json:"states"`
	On      map[string][]XStateTransition `json:"on,omitempty"`
}

// XStateNode represents a single state in XState format
type XStateNode struct {
	Type  string                        `json:"type,omitempty"` // "final" or empty for atomic
	Entry []string                      `json:"entry,omitempty"`
	Exit  []string                      `json:"exit,omitempty"`
	On    map[string][]XStateTransition `json:"on,omitempty"`
}

// XStateTransition represents a transition candidate in XState format
type XStateTransition struct {
	Target  string   `json:"target,omitempty"`
	Actions []string `json:"actions,omitempty"`
	Guard   string   `json:"guard,omitempty"` // XState v5 uses "guard", v4 uses "cond"
}

// Export converts the definition to XState JSON format
func (e *XStateExporter) Export() (*XStateMachine, error) {
	machine := &XStateMachine{
		ID:      e.schema.ID,
		Initial: e.schema.Initial,
		States:  make(map[string]XStateNode, len(e.schema.States)),
		On:      exportTable(e.schema.Global),
	}

	for _, state := range e.schema.States {
		node := XStateNode{
			On: exportTable(state.Transitions),
		}
		if state.Final {
			node.Type = "final"
		}
		if state.Entry != "" {
			node.Entry = []string{state.Entry}
		}
		if state.Exit != "" {
			node.Exit = []string{state.Exit}
		}
		machine.States[state.Name] = node
	}

	return machine, nil
}

func exportTable(table map[string][]parser.TransitionSchema) map[string][]XStateTransition {
	if len(table) == 0 {
		return nil
	}
	out := make(map[string][]XStateTransition, len(table))
	for event, candidates := range table {
		transitions := make([]XStateTransition, 0, len(candidates))
		for _, c := range candidates {
			t := XStateTransition{
				Target: c.Target,
				Guard:  c.Guard,
			}
			if c.Action != "" {
				t.Actions = []string{c.Action}
			}
			transitions = append(transitions, t)
		}
		out[event] = transitions
	}
	return out
}
