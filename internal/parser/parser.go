// Package parser parses declarative YAML machine definitions into a
// schema tree. The schema names guards and actions; binding those names
// to Go functions happens in the root package.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// TransitionSchema represents a parsed transition candidate
type TransitionSchema struct {
	Target string `yaml:"target"`
	Guard  string `yaml:"guard"`
	Action string `yaml:"action"`
}

// StateSchema represents a parsed state definition
type StateSchema struct {
	Name        string
	Final       bool
	Entry       string
	Exit        string
	Transitions map[string][]TransitionSchema
}

// MachineSchema represents the complete parsed machine definition.
// States preserve their declaration order from the document.
type MachineSchema struct {
	ID      string
	Initial string
	Guards  map[string]bool
	States  []*StateSchema
	Global  map[string][]TransitionSchema
}

// ActionNames returns every action name referenced anywhere in the
// schema, sorted and deduplicated.
func (s *MachineSchema) ActionNames() []string {
	seen := map[string]bool{}
	collect := func(name string) {
		if name != "" {
			seen[name] = true
		}
	}
	for _, state := range s.States {
		collect(state.Entry)
		collect(state.Exit)
		for _, candidates := range state.Transitions {
			for _, c := range candidates {
				collect(c.Action)
			}
		}
	}
	for _, candidates := range s.Global {
		for _, c := range candidates {
			collect(c.Action)
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// transitionList accepts the three spec forms for an event entry: a bare
// target string, a single mapping, or a sequence of mappings.
type transitionList []TransitionSchema

func (l *transitionList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var target string
		if err := node.Decode(&target); err != nil {
			return err
		}
		*l = transitionList{{Target: target}}
		return nil
	case yaml.MappingNode:
		var t TransitionSchema
		if err := node.Decode(&t); err != nil {
			return err
		}
		*l = transitionList{t}
		return nil
	case yaml.SequenceNode:
		var ts []TransitionSchema
		if err := node.Decode(&ts); err != nil {
			return err
		}
		*l = transitionList(ts)
		return nil
	default:
		return fmt.Errorf("line %d: transition must be a target string, a mapping, or a sequence", node.Line)
	}
}

type stateDoc struct {
	Final bool                      `yaml:"final"`
	Entry string                    `yaml:"entry"`
	Exit  string                    `yaml:"exit"`
	On    map[string]transitionList `yaml:"on"`
}

type machineDoc struct {
	ID      string                    `yaml:"id"`
	Initial string                    `yaml:"initial"`
	Guards  map[string]bool           `yaml:"guards"`
	States  yaml.Node                 `yaml:"states"`
	On      map[string]transitionList `yaml:"on"`
}

// Parse parses a YAML machine definition document
func Parse(data []byte) (*MachineSchema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc machineDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty machine definition")
		}
		return nil, fmt.Errorf("parse machine definition: %w", err)
	}

	schema := &MachineSchema{
		ID:      doc.ID,
		Initial: doc.Initial,
		Guards:  doc.Guards,
		Global:  toSchemaTable(doc.On),
	}

	states, err := parseStates(&doc.States)
	if err != nil {
		return nil, err
	}
	schema.States = states

	return schema, nil
}

// parseStates walks the raw mapping node so that state declaration order
// survives parsing; a plain map would lose it.
func parseStates(node *yaml.Node) ([]*StateSchema, error) {
	if node.Kind == 0 || node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: states must be a mapping of state name to definition", node.Line)
	}

	var states []*StateSchema
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		var name string
		if err := keyNode.Decode(&name); err != nil {
			return nil, fmt.Errorf("line %d: invalid state name: %w", keyNode.Line, err)
		}

		var def stateDoc
		if valueNode.Kind != 0 && !valueNode.IsZero() {
			if err := valueNode.Decode(&def); err != nil {
				return nil, fmt.Errorf("state %q: %w", name, err)
			}
		}

		states = append(states, &StateSchema{
			Name:        name,
			Final:       def.Final,
			Entry:       def.Entry,
			Exit:        def.Exit,
			Transitions: toSchemaTable(def.On),
		})
	}
	return states, nil
}

func toSchemaTable(table map[string]transitionList) map[string][]TransitionSchema {
	if len(table) == 0 {
		return nil
	}
	out := make(map[string][]TransitionSchema, len(table))
	for event, candidates := range table {
		out[event] = []TransitionSchema(candidates)
	}
	return out
}
