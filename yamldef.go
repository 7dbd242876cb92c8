package lightfsm

import (
	"fmt"

	"github.com/lucasols/light-fsm/internal/parser"
)

// Bindings attaches Go functions to the names used in a declarative
// YAML machine definition. Guards declared as booleans in the document
// need no binding; predicate guards and every referenced action must be
// bound here.
type Bindings struct {
	Actions map[string]ActionFn
	Guards  map[GuardName]GuardValue

	// HandleInvalidTransition is carried into the resulting config.
	HandleInvalidTransition func(error, InvalidContext)
}

// FromYAML parses a YAML machine definition, binds its guard and action
// names, and constructs the machine.
func FromYAML(data []byte, b Bindings, opts ...Option) (*Machine, error) {
	schema, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	cfg, err := ConfigFromSchema(schema, b)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// ConfigFromSchema converts a parsed definition into a Config. Document
// guards become captured booleans; bindings may add or override guards
// with predicates. Unbound action names are an error; unbound guard
// names are left for construction-time validation to reject.
func ConfigFromSchema(schema *parser.MachineSchema, b Bindings) (Config, error) {
	cfg := Config{
		Initial:                 StateID(schema.Initial),
		Guards:                  make(map[GuardName]GuardValue),
		HandleInvalidTransition: b.HandleInvalidTransition,
	}

	for name, value := range schema.Guards {
		cfg.Guards[GuardName(name)] = GuardBool(value)
	}
	for name, guard := range b.Guards {
		cfg.Guards[name] = guard
	}

	for _, state := range schema.States {
		def := StateDef{
			ID:    StateID(state.Name),
			Final: state.Final,
		}
		var err error
		if def.Entry, err = bindAction(b, state.Entry, state.Name, "entry"); err != nil {
			return Config{}, err
		}
		if def.Exit, err = bindAction(b, state.Exit, state.Name, "exit"); err != nil {
			return Config{}, err
		}
		if def.On, err = bindTable(b, state.Transitions, state.Name); err != nil {
			return Config{}, err
		}
		cfg.States = append(cfg.States, def)
	}

	global, err := bindTable(b, schema.Global, "")
	if err != nil {
		return Config{}, err
	}
	cfg.On = global

	return cfg, nil
}

func bindTable(b Bindings, table map[string][]parser.TransitionSchema, state string) (map[EventType]TransitionSpec, error) {
	if len(table) == 0 {
		return nil, nil
	}
	out := make(map[EventType]TransitionSpec, len(table))
	for event, candidates := range table {
		choice := make(Choice, 0, len(candidates))
		for _, c := range candidates {
			action, err := bindAction(b, c.Action, state, fmt.Sprintf("on.%s", event))
			if err != nil {
				return nil, err
			}
			choice = append(choice, Target{
				To:     StateID(c.Target),
				Guard:  GuardName(c.Guard),
				Action: action,
			})
		}
		if len(choice) == 1 {
			out[EventType(event)] = choice[0]
			continue
		}
		out[EventType(event)] = choice
	}
	return out, nil
}

func bindAction(b Bindings, name, state, where string) (ActionFn, error) {
	if name == "" {
		return nil, nil
	}
	action, ok := b.Actions[name]
	if !ok {
		if state == "" {
			return nil, fmt.Errorf("action %q (%s) is not bound", name, where)
		}
		return nil, fmt.Errorf("action %q (state %q, %s) is not bound", name, state, where)
	}
	return action, nil
}
