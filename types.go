// Package lightfsm is a small finite-state-machine transition engine:
// given a declarative description of states, transitions, guarded
// branches and lifecycle actions, it computes the next state for any
// (current state, event) pair and runs the associated side effects in a
// fixed order: exit, transition action, entry.
package lightfsm

import "github.com/lucasols/light-fsm/internal/ir"

// Re-export core types from internal/ir for the public API
type (
	// StateID uniquely identifies a state within a machine
	StateID = ir.StateID
	// EventType is a named event identifier
	EventType = ir.EventType
	// GuardName identifies a named guard in the config's guards map
	GuardName = ir.GuardName
	// Event represents a runtime event with optional payload
	Event = ir.Event
	// Snapshot is the externally observable state of a machine
	Snapshot = ir.Snapshot
	// SendResult reports the outcome of a single send
	SendResult = ir.SendResult
	// ActionArgs is passed to exit, transition and entry actions
	ActionArgs = ir.ActionArgs
	// ActionFn is a side-effect function executed during transitions
	ActionFn = ir.ActionFn
	// GuardArgs is passed to inline transition predicates
	GuardArgs = ir.GuardArgs
	// Predicate is an inline guard over the live machine state
	Predicate = ir.Predicate
	// GuardValue is a named guard: a captured boolean or a predicate
	GuardValue = ir.GuardValue
	// TransitionSpec is the union of transition forms for one event
	TransitionSpec = ir.TransitionSpec
	// Target is a single candidate transition
	Target = ir.Target
	// Choice is an ordered first-match-wins candidate list
	Choice = ir.Choice
	// StateDef declares a single state
	StateDef = ir.StateDef
	// Config is the declarative machine description
	Config = ir.Config
	// InvalidContext accompanies invalid-transition reports
	InvalidContext = ir.InvalidContext
)

// GuardBool returns a named-guard value fixed to the given literal.
// It is captured once at construction and never re-evaluated.
func GuardBool(v bool) GuardValue { return ir.GuardBool(v) }

// GuardFunc returns a named-guard value re-invoked on every evaluation
func GuardFunc(fn func() bool) GuardValue { return ir.GuardFunc(fn) }
