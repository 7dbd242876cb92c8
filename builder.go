package lightfsm

// MachineBuilder provides a fluent API for constructing machine configs
type MachineBuilder struct {
	initial       StateID
	states        []*StateBuilder
	global        []*TransitionBuilder
	guards        map[GuardName]GuardValue
	handleInvalid func(error, InvalidContext)
}

// StateBuilder provides a fluent API for constructing states
type StateBuilder struct {
	machine     *MachineBuilder
	id          StateID
	final       bool
	entry       ActionFn
	exit        ActionFn
	transitions []*TransitionBuilder
}

// TransitionBuilder provides a fluent API for constructing transitions
type TransitionBuilder struct {
	state   *StateBuilder   // nil for global transitions
	machine *MachineBuilder // set for global transitions
	event   EventType
	target  StateID
	guard   GuardName
	cond    Predicate
	action  ActionFn
}

// Define creates a new MachineBuilder
func Define() *MachineBuilder {
	return &MachineBuilder{
		guards: make(map[GuardName]GuardValue),
	}
}

// WithInitial sets the initial state ID
func (b *MachineBuilder) WithInitial(initial StateID) *MachineBuilder {
	b.initial = initial
	return b
}

// WithGuard registers a named guard
func (b *MachineBuilder) WithGuard(name GuardName, guard GuardValue) *MachineBuilder {
	b.guards[name] = guard
	return b
}

// OnInvalidTransition sets the callback for no-transition and
// final-state rejections.
func (b *MachineBuilder) OnInvalidTransition(fn func(error, InvalidContext)) *MachineBuilder {
	b.handleInvalid = fn
	return b
}

// On starts a global transition, consulted when the current state has no
// entry for the event.
func (b *MachineBuilder) On(event EventType) *TransitionBuilder {
	tb := &TransitionBuilder{machine: b, event: event}
	b.global = append(b.global, tb)
	return tb
}

// State starts building a new state with the given ID. Declaration order
// is preserved.
func (b *MachineBuilder) State(id StateID) *StateBuilder {
	sb := &StateBuilder{machine: b, id: id}
	b.states = append(b.states, sb)
	return sb
}

// Config assembles the declarative config from the builder. Repeated On
// calls for the same event on one state become an ordered Choice.
func (b *MachineBuilder) Config() Config {
	cfg := Config{
		Initial:                 b.initial,
		Guards:                  b.guards,
		HandleInvalidTransition: b.handleInvalid,
		On:                      assembleTable(b.global),
	}
	for _, sb := range b.states {
		cfg.States = append(cfg.States, StateDef{
			ID:    sb.id,
			Final: sb.final,
			Entry: sb.entry,
			Exit:  sb.exit,
			On:    assembleTable(sb.transitions),
		})
	}
	return cfg
}

// Build constructs and validates the machine
func (b *MachineBuilder) Build(opts ...Option) (*Machine, error) {
	return New(b.Config(), opts...)
}

func assembleTable(transitions []*TransitionBuilder) map[EventType]TransitionSpec {
	if len(transitions) == 0 {
		return nil
	}
	grouped := make(map[EventType]Choice)
	var order []EventType
	for _, tb := range transitions {
		if _, seen := grouped[tb.event]; !seen {
			order = append(order, tb.event)
		}
		grouped[tb.event] = append(grouped[tb.event], Target{
			To:     tb.target,
			Guard:  tb.guard,
			Cond:   tb.cond,
			Action: tb.action,
		})
	}
	table := make(map[EventType]TransitionSpec, len(order))
	for _, event := range order {
		candidates := grouped[event]
		if len(candidates) == 1 {
			table[event] = candidates[0]
			continue
		}
		table[event] = candidates
	}
	return table
}

// --- StateBuilder methods ---

// Final marks this state as a final state
func (b *StateBuilder) Final() *StateBuilder {
	b.final = true
	return b
}

// OnEntry sets the entry action for the state
func (b *StateBuilder) OnEntry(action ActionFn) *StateBuilder {
	b.entry = action
	return b
}

// OnExit sets the exit action for the state
func (b *StateBuilder) OnExit(action ActionFn) *StateBuilder {
	b.exit = action
	return b
}

// On starts building a new transition triggered by the given event
func (b *StateBuilder) On(event EventType) *TransitionBuilder {
	tb := &TransitionBuilder{state: b, event: event}
	b.transitions = append(b.transitions, tb)
	return tb
}

// Done completes the state definition and returns to the machine builder
func (b *StateBuilder) Done() *MachineBuilder {
	return b.machine
}

// --- TransitionBuilder methods ---

// Target sets the target state for the transition
func (b *TransitionBuilder) Target(target StateID) *TransitionBuilder {
	b.target = target
	return b
}

// Guard sets the named guard for the transition
func (b *TransitionBuilder) Guard(guard GuardName) *TransitionBuilder {
	b.guard = guard
	return b
}

// Cond sets an inline predicate for the transition
func (b *TransitionBuilder) Cond(cond Predicate) *TransitionBuilder {
	b.cond = cond
	return b
}

// Do sets the action executed during the transition
func (b *TransitionBuilder) Do(action ActionFn) *TransitionBuilder {
	b.action = action
	return b
}

// On starts a new transition on the same owner (chainable)
func (b *TransitionBuilder) On(event EventType) *TransitionBuilder {
	if b.state != nil {
		return b.state.On(event)
	}
	return b.machine.On(event)
}

// Done completes the enclosing state (or the global table) and returns
// to the machine builder.
func (b *TransitionBuilder) Done() *MachineBuilder {
	if b.state != nil {
		return b.state.Done()
	}
	return b.machine
}
