package ir

// StateID uniquely identifies a state within a machine
type StateID string

// EventType is a named event identifier
type EventType string

// GuardName identifies a named guard registered in the config's guards map
type GuardName string

// Event represents a runtime event with optional payload.
// The zero Event (empty Type) means "no event yet".
type Event struct {
	Type    EventType
	Payload any
}

// Snapshot is the externally observable state of a machine.
// Prev is empty until the first changed transition. Done mirrors the
// Final flag of Value's definition.
type Snapshot struct {
	Value     StateID
	Prev      StateID
	Done      bool
	LastEvent Event
}

// SendResult reports the outcome of a single send: whether the state
// changed, and the snapshot after the full cascade settled.
type SendResult struct {
	Changed  bool
	Snapshot Snapshot
}

// ActionArgs is passed to every exit, transition and entry action.
// Prev is empty for the entry action run at machine construction.
// Send submits a reentrant event; it resolves fully before returning.
type ActionArgs struct {
	Prev  StateID
	Next  StateID
	Event Event
	Send  func(Event) SendResult
}

// ActionFn is a side-effect function executed during transitions
type ActionFn func(ActionArgs)

// GuardArgs is passed to inline transition predicates
type GuardArgs struct {
	Current StateID
	Prev    StateID
	Event   Event
}

// Predicate is an inline guard evaluated against the live machine state
type Predicate func(GuardArgs) bool

// GuardValue is the value side of the config's guards map: either a
// boolean captured once at construction, or a zero-argument predicate
// re-invoked on every evaluation.
type GuardValue struct {
	fixed bool
	fn    func() bool
}

// GuardBool returns a guard fixed to the given literal. It is never
// re-evaluated over the machine's lifetime.
func GuardBool(v bool) GuardValue {
	return GuardValue{fixed: v}
}

// GuardFunc returns a guard backed by a predicate invoked per evaluation
func GuardFunc(fn func() bool) GuardValue {
	return GuardValue{fn: fn}
}

// Eval evaluates the guard
func (g GuardValue) Eval() bool {
	if g.fn != nil {
		return g.fn()
	}
	return g.fixed
}

// TransitionSpec describes where an event leads. It is a closed union:
// a bare StateID (redirect with no guard or action), a single Target,
// or a Choice of guarded candidates evaluated first-match-wins.
type TransitionSpec interface {
	transitionSpec()
}

// Target is a single candidate transition. Guard references the named
// guards map, Cond is an inline predicate; when both are set, both must
// pass. An empty Guard and nil Cond make the candidate unconditional.
type Target struct {
	To     StateID
	Guard  GuardName
	Cond   Predicate
	Action ActionFn
}

// Choice is an ordered list of candidates; the first whose guard passes
// (or that has no guard) wins.
type Choice []Target

func (StateID) transitionSpec() {}
func (Target) transitionSpec()  {}
func (Choice) transitionSpec()  {}

// StateDef declares a single state. Final states accept no events; their
// On table, if present, is never consulted at runtime.
type StateDef struct {
	ID    StateID
	Final bool
	Entry ActionFn
	Exit  ActionFn
	On    map[EventType]TransitionSpec
}

// InvalidContext accompanies recoverable rejections reported through the
// invalid-transition callback.
type InvalidContext struct {
	State StateID
	Event Event
}

// Config is the declarative machine description. States is ordered so
// that declaration order is well defined (map keys are not). It is
// immutable after construction.
type Config struct {
	Initial StateID
	States  []StateDef

	// On holds global, state-independent transitions consulted when the
	// current state has no entry for the event type.
	On map[EventType]TransitionSpec

	Guards map[GuardName]GuardValue

	// HandleInvalidTransition is invoked synchronously, never thrown, for
	// no-transition and final-state rejections.
	HandleInvalidTransition func(error, InvalidContext)
}
