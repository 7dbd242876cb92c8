package lightfsm

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/lucasols/light-fsm/internal/ir"
	"github.com/lucasols/light-fsm/store"
)

// DefaultMaxCascadeDepth bounds how deep reentrant sends may nest.
// Exceeding it panics with a CascadeError.
const DefaultMaxCascadeDepth = 100

// Machine is the transition engine. It owns exactly one live Snapshot,
// held in an observable store, and a reference to the immutable
// normalized config. Send is synchronous and reentrant; the machine is
// single-goroutine by design and performs no locking.
type Machine struct {
	config        *ir.Machine
	store         *store.Store[Snapshot]
	logger        *slog.Logger
	handleInvalid func(error, InvalidContext)

	maxCascadeDepth int
	strict          bool

	depth   int
	cascade string
}

// Option configures a Machine at construction
type Option func(*Machine)

// WithLogger sets the logger used for debug tracing
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithMaxCascadeDepth sets the reentrant-send nesting limit
func WithMaxCascadeDepth(depth int) Option {
	return func(m *Machine) {
		m.maxCascadeDepth = depth
	}
}

// WithoutReachabilityCheck skips the construction-time reachability
// traversal. Structural validation of state and guard references still
// runs.
func WithoutReachabilityCheck() Option {
	return func(m *Machine) {
		m.strict = false
	}
}

// New builds a machine from the config, validates it, runs the optional
// reachability check, and synchronously invokes the initial state's
// entry action before returning. Cascades started by that entry action
// resolve fully before New returns, so subscribers attached afterwards
// never observe them.
//
// Configuration defects (unknown state ids, unreachable states, missing
// named guards) are returned as errors; a machine is never usable after
// one.
func New(cfg Config, opts ...Option) (*Machine, error) {
	m := &Machine{
		logger:          slog.Default(),
		maxCascadeDepth: DefaultMaxCascadeDepth,
		strict:          true,
	}
	for _, opt := range opts {
		opt(m)
	}

	machine := ir.Normalize(cfg)
	if err := ir.Validate(machine); err != nil {
		return nil, err
	}
	if m.strict {
		if err := ir.CheckReachability(machine); err != nil {
			return nil, err
		}
	}

	m.config = machine
	m.handleInvalid = cfg.HandleInvalidTransition

	initial := machine.GetState(machine.Initial)
	m.store = store.New(Snapshot{Value: machine.Initial, Done: initial.Final})

	if initial.Entry != nil {
		m.store.Batch(func() {
			initial.Entry(ActionArgs{Prev: "", Next: machine.Initial, Send: m.Send})
		})
	}

	return m, nil
}

// State returns the current state id
func (m *Machine) State() StateID {
	return m.store.Get().Value
}

// Snapshot returns the current snapshot
func (m *Machine) Snapshot() Snapshot {
	return m.store.Get()
}

// Done returns true if the machine is in a final state
func (m *Machine) Done() bool {
	return m.store.Get().Done
}

// Subscribe registers a listener invoked with the snapshot after each
// externally visible change. It returns an unsubscribe function.
func (m *Machine) Subscribe(fn func(Snapshot)) func() {
	return m.store.Subscribe(fn)
}

// Batch groups snapshot changes from multiple sends into one
// notification. Passthrough to the underlying store.
func (m *Machine) Batch(fn func()) {
	m.store.Batch(fn)
}

// SendType submits a payload-free event
func (m *Machine) SendType(t EventType) SendResult {
	return m.Send(Event{Type: t})
}

// Send resolves the event against the current state and, on a match,
// executes the transition: snapshot mutation first, then exit of the
// source state, the transition action, and entry of the target, all
// inside one atomic batch. Actions may call Send again; reentrant sends
// resolve fully before the enclosing action resumes, and the whole
// cascade yields a single store notification.
//
// Send never returns an error for ordinary flow mismatches: rejections
// leave the snapshot unchanged, report Changed false, and for
// no-transition and final-state cases invoke HandleInvalidTransition.
func (m *Machine) Send(event Event) SendResult {
	snap := m.store.Get()
	current := snap.Value

	m.logger.Debug("processing event", "event", event.Type, "state", current)

	res := m.resolve(snap, event)
	switch res.status {
	case resolveFinalState:
		m.reportInvalid(&FinalStateError{State: current, Event: event}, current, event)
		return SendResult{Changed: false, Snapshot: snap}
	case resolveNoTransition:
		m.reportInvalid(&InvalidTransitionError{State: current, Event: event}, current, event)
		return SendResult{Changed: false, Snapshot: snap}
	case resolveGuardsExhausted:
		m.logger.Debug("all guards rejected", "event", event.Type, "state", current)
		return SendResult{Changed: false, Snapshot: snap}
	}

	if res.target == current {
		m.logger.Debug("self transition is inert", "event", event.Type, "state", current)
		return SendResult{Changed: false, Snapshot: snap}
	}

	if m.depth >= m.maxCascadeDepth {
		panic(&CascadeError{State: current, Event: event, Depth: m.depth})
	}
	m.depth++
	defer func() { m.depth-- }()
	if m.depth == 1 {
		m.cascade = uuid.NewString()
	}

	source := m.config.GetState(current)
	target := m.config.GetState(res.target)

	m.logger.Debug("executing transition",
		"from", current, "to", res.target, "event", event.Type, "cascade", m.cascade)

	m.store.Batch(func() {
		m.store.Set(Snapshot{
			Value:     res.target,
			Prev:      current,
			Done:      target.Final,
			LastEvent: event,
		})

		args := ActionArgs{Prev: current, Next: res.target, Event: event, Send: m.Send}
		if source.Exit != nil {
			source.Exit(args)
		}
		if res.action != nil {
			res.action(args)
		}
		if target.Entry != nil {
			target.Entry(args)
		}
	})

	return SendResult{Changed: true, Snapshot: m.store.Get()}
}

type resolveStatus int

const (
	resolveMatched resolveStatus = iota
	resolveNoTransition
	resolveFinalState
	resolveGuardsExhausted
)

type resolution struct {
	status resolveStatus
	target StateID
	action ActionFn
}

// resolve is the pure decision half of Send: it inspects the transition
// table and guards without mutating anything.
func (m *Machine) resolve(snap Snapshot, event Event) resolution {
	state := m.config.GetState(snap.Value)
	if state.Final {
		return resolution{status: resolveFinalState}
	}

	candidates, ok := m.config.CandidatesFor(state, event.Type)
	if !ok {
		return resolution{status: resolveNoTransition}
	}

	for _, c := range candidates {
		if c.Guard != "" {
			guard, ok := m.config.Guards[c.Guard]
			if !ok {
				panic(&GuardNotFoundError{Guard: c.Guard})
			}
			if !guard.Eval() {
				m.logger.Debug("guard rejected transition",
					"guard", c.Guard, "event", event.Type, "from", snap.Value, "to", c.Target)
				continue
			}
		}
		if c.Cond != nil && !c.Cond(GuardArgs{Current: snap.Value, Prev: snap.Prev, Event: event}) {
			m.logger.Debug("inline guard rejected transition",
				"event", event.Type, "from", snap.Value, "to", c.Target)
			continue
		}
		return resolution{status: resolveMatched, target: c.Target, action: c.Action}
	}

	return resolution{status: resolveGuardsExhausted}
}

func (m *Machine) reportInvalid(err error, state StateID, event Event) {
	if m.handleInvalid != nil {
		m.handleInvalid(err, InvalidContext{State: state, Event: event})
		return
	}
	m.logger.Debug("invalid transition", "error", err, "state", state, "event", event.Type)
}
