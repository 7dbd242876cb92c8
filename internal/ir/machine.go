package ir

// Machine is the immutable normalized representation of a transition
// table. All TransitionSpec forms are flattened to ordered candidate
// lists so the resolver has a single shape to scan.
type Machine struct {
	Initial StateID
	States  map[StateID]*State
	Global  map[EventType][]Candidate
	Guards  map[GuardName]GuardValue

	// Order preserves the declaration order of state ids; reachability
	// reporting depends on it.
	Order []StateID

	// Duplicate holds state ids declared more than once, in declaration
	// order of the extra occurrences. Surfaced by Validate.
	Duplicate []StateID
}

// State is a normalized state node
type State struct {
	ID    StateID
	Final bool
	Entry ActionFn
	Exit  ActionFn
	On    map[EventType][]Candidate
}

// Candidate is a single normalized transition candidate
type Candidate struct {
	Target StateID
	Guard  GuardName
	Cond   Predicate
	Action ActionFn
}

// Normalize flattens a Config into a Machine. It performs no validation
// beyond recording duplicate state ids; call Validate on the result.
func Normalize(cfg Config) *Machine {
	m := &Machine{
		Initial: cfg.Initial,
		States:  make(map[StateID]*State, len(cfg.States)),
		Global:  normalizeTable(cfg.On),
		Guards:  make(map[GuardName]GuardValue, len(cfg.Guards)),
	}
	for name, g := range cfg.Guards {
		m.Guards[name] = g
	}
	for _, def := range cfg.States {
		if _, seen := m.States[def.ID]; seen {
			m.Duplicate = append(m.Duplicate, def.ID)
			continue
		}
		m.Order = append(m.Order, def.ID)
		m.States[def.ID] = &State{
			ID:    def.ID,
			Final: def.Final,
			Entry: def.Entry,
			Exit:  def.Exit,
			On:    normalizeTable(def.On),
		}
	}
	return m
}

func normalizeTable(on map[EventType]TransitionSpec) map[EventType][]Candidate {
	if len(on) == 0 {
		return nil
	}
	table := make(map[EventType][]Candidate, len(on))
	for event, spec := range on {
		table[event] = normalizeSpec(spec)
	}
	return table
}

func normalizeSpec(spec TransitionSpec) []Candidate {
	switch s := spec.(type) {
	case StateID:
		return []Candidate{{Target: s}}
	case Target:
		return []Candidate{{Target: s.To, Guard: s.Guard, Cond: s.Cond, Action: s.Action}}
	case Choice:
		candidates := make([]Candidate, 0, len(s))
		for _, t := range s {
			candidates = append(candidates, Candidate{Target: t.To, Guard: t.Guard, Cond: t.Cond, Action: t.Action})
		}
		return candidates
	case nil:
		return nil
	default:
		// The union is closed; a foreign implementation cannot exist
		// outside this package.
		return nil
	}
}

// GetState returns the state for the given ID, or nil if not found
func (m *Machine) GetState(id StateID) *State {
	return m.States[id]
}

// CandidatesFor looks up the candidate list for the event type on the
// given state, falling back to the global table when the state has no
// entry for it. The second result reports whether any entry existed.
func (m *Machine) CandidatesFor(state *State, event EventType) ([]Candidate, bool) {
	if state != nil {
		if candidates, ok := state.On[event]; ok {
			return candidates, true
		}
	}
	candidates, ok := m.Global[event]
	return candidates, ok
}
