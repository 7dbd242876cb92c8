package ir

import "strings"

// UnreachableError reports every state that cannot be reached from the
// initial state by following declared transitions as unconditional
// edges. States appear in declaration order, not sorted.
type UnreachableError struct {
	States []StateID
}

// Error implements the error interface
func (e *UnreachableError) Error() string {
	ids := make([]string, len(e.States))
	for i, id := range e.States {
		ids[i] = string(id)
	}
	return "Unreachable states detected: " + strings.Join(ids, ", ")
}

// CheckReachability traverses the transition graph from the initial
// state, treating guarded and multi-target specs as edges to every
// listed target regardless of guard outcome. Global transitions are
// edges out of every state. This is a structural sanity check only:
// guard rejection can still make a structurally reachable state
// practically unreachable, and that is not flagged.
func CheckReachability(m *Machine) *UnreachableError {
	if _, ok := m.States[m.Initial]; !ok {
		return nil
	}

	visited := map[StateID]bool{m.Initial: true}
	queue := []StateID{m.Initial}

	visit := func(target StateID) {
		if !visited[target] {
			visited[target] = true
			queue = append(queue, target)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, candidates := range m.States[id].On {
			for _, c := range candidates {
				if _, ok := m.States[c.Target]; ok {
					visit(c.Target)
				}
			}
		}
		for _, candidates := range m.Global {
			for _, c := range candidates {
				if _, ok := m.States[c.Target]; ok {
					visit(c.Target)
				}
			}
		}
	}

	var unreachable []StateID
	for _, id := range m.Order {
		if !visited[id] {
			unreachable = append(unreachable, id)
		}
	}
	if len(unreachable) == 0 {
		return nil
	}
	return &UnreachableError{States: unreachable}
}
