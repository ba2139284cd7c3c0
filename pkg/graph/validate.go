package graph

import "fmt"

// Validate checks the graph's structural invariants:
//
//   - state IDs are unique
//   - at most one state is flagged initial
//   - every transition references two existing, distinct states
//   - no duplicate transition between the same ordered state pair
//   - parameter names are unique
//   - layer IDs are unique
//
// A graph violating any of these is invalid and must be rejected by the
// engine and compiler, never silently repaired.
func Validate(g StateGraph) error {
	var errs []error

	stateIDs := make(map[string]bool, len(g.States))
	initial := 0
	for _, s := range g.States {
		if s.ID == "" {
			errs = append(errs, &ValidationError{Field: "state:" + s.Name, Reason: "missing id"})
			continue
		}
		if stateIDs[s.ID] {
			errs = append(errs, &ValidationError{Field: "state:" + s.ID, Reason: "duplicate state id"})
		}
		stateIDs[s.ID] = true
		if s.IsInitial {
			initial++
		}
	}
	if initial > 1 {
		errs = append(errs, &ValidationError{Field: "states", Reason: "more than one initial state"})
	}

	pairs := make(map[[2]string]bool, len(g.Transitions))
	for _, t := range g.Transitions {
		field := "transition:" + t.ID
		if !stateIDs[t.FromStateID] {
			errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf("fromStateId %q does not exist", t.FromStateID)})
		}
		if !stateIDs[t.ToStateID] {
			errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf("toStateId %q does not exist", t.ToStateID)})
		}
		if t.FromStateID == t.ToStateID {
			errs = append(errs, &ValidationError{Field: field, Reason: "self transition"})
		}
		pair := [2]string{t.FromStateID, t.ToStateID}
		if pairs[pair] {
			errs = append(errs, &ValidationError{Field: field, Reason: "duplicate transition between state pair"})
		}
		pairs[pair] = true
	}

	params := make(map[string]bool, len(g.Parameters))
	for _, p := range g.Parameters {
		if p.Name == "" {
			errs = append(errs, &ValidationError{Field: "parameter", Reason: "missing name"})
			continue
		}
		if params[p.Name] {
			errs = append(errs, &ValidationError{Field: "parameter:" + p.Name, Reason: "duplicate parameter name"})
		}
		params[p.Name] = true
	}

	layers := make(map[string]bool, len(g.Layers))
	for _, l := range g.Layers {
		if layers[l.ID] {
			errs = append(errs, &ValidationError{Field: "layer:" + l.ID, Reason: "duplicate layer id"})
		}
		layers[l.ID] = true
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
