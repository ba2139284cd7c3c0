// Package eval implements stateless predicate evaluation over a parameter
// snapshot and the elapsed time in the current state.
//
// Evaluation is measurement, not control flow: an unknown parameter name, a
// type mismatch or a NaN comparison never raises an error. All of these
// resolve to false, because the caller is a real-time tick loop where
// throwing would halt playback.
package eval

import "github.com/strataudio/strata/pkg/graph"

// Snapshot is the live parameter store the engine evaluates against.
type Snapshot map[string]graph.Value

// Clone deep-copies the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Condition evaluates a single condition against the snapshot and the time
// (in milliseconds) the current state has been active.
func Condition(c graph.TransitionCondition, snap Snapshot, elapsedMs float64) bool {
	switch c.Kind {
	case graph.ConditionStateDuration:
		return elapsedMs >= c.ThresholdMs
	case graph.ConditionParameter:
		v, ok := snap[c.Parameter]
		if !ok {
			return false
		}
		return compare(v, c.Operator, c.Value)
	default:
		return false
	}
}

// compare applies the operator between a live value and a threshold. The two
// must share a type tag; mismatches are false. Numeric comparison uses plain
// IEEE-754 semantics, so NaN on either side is false for every operator.
func compare(live graph.Value, op graph.Operator, threshold graph.Value) bool {
	if live.Type != threshold.Type {
		return false
	}
	switch live.Type {
	case graph.ParameterNumber:
		a, b := live.Number, threshold.Number
		switch op {
		case graph.OpGreater:
			return a > b
		case graph.OpLess:
			return a < b
		case graph.OpGreaterEqual:
			return a >= b
		case graph.OpLessEqual:
			return a <= b
		case graph.OpEqual:
			return a == b
		}
	case graph.ParameterBoolean:
		if op == graph.OpEqual {
			return live.Bool == threshold.Bool
		}
	case graph.ParameterString:
		if op == graph.OpEqual {
			return live.Str == threshold.Str
		}
	}
	return false
}

// Transition combines a transition's conditions per its condition logic.
//
// AND requires every condition to hold and is vacuously true for an empty
// condition list: a transition with no conditions is always eligible.
//
// OR requires at least one condition to hold and is vacuously FALSE for an
// empty list. This asymmetry is deliberate and load-bearing: an OR
// transition with zero conditions never fires, and changing it would alter
// observable transition timing in shipped graphs.
func Transition(t graph.StateTransition, snap Snapshot, elapsedMs float64) bool {
	if t.Logic == graph.LogicOr {
		for _, c := range t.Conditions {
			if Condition(c, snap, elapsedMs) {
				return true
			}
		}
		return false
	}
	for _, c := range t.Conditions {
		if !Condition(c, snap, elapsedMs) {
			return false
		}
	}
	return true
}

// Select picks the transition to fire among candidates leaving the current
// state: the eligible transition with the highest priority, ties broken by
// the lowest transition ID. The tie-break is stable and deterministic on
// purpose; insertion order is not preserved across serialization, so it can
// never be the tie-break.
func Select(candidates []graph.StateTransition, snap Snapshot, elapsedMs float64) (graph.StateTransition, bool) {
	var best graph.StateTransition
	found := false
	for _, t := range candidates {
		if !Transition(t, snap, elapsedMs) {
			continue
		}
		if !found || t.Priority > best.Priority || (t.Priority == best.Priority && t.ID < best.ID) {
			best = t
			found = true
		}
	}
	return best, found
}

// SnapshotFromDefaults seeds a snapshot with every declared parameter's
// default value.
func SnapshotFromDefaults(g graph.StateGraph) Snapshot {
	snap := make(Snapshot, len(g.Parameters))
	for _, p := range g.Parameters {
		snap[p.Name] = p.Default
	}
	return snap
}
