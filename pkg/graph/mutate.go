package graph

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// now is indirected for deterministic timestamps in tests.
var now = time.Now

// NewEmptyGraph creates a graph with zero states. Callers must add at least
// one state before handing the graph to the runtime engine.
func NewEmptyGraph(name string) StateGraph {
	ts := now().UTC()
	return StateGraph{
		ID:                        uuid.NewString(),
		Name:                      name,
		States:                    []AudioState{},
		Transitions:               []StateTransition{},
		Parameters:                []Parameter{},
		DefaultTransitionDuration: 1000,
		DefaultTransitionType:     TransitionCrossfade,
		CreatedAt:                 ts,
		UpdatedAt:                 ts,
	}
}

// Clone returns a deep copy of the graph. No slice or map storage is shared
// with the receiver, so callers can mutate the copy freely.
func (g StateGraph) Clone() StateGraph {
	out := g

	out.States = make([]AudioState, len(g.States))
	for i, s := range g.States {
		out.States[i] = cloneState(s)
	}

	out.Transitions = make([]StateTransition, len(g.Transitions))
	for i, t := range g.Transitions {
		out.Transitions[i] = t
		out.Transitions[i].Conditions = append([]TransitionCondition(nil), t.Conditions...)
	}

	out.Parameters = append([]Parameter(nil), g.Parameters...)
	for i, p := range g.Parameters {
		if p.Min != nil {
			v := *p.Min
			out.Parameters[i].Min = &v
		}
		if p.Max != nil {
			v := *p.Max
			out.Parameters[i].Max = &v
		}
	}

	out.Layers = make([]AudioLayer, len(g.Layers))
	for i, l := range g.Layers {
		out.Layers[i] = l
		out.Layers[i].Sources = append([]AudioSource(nil), l.Sources...)
	}

	return out
}

func cloneState(s AudioState) AudioState {
	out := s
	out.Tags = append([]string(nil), s.Tags...)
	out.Audio.ActiveLayers = append([]string(nil), s.Audio.ActiveLayers...)
	if s.Audio.LayerVolumes != nil {
		out.Audio.LayerVolumes = make(map[string]float64, len(s.Audio.LayerVolumes))
		for k, v := range s.Audio.LayerVolumes {
			out.Audio.LayerVolumes[k] = v
		}
	}
	if s.Position != nil {
		p := *s.Position
		out.Position = &p
	}
	return out
}

func (g StateGraph) touched() StateGraph {
	g.UpdatedAt = now().UTC()
	return g
}

// AddState appends a state. An empty ID is assigned a fresh UUID. If the new
// state is flagged initial, the flag is cleared on every other state so the
// single-initial invariant holds.
func (g StateGraph) AddState(s AudioState) (StateGraph, error) {
	out := g.Clone()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, exists := out.State(s.ID); exists {
		return g, &ValidationError{Field: "state:" + s.ID, Reason: "duplicate state id"}
	}
	if s.Audio.MasterVolume == 0 {
		s.Audio.MasterVolume = 1
	}
	if s.IsInitial {
		for i := range out.States {
			out.States[i].IsInitial = false
		}
	}
	out.States = append(out.States, cloneState(s))
	return out.touched(), nil
}

// UpdateState replaces the state with the same ID. The ID itself is
// immutable; a state that does not exist is an error.
func (g StateGraph) UpdateState(s AudioState) (StateGraph, error) {
	out := g.Clone()
	idx := -1
	for i, existing := range out.States {
		if existing.ID == s.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return g, &ValidationError{Field: "state:" + s.ID, Reason: "state does not exist"}
	}
	if s.IsInitial {
		for i := range out.States {
			out.States[i].IsInitial = false
		}
	}
	out.States[idx] = cloneState(s)
	return out.touched(), nil
}

// DeleteState removes a state and cascades: every transition referencing it
// (in either direction) is deleted too, so no dangling edge survives.
func (g StateGraph) DeleteState(id string) (StateGraph, error) {
	out := g.Clone()
	idx := -1
	for i, s := range out.States {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return g, &ValidationError{Field: "state:" + id, Reason: "state does not exist"}
	}
	out.States = append(out.States[:idx], out.States[idx+1:]...)

	kept := out.Transitions[:0]
	for _, t := range out.Transitions {
		if t.FromStateID != id && t.ToStateID != id {
			kept = append(kept, t)
		}
	}
	out.Transitions = kept
	return out.touched(), nil
}

// AddTransition appends a transition. Dangling state references are an
// error. A self transition, or a second transition between the same ordered
// state pair, is silently rejected: the graph is returned unchanged.
func (g StateGraph) AddTransition(t StateTransition) (StateGraph, error) {
	if _, ok := g.State(t.FromStateID); !ok {
		return g, &ValidationError{Field: "transition:" + t.ID, Reason: fmt.Sprintf("fromStateId %q does not exist", t.FromStateID)}
	}
	if _, ok := g.State(t.ToStateID); !ok {
		return g, &ValidationError{Field: "transition:" + t.ID, Reason: fmt.Sprintf("toStateId %q does not exist", t.ToStateID)}
	}
	if t.FromStateID == t.ToStateID {
		return g, nil
	}
	for _, existing := range g.Transitions {
		if existing.FromStateID == t.FromStateID && existing.ToStateID == t.ToStateID {
			return g, nil
		}
	}

	out := g.Clone()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Type == "" {
		t.Type = out.DefaultTransitionType
	}
	if t.DurationMs == 0 {
		t.DurationMs = out.DefaultTransitionDuration
	}
	if t.Logic == "" {
		t.Logic = LogicAnd
	}
	if t.Conditions == nil {
		t.Conditions = []TransitionCondition{}
	}
	t.Conditions = append([]TransitionCondition(nil), t.Conditions...)
	out.Transitions = append(out.Transitions, t)
	return out.touched(), nil
}

// UpdateTransition replaces the transition with the same ID. Endpoint
// changes are validated like AddTransition.
func (g StateGraph) UpdateTransition(t StateTransition) (StateGraph, error) {
	out := g.Clone()
	idx := -1
	for i, existing := range out.Transitions {
		if existing.ID == t.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return g, &ValidationError{Field: "transition:" + t.ID, Reason: "transition does not exist"}
	}
	if _, ok := out.State(t.FromStateID); !ok {
		return g, &ValidationError{Field: "transition:" + t.ID, Reason: fmt.Sprintf("fromStateId %q does not exist", t.FromStateID)}
	}
	if _, ok := out.State(t.ToStateID); !ok {
		return g, &ValidationError{Field: "transition:" + t.ID, Reason: fmt.Sprintf("toStateId %q does not exist", t.ToStateID)}
	}
	if t.FromStateID == t.ToStateID {
		return g, nil
	}
	t.Conditions = append([]TransitionCondition(nil), t.Conditions...)
	out.Transitions[idx] = t
	return out.touched(), nil
}

// DeleteTransition removes a transition by ID.
func (g StateGraph) DeleteTransition(id string) (StateGraph, error) {
	out := g.Clone()
	idx := -1
	for i, t := range out.Transitions {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return g, &ValidationError{Field: "transition:" + id, Reason: "transition does not exist"}
	}
	out.Transitions = append(out.Transitions[:idx], out.Transitions[idx+1:]...)
	return out.touched(), nil
}

// AddParameter declares a parameter. Duplicate names are an error.
func (g StateGraph) AddParameter(p Parameter) (StateGraph, error) {
	if p.Name == "" {
		return g, &ValidationError{Field: "parameter", Reason: "missing name"}
	}
	if _, exists := g.Parameter(p.Name); exists {
		return g, &ValidationError{Field: "parameter:" + p.Name, Reason: "duplicate parameter name"}
	}
	if p.Type == "" {
		p.Type = ParameterNumber
	}
	if p.Default.IsZero() {
		switch p.Type {
		case ParameterBoolean:
			p.Default = BoolValue(false)
		case ParameterString:
			p.Default = StringValue("")
		default:
			p.Default = NumberValue(0)
		}
	}
	out := g.Clone()
	out.Parameters = append(out.Parameters, p)
	return out.touched(), nil
}

// UpdateParameter replaces the declaration with the same name.
func (g StateGraph) UpdateParameter(p Parameter) (StateGraph, error) {
	out := g.Clone()
	for i, existing := range out.Parameters {
		if existing.Name == p.Name {
			out.Parameters[i] = p
			return out.touched(), nil
		}
	}
	return g, &ValidationError{Field: "parameter:" + p.Name, Reason: "parameter does not exist"}
}

// DeleteParameter removes a declaration by name. Conditions referencing the
// removed name are left in place: they simply evaluate to false at runtime.
func (g StateGraph) DeleteParameter(name string) (StateGraph, error) {
	out := g.Clone()
	for i, p := range out.Parameters {
		if p.Name == name {
			out.Parameters = append(out.Parameters[:i], out.Parameters[i+1:]...)
			return out.touched(), nil
		}
	}
	return g, &ValidationError{Field: "parameter:" + name, Reason: "parameter does not exist"}
}

// AddLayer declares a logical audio layer.
func (g StateGraph) AddLayer(l AudioLayer) (StateGraph, error) {
	out := g.Clone()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	for _, existing := range out.Layers {
		if existing.ID == l.ID {
			return g, &ValidationError{Field: "layer:" + l.ID, Reason: "duplicate layer id"}
		}
	}
	if l.Selection == "" {
		l.Selection = SelectionRandom
	}
	l.Sources = append([]AudioSource(nil), l.Sources...)
	out.Layers = append(out.Layers, l)
	return out.touched(), nil
}

// UpdateLayer replaces the layer with the same ID.
func (g StateGraph) UpdateLayer(l AudioLayer) (StateGraph, error) {
	out := g.Clone()
	for i, existing := range out.Layers {
		if existing.ID == l.ID {
			l.Sources = append([]AudioSource(nil), l.Sources...)
			out.Layers[i] = l
			return out.touched(), nil
		}
	}
	return g, &ValidationError{Field: "layer:" + l.ID, Reason: "layer does not exist"}
}

// DeleteLayer removes a layer and scrubs its name from every state's
// active-layer list and volume map.
func (g StateGraph) DeleteLayer(id string) (StateGraph, error) {
	out := g.Clone()
	idx := -1
	var name string
	for i, l := range out.Layers {
		if l.ID == id {
			idx = i
			name = l.Name
			break
		}
	}
	if idx < 0 {
		return g, &ValidationError{Field: "layer:" + id, Reason: "layer does not exist"}
	}
	out.Layers = append(out.Layers[:idx], out.Layers[idx+1:]...)

	for i := range out.States {
		active := out.States[i].Audio.ActiveLayers[:0]
		for _, l := range out.States[i].Audio.ActiveLayers {
			if l != name {
				active = append(active, l)
			}
		}
		out.States[i].Audio.ActiveLayers = active
		delete(out.States[i].Audio.LayerVolumes, name)
	}
	return out.touched(), nil
}

// Duplicate deep-copies the graph under a fresh ID with fresh timestamps.
func (g StateGraph) Duplicate() StateGraph {
	out := g.Clone()
	out.ID = uuid.NewString()
	out.Name = g.Name + " (copy)"
	ts := now().UTC()
	out.CreatedAt = ts
	out.UpdatedAt = ts
	return out
}

// NewParameterCondition resolves a raw threshold against the parameter's
// declared type at construction time, so evaluation never re-interprets it.
func NewParameterCondition(p Parameter, op Operator, raw any) (TransitionCondition, error) {
	v, err := NewValue(p.Type, raw)
	if err != nil {
		return TransitionCondition{}, fmt.Errorf("condition on %q: %w", p.Name, err)
	}
	return TransitionCondition{
		Kind:      ConditionParameter,
		Parameter: p.Name,
		Operator:  op,
		Value:     v,
	}, nil
}

// NewDurationCondition is true once the current state has been active for
// at least thresholdMs.
func NewDurationCondition(thresholdMs float64) TransitionCondition {
	return TransitionCondition{Kind: ConditionStateDuration, ThresholdMs: thresholdMs}
}
