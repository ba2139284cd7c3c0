package graph

import "time"

// TransitionType defines how the audio collaborator should realize a transition.
type TransitionType string

const (
	TransitionInstant   TransitionType = "instant"
	TransitionCrossfade TransitionType = "crossfade"
	TransitionMusical   TransitionType = "musical"
	TransitionStinger   TransitionType = "stinger"
	TransitionDuck      TransitionType = "duck"
	TransitionLayerIn   TransitionType = "layer_in"
	TransitionLayerOut  TransitionType = "layer_out"
)

// TransitionTypes lists every valid transition type in stable order.
func TransitionTypes() []TransitionType {
	return []TransitionType{
		TransitionInstant,
		TransitionCrossfade,
		TransitionMusical,
		TransitionStinger,
		TransitionDuck,
		TransitionLayerIn,
		TransitionLayerOut,
	}
}

// ConditionLogic combines the conditions of a transition.
type ConditionLogic string

const (
	LogicAnd ConditionLogic = "AND"
	LogicOr  ConditionLogic = "OR"
)

// ConditionKind tags the variant of a TransitionCondition.
type ConditionKind string

const (
	// ConditionParameter compares a live parameter against a threshold.
	ConditionParameter ConditionKind = "parameter"
	// ConditionStateDuration is true once the current state has been
	// active for at least ThresholdMs.
	ConditionStateDuration ConditionKind = "state_duration"
)

// Operator is a comparison operator for parameter conditions.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
)

// ParameterType declares the value space of a Parameter.
type ParameterType string

const (
	ParameterNumber  ParameterType = "number"
	ParameterBoolean ParameterType = "boolean"
	ParameterString  ParameterType = "string"
)

// SelectionMode is the abstract source-selection strategy of a layer.
// Each compile target maps these onto its closest native equivalent.
type SelectionMode string

const (
	SelectionRandom     SelectionMode = "random"
	SelectionSequential SelectionMode = "sequential"
	SelectionRoundRobin SelectionMode = "round_robin"
	SelectionWeighted   SelectionMode = "weighted"
	SelectionShuffle    SelectionMode = "shuffle"
)

// StateGraph is the aggregate root: a declarative graph of audio states
// connected by parameter-driven transitions.
//
// State order is not semantically meaningful but is preserved for stable
// diffs. At most one state has IsInitial set; if none does, the first state
// in insertion order is treated as initial.
type StateGraph struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	States      []AudioState      `json:"states" yaml:"states"`
	Transitions []StateTransition `json:"transitions" yaml:"transitions"`
	Parameters  []Parameter       `json:"parameters" yaml:"parameters"`
	Layers      []AudioLayer      `json:"layers,omitempty" yaml:"layers,omitempty"`

	DefaultTransitionDuration int            `json:"defaultTransitionDuration" yaml:"defaultTransitionDuration"`
	DefaultTransitionType     TransitionType `json:"defaultTransitionType" yaml:"defaultTransitionType"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// AudioState is a named audio configuration. Its ID is stable and immutable
// once assigned.
type AudioState struct {
	ID        string      `json:"id" yaml:"id"`
	Name      string      `json:"name" yaml:"name"`
	Tags      []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsInitial bool        `json:"isInitial,omitempty" yaml:"isInitial,omitempty"`
	Audio     AudioConfig `json:"audioConfig" yaml:"audioConfig"`

	// Position is editor-only layout data, ignored by the engine and compiler.
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
}

// AudioConfig names the logical layers active in a state and their mix levels.
type AudioConfig struct {
	ActiveLayers []string           `json:"activeLayers" yaml:"activeLayers"`
	LayerVolumes map[string]float64 `json:"layerVolumes,omitempty" yaml:"layerVolumes,omitempty"`
	MasterVolume float64            `json:"masterVolume" yaml:"masterVolume"`
}

// Position is editor-only node placement.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// StateTransition is a directed edge between two states.
type StateTransition struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	FromStateID string         `json:"fromStateId" yaml:"fromStateId"`
	ToStateID   string         `json:"toStateId" yaml:"toStateId"`
	Type        TransitionType `json:"transitionType" yaml:"transitionType"`

	// DurationMs is advisory metadata for the audio collaborator's fade
	// implementation; the engine never blocks on it.
	DurationMs int `json:"duration" yaml:"duration"`

	Conditions []TransitionCondition `json:"conditions" yaml:"conditions"`
	Logic      ConditionLogic        `json:"conditionLogic" yaml:"conditionLogic"`

	// Priority breaks conflicts when several transitions fire on the same
	// tick: higher fires first, ties go to the lowest transition ID.
	Priority int `json:"priority" yaml:"priority"`
}

// TransitionCondition is a tagged variant: either a parameter comparison or
// a state-duration threshold.
type TransitionCondition struct {
	Kind ConditionKind `json:"kind" yaml:"kind"`

	// Parameter comparison (Kind == ConditionParameter).
	Parameter string   `json:"parameter,omitempty" yaml:"parameter,omitempty"`
	Operator  Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value     Value    `json:"value,omitempty" yaml:"value,omitempty"`

	// State duration threshold (Kind == ConditionStateDuration).
	ThresholdMs float64 `json:"thresholdMs,omitempty" yaml:"thresholdMs,omitempty"`
}

// Parameter declares a runtime input on the graph. Names are unique within
// a graph. Min/Max bound numeric parameters both in the editor and for
// clamping at runtime.
type Parameter struct {
	Name    string        `json:"name" yaml:"name"`
	Type    ParameterType `json:"type" yaml:"type"`
	Default Value         `json:"defaultValue" yaml:"defaultValue"`
	Min     *float64      `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64      `json:"max,omitempty" yaml:"max,omitempty"`
}

// Clamp constrains a numeric value to the parameter's declared bounds.
// Non-numeric parameters and unbounded values pass through unchanged.
func (p Parameter) Clamp(v float64) float64 {
	if p.Type != ParameterNumber {
		return v
	}
	if p.Min != nil && v < *p.Min {
		v = *p.Min
	}
	if p.Max != nil && v > *p.Max {
		v = *p.Max
	}
	return v
}

// AudioLayer is a named logical audio track shared across states. It is not
// a literal file: states reference layers by name in their AudioConfig.
type AudioLayer struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Selection SelectionMode `json:"selection" yaml:"selection"`
	Sources   []AudioSource `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// AudioSource is one generated or imported clip inside a layer.
type AudioSource struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Parameter returns the declaration for name, if present.
func (g StateGraph) Parameter(name string) (Parameter, bool) {
	for _, p := range g.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// State returns the state with the given ID, if present.
func (g StateGraph) State(id string) (AudioState, bool) {
	for _, s := range g.States {
		if s.ID == id {
			return s, true
		}
	}
	return AudioState{}, false
}

// Transition returns the transition with the given ID, if present.
func (g StateGraph) Transition(id string) (StateTransition, bool) {
	for _, t := range g.Transitions {
		if t.ID == id {
			return t, true
		}
	}
	return StateTransition{}, false
}

// TransitionsFrom returns every transition leaving the given state.
func (g StateGraph) TransitionsFrom(stateID string) []StateTransition {
	var out []StateTransition
	for _, t := range g.Transitions {
		if t.FromStateID == stateID {
			out = append(out, t)
		}
	}
	return out
}

// InitialState resolves the graph's initial state: the state flagged
// IsInitial, or the first state in insertion order. The second return is
// false for a graph with zero states.
func (g StateGraph) InitialState() (AudioState, bool) {
	for _, s := range g.States {
		if s.IsInitial {
			return s, true
		}
	}
	if len(g.States) > 0 {
		return g.States[0], true
	}
	return AudioState{}, false
}
