package graph

// TransitionEvent is emitted when the engine commits a transition. Duration
// is advisory: the audio collaborator owns the audible fade, the engine has
// already moved on.
type TransitionEvent struct {
	GraphID      string         `json:"graphId"`
	TransitionID string         `json:"transitionId"`
	FromStateID  string         `json:"fromStateId"`
	ToStateID    string         `json:"toStateId"`
	Type         TransitionType `json:"transitionType"`
	DurationMs   int            `json:"duration"`
}

// StateEvent is emitted when a state becomes current, carrying the audio
// configuration the collaborator should realize.
type StateEvent struct {
	GraphID   string      `json:"graphId"`
	StateID   string      `json:"stateId"`
	StateName string      `json:"stateName"`
	Audio     AudioConfig `json:"audioConfig"`
}

// LifecycleHooks defines optional callbacks for engine observability.
// Hooks run inside the tick, so they must return quickly.
type LifecycleHooks struct {
	OnTick            func()
	OnTransitionStart func(TransitionEvent)
	OnStateEnter      func(StateEvent)
}
