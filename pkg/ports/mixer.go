package ports

import "github.com/strataudio/strata/pkg/graph"

// Mixer is the audio-layer collaborator the engine emits decisions to. The
// engine decides which logical layers are active and when transitions occur;
// the mixer owns the waveforms.
//
// Calls arrive from the engine's tick goroutine. A mixer doing real work
// should hand events off to its own scheduling rather than block the tick.
type Mixer interface {
	// BeginTransition announces a committed transition. DurationMs is
	// advisory fade metadata; the engine has already switched states.
	BeginTransition(ev graph.TransitionEvent)

	// EnterState announces the new current state and its audio config.
	EnterState(ev graph.StateEvent)
}

// NopMixer discards all events. Useful for tests and headless simulation.
type NopMixer struct{}

func (NopMixer) BeginTransition(graph.TransitionEvent) {}
func (NopMixer) EnterState(graph.StateEvent)           {}
