/*
Package sim is the deterministic offline simulator: it replays a fixed
parameter trajectory through the exact transition-selection rules the
runtime engine uses, without wall-clock time.

Given the same graph and trajectory, two runs produce byte-identical
timelines, which makes the simulator usable as a test oracle for the
engine's selection logic and as the backing for editor previews.
*/
package sim

import (
	"fmt"
	"sort"

	"github.com/strataudio/strata/internal/eval"
	"github.com/strataudio/strata/pkg/graph"
)

// DefaultStepMs is the simulation step used when the caller passes zero.
const DefaultStepMs = 100

// Keyframe sets parameter values at a point on the simulated clock. Values
// apply from AtMs onward until a later keyframe overrides them.
type Keyframe struct {
	AtMs   int            `json:"atMs" yaml:"atMs"`
	Values map[string]any `json:"values" yaml:"values"`
}

// Trajectory is an ordered list of keyframes.
type Trajectory []Keyframe

// Constant builds a trajectory that applies the given values at t=0 and
// never changes them.
func Constant(values map[string]any) Trajectory {
	return Trajectory{{AtMs: 0, Values: values}}
}

// Point is one timeline sample: the state occupied at time T along with the
// parameter snapshot in effect.
type Point struct {
	TimeMs     int                    `json:"time"`
	StateID    string                 `json:"state"`
	StateName  string                 `json:"stateName"`
	Parameters map[string]graph.Value `json:"parameters"`
}

// Timeline is the simulation result.
type Timeline struct {
	Points        []Point  `json:"timeline"`
	StatesVisited []string `json:"statesVisited"`
}

// Simulate steps t from 0 to totalMs inclusive in stepMs increments. At
// each step it applies due keyframes, records the current state, then
// evaluates transitions with the same selection rules as the runtime engine
// (highest priority wins, ties to lowest transition ID).
//
// Recording happens before evaluation, so a transition taken at step t is
// first visible in the point at t+stepMs.
func Simulate(g graph.StateGraph, traj Trajectory, totalMs, stepMs int) (Timeline, error) {
	if err := graph.Validate(g); err != nil {
		return Timeline{}, fmt.Errorf("refusing to simulate invalid graph: %w", err)
	}
	initial, ok := g.InitialState()
	if !ok {
		return Timeline{}, graph.ErrNoStates
	}
	if stepMs <= 0 {
		stepMs = DefaultStepMs
	}
	if totalMs < 0 {
		return Timeline{}, fmt.Errorf("negative duration %dms", totalMs)
	}

	keyframes := append(Trajectory(nil), traj...)
	sort.SliceStable(keyframes, func(i, j int) bool { return keyframes[i].AtMs < keyframes[j].AtMs })

	snap := eval.SnapshotFromDefaults(g)
	currentID := initial.ID
	enteredAt := 0
	nextKeyframe := 0

	visited := map[string]bool{}
	var timeline Timeline

	for t := 0; t <= totalMs; t += stepMs {
		for nextKeyframe < len(keyframes) && keyframes[nextKeyframe].AtMs <= t {
			applyKeyframe(g, snap, keyframes[nextKeyframe])
			nextKeyframe++
		}

		state, _ := g.State(currentID)
		visited[currentID] = true
		timeline.Points = append(timeline.Points, Point{
			TimeMs:     t,
			StateID:    currentID,
			StateName:  state.Name,
			Parameters: snap.Clone(),
		})

		elapsed := float64(t - enteredAt)
		if selected, ok := eval.Select(g.TransitionsFrom(currentID), snap, elapsed); ok {
			currentID = selected.ToStateID
			enteredAt = t
		}
	}

	timeline.StatesVisited = make([]string, 0, len(visited))
	for id := range visited {
		timeline.StatesVisited = append(timeline.StatesVisited, id)
	}
	sort.Strings(timeline.StatesVisited)

	return timeline, nil
}

// applyKeyframe writes keyframe values into the snapshot with the same
// clamping rules the engine applies. Map iteration order does not matter:
// each parameter is written independently.
func applyKeyframe(g graph.StateGraph, snap eval.Snapshot, kf Keyframe) {
	for name, raw := range kf.Values {
		if p, ok := g.Parameter(name); ok {
			v, err := graph.NewValue(p.Type, raw)
			if err != nil {
				// Mirrors the engine: a mistyped value is a measurement
				// fault, not a crash. The parameter keeps its old value.
				continue
			}
			if v.Type == graph.ParameterNumber {
				v = graph.NumberValue(p.Clamp(v.Number))
			}
			snap[name] = v
			continue
		}
		snap[name] = graph.InferValue(raw)
	}
}
