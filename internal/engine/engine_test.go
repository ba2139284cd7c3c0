package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataudio/strata/pkg/graph"
)

// recordingMixer captures emitted events for assertions.
type recordingMixer struct {
	mu          sync.Mutex
	transitions []graph.TransitionEvent
	states      []graph.StateEvent
}

func (m *recordingMixer) BeginTransition(ev graph.TransitionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, ev)
}

func (m *recordingMixer) EnterState(ev graph.StateEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, ev)
}

func (m *recordingMixer) transitionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transitions)
}

func combatGraph(t *testing.T) graph.StateGraph {
	t.Helper()
	g := graph.NewEmptyGraph("combat")

	var err error
	g, err = g.AddState(graph.AudioState{ID: "explore", Name: "Explore", IsInitial: true})
	require.NoError(t, err)
	g, err = g.AddState(graph.AudioState{ID: "combat", Name: "Combat"})
	require.NoError(t, err)

	g, err = g.AddParameter(graph.Parameter{
		Name: "threat", Type: graph.ParameterNumber,
		Min: ptr(0.0), Max: ptr(100.0),
	})
	require.NoError(t, err)

	p, _ := g.Parameter("threat")
	cond, err := graph.NewParameterCondition(p, graph.OpGreater, 50)
	require.NoError(t, err)

	g, err = g.AddTransition(graph.StateTransition{
		ID: "to-combat", FromStateID: "explore", ToStateID: "combat",
		Type: graph.TransitionCrossfade, DurationMs: 800,
		Conditions: []graph.TransitionCondition{cond},
		Priority:   10,
	})
	require.NoError(t, err)
	return g
}

func ptr(v float64) *float64 { return &v }

func TestNewRejectsEmptyGraph(t *testing.T) {
	g := graph.NewEmptyGraph("empty")
	_, err := New(g)
	require.ErrorIs(t, err, graph.ErrNoStates)
}

func TestNewRejectsInvalidGraph(t *testing.T) {
	g := combatGraph(t)
	g.Transitions = append(g.Transitions, graph.StateTransition{
		ID: "bad", FromStateID: "explore", ToStateID: "nowhere",
	})
	_, err := New(g)
	require.Error(t, err)
}

func TestTickTakesEligibleTransition(t *testing.T) {
	mixer := &recordingMixer{}
	base := time.Unix(0, 0)
	e, err := New(combatGraph(t), WithMixer(mixer), WithClock(func() time.Time { return base }))
	require.NoError(t, err)

	e.SetParameter("threat", 80.0)
	e.mu.Lock()
	e.phase = PhaseRunning
	e.step(base.Add(16 * time.Millisecond))
	e.mu.Unlock()

	state, ok := e.CurrentState()
	require.True(t, ok)
	assert.Equal(t, "combat", state.ID)

	require.Len(t, mixer.transitions, 1)
	assert.Equal(t, "to-combat", mixer.transitions[0].TransitionID)
	assert.Equal(t, graph.TransitionCrossfade, mixer.transitions[0].Type)
	assert.Equal(t, 800, mixer.transitions[0].DurationMs)

	require.Len(t, mixer.states, 1)
	assert.Equal(t, "Combat", mixer.states[0].StateName)
}

func TestTickIgnoresIneligibleTransition(t *testing.T) {
	base := time.Unix(0, 0)
	e, err := New(combatGraph(t), WithClock(func() time.Time { return base }))
	require.NoError(t, err)

	e.SetParameter("threat", 10.0)
	e.mu.Lock()
	e.phase = PhaseRunning
	e.step(base.Add(16 * time.Millisecond))
	e.mu.Unlock()

	state, _ := e.CurrentState()
	assert.Equal(t, "explore", state.ID)
}

func TestSetParameterClampsToDeclaredBounds(t *testing.T) {
	e, err := New(combatGraph(t))
	require.NoError(t, err)

	e.SetParameter("threat", 150.0)
	assert.Equal(t, graph.NumberValue(100), e.Snapshot()["threat"], "max=100 must clamp 150 to 100")

	e.SetParameter("threat", -5.0)
	assert.Equal(t, graph.NumberValue(0), e.Snapshot()["threat"])
}

func TestSetParameterUnknownNameIsStored(t *testing.T) {
	e, err := New(combatGraph(t))
	require.NoError(t, err)

	e.SetParameter("future_param", 42.0)
	assert.Equal(t, graph.NumberValue(42), e.Snapshot()["future_param"],
		"unknown names are stored for forward compatibility")
}

func TestPriorityAndTieBreak(t *testing.T) {
	g := combatGraph(t)
	var err error
	g, err = g.AddState(graph.AudioState{ID: "panic", Name: "Panic"})
	require.NoError(t, err)
	g, err = g.AddState(graph.AudioState{ID: "calm", Name: "Calm"})
	require.NoError(t, err)

	// Both unconditional: same priority as each other, higher than to-combat.
	g, err = g.AddTransition(graph.StateTransition{
		ID: "b-panic", FromStateID: "explore", ToStateID: "panic", Priority: 20,
	})
	require.NoError(t, err)
	g, err = g.AddTransition(graph.StateTransition{
		ID: "a-calm", FromStateID: "explore", ToStateID: "calm", Priority: 20,
	})
	require.NoError(t, err)

	base := time.Unix(0, 0)
	e, err := New(g, WithClock(func() time.Time { return base }))
	require.NoError(t, err)

	e.SetParameter("threat", 99.0) // to-combat is eligible too, at priority 10
	e.mu.Lock()
	e.phase = PhaseRunning
	e.step(base.Add(16 * time.Millisecond))
	e.mu.Unlock()

	state, _ := e.CurrentState()
	assert.Equal(t, "calm", state.ID,
		"priority 20 beats 10; tie between a-calm and b-panic goes to the lower ID")
}

func TestStateDurationTransition(t *testing.T) {
	g := combatGraph(t)
	var err error
	g, err = g.AddTransition(graph.StateTransition{
		ID: "timeout", FromStateID: "explore", ToStateID: "combat",
		Conditions: []graph.TransitionCondition{graph.NewDurationCondition(5000)},
		Priority:   1,
	})
	// Duplicate explore→combat pair: silently dropped, so rebuild with a
	// distinct target to exercise duration alone.
	require.NoError(t, err)
	g, err = g.AddState(graph.AudioState{ID: "rest", Name: "Rest"})
	require.NoError(t, err)
	g, err = g.AddTransition(graph.StateTransition{
		ID: "to-rest", FromStateID: "explore", ToStateID: "rest",
		Conditions: []graph.TransitionCondition{graph.NewDurationCondition(5000)},
		Priority:   1,
	})
	require.NoError(t, err)

	base := time.Unix(0, 0)
	e, err := New(g, WithClock(func() time.Time { return base }))
	require.NoError(t, err)

	e.mu.Lock()
	e.phase = PhaseRunning
	e.step(base.Add(4 * time.Second))
	cur := e.currentID
	e.mu.Unlock()
	assert.Equal(t, "explore", cur, "4s elapsed is below the 5s threshold")

	e.mu.Lock()
	e.step(base.Add(6 * time.Second))
	cur = e.currentID
	e.mu.Unlock()
	assert.Equal(t, "rest", cur)
}

func TestTriggerEventPulse(t *testing.T) {
	g := combatGraph(t)
	var err error
	g, err = g.AddState(graph.AudioState{ID: "hit", Name: "Hit"})
	require.NoError(t, err)
	g, err = g.AddTransition(graph.StateTransition{
		ID: "on-hit", FromStateID: "explore", ToStateID: "hit",
		Conditions: []graph.TransitionCondition{{
			Kind: graph.ConditionParameter, Parameter: "player_hit",
			Operator: graph.OpEqual, Value: graph.BoolValue(true),
		}},
		Priority: 50,
	})
	require.NoError(t, err)

	base := time.Unix(0, 0)
	e, err := New(g, WithClock(func() time.Time { return base }))
	require.NoError(t, err)

	e.TriggerEvent("player_hit")
	e.mu.Lock()
	e.phase = PhaseRunning
	e.step(base.Add(16 * time.Millisecond))
	cur := e.currentID
	snapAfter := e.snapshotLocked()
	e.mu.Unlock()

	assert.Equal(t, "hit", cur, "pulse must be visible on the next tick")
	assert.NotContains(t, snapAfter, "player_hit", "pulse must be cleared after the tick that observed it")
}

func TestTriggerEventPulseClearsEvenIfUnconsumed(t *testing.T) {
	base := time.Unix(0, 0)
	e, err := New(combatGraph(t), WithClock(func() time.Time { return base }))
	require.NoError(t, err)

	e.TriggerEvent("nobody_listens")
	e.mu.Lock()
	e.phase = PhaseRunning
	e.step(base.Add(16 * time.Millisecond))
	snap := e.snapshotLocked()
	e.mu.Unlock()

	assert.NotContains(t, snap, "nobody_listens")
}

func TestParameterMappingProjection(t *testing.T) {
	e, err := New(combatGraph(t), WithMappings([]ParameterMapping{
		{Source: "enemy_distance", Target: "threat", InMin: 0, InMax: 50, OutMin: 100, OutMax: 0},
	}))
	require.NoError(t, err)

	e.SetInput("enemy_distance", 0)
	assert.Equal(t, graph.NumberValue(100), e.Snapshot()["threat"], "zero distance maps to max threat")

	e.SetInput("enemy_distance", 50)
	assert.Equal(t, graph.NumberValue(0), e.Snapshot()["threat"])

	e.SetInput("enemy_distance", 200)
	assert.Equal(t, graph.NumberValue(0), e.Snapshot()["threat"], "input beyond range is clamped to the edge")
}

func TestStopStartResumes(t *testing.T) {
	mixer := &recordingMixer{}
	e, err := New(combatGraph(t), WithMixer(mixer), WithTickInterval(time.Millisecond))
	require.NoError(t, err)

	e.SetParameter("threat", 80.0)
	e.Start()
	require.Eventually(t, func() bool { return mixer.transitionCount() == 1 },
		time.Second, 5*time.Millisecond)

	e.Stop()
	assert.Equal(t, PhaseIdle, e.Phase())

	state, _ := e.CurrentState()
	assert.Equal(t, "combat", state.ID, "stop is not a reset")

	e.Start()
	assert.Equal(t, PhaseRunning, e.Phase())
	e.Dispose()
}

func TestDisposeIsTerminalAndIdempotent(t *testing.T) {
	e, err := New(combatGraph(t), WithTickInterval(time.Millisecond))
	require.NoError(t, err)

	e.Start()
	e.Dispose()
	assert.Equal(t, PhaseDisposed, e.Phase())

	// All further calls are no-ops.
	e.Dispose()
	e.Start()
	e.Stop()
	e.SetParameter("threat", 90.0)
	e.TriggerEvent("anything")
	assert.Equal(t, PhaseDisposed, e.Phase())
	assert.NotContains(t, e.Snapshot(), "anything")
}

func TestStopIsIdempotent(t *testing.T) {
	e, err := New(combatGraph(t))
	require.NoError(t, err)
	e.Stop()
	e.Stop()
	assert.Equal(t, PhaseIdle, e.Phase())
}
