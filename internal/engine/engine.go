// Package engine implements the tick-driven runtime that walks a state
// graph against live parameter values.
//
// The engine is single-threaded and cooperative: all work happens inside a
// fixed-interval tick, and the inter-tick interval is the only suspension
// point. SetParameter and TriggerEvent are safe to call from the host's
// goroutine; they only touch the snapshot under the engine lock and are
// observed on the next tick.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/strataudio/strata/internal/eval"
	"github.com/strataudio/strata/internal/logging"
	"github.com/strataudio/strata/pkg/graph"
	"github.com/strataudio/strata/pkg/ports"
)

// DefaultTickInterval is the tick rate used unless overridden, roughly one
// tick per rendered frame at 60 fps.
const DefaultTickInterval = 16 * time.Millisecond

// Phase is the engine lifecycle state.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseRunning       Phase = "running"
	PhaseTransitioning Phase = "transitioning"
	PhaseDisposed      Phase = "disposed"
)

// ParameterMapping projects an external continuous input (e.g. game
// telemetry) onto a declared graph parameter with a linear range remap.
type ParameterMapping struct {
	Source string  `json:"source" yaml:"source"`
	Target string  `json:"target" yaml:"target"`
	InMin  float64 `json:"inMin" yaml:"inMin"`
	InMax  float64 `json:"inMax" yaml:"inMax"`
	OutMin float64 `json:"outMin" yaml:"outMin"`
	OutMax float64 `json:"outMax" yaml:"outMax"`
}

func (m ParameterMapping) project(v float64) float64 {
	if m.InMax == m.InMin {
		return m.OutMin
	}
	ratio := (v - m.InMin) / (m.InMax - m.InMin)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return m.OutMin + ratio*(m.OutMax-m.OutMin)
}

// Engine owns one preview session over one graph. Multiple engines over
// different graphs share nothing and may run concurrently.
type Engine struct {
	mu sync.Mutex

	g        graph.StateGraph
	mappings []ParameterMapping

	params eval.Snapshot
	pulses map[string]bool

	currentID string
	enteredAt time.Time

	phase    Phase
	interval time.Duration

	ticker *time.Ticker
	done   chan struct{}

	mixer  ports.Mixer
	hooks  graph.LifecycleHooks
	logger *slog.Logger
	clock  func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithTickInterval overrides the default 16ms tick.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithMixer attaches the audio-layer collaborator.
func WithMixer(m ports.Mixer) Option {
	return func(e *Engine) {
		if m != nil {
			e.mixer = m
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(h graph.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMappings installs external-input parameter mappings.
func WithMappings(mappings []ParameterMapping) Option {
	return func(e *Engine) { e.mappings = mappings }
}

// WithClock overrides the time source. Tests use this for determinism.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// New constructs an engine positioned on the graph's initial state.
//
// A graph with zero states is rejected eagerly: there is no valid state to
// occupy, so failing here beats failing inside the tick loop. An invalid
// graph (dangling transitions, duplicate parameters) is rejected the same
// way; structural problems are the mutation API's job to prevent, not the
// engine's job to tolerate.
func New(g graph.StateGraph, opts ...Option) (*Engine, error) {
	if err := graph.Validate(g); err != nil {
		return nil, fmt.Errorf("refusing to run invalid graph: %w", err)
	}
	initial, ok := g.InitialState()
	if !ok {
		return nil, graph.ErrNoStates
	}

	e := &Engine{
		g:         g.Clone(),
		params:    eval.SnapshotFromDefaults(g),
		pulses:    make(map[string]bool),
		currentID: initial.ID,
		phase:     PhaseIdle,
		interval:  DefaultTickInterval,
		mixer:     ports.NopMixer{},
		logger:    logging.NewNop(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.enteredAt = e.clock()
	return e, nil
}

// Start begins the fixed-interval tick. Starting a running engine is a
// no-op; starting after Dispose is a no-op as well. Stop/Start is not a
// reset: the engine resumes from its current state.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle {
		return
	}
	e.phase = PhaseRunning
	e.enteredAt = e.clock()
	e.ticker = time.NewTicker(e.interval)
	e.done = make(chan struct{})
	go e.run(e.ticker, e.done)
	e.logger.Debug("engine started", "graph", e.g.ID, "state", e.currentID, "interval", e.interval)
}

func (e *Engine) run(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			e.mu.Lock()
			if e.phase == PhaseRunning {
				e.step(now)
			}
			e.mu.Unlock()
		}
	}
}

// step advances the machine by one tick. Callers hold e.mu.
func (e *Engine) step(now time.Time) {
	if e.hooks.OnTick != nil {
		e.hooks.OnTick()
	}

	elapsed := float64(now.Sub(e.enteredAt)) / float64(time.Millisecond)
	snap := e.snapshotLocked()

	selected, ok := eval.Select(e.g.TransitionsFrom(e.currentID), snap, elapsed)
	if ok {
		e.commit(selected, now)
	}

	// A pulse lives for exactly one evaluated tick, consumed or not.
	for name := range e.pulses {
		delete(e.pulses, name)
		delete(e.params, name)
	}
}

// commit performs the selected transition. The engine does not block for
// the audible duration; that is the mixer's concern.
func (e *Engine) commit(t graph.StateTransition, now time.Time) {
	e.phase = PhaseTransitioning

	ev := graph.TransitionEvent{
		GraphID:      e.g.ID,
		TransitionID: t.ID,
		FromStateID:  t.FromStateID,
		ToStateID:    t.ToStateID,
		Type:         t.Type,
		DurationMs:   t.DurationMs,
	}
	e.mixer.BeginTransition(ev)
	if e.hooks.OnTransitionStart != nil {
		e.hooks.OnTransitionStart(ev)
	}

	e.currentID = t.ToStateID
	e.enteredAt = now

	if next, ok := e.g.State(t.ToStateID); ok {
		sev := graph.StateEvent{
			GraphID:   e.g.ID,
			StateID:   next.ID,
			StateName: next.Name,
			Audio:     next.Audio,
		}
		e.mixer.EnterState(sev)
		if e.hooks.OnStateEnter != nil {
			e.hooks.OnStateEnter(sev)
		}
	}

	e.logger.Debug("transition committed",
		"transition", t.ID, "from", t.FromStateID, "to", t.ToStateID, "type", t.Type)
	e.phase = PhaseRunning
}

// SetParameter stores a live parameter value. Numeric values are clamped to
// the declared [min, max]. Unknown names are stored anyway so forward
// versions of a graph keep working, but they never match any condition until
// the graph declares them.
func (e *Engine) SetParameter(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseDisposed {
		return
	}
	e.setParameterLocked(name, value)
}

func (e *Engine) setParameterLocked(name string, value any) {
	if p, ok := e.g.Parameter(name); ok {
		v, err := graph.NewValue(p.Type, value)
		if err != nil {
			e.logger.Warn("parameter value rejected", "name", name, "err", err)
			return
		}
		if v.Type == graph.ParameterNumber {
			v = graph.NumberValue(p.Clamp(v.Number))
		}
		e.params[name] = v
		return
	}
	e.params[name] = graph.InferValue(value)
}

// SetInput routes an external input through the configured parameter
// mappings. An input with no mapping is ignored.
func (e *Engine) SetInput(source string, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseDisposed {
		return
	}
	for _, m := range e.mappings {
		if m.Source == source {
			e.setParameterLocked(m.Target, m.project(value))
		}
	}
}

// TriggerEvent pulses a momentary boolean parameter: true for the next
// evaluated tick, then cleared whether or not any transition consumed it.
func (e *Engine) TriggerEvent(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseDisposed {
		return
	}
	e.params[name] = graph.BoolValue(true)
	e.pulses[name] = true
}

// Stop halts ticking without resetting position. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.phase != PhaseRunning && e.phase != PhaseTransitioning {
		return
	}
	e.ticker.Stop()
	close(e.done)
	e.ticker = nil
	e.done = nil
	e.phase = PhaseIdle
	e.logger.Debug("engine stopped", "graph", e.g.ID, "state", e.currentID)
}

// Dispose releases the tick timer and makes the engine inert. Terminal and
// idempotent: every later call on the engine is a no-op. A dispose during a
// transition ends it without emitting further events; decaying any audio
// already started is the mixer's responsibility.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == PhaseDisposed {
		return
	}
	e.stopLocked()
	e.phase = PhaseDisposed
	e.logger.Debug("engine disposed", "graph", e.g.ID)
}

// Phase reports the lifecycle phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// CurrentState returns the state the engine currently occupies.
func (e *Engine) CurrentState() (graph.AudioState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.g.State(e.currentID)
}

// Snapshot returns a copy of the live parameter values.
func (e *Engine) Snapshot() map[string]graph.Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() eval.Snapshot {
	return e.params.Clone()
}
