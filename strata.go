package strata

import (
	"io"
	"log/slog"
	"time"

	"github.com/strataudio/strata/internal/engine"
	"github.com/strataudio/strata/pkg/graph"
	"github.com/strataudio/strata/pkg/ports"
)

// Version is the library version, stamped by the release workflow.
var Version = "0.1.0"

// Phase mirrors the runtime engine's lifecycle phase.
type Phase = engine.Phase

const (
	PhaseIdle          = engine.PhaseIdle
	PhaseRunning       = engine.PhaseRunning
	PhaseTransitioning = engine.PhaseTransitioning
	PhaseDisposed      = engine.PhaseDisposed
)

// ParameterMapping projects a raw gameplay input onto a declared parameter.
type ParameterMapping = engine.ParameterMapping

// Engine is the high-level entry point for the Strata runtime.
// It wraps the internal tick engine and provides a simplified API for hosts.
type Engine struct {
	runtime *engine.Engine

	mixer    ports.Mixer
	hooks    graph.LifecycleHooks
	logger   *slog.Logger
	mappings []ParameterMapping
	interval time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithMixer connects the audio collaborator that realizes transitions.
func WithMixer(m ports.Mixer) Option {
	return func(e *Engine) {
		e.mixer = m
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks graph.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithParameterMappings installs input-to-parameter projections.
func WithParameterMappings(mappings []ParameterMapping) Option {
	return func(e *Engine) {
		e.mappings = mappings
	}
}

// WithTickInterval overrides the default 16ms evaluation interval.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// New initializes a Strata Engine for the given graph. The graph is
// validated up front; a structurally invalid graph never produces an engine.
func New(g graph.StateGraph, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	// Default to a discard logger so the runtime never sees nil.
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	eng.logger = eng.logger.With("graph", g.Name)

	runtimeOpts := []engine.Option{
		engine.WithHooks(eng.hooks),
		engine.WithLogger(eng.logger),
	}
	if eng.mixer != nil {
		runtimeOpts = append(runtimeOpts, engine.WithMixer(eng.mixer))
	}
	if len(eng.mappings) > 0 {
		runtimeOpts = append(runtimeOpts, engine.WithMappings(eng.mappings))
	}
	if eng.interval > 0 {
		runtimeOpts = append(runtimeOpts, engine.WithTickInterval(eng.interval))
	}

	runtime, err := engine.New(g, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	eng.runtime = runtime
	return eng, nil
}

// Start begins ticking. Safe to call once from idle; extra calls are no-ops.
func (e *Engine) Start() {
	e.runtime.Start()
}

// Stop pauses ticking without losing state. Start resumes.
func (e *Engine) Stop() {
	e.runtime.Stop()
}

// Dispose stops the engine permanently.
func (e *Engine) Dispose() {
	e.runtime.Dispose()
}

// SetParameter updates a parameter. Declared numeric parameters are clamped
// to their min/max; undeclared names are stored with an inferred type.
func (e *Engine) SetParameter(name string, value any) {
	e.runtime.SetParameter(name, value)
}

// SetInput feeds a raw gameplay value through the installed mappings.
func (e *Engine) SetInput(source string, value float64) {
	e.runtime.SetInput(source, value)
}

// TriggerEvent pulses a momentary boolean parameter for one tick.
func (e *Engine) TriggerEvent(name string) {
	e.runtime.TriggerEvent(name)
}

// Phase reports the engine lifecycle phase.
func (e *Engine) Phase() Phase {
	return e.runtime.Phase()
}

// CurrentState returns the active state.
func (e *Engine) CurrentState() (graph.AudioState, bool) {
	return e.runtime.CurrentState()
}

// Snapshot returns a copy of the current parameter values.
func (e *Engine) Snapshot() map[string]graph.Value {
	return e.runtime.Snapshot()
}
