package compiler

import (
	"errors"
	"fmt"
	"time"

	"github.com/strataudio/strata/pkg/graph"
)

// Target identifies one supported output format.
type Target string

const (
	// TargetWwise emits an Audiokinetic Wwise work unit: a hierarchical
	// container tree with switch groups and RTPC game parameters.
	TargetWwise Target = "wwise"
	// TargetFMOD emits an FMOD Studio scripting-API build script that
	// creates events, parameters and transition logic.
	TargetFMOD Target = "fmod"
	// TargetUnity emits a C# runtime state machine component.
	TargetUnity Target = "unity"
	// TargetUnreal emits an Unreal Engine C++ component (header + source).
	TargetUnreal Target = "unreal"
	// TargetPureData emits a Pure Data dataflow patch.
	TargetPureData Target = "puredata"
	// TargetWebAudio emits an AudioWorklet processor and loader module.
	TargetWebAudio Target = "webaudio"
)

// Targets lists every concrete target in stable compile order.
func Targets() []Target {
	return []Target{TargetWwise, TargetFMOD, TargetUnity, TargetUnreal, TargetPureData, TargetWebAudio}
}

// ParseTarget resolves a user-supplied target name.
func ParseTarget(s string) (Target, error) {
	for _, t := range Targets() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown target %q (have %v)", s, Targets())
}

// ArtifactKind classifies an artifact for downstream tooling.
type ArtifactKind string

const (
	KindSource   ArtifactKind = "source"
	KindConfig   ArtifactKind = "config"
	KindPatch    ArtifactKind = "patch"
	KindManifest ArtifactKind = "manifest"
)

// Artifact is one named text file produced by a compile.
type Artifact struct {
	Path    string       `json:"path"`
	Content string       `json:"content"`
	Kind    ArtifactKind `json:"kind"`
}

// ArtifactSet is the result of compiling one graph for one target.
type ArtifactSet struct {
	Target    Target     `json:"target"`
	Artifacts []Artifact `json:"artifacts"`
}

// Files returns the artifacts as a path→content map, the shape the HTTP
// surface exposes.
func (s ArtifactSet) Files() map[string]string {
	out := make(map[string]string, len(s.Artifacts))
	for _, a := range s.Artifacts {
		out[a.Path] = a.Content
	}
	return out
}

// TargetError is a per-target compile failure. Batch compiles collect these
// alongside the sets that succeeded.
type TargetError struct {
	Target  Target `json:"target"`
	Message string `json:"message"`
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("%s: %s", e.Target, e.Message)
}

// Compiler lowers graphs into artifact sets. It is stateless apart from the
// clock used to stamp manifests, so one instance may serve concurrent
// compile requests.
type Compiler struct {
	now func() time.Time
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithClock fixes the manifest timestamp source. Outside of tests the
// default wall clock is what you want; compiledAt is the only field allowed
// to differ between two compiles of the same graph.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile lowers the graph for a single target. The graph is validated
// first: a structurally invalid graph is rejected, never repaired.
func (c *Compiler) Compile(g graph.StateGraph, target Target) (ArtifactSet, error) {
	if err := graph.Validate(g); err != nil {
		return ArtifactSet{}, &TargetError{Target: target, Message: err.Error()}
	}

	low := newLowering(g)

	var artifacts []Artifact
	var err error
	switch target {
	case TargetWwise:
		artifacts, err = lowerWwise(low)
	case TargetFMOD:
		artifacts, err = lowerFMOD(low)
	case TargetUnity:
		artifacts, err = lowerUnity(low)
	case TargetUnreal:
		artifacts, err = lowerUnreal(low)
	case TargetPureData:
		artifacts, err = lowerPureData(low)
	case TargetWebAudio:
		artifacts, err = lowerWebAudio(low)
	default:
		err = fmt.Errorf("unknown target %q", target)
	}
	if err != nil {
		return ArtifactSet{}, &TargetError{Target: target, Message: err.Error()}
	}

	manifest, err := manifestArtifact(low, target, c.now())
	if err != nil {
		return ArtifactSet{}, &TargetError{Target: target, Message: err.Error()}
	}
	artifacts = append(artifacts, manifest)

	return ArtifactSet{Target: target, Artifacts: artifacts}, nil
}

// CompileAll compiles every concrete target. Failures are isolated: each
// failed target contributes a TargetError while the remaining sets are
// returned intact, namespaced under a target-named path prefix.
func (c *Compiler) CompileAll(g graph.StateGraph) ([]ArtifactSet, []TargetError) {
	var sets []ArtifactSet
	var errs []TargetError

	for _, target := range Targets() {
		set, err := c.Compile(g, target)
		if err != nil {
			var terr *TargetError
			if !errors.As(err, &terr) {
				terr = &TargetError{Target: target, Message: err.Error()}
			}
			errs = append(errs, *terr)
			continue
		}
		for i := range set.Artifacts {
			set.Artifacts[i].Path = string(target) + "/" + set.Artifacts[i].Path
		}
		sets = append(sets, set)
	}
	return sets, errs
}
