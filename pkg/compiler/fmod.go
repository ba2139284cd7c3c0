package compiler

import (
	"fmt"

	"github.com/strataudio/strata/pkg/graph"
)

// fmodTransition maps abstract transition types onto the FMOD Studio
// transition-region shapes the build script knows how to create. Layered
// in/out transitions have no event-logic equivalent; compiling a graph
// that uses them for this target fails rather than silently degrading.
var fmodTransition = map[graph.TransitionType]string{
	graph.TransitionInstant:   "immediate",
	graph.TransitionCrossfade: "crossfade",
	graph.TransitionMusical:   "quantized",
	graph.TransitionStinger:   "stinger",
	graph.TransitionDuck:      "crossfade",
}

var fmodSelection = map[graph.SelectionMode]string{
	graph.SelectionRandom:     "RANDOM",
	graph.SelectionShuffle:    "SHUFFLE",
	graph.SelectionSequential: "SEQUENTIAL",
	graph.SelectionRoundRobin: "SEQUENTIAL",
	graph.SelectionWeighted:   "RANDOM",
}

// lowerFMOD emits a build script for the FMOD Studio scripting API. Running
// the script inside Studio creates the event, its parameters and the
// transition logic; it is regenerated wholesale on every compile.
func lowerFMOD(low *lowering) ([]Artifact, error) {
	g := low.g

	for _, t := range g.Transitions {
		if _, ok := fmodTransition[t.Type]; !ok {
			return nil, fmt.Errorf("transition %q: type %q has no FMOD equivalent", t.ID, t.Type)
		}
	}

	w := newCodeWriter("    ")
	w.linef("// %s.js", low.fileStem())
	w.linef("// FMOD Studio build script for %q. Run from Scripts > Build.", g.Name)
	w.line("// Generated file, do not edit.")
	w.blank()
	w.line("studio.menu.addMenuItem({")
	w.push()
	w.linef("name: \"Build\\\\%s\",", low.graphIdent)
	w.line("execute: function() {")
	w.push()
	w.linef("var event = studio.project.workspace.addEvent(%q);", g.Name)
	w.blank()

	w.line("// Game parameters")
	for _, p := range g.Parameters {
		if p.Type != graph.ParameterNumber {
			continue
		}
		min, max := 0.0, 100.0
		if p.Min != nil {
			min = *p.Min
		}
		if p.Max != nil {
			max = *p.Max
		}
		w.linef("var param_%s = event.addGameParameter(%q, %s, %s, %s);",
			low.paramIdent(p.Name), p.Name, trimMs(min), trimMs(max), trimMs(p.Default.Number))
	}
	w.blank()

	w.line("// One multi instrument per state, laid out on the timeline")
	w.line("var timeline = event.getTimeline();")
	for i, s := range g.States {
		ident := low.stateIdent(s.ID)
		w.linef("var marker_%s = timeline.addDestinationMarker(%q, %d);", ident, ident, i)
		w.linef("var region_%s = timeline.addLoopRegion(%d, %d);", ident, i, i+1)
		w.linef("region_%s.volume = %s;", ident, trimMs(s.Audio.MasterVolume))
		for _, layerName := range s.Audio.ActiveLayers {
			layer, declared := low.layerByName(layerName)
			mode := "RANDOM"
			if declared {
				mode = mapSelection(layer.Selection, fmodSelection, "RANDOM")
			}
			w.linef("region_%s.addMultiInstrument(%q, \"%s\", %s);",
				ident, layerName, mode, trimMs(layerVolume(s.Audio, layerName)))
		}
	}
	w.blank()

	w.line("// Transition regions with parameter conditions")
	for _, t := range g.Transitions {
		w.linef("// %s -> %s: %s", low.stateIdent(t.FromStateID), low.stateIdent(t.ToStateID), transitionLabel(t))
		w.linef("var tr_%s = timeline.addTransitionRegion(marker_%s, marker_%s, %q, %d);",
			sanitizeIdent(t.ID), low.stateIdent(t.FromStateID), low.stateIdent(t.ToStateID),
			fmodTransition[t.Type], t.DurationMs)
		for _, c := range t.Conditions {
			if c.Kind != graph.ConditionParameter {
				continue
			}
			w.linef("tr_%s.addParameterCondition(%q, %q, %s);",
				sanitizeIdent(t.ID), c.Parameter, string(c.Operator), c.Value.String())
		}
	}
	w.blank()

	if initial, ok := g.InitialState(); ok {
		w.linef("event.initialMarker = marker_%s;", low.stateIdent(initial.ID))
	}
	w.line("studio.project.save();")
	w.pop()
	w.line("},")
	w.pop()
	w.line("});")

	return []Artifact{
		{Path: low.fileStem() + "_build.js", Content: w.String(), Kind: KindSource},
	}, nil
}
