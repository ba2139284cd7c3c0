package compiler

import (
	"fmt"
	"strings"

	"github.com/strataudio/strata/pkg/graph"
)

var unityTransition = map[graph.TransitionType]string{
	graph.TransitionInstant:   "TransitionKind.Instant",
	graph.TransitionCrossfade: "TransitionKind.Crossfade",
	graph.TransitionMusical:   "TransitionKind.Musical",
	graph.TransitionStinger:   "TransitionKind.Stinger",
	graph.TransitionDuck:      "TransitionKind.Duck",
	graph.TransitionLayerIn:   "TransitionKind.LayerIn",
	graph.TransitionLayerOut:  "TransitionKind.LayerOut",
}

// lowerUnity emits a self-contained C# MonoBehaviour. The component evaluates
// transitions in Update, drives one AudioSource per active layer, and exposes
// SetParameter/TriggerEvent mirroring the runtime engine API.
func lowerUnity(low *lowering) ([]Artifact, error) {
	g := low.g
	class := low.graphIdent + "AudioStateMachine"

	w := newCodeWriter("    ")
	w.line("// Generated audio state machine. Do not edit by hand.")
	w.linef("// Graph: %s (%s)", g.Name, g.ID)
	w.blank()
	w.line("using System;")
	w.line("using System.Collections.Generic;")
	w.line("using UnityEngine;")
	w.blank()
	w.linef("public class %s : MonoBehaviour", class)
	w.line("{")
	w.push()

	w.line("public enum State")
	w.line("{")
	w.push()
	for _, s := range g.States {
		w.linef("%s,", low.stateIdent(s.ID))
	}
	w.pop()
	w.line("}")
	w.blank()

	w.line("public enum TransitionKind { Instant, Crossfade, Musical, Stinger, Duck, LayerIn, LayerOut }")
	w.blank()

	w.line("[Serializable]")
	w.line("public class LayerChannel")
	w.line("{")
	w.push()
	w.line("public string name;")
	w.line("public AudioSource source;")
	w.pop()
	w.line("}")
	w.blank()

	w.line("public List<LayerChannel> layers = new List<LayerChannel>();")
	w.blank()
	w.line("State current;")
	w.line("float enteredAt;")
	w.line("readonly Dictionary<string, float> numberParams = new Dictionary<string, float>();")
	w.line("readonly Dictionary<string, bool> boolParams = new Dictionary<string, bool>();")
	w.line("readonly Dictionary<string, string> stringParams = new Dictionary<string, string>();")
	w.line("readonly HashSet<string> pulses = new HashSet<string>();")
	w.blank()

	w.line("public State Current => current;")
	w.blank()

	w.line("void Awake()")
	w.line("{")
	w.push()
	for _, p := range g.Parameters {
		ident := low.paramIdent(p.Name)
		switch p.Type {
		case graph.ParameterBoolean:
			w.linef("boolParams[%q] = %v;", p.Name, p.Default.Bool)
		case graph.ParameterString:
			w.linef("stringParams[%q] = %q;", p.Name, p.Default.Str)
		default:
			w.linef("numberParams[%q] = %sf; // %s", p.Name, trimMs(p.Default.Number), ident)
		}
	}
	if initial, ok := g.InitialState(); ok {
		w.linef("Enter(State.%s, TransitionKind.Instant, 0f);", low.stateIdent(initial.ID))
	}
	w.pop()
	w.line("}")
	w.blank()

	w.line("public void SetParameter(string name, float value)")
	w.line("{")
	w.push()
	for _, p := range g.Parameters {
		if p.Type != graph.ParameterNumber || (p.Min == nil && p.Max == nil) {
			continue
		}
		min, max := "float.NegativeInfinity", "float.PositiveInfinity"
		if p.Min != nil {
			min = trimMs(*p.Min) + "f"
		}
		if p.Max != nil {
			max = trimMs(*p.Max) + "f"
		}
		w.linef("if (name == %q) value = Mathf.Clamp(value, %s, %s);", p.Name, min, max)
	}
	w.line("numberParams[name] = value;")
	w.pop()
	w.line("}")
	w.blank()

	w.line("public void SetParameter(string name, bool value) { boolParams[name] = value; }")
	w.line("public void SetParameter(string name, string value) { stringParams[name] = value; }")
	w.blank()

	w.line("public void TriggerEvent(string name)")
	w.line("{")
	w.push()
	w.line("boolParams[name] = true;")
	w.line("pulses.Add(name);")
	w.pop()
	w.line("}")
	w.blank()

	w.line("void Update()")
	w.line("{")
	w.push()
	w.line("float elapsedMs = (Time.time - enteredAt) * 1000f;")
	w.line("switch (current)")
	w.line("{")
	w.push()
	for _, s := range g.States {
		outgoing := g.TransitionsFrom(s.ID)
		if len(outgoing) == 0 {
			continue
		}
		w.linef("case State.%s:", low.stateIdent(s.ID))
		w.push()
		for _, t := range selectionOrder(outgoing) {
			w.linef("// %s", transitionLabel(t))
			w.linef("if (%s)", unityGuard(low, t))
			w.line("{")
			w.push()
			w.linef("Enter(State.%s, %s, %sf);",
				low.stateIdent(t.ToStateID), unityTransition[t.Type], trimMs(float64(t.DurationMs)))
			w.line("ClearPulses();")
			w.line("return;")
			w.pop()
			w.line("}")
		}
		w.line("break;")
		w.pop()
	}
	w.pop()
	w.line("}")
	w.line("ClearPulses();")
	w.pop()
	w.line("}")
	w.blank()

	w.line("void ClearPulses()")
	w.line("{")
	w.push()
	w.line("foreach (var name in pulses) boolParams[name] = false;")
	w.line("pulses.Clear();")
	w.pop()
	w.line("}")
	w.blank()

	w.line("void Enter(State next, TransitionKind kind, float durationMs)")
	w.line("{")
	w.push()
	w.line("current = next;")
	w.line("enteredAt = Time.time;")
	w.line("switch (next)")
	w.line("{")
	w.push()
	for _, s := range g.States {
		w.linef("case State.%s:", low.stateIdent(s.ID))
		w.push()
		if len(s.Audio.ActiveLayers) == 0 {
			w.linef("ApplyMix(new Dictionary<string, float>(), %sf, kind, durationMs);", trimMs(s.Audio.MasterVolume))
		} else {
			parts := make([]string, len(s.Audio.ActiveLayers))
			for i, layerName := range s.Audio.ActiveLayers {
				parts[i] = fmt.Sprintf("{ %q, %sf }", layerName, trimMs(layerVolume(s.Audio, layerName)))
			}
			w.linef("ApplyMix(new Dictionary<string, float> { %s }, %sf, kind, durationMs);",
				strings.Join(parts, ", "), trimMs(s.Audio.MasterVolume))
		}
		w.line("break;")
		w.pop()
	}
	w.pop()
	w.line("}")
	w.pop()
	w.line("}")
	w.blank()

	w.line("void ApplyMix(Dictionary<string, float> mix, float master, TransitionKind kind, float durationMs)")
	w.line("{")
	w.push()
	w.line("foreach (var channel in layers)")
	w.line("{")
	w.push()
	w.line("float target = mix.TryGetValue(channel.name, out var v) ? v * master : 0f;")
	w.line("if (kind == TransitionKind.Instant || durationMs <= 0f)")
	w.push()
	w.line("channel.source.volume = target;")
	w.pop()
	w.line("else")
	w.push()
	w.line("StartCoroutine(Fade(channel.source, target, durationMs / 1000f));")
	w.pop()
	w.pop()
	w.line("}")
	w.pop()
	w.line("}")
	w.blank()

	w.line("System.Collections.IEnumerator Fade(AudioSource source, float target, float seconds)")
	w.line("{")
	w.push()
	w.line("float from = source.volume;")
	w.line("for (float t = 0f; t < seconds; t += Time.deltaTime)")
	w.line("{")
	w.push()
	w.line("source.volume = Mathf.Lerp(from, target, t / seconds);")
	w.line("yield return null;")
	w.pop()
	w.line("}")
	w.line("source.volume = target;")
	w.pop()
	w.line("}")

	w.pop()
	w.line("}")

	return []Artifact{
		{Path: class + ".cs", Content: w.String(), Kind: KindSource},
	}, nil
}

// unityGuard renders a transition's condition list as one C# expression.
func unityGuard(low *lowering, t graph.StateTransition) string {
	if len(t.Conditions) == 0 {
		if t.Logic == graph.LogicOr {
			return "false"
		}
		return "true"
	}
	terms := make([]string, len(t.Conditions))
	for i, c := range t.Conditions {
		terms[i] = unityCond(c)
	}
	sep := " && "
	if t.Logic == graph.LogicOr {
		sep = " || "
	}
	return strings.Join(terms, sep)
}

func unityCond(c graph.TransitionCondition) string {
	if c.Kind == graph.ConditionStateDuration {
		return fmt.Sprintf("elapsedMs >= %sf", trimMs(c.ThresholdMs))
	}
	// Unknown parameters evaluate false, matching the runtime engine.
	switch c.Value.Type {
	case graph.ParameterBoolean:
		return fmt.Sprintf("boolParams.ContainsKey(%q) && boolParams[%q] %s %v", c.Parameter, c.Parameter, csOp(c.Operator), c.Value.Bool)
	case graph.ParameterString:
		return fmt.Sprintf("stringParams.ContainsKey(%q) && stringParams[%q] %s %q", c.Parameter, c.Parameter, csOp(c.Operator), c.Value.Str)
	default:
		return fmt.Sprintf("numberParams.ContainsKey(%q) && numberParams[%q] %s %sf", c.Parameter, c.Parameter, csOp(c.Operator), trimMs(c.Value.Number))
	}
}

func csOp(op graph.Operator) string {
	if op == graph.OpEqual {
		return "=="
	}
	return string(op)
}
