package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/strataudio/strata/pkg/graph"
)

// lowerWebAudio emits two ES modules: an AudioWorkletProcessor that runs the
// state machine on the audio thread and a main-thread loader that registers
// it and exposes the parameter API. The graph itself is embedded as JSON so
// the processor needs no fetch at audio startup.
func lowerWebAudio(low *lowering) ([]Artifact, error) {
	g := low.g
	stem := low.fileStem()
	processorName := strings.ToLower(low.graphIdent) + "-state-machine"

	graphJSON, err := json.MarshalIndent(webAudioModel(low), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("webaudio: %w", err)
	}

	w := newCodeWriter("  ")
	w.linef("// %s-processor.js", stem)
	w.linef("// AudioWorklet processor for %q. Generated file, do not edit.", g.Name)
	w.blank()
	w.linef("const GRAPH = %s;", string(graphJSON))
	w.blank()
	w.linef("class %sProcessor extends AudioWorkletProcessor {", low.graphIdent)
	w.push()
	w.line("static get parameterDescriptors() {")
	w.push()
	w.line("return GRAPH.parameters")
	w.push()
	w.line(".filter((p) => p.type === 'number')")
	w.line(".map((p) => ({")
	w.push()
	w.line("name: p.name,")
	w.line("defaultValue: p.default,")
	w.line("minValue: p.min,")
	w.line("maxValue: p.max,")
	w.line("automationRate: 'k-rate',")
	w.pop()
	w.line("}));")
	w.pop()
	w.pop()
	w.line("}")
	w.blank()
	w.line("constructor() {")
	w.push()
	w.line("super();")
	w.line("this.state = GRAPH.initialState;")
	w.line("this.stateTimeMs = 0;")
	w.line("this.bools = {};")
	w.line("this.strings = {};")
	w.line("this.pulses = new Set();")
	w.line("for (const p of GRAPH.parameters) {")
	w.push()
	w.line("if (p.type === 'boolean') this.bools[p.name] = p.default;")
	w.line("if (p.type === 'string') this.strings[p.name] = p.default;")
	w.pop()
	w.line("}")
	w.line("this.gains = {};")
	w.line("this.applyState(this.state, 0);")
	w.line("this.port.onmessage = (e) => this.onMessage(e.data);")
	w.pop()
	w.line("}")
	w.blank()
	w.line("onMessage(msg) {")
	w.push()
	w.line("if (msg.type === 'setParameter') {")
	w.push()
	w.line("if (typeof msg.value === 'boolean') this.bools[msg.name] = msg.value;")
	w.line("else this.strings[msg.name] = String(msg.value);")
	w.pop()
	w.line("} else if (msg.type === 'triggerEvent') {")
	w.push()
	w.line("this.bools[msg.name] = true;")
	w.line("this.pulses.add(msg.name);")
	w.pop()
	w.line("}")
	w.pop()
	w.line("}")
	w.blank()
	w.line("readNumber(parameters, name) {")
	w.push()
	w.line("const buf = parameters[name];")
	w.line("return buf === undefined ? undefined : buf[0];")
	w.pop()
	w.line("}")
	w.blank()
	w.line("holds(cond, parameters) {")
	w.push()
	w.line("if (cond.kind === 'state_duration') return this.stateTimeMs >= cond.thresholdMs;")
	w.line("let actual;")
	w.line("if (cond.valueType === 'number') actual = this.readNumber(parameters, cond.parameter);")
	w.line("else if (cond.valueType === 'boolean') actual = this.bools[cond.parameter];")
	w.line("else actual = this.strings[cond.parameter];")
	w.line("if (actual === undefined || Number.isNaN(actual)) return false;")
	w.line("switch (cond.operator) {")
	w.push()
	w.line("case '>': return actual > cond.value;")
	w.line("case '<': return actual < cond.value;")
	w.line("case '>=': return actual >= cond.value;")
	w.line("case '<=': return actual <= cond.value;")
	w.line("case '==': return actual === cond.value;")
	w.line("default: return false;")
	w.pop()
	w.line("}")
	w.pop()
	w.line("}")
	w.blank()
	w.line("fires(t, parameters) {")
	w.push()
	w.line("if (t.conditions.length === 0) return t.logic !== 'OR';")
	w.line("const results = t.conditions.map((c) => this.holds(c, parameters));")
	w.line("return t.logic === 'OR' ? results.some(Boolean) : results.every(Boolean);")
	w.pop()
	w.line("}")
	w.blank()
	w.line("step(parameters, blockMs) {")
	w.push()
	w.line("this.stateTimeMs += blockMs;")
	w.line("const outgoing = GRAPH.transitions")
	w.push()
	w.line(".filter((t) => t.from === this.state)")
	w.line(".filter((t) => this.fires(t, parameters))")
	w.line(".sort((a, b) => b.priority - a.priority || (a.id < b.id ? -1 : 1));")
	w.pop()
	w.line("if (outgoing.length > 0) {")
	w.push()
	w.line("const t = outgoing[0];")
	w.line("this.applyState(t.to, t.duration);")
	w.line("this.port.postMessage({ type: 'stateChange', state: t.to, via: t.id });")
	w.pop()
	w.line("}")
	w.line("for (const name of this.pulses) this.bools[name] = false;")
	w.line("this.pulses.clear();")
	w.pop()
	w.line("}")
	w.blank()
	w.line("applyState(stateId, durationMs) {")
	w.push()
	w.line("this.state = stateId;")
	w.line("this.stateTimeMs = 0;")
	w.line("const s = GRAPH.states.find((x) => x.id === stateId);")
	w.line("const next = {};")
	w.line("for (const layer of s.activeLayers) {")
	w.push()
	w.line("next[layer] = (s.layerVolumes[layer] ?? 1) * s.masterVolume;")
	w.pop()
	w.line("}")
	w.line("this.gains = next;")
	w.pop()
	w.line("}")
	w.blank()
	w.line("process(inputs, outputs, parameters) {")
	w.push()
	w.line("const blockMs = (128 / sampleRate) * 1000;")
	w.line("this.step(parameters, blockMs);")
	w.line("const output = outputs[0];")
	w.line("GRAPH.layers.forEach((layer, i) => {")
	w.push()
	w.line("const input = inputs[i];")
	w.line("if (!input || input.length === 0) return;")
	w.line("const gain = this.gains[layer.name] ?? 0;")
	w.line("for (let ch = 0; ch < output.length; ch++) {")
	w.push()
	w.line("const src = input[ch % input.length];")
	w.line("for (let k = 0; k < src.length; k++) output[ch][k] += src[k] * gain;")
	w.pop()
	w.line("}")
	w.pop()
	w.line("});")
	w.line("return true;")
	w.pop()
	w.line("}")
	w.pop()
	w.line("}")
	w.blank()
	w.linef("registerProcessor(%q, %sProcessor);", processorName, low.graphIdent)

	l := newCodeWriter("  ")
	l.linef("// %s.js", stem)
	l.linef("// Loader for the %q audio state machine worklet.", g.Name)
	l.blank()
	l.linef("export const PROCESSOR_NAME = %q;", processorName)
	l.blank()
	l.linef("export async function create%sNode(context) {", low.graphIdent)
	l.push()
	l.linef("await context.audioWorklet.addModule(new URL('./%s-processor.js', import.meta.url));", stem)
	l.line("const node = new AudioWorkletNode(context, PROCESSOR_NAME, {")
	l.push()
	l.linef("numberOfInputs: %d,", max(len(g.Layers), 1))
	l.line("outputChannelCount: [2],")
	l.pop()
	l.line("});")
	l.line("return {")
	l.push()
	l.line("node,")
	l.line("setParameter(name, value) {")
	l.push()
	l.line("const p = node.parameters.get(name);")
	l.line("if (p && typeof value === 'number') p.value = value;")
	l.line("else node.port.postMessage({ type: 'setParameter', name, value });")
	l.pop()
	l.line("},")
	l.line("triggerEvent(name) {")
	l.push()
	l.line("node.port.postMessage({ type: 'triggerEvent', name });")
	l.pop()
	l.line("},")
	l.line("onStateChange(fn) {")
	l.push()
	l.line("node.port.onmessage = (e) => {")
	l.push()
	l.line("if (e.data.type === 'stateChange') fn(e.data.state, e.data.via);")
	l.pop()
	l.line("};")
	l.pop()
	l.line("},")
	l.pop()
	l.line("};")
	l.pop()
	l.line("}")

	return []Artifact{
		{Path: stem + "-processor.js", Content: w.String(), Kind: KindSource},
		{Path: stem + ".js", Content: l.String(), Kind: KindSource},
	}, nil
}

// webAudioModel is the embedded-JSON shape of the graph, flattened to what
// the processor needs and nothing else.
func webAudioModel(low *lowering) map[string]any {
	g := low.g

	states := make([]map[string]any, 0, len(g.States))
	for _, s := range g.States {
		volumes := s.Audio.LayerVolumes
		if volumes == nil {
			volumes = map[string]float64{}
		}
		active := s.Audio.ActiveLayers
		if active == nil {
			active = []string{}
		}
		states = append(states, map[string]any{
			"id":           s.ID,
			"ident":        low.stateIdent(s.ID),
			"activeLayers": active,
			"layerVolumes": volumes,
			"masterVolume": s.Audio.MasterVolume,
		})
	}

	transitions := make([]map[string]any, 0, len(g.Transitions))
	for _, t := range g.Transitions {
		conds := make([]map[string]any, 0, len(t.Conditions))
		for _, c := range t.Conditions {
			conds = append(conds, map[string]any{
				"kind":        string(c.Kind),
				"parameter":   c.Parameter,
				"operator":    string(c.Operator),
				"valueType":   string(c.Value.Type),
				"value":       c.Value.Scalar(),
				"thresholdMs": c.ThresholdMs,
			})
		}
		transitions = append(transitions, map[string]any{
			"id":         t.ID,
			"from":       t.FromStateID,
			"to":         t.ToStateID,
			"type":       string(t.Type),
			"duration":   t.DurationMs,
			"logic":      string(t.Logic),
			"priority":   t.Priority,
			"conditions": conds,
		})
	}

	params := make([]map[string]any, 0, len(g.Parameters))
	for _, p := range g.Parameters {
		entry := map[string]any{
			"name":    p.Name,
			"type":    string(p.Type),
			"default": p.Default.Scalar(),
		}
		if p.Type == graph.ParameterNumber {
			min, max := 0.0, 100.0
			if p.Min != nil {
				min = *p.Min
			}
			if p.Max != nil {
				max = *p.Max
			}
			entry["min"] = min
			entry["max"] = max
		}
		params = append(params, entry)
	}

	layers := make([]map[string]any, 0, len(g.Layers))
	for _, l := range g.Layers {
		layers = append(layers, map[string]any{
			"id":        l.ID,
			"name":      l.Name,
			"selection": string(l.Selection),
		})
	}

	initial := ""
	if s, ok := g.InitialState(); ok {
		initial = s.ID
	}

	return map[string]any{
		"id":           g.ID,
		"name":         g.Name,
		"initialState": initial,
		"states":       states,
		"transitions":  transitions,
		"parameters":   params,
		"layers":       layers,
	}
}
