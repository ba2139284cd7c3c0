package graph

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Preset definitions are kept as plain maps (the same shape the editor's
// template picker ships) and decoded through mapstructure into typed
// builders. Entity IDs inside a preset are fixed so two instantiations of
// the same preset differ only in graph ID and timestamps.
var presetDefs = map[string]map[string]any{
	"combat": {
		"name":        "Combat Intensity",
		"description": "Exploration, combat and aftermath driven by a threat parameter.",
		"parameters": []map[string]any{
			{"name": "threat", "type": "number", "default": 0.0, "min": 0.0, "max": 100.0},
			{"name": "player_hit", "type": "boolean", "default": false},
		},
		"layers": []map[string]any{
			{"id": "layer-ambient", "name": "Ambient Bed", "selection": "random"},
			{"id": "layer-percussion", "name": "Percussion", "selection": "round_robin"},
			{"id": "layer-stingers", "name": "Stingers", "selection": "weighted"},
		},
		"states": []map[string]any{
			{"id": "state-explore", "name": "Explore", "initial": true, "layers": []string{"Ambient Bed"}},
			{"id": "state-combat", "name": "Combat", "layers": []string{"Ambient Bed", "Percussion"}},
			{"id": "state-aftermath", "name": "Aftermath", "layers": []string{"Ambient Bed"}},
		},
		"transitions": []map[string]any{
			{
				"id": "tr-explore-combat", "from": "state-explore", "to": "state-combat",
				"type": "crossfade", "duration": 800, "priority": 10,
				"conditions": []map[string]any{
					{"kind": "parameter", "parameter": "threat", "operator": ">", "value": 50.0},
				},
			},
			{
				"id": "tr-combat-aftermath", "from": "state-combat", "to": "state-aftermath",
				"type": "musical", "duration": 2000, "priority": 5,
				"conditions": []map[string]any{
					{"kind": "parameter", "parameter": "threat", "operator": "<", "value": 20.0},
					{"kind": "state_duration", "thresholdMs": 4000.0},
				},
			},
			{
				"id": "tr-aftermath-explore", "from": "state-aftermath", "to": "state-explore",
				"type": "crossfade", "duration": 1500, "priority": 5,
				"conditions": []map[string]any{
					{"kind": "state_duration", "thresholdMs": 6000.0},
				},
			},
		},
	},
	"exploration": {
		"name":        "Day / Night Ambience",
		"description": "Time-of-day ambience blend with weather overlay.",
		"parameters": []map[string]any{
			{"name": "time_of_day", "type": "number", "default": 12.0, "min": 0.0, "max": 24.0},
			{"name": "raining", "type": "boolean", "default": false},
		},
		"layers": []map[string]any{
			{"id": "layer-day", "name": "Day Birds", "selection": "shuffle"},
			{"id": "layer-night", "name": "Night Crickets", "selection": "random"},
			{"id": "layer-rain", "name": "Rain", "selection": "sequential"},
		},
		"states": []map[string]any{
			{"id": "state-day", "name": "Day", "initial": true, "layers": []string{"Day Birds"}},
			{"id": "state-night", "name": "Night", "layers": []string{"Night Crickets"}},
		},
		"transitions": []map[string]any{
			{
				"id": "tr-day-night", "from": "state-day", "to": "state-night",
				"type": "crossfade", "duration": 5000, "priority": 1,
				"conditions": []map[string]any{
					{"kind": "parameter", "parameter": "time_of_day", "operator": ">=", "value": 20.0},
				},
			},
			{
				"id": "tr-night-day", "from": "state-night", "to": "state-day",
				"type": "crossfade", "duration": 5000, "priority": 1,
				"logic": "AND",
				"conditions": []map[string]any{
					{"kind": "parameter", "parameter": "time_of_day", "operator": ">=", "value": 6.0},
					{"kind": "parameter", "parameter": "time_of_day", "operator": "<", "value": 20.0},
				},
			},
		},
	},
	"menu": {
		"name":        "Menu Loop",
		"description": "Single looping menu state with a start stinger on confirm.",
		"parameters": []map[string]any{
			{"name": "confirmed", "type": "boolean", "default": false},
		},
		"layers": []map[string]any{
			{"id": "layer-menu", "name": "Menu Theme", "selection": "sequential"},
			{"id": "layer-confirm", "name": "Confirm Hit", "selection": "random"},
		},
		"states": []map[string]any{
			{"id": "state-menu", "name": "Menu", "initial": true, "layers": []string{"Menu Theme"}},
			{"id": "state-starting", "name": "Starting", "layers": []string{"Menu Theme", "Confirm Hit"}},
		},
		"transitions": []map[string]any{
			{
				"id": "tr-menu-starting", "from": "state-menu", "to": "state-starting",
				"type": "stinger", "duration": 400, "priority": 10,
				"conditions": []map[string]any{
					{"kind": "parameter", "parameter": "confirmed", "operator": "==", "value": true},
				},
			},
		},
	},
}

type presetParam struct {
	Name    string   `mapstructure:"name"`
	Type    string   `mapstructure:"type"`
	Default any      `mapstructure:"default"`
	Min     *float64 `mapstructure:"min"`
	Max     *float64 `mapstructure:"max"`
}

type presetLayer struct {
	ID        string `mapstructure:"id"`
	Name      string `mapstructure:"name"`
	Selection string `mapstructure:"selection"`
}

type presetState struct {
	ID      string   `mapstructure:"id"`
	Name    string   `mapstructure:"name"`
	Initial bool     `mapstructure:"initial"`
	Layers  []string `mapstructure:"layers"`
}

type presetCondition struct {
	Kind        string  `mapstructure:"kind"`
	Parameter   string  `mapstructure:"parameter"`
	Operator    string  `mapstructure:"operator"`
	Value       any     `mapstructure:"value"`
	ThresholdMs float64 `mapstructure:"thresholdMs"`
}

type presetTransition struct {
	ID         string            `mapstructure:"id"`
	From       string            `mapstructure:"from"`
	To         string            `mapstructure:"to"`
	Type       string            `mapstructure:"type"`
	Duration   int               `mapstructure:"duration"`
	Priority   int               `mapstructure:"priority"`
	Logic      string            `mapstructure:"logic"`
	Conditions []presetCondition `mapstructure:"conditions"`
}

type presetDef struct {
	Name        string             `mapstructure:"name"`
	Description string             `mapstructure:"description"`
	Parameters  []presetParam      `mapstructure:"parameters"`
	Layers      []presetLayer      `mapstructure:"layers"`
	States      []presetState      `mapstructure:"states"`
	Transitions []presetTransition `mapstructure:"transitions"`
}

// Presets lists the available preset names in stable order.
func Presets() []string {
	names := make([]string, 0, len(presetDefs))
	for name := range presetDefs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromPreset instantiates a named preset through the regular mutation API,
// so the result carries the same guarantees as a hand-built graph.
func FromPreset(name string) (StateGraph, error) {
	raw, ok := presetDefs[name]
	if !ok {
		return StateGraph{}, fmt.Errorf("unknown preset %q (have %v)", name, Presets())
	}

	var def presetDef
	if err := mapstructure.Decode(raw, &def); err != nil {
		return StateGraph{}, fmt.Errorf("preset %q: %w", name, err)
	}

	g := NewEmptyGraph(def.Name)
	g.Description = def.Description
	var err error

	for _, p := range def.Parameters {
		param := Parameter{Name: p.Name, Type: ParameterType(p.Type), Min: p.Min, Max: p.Max}
		if p.Default != nil {
			v, verr := NewValue(param.Type, p.Default)
			if verr != nil {
				return StateGraph{}, fmt.Errorf("preset %q parameter %q: %w", name, p.Name, verr)
			}
			param.Default = v
		}
		if g, err = g.AddParameter(param); err != nil {
			return StateGraph{}, err
		}
	}

	for _, l := range def.Layers {
		layer := AudioLayer{ID: l.ID, Name: l.Name, Selection: SelectionMode(l.Selection)}
		if g, err = g.AddLayer(layer); err != nil {
			return StateGraph{}, err
		}
	}

	for _, s := range def.States {
		state := AudioState{
			ID:        s.ID,
			Name:      s.Name,
			IsInitial: s.Initial,
			Audio: AudioConfig{
				ActiveLayers: s.Layers,
				MasterVolume: 1,
			},
		}
		if g, err = g.AddState(state); err != nil {
			return StateGraph{}, err
		}
	}

	for _, t := range def.Transitions {
		tr := StateTransition{
			ID:          t.ID,
			FromStateID: t.From,
			ToStateID:   t.To,
			Type:        TransitionType(t.Type),
			DurationMs:  t.Duration,
			Priority:    t.Priority,
			Logic:       ConditionLogic(t.Logic),
		}
		for _, c := range t.Conditions {
			switch ConditionKind(c.Kind) {
			case ConditionStateDuration:
				tr.Conditions = append(tr.Conditions, NewDurationCondition(c.ThresholdMs))
			default:
				param, ok := g.Parameter(c.Parameter)
				if !ok {
					return StateGraph{}, fmt.Errorf("preset %q: condition references unknown parameter %q", name, c.Parameter)
				}
				cond, cerr := NewParameterCondition(param, Operator(c.Operator), c.Value)
				if cerr != nil {
					return StateGraph{}, fmt.Errorf("preset %q: %w", name, cerr)
				}
				tr.Conditions = append(tr.Conditions, cond)
			}
		}
		if g, err = g.AddTransition(tr); err != nil {
			return StateGraph{}, err
		}
	}

	return g, nil
}
