package graph

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Marshal encodes a graph as indented JSON, the canonical persisted shape.
func Marshal(g StateGraph) ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a persisted JSON graph and validates its invariants.
func Unmarshal(data []byte) (StateGraph, error) {
	var g StateGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return StateGraph{}, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	if err := Validate(g); err != nil {
		return StateGraph{}, err
	}
	return g, nil
}

// MarshalYAML encodes a graph as YAML, the shape used for on-disk project
// files edited by hand.
func MarshalYAML(g StateGraph) ([]byte, error) {
	data, err := yaml.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph: %w", err)
	}
	return data, nil
}

// UnmarshalYAML decodes a YAML graph and validates its invariants.
func UnmarshalYAML(data []byte) (StateGraph, error) {
	var g StateGraph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return StateGraph{}, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	if err := Validate(g); err != nil {
		return StateGraph{}, err
	}
	return g, nil
}
