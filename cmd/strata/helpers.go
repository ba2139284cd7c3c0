package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/strataudio/strata/pkg/graph"
)

// loadGraphFile reads a graph from a .json or .yaml/.yml file, validating
// it on load.
func loadGraphFile(path string) (graph.StateGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return graph.StateGraph{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return graph.Unmarshal(data)
	case ".yaml", ".yml":
		return graph.UnmarshalYAML(data)
	default:
		return graph.StateGraph{}, fmt.Errorf("unsupported graph file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}
