package compiler

import (
	"encoding/json"
	"fmt"
	"time"
)

// manifestEntry pairs a stable entity ID with its human name and the
// sanitized identifier used inside the target's artifacts.
type manifestEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ident string `json:"ident"`
}

type manifestSource struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Layer string `json:"layerId"`
}

// manifest is the one artifact every target emits identically (modulo the
// target field). External tooling such as asset pipelines parses this
// instead of the target-specific syntax.
type manifest struct {
	GraphID    string           `json:"graphId"`
	GraphName  string           `json:"graphName"`
	Target     Target           `json:"target"`
	CompiledAt string           `json:"compiledAt"`
	States     []manifestEntry  `json:"states"`
	Layers     []manifestEntry  `json:"layers"`
	Sources    []manifestSource `json:"sources"`
	Parameters []manifestEntry  `json:"parameters"`
	Counts     map[string]int   `json:"counts"`
}

func manifestArtifact(low *lowering, target Target, now time.Time) (Artifact, error) {
	m := manifest{
		GraphID:    low.g.ID,
		GraphName:  low.g.Name,
		Target:     target,
		CompiledAt: now.UTC().Format(time.RFC3339),
		States:     []manifestEntry{},
		Layers:     []manifestEntry{},
		Sources:    []manifestSource{},
		Parameters: []manifestEntry{},
	}

	for _, s := range low.g.States {
		m.States = append(m.States, manifestEntry{ID: s.ID, Name: s.Name, Ident: low.stateIdent(s.ID)})
	}
	sources := 0
	for _, l := range low.g.Layers {
		m.Layers = append(m.Layers, manifestEntry{ID: l.ID, Name: l.Name, Ident: low.layerIdent(l.ID)})
		for _, src := range l.Sources {
			m.Sources = append(m.Sources, manifestSource{ID: src.ID, Name: src.Name, Layer: l.ID})
			sources++
		}
	}
	for _, p := range low.g.Parameters {
		m.Parameters = append(m.Parameters, manifestEntry{ID: p.Name, Name: p.Name, Ident: low.paramIdent(p.Name)})
	}

	m.Counts = map[string]int{
		"states":      len(low.g.States),
		"transitions": len(low.g.Transitions),
		"parameters":  len(low.g.Parameters),
		"layers":      len(low.g.Layers),
		"sources":     sources,
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("manifest: %w", err)
	}
	return Artifact{Path: "manifest.json", Content: string(data) + "\n", Kind: KindManifest}, nil
}
