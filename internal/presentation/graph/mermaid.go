package graph

import (
	"fmt"
	"strings"

	model "github.com/strataudio/strata/pkg/graph"
)

// Overlay contains dynamic simulation data to visualize on the graph.
type Overlay struct {
	VisitedStates []string
	CurrentState  string
}

// GenerateMermaid produces a Mermaid flowchart from a graph.
// Styling rules:
// - Initial state: ((Circle))
// - Other states: [Rectangle]
// - Guarded transitions carry their condition as the edge label
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(g model.StateGraph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, s := range g.States {
		safeID := sanitizeMermaidID(s.ID)

		opener, closer := "[", "]"
		if s.IsInitial {
			opener, closer = "((", "))" // Circle
		}

		label := s.Name
		if len(s.Audio.ActiveLayers) > 0 {
			label = fmt.Sprintf("%s <br/> 🔊 %s", s.Name, strings.Join(s.Audio.ActiveLayers, ", "))
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, t := range g.Transitions {
		safeFrom := sanitizeMermaidID(t.FromStateID)
		safeTo := sanitizeMermaidID(t.ToStateID)

		arrow := "-->"
		if guard := guardLabel(t); guard != "" {
			// Escape double quotes in the guard for Mermaid labels
			safeGuard := strings.ReplaceAll(guard, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", safeGuard)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeFrom, arrow, safeTo))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for high contrast regardless of theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentState != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentState)))
		}
	}

	return sb.String()
}

func guardLabel(t model.StateTransition) string {
	if len(t.Conditions) == 0 {
		return ""
	}
	labels := make([]string, len(t.Conditions))
	for i, c := range t.Conditions {
		if c.Kind == model.ConditionStateDuration {
			labels[i] = fmt.Sprintf("⏱️ %gms", c.ThresholdMs)
			continue
		}
		labels[i] = fmt.Sprintf("%s %s %s", c.Parameter, c.Operator, c.Value.String())
	}
	sep := " AND "
	if t.Logic == model.LogicOr {
		sep = " OR "
	}
	return strings.Join(labels, sep)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
