package graph

import (
	"strings"
	"testing"

	model "github.com/strataudio/strata/pkg/graph"
)

func testGraph(t *testing.T) model.StateGraph {
	t.Helper()
	g, err := model.FromPreset("combat")
	if err != nil {
		t.Fatalf("FromPreset failed: %v", err)
	}
	return g
}

func TestGenerateMermaid_Shapes(t *testing.T) {
	g := testGraph(t)
	out := GenerateMermaid(g, nil)

	if !strings.HasPrefix(out, "graph TD\n") {
		t.Errorf("missing flowchart header: %q", out[:20])
	}
	// The initial state renders as a circle.
	if !strings.Contains(out, "((") {
		t.Error("initial state not rendered as circle")
	}
}

func TestGenerateMermaid_GuardLabels(t *testing.T) {
	g := testGraph(t)
	out := GenerateMermaid(g, nil)

	if !strings.Contains(out, "threat > ") {
		t.Errorf("guarded transition missing condition label:\n%s", out)
	}
}

func TestGenerateMermaid_SanitizesIDs(t *testing.T) {
	g := model.StateGraph{
		ID:   "g",
		Name: "g",
		States: []model.AudioState{
			{ID: "state-one.a", Name: "One", IsInitial: true},
			{ID: "state/two", Name: "Two"},
		},
		Transitions: []model.StateTransition{
			{ID: "t", FromStateID: "state-one.a", ToStateID: "state/two"},
		},
	}
	out := GenerateMermaid(g, nil)

	if strings.Contains(out, "state-one.a") || strings.Contains(out, "state/two") {
		t.Errorf("unsanitized IDs leaked into output:\n%s", out)
	}
	if !strings.Contains(out, "state_one_a --> state_two") {
		t.Errorf("expected sanitized edge:\n%s", out)
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	g := testGraph(t)
	overlay := &Overlay{
		VisitedStates: []string{g.States[0].ID, g.States[0].ID},
		CurrentState:  g.States[1].ID,
	}
	out := GenerateMermaid(g, overlay)

	if !strings.Contains(out, "classDef visited") || !strings.Contains(out, "classDef current") {
		t.Error("overlay class definitions missing")
	}
	// Duplicate visited entries collapse to one class line.
	if strings.Count(out, "class "+sanitizeMermaidID(g.States[0].ID)+" visited;") != 1 {
		t.Errorf("visited state should be styled exactly once:\n%s", out)
	}
}
