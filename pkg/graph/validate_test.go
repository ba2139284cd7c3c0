package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsMutatedGraph(t *testing.T) {
	g := testGraph(t)
	require.NoError(t, Validate(g))
}

func TestValidateRejectsDanglingTransition(t *testing.T) {
	g := testGraph(t)
	// Bypass the mutation API to simulate a corrupted persisted graph.
	g.Transitions = append(g.Transitions, StateTransition{
		ID: "bad", FromStateID: "a", ToStateID: "missing",
	})

	err := Validate(g)
	require.Error(t, err)
	assert.NotEmpty(t, ValidationErrors(err))
}

func TestValidateRejectsDuplicateParameterName(t *testing.T) {
	g := testGraph(t)
	g.Parameters = []Parameter{
		{Name: "threat", Type: ParameterNumber},
		{Name: "threat", Type: ParameterNumber},
	}
	require.Error(t, Validate(g))
}

func TestValidateRejectsMultipleInitialStates(t *testing.T) {
	g := testGraph(t)
	for i := range g.States {
		g.States[i].IsInitial = true
	}
	require.Error(t, Validate(g))
}

func TestValidateCollectsAllViolations(t *testing.T) {
	g := testGraph(t)
	g.Transitions = append(g.Transitions,
		StateTransition{ID: "bad1", FromStateID: "ghost", ToStateID: "b"},
		StateTransition{ID: "bad2", FromStateID: "a", ToStateID: "a"},
	)
	g.Parameters = []Parameter{{Name: "x"}, {Name: "x"}}

	err := Validate(g)
	require.Error(t, err)
	assert.GreaterOrEqual(t, len(ValidationErrors(err)), 3)
}
