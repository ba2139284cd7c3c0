package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	g := testGraph(t)
	var err error
	g, err = g.AddParameter(Parameter{Name: "threat", Type: ParameterNumber, Min: f64(0), Max: f64(100)})
	require.NoError(t, err)

	p, _ := g.Parameter("threat")
	cond, err := NewParameterCondition(p, OpGreater, 50)
	require.NoError(t, err)
	g, err = g.AddTransition(StateTransition{
		ID: "t-ca", FromStateID: "c", ToStateID: "a",
		Conditions: []TransitionCondition{cond, NewDurationCondition(2500)},
		Logic:      LogicOr,
		Priority:   7,
	})
	require.NoError(t, err)

	data, err := Marshal(g)
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, g.ID, decoded.ID)
	assert.Equal(t, g.States, decoded.States)
	assert.Equal(t, g.Parameters, decoded.Parameters)

	tr, ok := decoded.Transition("t-ca")
	require.True(t, ok)
	require.Len(t, tr.Conditions, 2)
	assert.Equal(t, ConditionParameter, tr.Conditions[0].Kind)
	assert.Equal(t, NumberValue(50), tr.Conditions[0].Value)
	assert.Equal(t, ConditionStateDuration, tr.Conditions[1].Kind)
	assert.Equal(t, 2500.0, tr.Conditions[1].ThresholdMs)
}

func TestYAMLRoundTrip(t *testing.T) {
	g, err := FromPreset("combat")
	require.NoError(t, err)

	data, err := MarshalYAML(g)
	require.NoError(t, err)

	decoded, err := UnmarshalYAML(data)
	require.NoError(t, err)
	assert.Equal(t, g.States, decoded.States)
	assert.Equal(t, g.Transitions, decoded.Transitions)
	assert.Equal(t, g.Layers, decoded.Layers)
}

func TestUnmarshalRejectsInvalidGraph(t *testing.T) {
	g := testGraph(t)
	g.Transitions = append(g.Transitions, StateTransition{ID: "bad", FromStateID: "a", ToStateID: "nope"})

	data, err := Marshal(g)
	require.NoError(t, err)

	_, err = Unmarshal(data)
	require.Error(t, err, "a persisted graph with dangling edges must be rejected on load")
}

func TestValueScalarEncoding(t *testing.T) {
	cases := []struct {
		val  Value
		json string
	}{
		{NumberValue(42), "42"},
		{NumberValue(0.5), "0.5"},
		{BoolValue(true), "true"},
		{StringValue("storm"), `"storm"`},
	}
	for _, tc := range cases {
		data, err := tc.val.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, tc.json, string(data))

		var back Value
		require.NoError(t, back.UnmarshalJSON(data))
		assert.Equal(t, tc.val, back)
	}
}

func f64(v float64) *float64 { return &v }
