package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataudio/strata/pkg/graph"
)

func numCond(param string, op graph.Operator, v float64) graph.TransitionCondition {
	return graph.TransitionCondition{
		Kind:      graph.ConditionParameter,
		Parameter: param,
		Operator:  op,
		Value:     graph.NumberValue(v),
	}
}

func TestConditionOperators(t *testing.T) {
	snap := Snapshot{"threat": graph.NumberValue(50)}

	cases := []struct {
		op   graph.Operator
		v    float64
		want bool
	}{
		{graph.OpGreater, 49, true},
		{graph.OpGreater, 50, false},
		{graph.OpLess, 51, true},
		{graph.OpLess, 50, false},
		{graph.OpGreaterEqual, 50, true},
		{graph.OpGreaterEqual, 51, false},
		{graph.OpLessEqual, 50, true},
		{graph.OpLessEqual, 49, false},
		{graph.OpEqual, 50, true},
		{graph.OpEqual, 49, false},
	}
	for _, tc := range cases {
		got := Condition(numCond("threat", tc.op, tc.v), snap, 0)
		assert.Equal(t, tc.want, got, "threat=50 %s %v", tc.op, tc.v)
	}
}

func TestConditionUnknownParameterIsFalse(t *testing.T) {
	snap := Snapshot{}
	assert.False(t, Condition(numCond("missing", graph.OpGreater, 0), snap, 0),
		"unknown parameter must evaluate false, never error")
}

func TestConditionNaNIsFalseForEveryOperator(t *testing.T) {
	snap := Snapshot{"threat": graph.NumberValue(math.NaN())}
	ops := []graph.Operator{graph.OpGreater, graph.OpLess, graph.OpGreaterEqual, graph.OpLessEqual, graph.OpEqual}
	for _, op := range ops {
		assert.False(t, Condition(numCond("threat", op, 10), snap, 0), "NaN %s 10", op)
	}
}

func TestConditionTypeMismatchIsFalse(t *testing.T) {
	snap := Snapshot{"threat": graph.StringValue("high")}
	assert.False(t, Condition(numCond("threat", graph.OpGreater, 10), snap, 0))
}

func TestConditionBooleanAndString(t *testing.T) {
	snap := Snapshot{
		"raining": graph.BoolValue(true),
		"zone":    graph.StringValue("cave"),
	}

	boolCond := graph.TransitionCondition{
		Kind: graph.ConditionParameter, Parameter: "raining",
		Operator: graph.OpEqual, Value: graph.BoolValue(true),
	}
	assert.True(t, Condition(boolCond, snap, 0))

	strCond := graph.TransitionCondition{
		Kind: graph.ConditionParameter, Parameter: "zone",
		Operator: graph.OpEqual, Value: graph.StringValue("cave"),
	}
	assert.True(t, Condition(strCond, snap, 0))

	// Ordering operators are meaningless for non-numeric types.
	strCond.Operator = graph.OpGreater
	assert.False(t, Condition(strCond, snap, 0))
}

func TestStateDurationCondition(t *testing.T) {
	c := graph.NewDurationCondition(3000)
	assert.False(t, Condition(c, nil, 2999))
	assert.True(t, Condition(c, nil, 3000))
	assert.True(t, Condition(c, nil, 3001))
}

func TestTransitionAndLogic(t *testing.T) {
	snap := Snapshot{"threat": graph.NumberValue(60)}

	tr := graph.StateTransition{
		Logic: graph.LogicAnd,
		Conditions: []graph.TransitionCondition{
			numCond("threat", graph.OpGreater, 50),
			graph.NewDurationCondition(1000),
		},
	}
	assert.False(t, Transition(tr, snap, 500))
	assert.True(t, Transition(tr, snap, 1500))
}

func TestTransitionAndVacuouslyTrue(t *testing.T) {
	tr := graph.StateTransition{Logic: graph.LogicAnd}
	assert.True(t, Transition(tr, Snapshot{}, 0),
		"an AND transition with no conditions is always eligible")
}

func TestTransitionOrVacuouslyFalse(t *testing.T) {
	// Counterintuitive but specified: OR over an empty condition list is
	// false, so an OR transition with zero conditions never fires.
	tr := graph.StateTransition{Logic: graph.LogicOr}
	assert.False(t, Transition(tr, Snapshot{}, 0))
	assert.False(t, Transition(tr, Snapshot{}, 999999))
}

func TestTransitionOrLogic(t *testing.T) {
	snap := Snapshot{"threat": graph.NumberValue(10)}
	tr := graph.StateTransition{
		Logic: graph.LogicOr,
		Conditions: []graph.TransitionCondition{
			numCond("threat", graph.OpGreater, 50),
			graph.NewDurationCondition(1000),
		},
	}
	assert.False(t, Transition(tr, snap, 0))
	assert.True(t, Transition(tr, snap, 1200), "one true branch is enough under OR")
}

func TestSelectHighestPriority(t *testing.T) {
	candidates := []graph.StateTransition{
		{ID: "low", Priority: 1, Logic: graph.LogicAnd},
		{ID: "high", Priority: 10, Logic: graph.LogicAnd},
		{ID: "mid", Priority: 5, Logic: graph.LogicAnd},
	}
	best, ok := Select(candidates, Snapshot{}, 0)
	require.True(t, ok)
	assert.Equal(t, "high", best.ID)
}

func TestSelectTieBreaksOnLowestID(t *testing.T) {
	candidates := []graph.StateTransition{
		{ID: "zz", Priority: 5, Logic: graph.LogicAnd},
		{ID: "aa", Priority: 5, Logic: graph.LogicAnd},
		{ID: "mm", Priority: 5, Logic: graph.LogicAnd},
	}
	best, ok := Select(candidates, Snapshot{}, 0)
	require.True(t, ok)
	assert.Equal(t, "aa", best.ID, "equal priority must deterministically pick the lowest ID")
}

func TestSelectSkipsIneligible(t *testing.T) {
	snap := Snapshot{"threat": graph.NumberValue(0)}
	candidates := []graph.StateTransition{
		{ID: "guarded", Priority: 10, Logic: graph.LogicAnd,
			Conditions: []graph.TransitionCondition{numCond("threat", graph.OpGreater, 50)}},
		{ID: "open", Priority: 1, Logic: graph.LogicAnd},
	}
	best, ok := Select(candidates, snap, 0)
	require.True(t, ok)
	assert.Equal(t, "open", best.ID)
}

func TestSelectNoneEligible(t *testing.T) {
	candidates := []graph.StateTransition{
		{ID: "or-empty", Priority: 10, Logic: graph.LogicOr},
	}
	_, ok := Select(candidates, Snapshot{}, 0)
	assert.False(t, ok)
}

func TestSnapshotFromDefaults(t *testing.T) {
	g := graph.NewEmptyGraph("t")
	g, err := g.AddParameter(graph.Parameter{Name: "threat", Type: graph.ParameterNumber, Default: graph.NumberValue(5)})
	require.NoError(t, err)
	g, err = g.AddParameter(graph.Parameter{Name: "raining", Type: graph.ParameterBoolean})
	require.NoError(t, err)

	snap := SnapshotFromDefaults(g)
	assert.Equal(t, graph.NumberValue(5), snap["threat"])
	assert.Equal(t, graph.BoolValue(false), snap["raining"])
}
