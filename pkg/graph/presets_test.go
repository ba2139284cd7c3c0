package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetsAreValid(t *testing.T) {
	for _, name := range Presets() {
		t.Run(name, func(t *testing.T) {
			g, err := FromPreset(name)
			require.NoError(t, err)
			require.NoError(t, Validate(g))

			assert.NotEmpty(t, g.States)
			_, ok := g.InitialState()
			assert.True(t, ok)
		})
	}
}

func TestCombatPresetShape(t *testing.T) {
	g, err := FromPreset("combat")
	require.NoError(t, err)

	initial, ok := g.InitialState()
	require.True(t, ok)
	assert.Equal(t, "Explore", initial.Name)

	p, ok := g.Parameter("threat")
	require.True(t, ok)
	assert.Equal(t, ParameterNumber, p.Type)
	require.NotNil(t, p.Max)
	assert.Equal(t, 100.0, *p.Max)

	tr, ok := g.Transition("tr-explore-combat")
	require.True(t, ok)
	require.Len(t, tr.Conditions, 1)
	assert.Equal(t, NumberValue(50), tr.Conditions[0].Value)
}

func TestFromPresetUnknownName(t *testing.T) {
	_, err := FromPreset("does-not-exist")
	require.Error(t, err)
}
