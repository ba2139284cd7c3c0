package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataudio/strata/pkg/adapters/memory"
	"github.com/strataudio/strata/pkg/graph"
)

func newTestServer(t *testing.T) (*Server, graph.StateGraph) {
	t.Helper()
	store := memory.NewStore()
	g, err := graph.FromPreset("combat")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), g))
	return NewServer(store), g
}

func inlineGraph(t *testing.T, g graph.StateGraph) string {
	t.Helper()
	data, err := json.Marshal(g)
	require.NoError(t, err)
	return string(data)
}

func TestResolveGraphPrefersInline(t *testing.T) {
	srv, stored := newTestServer(t)

	inline := graph.NewEmptyGraph("inline")
	inline, err := inline.AddState(graph.AudioState{Name: "Only", IsInitial: true})
	require.NoError(t, err)

	g, err := srv.resolveGraph(context.Background(), map[string]interface{}{
		"graph":    inlineGraph(t, inline),
		"graph_id": stored.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "inline", g.Name)
}

func TestResolveGraphByID(t *testing.T) {
	srv, stored := newTestServer(t)

	g, err := srv.resolveGraph(context.Background(), map[string]interface{}{
		"graph_id": stored.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, stored.Name, g.Name)

	_, err = srv.resolveGraph(context.Background(), map[string]interface{}{})
	assert.Error(t, err)
}

func TestHandleValidateReportsViolations(t *testing.T) {
	srv, _ := newTestServer(t)

	bad := `{"id":"x","name":"x","states":[{"id":"a","name":"A","isInitial":true}],` +
		`"transitions":[{"id":"t","fromStateId":"a","toStateId":"missing"}]}`

	resp, err := srv.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"graph": bad,
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Errors)
}

func TestHandleValidateOK(t *testing.T) {
	srv, stored := newTestServer(t)

	resp, err := srv.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"graph_id": stored.ID,
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Errors)
}

func TestHandleCompile(t *testing.T) {
	srv, stored := newTestServer(t)

	resp, err := srv.handleCompile(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"target":   "unity",
		"graph_id": stored.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "unity", resp.Target)
	assert.Contains(t, resp.Files, "manifest.json")

	_, err = srv.handleCompile(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"target":   "ableton",
		"graph_id": stored.ID,
	})
	assert.Error(t, err)
}

func TestHandleSimulate(t *testing.T) {
	srv, stored := newTestServer(t)

	timeline, err := srv.handleSimulate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"graph_id":    stored.ID,
		"trajectory":  `[{"atMs": 0, "values": {"threat": 90}}]`,
		"duration_ms": float64(2000),
		"step_ms":     float64(100),
	})
	require.NoError(t, err)
	assert.Len(t, timeline.Points, 21)
	assert.Contains(t, timeline.StatesVisited, "state-combat")
}
