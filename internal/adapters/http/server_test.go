package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/strataudio/strata/internal/adapters/http"
	"github.com/strataudio/strata/internal/logging"
	"github.com/strataudio/strata/internal/metrics"
	"github.com/strataudio/strata/pkg/adapters/memory"
	"github.com/strataudio/strata/pkg/compiler"
	"github.com/strataudio/strata/pkg/graph"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	handler := apihttp.NewHandler(store, metrics.New(), logging.NewNop())
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, store
}

func seedGraph(t *testing.T, store *memory.Store) graph.StateGraph {
	t.Helper()
	g, err := graph.FromPreset("combat")
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), g))
	return g
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGraphCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	g := graph.NewEmptyGraph("api test")
	g, err := g.AddState(graph.AudioState{Name: "Calm", IsInitial: true})
	require.NoError(t, err)

	// Create
	resp := postJSON(t, srv.URL+"/graphs", g)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[graph.StateGraph](t, resp)
	assert.Equal(t, g.ID, created.ID)

	// Read
	resp, err = http.Get(srv.URL + "/graphs/" + g.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := decode[graph.StateGraph](t, resp)
	assert.Equal(t, "api test", loaded.Name)

	// Update
	loaded.Name = "renamed"
	data, err := json.Marshal(loaded)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/graphs/"+g.ID, bytes.NewReader(data))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[graph.StateGraph](t, resp)
	assert.Equal(t, "renamed", updated.Name)

	// Delete
	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/graphs/"+g.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/graphs/" + g.ID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateRejectsInvalidGraph(t *testing.T) {
	srv, _ := newTestServer(t)

	g := graph.StateGraph{
		ID:   "bad",
		Name: "bad",
		States: []graph.AudioState{
			{ID: "dup", Name: "A"},
			{ID: "dup", Name: "B"},
		},
	}
	resp := postJSON(t, srv.URL+"/graphs", g)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

type compiledTarget struct {
	Target    string              `json:"target"`
	Files     map[string]string   `json:"files"`
	Artifacts []compiler.Artifact `json:"artifacts"`
}

func TestCompileSingleTarget(t *testing.T) {
	srv, store := newTestServer(t)
	g := seedGraph(t, store)

	resp := postJSON(t, srv.URL+"/graphs/"+g.ID+"/compile", map[string]string{"target": "unity"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	set := decode[compiledTarget](t, resp)
	assert.Equal(t, string(compiler.TargetUnity), set.Target)
	assert.NotEmpty(t, set.Artifacts)
	assert.Contains(t, set.Files, "manifest.json")
	for path, content := range set.Files {
		assert.NotEmpty(t, content, "file %s", path)
	}
}

func TestCompileAllTargets(t *testing.T) {
	srv, store := newTestServer(t)
	g := seedGraph(t, store)

	resp := postJSON(t, srv.URL+"/graphs/"+g.ID+"/compile", map[string]string{"target": "all"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Sets   []compiledTarget       `json:"sets"`
		Errors []compiler.TargetError `json:"errors"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Sets, len(compiler.Targets()))
	assert.Empty(t, body.Errors)
	for _, set := range body.Sets {
		assert.Contains(t, set.Files, set.Target+"/manifest.json")
	}
}

func TestCompileUnknownTarget(t *testing.T) {
	srv, store := newTestServer(t)
	g := seedGraph(t, store)

	resp := postJSON(t, srv.URL+"/graphs/"+g.ID+"/compile", map[string]string{"target": "ableton"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSimulateEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	g := seedGraph(t, store)

	resp := postJSON(t, srv.URL+"/graphs/"+g.ID+"/simulate", map[string]any{
		"durationMs": 1000,
		"stepMs":     100,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var timeline struct {
		Points []json.RawMessage `json:"timeline"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&timeline))
	assert.Len(t, timeline.Points, 11)
}

func TestSimulateFlatParameters(t *testing.T) {
	srv, store := newTestServer(t)
	g := seedGraph(t, store)

	// Flat parameters map plus duration, no explicit step or trajectory.
	resp := postJSON(t, srv.URL+"/graphs/"+g.ID+"/simulate", map[string]any{
		"parameters": map[string]any{"threat": 80},
		"duration":   1000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var timeline struct {
		Points []struct {
			TimeMs  int    `json:"time"`
			StateID string `json:"state"`
		} `json:"timeline"`
		StatesVisited []string `json:"statesVisited"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&timeline))
	require.Len(t, timeline.Points, 11)
	assert.Equal(t, "state-explore", timeline.Points[0].StateID)
	assert.Equal(t, "state-combat", timeline.Points[10].StateID)
	assert.Contains(t, timeline.StatesVisited, "state-combat")
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/graphs", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestValidateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	g := graph.StateGraph{
		ID:   "x",
		Name: "x",
		States: []graph.AudioState{
			{ID: "a", Name: "A", IsInitial: true},
		},
		Transitions: []graph.StateTransition{
			{ID: "t", FromStateID: "a", ToStateID: "missing"},
		},
	}
	resp := postJSON(t, srv.URL+"/validate", g)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Valid)
	assert.NotEmpty(t, body.Errors)
}

func TestPresetEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/presets")
	require.NoError(t, err)
	names := decode[[]string](t, resp)
	assert.Contains(t, names, "combat")

	resp = postJSON(t, srv.URL+"/presets/combat", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[graph.StateGraph](t, resp)
	assert.NotEmpty(t, created.States)

	resp = postJSON(t, srv.URL+"/presets/nope", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDuplicateEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	g := seedGraph(t, store)

	resp := postJSON(t, srv.URL+"/graphs/"+g.ID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	dup := decode[graph.StateGraph](t, resp)
	assert.NotEqual(t, g.ID, dup.ID)
	assert.Equal(t, g.Name+" (copy)", dup.Name)

	graphs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, graphs, 2)
}

func TestStateSubResource(t *testing.T) {
	srv, store := newTestServer(t)
	g := seedGraph(t, store)
	base := srv.URL + "/graphs/" + g.ID

	// Add
	resp := postJSON(t, base+"/states", graph.AudioState{ID: "state-boss", Name: "Boss"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[graph.StateGraph](t, resp)
	assert.Len(t, updated.States, len(g.States)+1)

	// Update via path ID
	data, err := json.Marshal(graph.AudioState{Name: "Final Boss"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, base+"/states/state-boss", bytes.NewReader(data))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated = decode[graph.StateGraph](t, resp)
	renamed, ok := updated.State("state-boss")
	require.True(t, ok)
	assert.Equal(t, "Final Boss", renamed.Name)

	// Deleting a state cascades its transitions
	req, err = http.NewRequest(http.MethodDelete, base+"/states/state-combat", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated = decode[graph.StateGraph](t, resp)
	for _, tr := range updated.Transitions {
		assert.NotEqual(t, "state-combat", tr.FromStateID)
		assert.NotEqual(t, "state-combat", tr.ToStateID)
	}
}

func TestTransitionSubResourceSelfLoopIsNoOp(t *testing.T) {
	srv, store := newTestServer(t)
	g := seedGraph(t, store)

	resp := postJSON(t, srv.URL+"/graphs/"+g.ID+"/transitions", graph.StateTransition{
		FromStateID: "state-explore",
		ToStateID:   "state-explore",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[graph.StateGraph](t, resp)
	assert.Len(t, updated.Transitions, len(g.Transitions))
}

func TestParameterSubResourceConflict(t *testing.T) {
	srv, store := newTestServer(t)
	g := seedGraph(t, store)

	// The combat preset already declares threat.
	resp := postJSON(t, srv.URL+"/graphs/"+g.ID+"/parameters", graph.Parameter{Name: "threat"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestLayerSubResource(t *testing.T) {
	srv, store := newTestServer(t)
	g := seedGraph(t, store)
	base := srv.URL + "/graphs/" + g.ID

	resp := postJSON(t, base+"/layers", graph.AudioLayer{ID: "layer-choir", Name: "Choir"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[graph.StateGraph](t, resp)
	assert.Len(t, updated.Layers, len(g.Layers)+1)

	// Deleting a layer removes it from every state's audio config.
	req, err := http.NewRequest(http.MethodDelete, base+"/layers/layer-percussion", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated = decode[graph.StateGraph](t, resp)
	for _, s := range updated.States {
		assert.NotContains(t, s.Audio.ActiveLayers, "Percussion")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
