// Package http exposes the graph store, compiler and simulator over a JSON
// API. Handlers are hand-written chi routes; the surface is small enough
// that a generated server would cost more than it saves.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/strataudio/strata/internal/metrics"
	"github.com/strataudio/strata/pkg/compiler"
	"github.com/strataudio/strata/pkg/graph"
	"github.com/strataudio/strata/pkg/ports"
	"github.com/strataudio/strata/pkg/sim"
)

// Server routes API requests onto the store and the pure toolchain.
type Server struct {
	store    ports.GraphStore
	compiler *compiler.Compiler
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewHandler builds the full API handler.
func NewHandler(store ports.GraphStore, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	s := &Server{
		store:    store,
		compiler: compiler.New(),
		metrics:  m,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", m.Handler())

	r.Get("/targets", s.listTargets)
	r.Get("/presets", s.listPresets)
	r.Post("/presets/{name}", s.createFromPreset)
	r.Post("/validate", s.validateGraph)

	r.Route("/graphs", func(r chi.Router) {
		r.Get("/", s.listGraphs)
		r.Post("/", s.createGraph)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getGraph)
			r.Put("/", s.updateGraph)
			r.Delete("/", s.deleteGraph)
			r.Post("/duplicate", s.duplicateGraph)
			r.Post("/compile", s.compileGraph)
			r.Post("/simulate", s.simulateGraph)

			r.Post("/states", s.addState)
			r.Put("/states/{stateID}", s.updateState)
			r.Delete("/states/{stateID}", s.deleteState)

			r.Post("/transitions", s.addTransition)
			r.Put("/transitions/{transitionID}", s.updateTransition)
			r.Delete("/transitions/{transitionID}", s.deleteTransition)

			r.Post("/parameters", s.addParameter)
			r.Put("/parameters/{name}", s.updateParameter)
			r.Delete("/parameters/{name}", s.deleteParameter)

			r.Post("/layers", s.addLayer)
			r.Put("/layers/{layerID}", s.updateLayer)
			r.Delete("/layers/{layerID}", s.deleteLayer)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, compiler.Targets())
}

func (s *Server) listPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, graph.Presets())
}

func (s *Server) createFromPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	g, err := graph.FromPreset(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("graph created from preset", "preset", name, "graph", g.ID)
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) validateGraph(w http.ResponseWriter, r *http.Request) {
	var g graph.StateGraph
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	resp := struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}{Valid: true, Errors: []string{}}

	if err := graph.Validate(g); err != nil {
		resp.Valid = false
		if errs := graph.ValidationErrors(err); len(errs) > 0 {
			for _, e := range errs {
				resp.Errors = append(resp.Errors, e.Error())
			}
		} else {
			resp.Errors = append(resp.Errors, err.Error())
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.GraphsStored.Set(float64(len(graphs)))
	writeJSON(w, http.StatusOK, graphs)
}

func (s *Server) createGraph(w http.ResponseWriter, r *http.Request) {
	var g graph.StateGraph
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if err := graph.Validate(g); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("graph created", "graph", g.ID, "name", g.Name)
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) updateGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Load(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}

	var g graph.StateGraph
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	g.ID = id // the path wins over the body
	if err := graph.Validate(g); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) deleteGraph(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) duplicateGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.load(w, r)
	if !ok {
		return
	}
	dup := g.Duplicate()
	if err := s.store.Save(r.Context(), dup); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}

type compileRequest struct {
	Target string `json:"target"`
}

// compileResponse is the wire shape for one compiled target: a flat
// path→content map, the contract asset pipelines consume, with the typed
// artifact list riding alongside.
type compileResponse struct {
	Target    compiler.Target     `json:"target"`
	Files     map[string]string   `json:"files"`
	Artifacts []compiler.Artifact `json:"artifacts"`
}

func newCompileResponse(set compiler.ArtifactSet) compileResponse {
	return compileResponse{
		Target:    set.Target,
		Files:     set.Files(),
		Artifacts: set.Artifacts,
	}
}

type compileAllResponse struct {
	Sets   []compileResponse      `json:"sets"`
	Errors []compiler.TargetError `json:"errors"`
}

func (s *Server) compileGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.load(w, r)
	if !ok {
		return
	}

	var req compileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if req.Target == "all" {
		started := time.Now()
		sets, errs := s.compiler.CompileAll(g)
		resp := compileAllResponse{Sets: make([]compileResponse, 0, len(sets)), Errors: errs}
		for _, set := range sets {
			s.metrics.ObserveCompile(string(set.Target), time.Since(started), false)
			resp.Sets = append(resp.Sets, newCompileResponse(set))
		}
		for _, terr := range errs {
			s.metrics.ObserveCompile(string(terr.Target), time.Since(started), true)
			s.logger.Warn("target compile failed", "graph", g.ID, "target", terr.Target, "error", terr.Message)
		}
		// Partial success is still success; errors ride along per target.
		writeJSON(w, http.StatusOK, resp)
		return
	}

	target, err := compiler.ParseTarget(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	started := time.Now()
	set, err := s.compiler.Compile(g, target)
	s.metrics.ObserveCompile(string(target), time.Since(started), err != nil)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, newCompileResponse(set))
}

// simulateRequest accepts either a keyframe trajectory or a flat parameters
// map, which holds those values constant for the whole run. duration/step
// are the canonical field names; durationMs/stepMs are honored too.
type simulateRequest struct {
	Trajectory sim.Trajectory `json:"trajectory"`
	Parameters map[string]any `json:"parameters"`
	Duration   int            `json:"duration"`
	Step       int            `json:"step"`
	DurationMs int            `json:"durationMs"`
	StepMs     int            `json:"stepMs"`
}

func (s *Server) simulateGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.load(w, r)
	if !ok {
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	traj := req.Trajectory
	if len(traj) == 0 && len(req.Parameters) > 0 {
		traj = sim.Constant(req.Parameters)
	}
	duration := req.Duration
	if duration == 0 {
		duration = req.DurationMs
	}
	step := req.Step
	if step == 0 {
		step = req.StepMs
	}

	timeline, err := sim.Simulate(g, traj, duration, step)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.metrics.Simulations.Inc()
	for i := 1; i < len(timeline.Points); i++ {
		if timeline.Points[i].StateID != timeline.Points[i-1].StateID {
			s.metrics.SimulatedTransitions.Inc()
		}
	}
	writeJSON(w, http.StatusOK, timeline)
}

// mutate loads the graph, applies one mutation and persists the result.
// Every sub-resource handler responds with the full updated graph so
// clients never need a follow-up GET.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, apply func(graph.StateGraph) (graph.StateGraph, error)) {
	g, ok := s.load(w, r)
	if !ok {
		return
	}
	next, err := apply(g)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.store.Save(r.Context(), next); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return v, false
	}
	return v, true
}

func (s *Server) addState(w http.ResponseWriter, r *http.Request) {
	st, ok := decodeBody[graph.AudioState](w, r)
	if !ok {
		return
	}
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.AddState(st)
	})
}

func (s *Server) updateState(w http.ResponseWriter, r *http.Request) {
	st, ok := decodeBody[graph.AudioState](w, r)
	if !ok {
		return
	}
	st.ID = chi.URLParam(r, "stateID")
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.UpdateState(st)
	})
}

func (s *Server) deleteState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stateID")
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.DeleteState(id)
	})
}

func (s *Server) addTransition(w http.ResponseWriter, r *http.Request) {
	t, ok := decodeBody[graph.StateTransition](w, r)
	if !ok {
		return
	}
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.AddTransition(t)
	})
}

func (s *Server) updateTransition(w http.ResponseWriter, r *http.Request) {
	t, ok := decodeBody[graph.StateTransition](w, r)
	if !ok {
		return
	}
	t.ID = chi.URLParam(r, "transitionID")
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.UpdateTransition(t)
	})
}

func (s *Server) deleteTransition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transitionID")
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.DeleteTransition(id)
	})
}

func (s *Server) addParameter(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeBody[graph.Parameter](w, r)
	if !ok {
		return
	}
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.AddParameter(p)
	})
}

func (s *Server) updateParameter(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeBody[graph.Parameter](w, r)
	if !ok {
		return
	}
	p.Name = chi.URLParam(r, "name")
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.UpdateParameter(p)
	})
}

func (s *Server) deleteParameter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.DeleteParameter(name)
	})
}

func (s *Server) addLayer(w http.ResponseWriter, r *http.Request) {
	l, ok := decodeBody[graph.AudioLayer](w, r)
	if !ok {
		return
	}
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.AddLayer(l)
	})
}

func (s *Server) updateLayer(w http.ResponseWriter, r *http.Request) {
	l, ok := decodeBody[graph.AudioLayer](w, r)
	if !ok {
		return
	}
	l.ID = chi.URLParam(r, "layerID")
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.UpdateLayer(l)
	})
}

func (s *Server) deleteLayer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "layerID")
	s.mutate(w, r, func(g graph.StateGraph) (graph.StateGraph, error) {
		return g.DeleteLayer(id)
	})
}

// load resolves the {id} path parameter or writes the error response.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (graph.StateGraph, bool) {
	g, err := s.store.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return graph.StateGraph{}, false
	}
	return g, true
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, graph.ErrGraphNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
