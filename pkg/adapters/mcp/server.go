// Package mcp exposes graph validation, simulation and compilation as MCP
// tools, so agent clients can drive the toolchain over stdio or SSE.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/strataudio/strata"
	"github.com/strataudio/strata/pkg/compiler"
	"github.com/strataudio/strata/pkg/graph"
	"github.com/strataudio/strata/pkg/ports"
	"github.com/strataudio/strata/pkg/sim"
)

// CompileResponse is the structured result of the compile_graph tool.
type CompileResponse struct {
	Target string            `json:"target" jsonschema_description:"Target the artifacts were compiled for"`
	Files  map[string]string `json:"files" jsonschema_description:"Artifact path to content"`
}

// ValidateResponse is the structured result of the validate_graph tool.
type ValidateResponse struct {
	Valid  bool     `json:"valid" jsonschema_description:"Whether the graph passed validation"`
	Errors []string `json:"errors" jsonschema_description:"Validation failures, empty when valid"`
}

// Server exposes the compiler and simulator as an MCP server. Graphs come
// either inline as JSON or by ID from the backing store.
type Server struct {
	store     ports.GraphStore
	compiler  *compiler.Compiler
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(store ports.GraphStore) *Server {
	s := &Server{
		store:     store,
		compiler:  compiler.New(),
		mcpServer: server.NewMCPServer("strata-mcp", strings.TrimSpace(strata.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: validate_graph
	validateTool := mcp.NewTool("validate_graph",
		mcp.WithDescription("Validate a graph's structural invariants. Accepts an inline graph or a stored graph ID."),
		mcp.WithString("graph", mcp.Description("Graph definition as JSON (optional if graph_id is provided)")),
		mcp.WithString("graph_id", mcp.Description("ID of a stored graph (optional if graph is provided)")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: compile_graph
	compileTool := mcp.NewTool("compile_graph",
		mcp.WithDescription("Compile a graph into middleware artifacts for one target."),
		mcp.WithString("target", mcp.Required(), mcp.Description("One of: wwise, fmod, unity, unreal, puredata, webaudio")),
		mcp.WithString("graph", mcp.Description("Graph definition as JSON (optional if graph_id is provided)")),
		mcp.WithString("graph_id", mcp.Description("ID of a stored graph (optional if graph is provided)")),
		mcp.WithOutputSchema[CompileResponse](),
	)
	s.mcpServer.AddTool(compileTool, mcp.NewStructuredToolHandler(s.handleCompile))

	// TOOL: simulate_graph
	simulateTool := mcp.NewTool("simulate_graph",
		mcp.WithDescription("Run a deterministic offline simulation of a graph against a parameter trajectory."),
		mcp.WithString("graph", mcp.Description("Graph definition as JSON (optional if graph_id is provided)")),
		mcp.WithString("graph_id", mcp.Description("ID of a stored graph (optional if graph is provided)")),
		mcp.WithString("trajectory", mcp.Description("JSON array of keyframes: [{\"atMs\": 0, \"values\": {...}}]")),
		mcp.WithNumber("duration_ms", mcp.Required(), mcp.Description("Total simulated time in milliseconds")),
		mcp.WithNumber("step_ms", mcp.Description("Sampling step in milliseconds (default 100)")),
		mcp.WithOutputSchema[sim.Timeline](),
	)
	s.mcpServer.AddTool(simulateTool, mcp.NewStructuredToolHandler(s.handleSimulate))

	// TOOL: list_targets
	s.mcpServer.AddTool(mcp.NewTool("list_targets",
		mcp.WithDescription("List the supported compilation targets."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(compiler.Targets())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) resolveGraph(ctx context.Context, args map[string]interface{}) (graph.StateGraph, error) {
	if raw, ok := args["graph"].(string); ok && raw != "" {
		return graph.Unmarshal([]byte(raw))
	}
	if id, ok := args["graph_id"].(string); ok && id != "" {
		return s.store.Load(ctx, id)
	}
	return graph.StateGraph{}, fmt.Errorf("either graph or graph_id is required")
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	var g graph.StateGraph
	if raw, ok := args["graph"].(string); ok && raw != "" {
		// Decode without validating; validation is the point of this tool.
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return ValidateResponse{}, fmt.Errorf("graph is not valid JSON: %w", err)
		}
	} else {
		var err error
		g, err = s.resolveGraph(ctx, args)
		if err != nil {
			return ValidateResponse{}, err
		}
	}

	resp := ValidateResponse{Valid: true, Errors: []string{}}
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
	return resp, nil
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CompileResponse, error) {
	targetName, _ := args["target"].(string)
	target, err := compiler.ParseTarget(targetName)
	if err != nil {
		return CompileResponse{}, err
	}

	g, err := s.resolveGraph(ctx, args)
	if err != nil {
		return CompileResponse{}, err
	}

	set, err := s.compiler.Compile(g, target)
	if err != nil {
		return CompileResponse{}, fmt.Errorf("compile failed: %w", err)
	}

	return CompileResponse{Target: string(set.Target), Files: set.Files()}, nil
}

func (s *Server) handleSimulate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (sim.Timeline, error) {
	g, err := s.resolveGraph(ctx, args)
	if err != nil {
		return sim.Timeline{}, err
	}

	var traj sim.Trajectory
	if raw, ok := args["trajectory"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &traj); err != nil {
			return sim.Timeline{}, fmt.Errorf("trajectory is not valid JSON: %w", err)
		}
	}

	durationMs := 0
	if v, ok := args["duration_ms"].(float64); ok {
		durationMs = int(v)
	}
	stepMs := 0
	if v, ok := args["step_ms"].(float64); ok {
		stepMs = int(v)
	}

	timeline, err := sim.Simulate(g, traj, durationMs, stepMs)
	if err != nil {
		return sim.Timeline{}, fmt.Errorf("simulate failed: %w", err)
	}
	return timeline, nil
}

func (s *Server) registerResources() {
	// EXPOSE: strata://presets
	s.mcpServer.AddResource(mcp.NewResource("strata://presets", "Graph Presets",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(graph.Presets())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "strata://presets",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
