package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/scheduler"
)

const (
	graphsURI    = "lattice://graphs"
	graphURIBase = "lattice://graphs/"
	runURIBase   = "lattice://runs/"
)

// RunResponse is the structured result of run_graph and get_run.
type RunResponse struct {
	Run   *domain.RunRecord `json:"run" jsonschema_description:"Record of the run: statuses, results and errors per node"`
	Error string            `json:"error,omitempty" jsonschema_description:"Set when the run could not start"`
}

// Server exposes a ports.Runner as an MCP server.
type Server struct {
	runner    ports.Runner
	loader    ports.GraphLoader
	store     ports.RunStore
	mcpServer *server.MCPServer
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLoader lets tools address graphs by id and publishes them as resources.
func WithLoader(l ports.GraphLoader) ServerOption {
	return func(s *Server) { s.loader = l }
}

// WithStore publishes finished runs as resources and to get_run.
func WithStore(st ports.RunStore) ServerOption {
	return func(s *Server) { s.store = st }
}

// NewServer creates a new MCP Server instance.
func NewServer(runner ports.Runner, opts ...ServerOption) *Server {
	s := &Server{
		runner:    runner,
		mcpServer: server.NewMCPServer("lattice-mcp", strings.TrimSpace(lattice.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
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

func (s *Server) registerTools() {
	graphArgs := []mcp.ToolOption{
		mcp.WithString("graph", mcp.Description("Graph document (JSON or YAML). Either graph or graph_id is required.")),
		mcp.WithString("graph_id", mcp.Description("Id of a graph known to the server")),
	}

	runTool := mcp.NewTool("run_graph", append([]mcp.ToolOption{
		mcp.WithDescription("Execute a workflow graph and return the run record."),
		mcp.WithString("variables", mcp.Description("JSON object of initial variables (optional)")),
		mcp.WithOutputSchema[RunResponse](),
	}, graphArgs...)...)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunGraph))

	planTool := mcp.NewTool("plan_graph", append([]mcp.ToolOption{
		mcp.WithDescription("Validate a graph and return its execution order and parallel groups without running it."),
		mcp.WithOutputSchema[scheduler.Plan](),
	}, graphArgs...)...)
	s.mcpServer.AddTool(planTool, mcp.NewStructuredToolHandler(s.handlePlanGraph))

	s.mcpServer.AddTool(mcp.NewTool("cancel_run",
		mcp.WithDescription("Request cancellation of an in-flight run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runID, err := request.RequireString("run_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.runner.Cancel(runID); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("cancelling " + runID), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get the record of an in-flight or finished run."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id")),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetRun))
}

func (s *Server) handleRunGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	g, err := s.graphFromArgs(ctx, args)
	if err != nil {
		return RunResponse{}, err
	}
	var vars map[string]any
	if raw, ok := args["variables"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &vars); err != nil {
			return RunResponse{}, fmt.Errorf("invalid variables: %w", err)
		}
	}
	run, err := s.runner.Run(ctx, g, vars)
	resp := RunResponse{Run: run.Snapshot()}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

func (s *Server) handlePlanGraph(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (scheduler.Plan, error) {
	g, err := s.graphFromArgs(ctx, args)
	if err != nil {
		return scheduler.Plan{}, err
	}
	plan, err := s.runner.Plan(g)
	if err != nil {
		return scheduler.Plan{}, err
	}
	return *plan, nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	runID, _ := args["run_id"].(string)
	rec, err := s.lookupRun(ctx, runID)
	if err != nil {
		return RunResponse{}, err
	}
	return RunResponse{Run: rec}, nil
}

func (s *Server) lookupRun(ctx context.Context, runID string) (*domain.RunRecord, error) {
	if run, ok := s.runner.Active(runID); ok {
		return run.Snapshot(), nil
	}
	if s.store == nil {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrRunNotFound)
	}
	return s.store.Load(ctx, runID)
}

func (s *Server) graphFromArgs(ctx context.Context, args map[string]interface{}) (*domain.Graph, error) {
	if doc, ok := args["graph"].(string); ok && strings.TrimSpace(doc) != "" {
		ext := ".yaml"
		if strings.HasPrefix(strings.TrimSpace(doc), "{") {
			ext = ".json"
		}
		return file.Parse([]byte(doc), ext)
	}
	id, _ := args["graph_id"].(string)
	if id == "" {
		return nil, errors.New("graph or graph_id is required")
	}
	if s.loader == nil {
		return nil, errors.New("graph_id requires a graph loader")
	}
	return s.loader.Load(ctx, id)
}

func (s *Server) registerResources() {
	if s.loader != nil {
		s.mcpServer.AddResource(mcp.NewResource(graphsURI, "Available graphs",
			mcp.WithMIMEType("application/json"),
		), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			ids, err := s.loader.List(ctx)
			if err != nil {
				return nil, err
			}
			return jsonContents(graphsURI, ids)
		})

		s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(graphURIBase+"{id}", "Graph definition",
			mcp.WithTemplateMIMEType("application/json"),
		), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			g, err := s.loader.Load(ctx, strings.TrimPrefix(request.Params.URI, graphURIBase))
			if err != nil {
				return nil, err
			}
			return jsonContents(request.Params.URI, g)
		})
	}

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(runURIBase+"{id}", "Run record",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		rec, err := s.lookupRun(ctx, strings.TrimPrefix(request.Params.URI, runURIBase))
		if err != nil {
			return nil, err
		}
		return jsonContents(request.Params.URI, rec)
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
