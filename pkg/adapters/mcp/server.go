package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/recoma"
	"github.com/aretw0/recoma/pkg/domain"
	"github.com/aretw0/recoma/pkg/ports"
	"github.com/aretw0/recoma/pkg/runner"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HandlersURI lists the handlers the engine can dispatch to.
const HandlersURI = "recoma://handlers"

// SolveArgs are the arguments of the solve tool.
type SolveArgs struct {
	Question    string `json:"question"`
	ID          string `json:"id,omitempty"`
	Answer      string `json:"answer,omitempty"`
	IncludeTree bool   `json:"include_tree,omitempty"`
}

// SolveResult aligns with the HTTP SolveResponse so both adapters report the same shape.
type SolveResult struct {
	ID         string `json:"id" jsonschema_description:"Task identifier"`
	Answer     string `json:"answer" jsonschema_description:"Extracted answer"`
	Outcome    string `json:"outcome" jsonschema_description:"solved, exhausted, capped or failed"`
	Iterations int    `json:"iterations" jsonschema_description:"Number of trees popped from the frontier"`
	Correct    *bool  `json:"correct,omitempty" jsonschema_description:"Exact match against the gold answer, when one was given"`
	Tree       any    `json:"tree,omitempty" jsonschema_description:"Final reasoning tree"`
}

// ResultArgs select a stored result.
type ResultArgs struct {
	ID string `json:"id"`
}

// Solver runs one search.
type Solver interface {
	Search(ctx context.Context, task *domain.Task) (*domain.Result, error)
}

// Server exposes a Solver as an MCP server.
type Server struct {
	solver    Solver
	store     ports.ResultStore
	handlers  []string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithStore persists solved tasks and adds the get_result and list_results tools.
func WithStore(store ports.ResultStore) Option {
	return func(s *Server) { s.store = store }
}

// WithHandlers publishes the handler names on the recoma://handlers resource.
func WithHandlers(names []string) Option {
	return func(s *Server) { s.handlers = append([]string(nil), names...) }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(solver Solver, opts ...Option) *Server {
	s := &Server{
		solver: solver,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("recoma-mcp", strings.TrimSpace(recoma.Version),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for an in-process client.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on the given port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	solveTool := mcp.NewTool("solve",
		mcp.WithDescription("Search for an answer to a question by expanding a reasoning tree."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
		mcp.WithString("id", mcp.Description("Task identifier (generated when omitted)")),
		mcp.WithString("answer", mcp.Description("Gold answer used to report correctness (optional)")),
		mcp.WithBoolean("include_tree", mcp.Description("Return the final reasoning tree")),
		mcp.WithOutputSchema[SolveResult](),
	)
	s.mcpServer.AddTool(solveTool, mcp.NewStructuredToolHandler(s.handleSolve))

	if s.store == nil {
		return
	}

	s.mcpServer.AddTool(mcp.NewTool("list_results",
		mcp.WithDescription("List the IDs of stored results."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.store.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		if ids == nil {
			ids = []string{}
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_result",
		mcp.WithDescription("Load a stored result, including its final tree."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task identifier")),
	), mcp.NewTypedToolHandler(s.handleGetResult))
}

func (s *Server) handleSolve(ctx context.Context, request mcp.CallToolRequest, args SolveArgs) (SolveResult, error) {
	if args.Question == "" {
		return SolveResult{}, errors.New("question is required")
	}
	question, err := runner.SanitizeInput(args.Question)
	if err != nil {
		s.logger.Warn("MCP solve: input rejected", "err", err, "size", len(args.Question))
		return SolveResult{}, fmt.Errorf("input rejected: %w", err)
	}

	task := &domain.Task{ID: args.ID, Question: question, Answer: args.Answer}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	res, searchErr := s.solver.Search(ctx, task)
	if res != nil && s.store != nil {
		if err := s.store.Save(context.WithoutCancel(ctx), res); err != nil {
			s.logger.Error("MCP solve: could not persist result", "task", task.ID, "err", err)
		}
	}
	if searchErr != nil {
		return SolveResult{}, fmt.Errorf("search failed: %w", searchErr)
	}

	out := SolveResult{
		ID:         task.ID,
		Answer:     res.Answer,
		Outcome:    string(res.Outcome),
		Iterations: res.Iterations,
	}
	if task.Answer != "" {
		correct := res.Correct()
		out.Correct = &correct
	}
	if args.IncludeTree && res.FinalTree != nil {
		out.Tree = res.FinalTree
	}
	return out, nil
}

func (s *Server) handleGetResult(ctx context.Context, request mcp.CallToolRequest, args ResultArgs) (*mcp.CallToolResult, error) {
	res, err := s.store.Load(ctx, args.ID)
	if errors.Is(err, domain.ErrResultNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no result for %q", args.ID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	jsonBytes, err := json.Marshal(res)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(HandlersURI, "Registered Handlers",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names := s.handlers
		if names == nil {
			names = []string{}
		}
		jsonBytes, err := json.Marshal(names)
		if err != nil {
			return nil, fmt.Errorf("failed to encode handlers: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      HandlersURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
