package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpAdapter "github.com/aretw0/recoma/pkg/adapters/http"
	"github.com/aretw0/recoma/pkg/adapters/mcp"
	"github.com/aretw0/recoma/pkg/observability"
)

// ServeOptions configures the HTTP and MCP servers.
type ServeOptions struct {
	LogOptions
	ConfigPath string
	TraceFile  string
	Port       int
	// Timeout bounds each HTTP search; zero means no bound.
	Timeout time.Duration
}

// Serve runs the HTTP API until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, opts ServeOptions, out io.Writer) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}

	s, err := openSession(sessionOptions{
		LogOptions: opts.LogOptions,
		ConfigPath: opts.ConfigPath,
		TraceFile:  opts.TraceFile,
		Hooks:      metrics.Hooks(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	handler, err := httpAdapter.NewHandler(s.components.Engine,
		httpAdapter.WithStore(s.components.Store),
		httpAdapter.WithGatherer(reg),
		httpAdapter.WithTimeout(opts.Timeout),
		httpAdapter.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(out, "Starting recoma server on %s\n", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		fmt.Fprintln(out, "\nStart shutdown...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", 5*time.Second, err)
		}
		fmt.Fprintln(out, "recoma server stopped gracefully")
		return nil
	}
}

// MCPOptions configures the MCP server.
type MCPOptions struct {
	LogOptions
	ConfigPath string
	Transport  string
	Port       int
}

// ServeMCP exposes the configured engine as MCP tools over stdio or SSE.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	s, err := openSession(sessionOptions{
		LogOptions: opts.LogOptions,
		ConfigPath: opts.ConfigPath,
	})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	mcpOpts := []mcp.Option{
		mcp.WithHandlers(s.components.Handlers.Names()),
		mcp.WithLogger(s.logger),
	}
	if s.components.Store != nil {
		mcpOpts = append(mcpOpts, mcp.WithStore(s.components.Store))
	}
	srv := mcp.NewServer(s.components.Engine, mcpOpts...)

	switch opts.Transport {
	case "", "stdio":
		s.logger.Info("Starting recoma MCP Server (Stdio)...")
		return srv.ServeStdio()
	case "sse":
		s.logger.Info("Starting recoma MCP Server (SSE)", "port", opts.Port)
		return srv.ServeSSE(ctx, opts.Port)
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", opts.Transport)
	}
}
